package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "splitledger",
		Short:        "SplitLedger expense-splitting client",
		Long:         `A command line client for the SplitLedger API: groups, shared expenses, settlements and reports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if a == nil {
				return nil
			}
			if opts.dumpMetrics {
				if err := a.metrics.WriteText(cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			return a.close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "Load configuration from this .env file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override LOG_LEVEL (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	flags.BoolVar(&opts.dumpMetrics, "metrics", false, "Print client metrics to stderr on exit")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		registerCmd(),
		forgotPasswordCmd(),
		resetPasswordCmd(),
		whoamiCmd(),
		groupsCmd(),
		expensesCmd(),
		settlementsCmd(),
		balancesCmd(),
		reportCmd(),
	)

	return rootCmd
}
