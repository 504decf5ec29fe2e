package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

func settlementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settlements",
		Aliases: []string{"settle"},
		Short:   "Record and list payments between members",
	}

	cmd.AddCommand(settlementListCmd(), settlementRecordCmd())

	return cmd
}

func settlementListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <group-id>",
		Short: "List the settlements of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			settlements, err := a.settlements.List(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}

			if a.json {
				return printJSON(cmd.OutOrStdout(), settlementViews(settlements))
			}
			return printSettlements(cmd.OutOrStdout(), settlements, a.cfg.Currency)
		},
	}
}

func settlementRecordCmd() *cobra.Command {
	var from, to, amount, date string

	cmd := &cobra.Command{
		Use:   "record <group-id>",
		Short: "Record a payment from one member to another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			session, err := a.session(ctx)
			if err != nil {
				return err
			}

			input := usecase.RecordSettlementInput{GroupID: args[0]}
			if input.Amount, err = domain.ParseAmount(amount); err != nil {
				return err
			}
			if input.Date, err = parseDate(date); err != nil {
				return err
			}

			refs := newMemberResolver(a, session, args[0])
			if from == "" {
				from = session.User.ID
			}
			if input.PayerID, err = refs.resolve(ctx, from); err != nil {
				return err
			}
			if input.PayeeID, err = refs.resolve(ctx, to); err != nil {
				return err
			}

			settlements, err := a.settlements.Record(ctx, session, input)
			if err != nil {
				return err
			}

			a.logger.Info().Str("group", args[0]).Str("amount", input.Amount.String()).Msg("settlement recorded")
			if a.json {
				return printJSON(cmd.OutOrStdout(), settlementViews(settlements))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded payment of %s\n", money(input.Amount, a.cfg.Currency))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Member ID or email of the payer (defaults to you)")
	cmd.Flags().StringVar(&to, "to", "", "Member ID or email of the payee")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount paid")
	cmd.Flags().StringVar(&date, "date", "", "Date as YYYY-MM-DD (defaults to today)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
