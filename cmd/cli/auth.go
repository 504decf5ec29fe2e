package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/usecase"
)

func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			session, err := a.auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			a.logger.Debug().Str("user", session.User.ID).Msg("logged in")
			if a.json {
				return printJSON(cmd.OutOrStdout(), sessionView(session))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.User.AsMember().DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func registerCmd() *cobra.Command {
	var input usecase.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input.ConfirmPassword == "" {
				input.ConfirmPassword = input.Password
			}
			if err := appFrom(cmd).auth.Register(cmd.Context(), input); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created, you can now log in")
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password")
	cmd.Flags().StringVar(&input.ConfirmPassword, "confirm", "", "Password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func forgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset token by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).auth.ForgotPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a reset token was sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func resetPasswordCmd() *cobra.Command {
	var token, password, confirm string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with a reset token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm == "" {
				confirm = password
			}
			if err := appFrom(cmd).auth.ResetPassword(cmd.Context(), token, password, confirm); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reset token")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Password confirmation (defaults to --password)")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if a.json {
				return printJSON(cmd.OutOrStdout(), sessionView(session))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s> (id %s)\n", session.User.AsMember().DisplayName(), session.User.Email, session.User.ID)
			if !session.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "Session expires %s\n", session.ExpiresAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
