package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/ledger"
	"github.com/iho/splitledger/internal/usecase"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense"},
		Short:   "Record and list shared expenses",
	}

	cmd.AddCommand(
		expenseListCmd(),
		expenseAddCmd(false),
		expenseAddCmd(true),
		expenseNotifyCmd(),
	)

	return cmd
}

func expenseListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <group-id>",
		Short: "List the expenses of a group, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			expenses, err := a.expenses.List(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = -1
			}
			expenses = ledger.RecentExpenses(expenses, limit)

			if a.json {
				return printJSON(cmd.OutOrStdout(), expenseViews(expenses))
			}
			return printExpenses(cmd.OutOrStdout(), expenses, a.cfg.Currency)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the most recent N expenses (0 for all)")

	return cmd
}

type expenseFlags struct {
	amount       string
	description  string
	payer        string
	date         string
	strategy     string
	participants []string
	shares       []string
}

func expenseAddCmd(preview bool) *cobra.Command {
	var f expenseFlags

	use, short := "add <group-id>", "Record an expense"
	if preview {
		use, short = "preview <group-id>", "Show how an expense would be split without recording it"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()
			session, err := a.session(ctx)
			if err != nil {
				return err
			}

			input, err := f.input(ctx, a, session, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if preview {
				expense, err := a.expenses.Preview(ctx, session, input)
				if err != nil {
					return err
				}
				members, _ := a.groups.Members(ctx, session, args[0])
				if a.json {
					return printJSON(out, expenseView(*expense))
				}
				tw := newTable(out)
				fmt.Fprintln(tw, "MEMBER\tSHARE\tPERCENT")
				for _, s := range expense.Splits {
					pct := "-"
					if s.Percentage != nil {
						pct = s.Percentage.StringFixed(2) + "%"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", nameOf(members, s.MemberID), money(s.Share, a.cfg.Currency), pct)
				}
				return tw.Flush()
			}

			expenses, err := a.expenses.Record(ctx, session, input)
			if err != nil {
				return err
			}

			a.logger.Info().Str("group", args[0]).Str("amount", input.Amount.String()).Msg("expense recorded")
			if a.json {
				return printJSON(out, expenseViews(expenses))
			}
			fmt.Fprintf(out, "Recorded %q for %s\n", input.Description, money(input.Amount, a.cfg.Currency))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.amount, "amount", "", "Total amount")
	flags.StringVar(&f.description, "description", "", "What the expense was for")
	flags.StringVar(&f.payer, "payer", "", "Member ID or email of the payer (defaults to you)")
	flags.StringVar(&f.date, "date", "", "Date as YYYY-MM-DD (defaults to today)")
	flags.StringVar(&f.strategy, "split", string(domain.SplitEqual), "Split strategy: equal, percentage or custom")
	flags.StringSliceVar(&f.participants, "participants", nil, "Member IDs or emails sharing the expense (defaults to all members)")
	flags.StringArrayVar(&f.shares, "share", nil, "Per-member percentage or amount as member=value, repeatable")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func (f *expenseFlags) input(ctx context.Context, a *app, session *domain.Session, groupID string) (usecase.RecordExpenseInput, error) {
	input := usecase.RecordExpenseInput{
		GroupID:     groupID,
		Description: f.description,
	}

	var err error
	if input.Amount, err = domain.ParseAmount(f.amount); err != nil {
		return input, err
	}
	if input.Strategy, err = domain.ParseSplitStrategy(f.strategy); err != nil {
		return input, err
	}
	if input.Date, err = parseDate(f.date); err != nil {
		return input, err
	}

	refs := newMemberResolver(a, session, groupID)

	payer := f.payer
	if payer == "" {
		payer = session.User.ID
	}
	if input.PayerID, err = refs.resolve(ctx, payer); err != nil {
		return input, err
	}

	for _, p := range f.participants {
		id, err := refs.resolve(ctx, p)
		if err != nil {
			return input, err
		}
		input.Participants = append(input.Participants, id)
	}

	if len(f.shares) > 0 {
		input.Overrides = make(map[string]decimal.Decimal, len(f.shares))
	}
	for _, raw := range f.shares {
		ref, value, ok := strings.Cut(raw, "=")
		if !ok {
			return input, fmt.Errorf("%w: --share must be member=value, got %q", domain.ErrInvalidInput, raw)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return input, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidInput, value)
		}
		id, err := refs.resolve(ctx, ref)
		if err != nil {
			return input, err
		}
		input.Overrides[id] = amount
	}

	return input, nil
}

func expenseNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify <expense-id>",
		Short: "Email the members of an expense about it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.expenses.Notify(cmd.Context(), session, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Members notified")
			return nil
		},
	}
}

// memberResolver turns a member ID or email into an ID, loading the group once.
type memberResolver struct {
	app     *app
	session *domain.Session
	groupID string
	members []domain.Member
	loaded  bool
}

func newMemberResolver(a *app, session *domain.Session, groupID string) *memberResolver {
	return &memberResolver{app: a, session: session, groupID: groupID}
}

func (r *memberResolver) resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !strings.Contains(ref, "@") {
		return ref, nil
	}

	if !r.loaded {
		members, err := r.app.groups.Members(ctx, r.session, r.groupID)
		if err != nil {
			return "", err
		}
		r.members, r.loaded = members, true
	}

	m, ok := domain.FindMemberByEmail(r.members, ref)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownMember, ref)
	}
	return m.ID, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", domain.ErrInvalidInput, s)
	}
	return t, nil
}
