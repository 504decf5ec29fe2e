package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/usecase"
)

func balancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balances <group-id>",
		Short: "Show who owes whom in a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			report, err := a.reports.GroupBalances(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}

			if a.json {
				return printJSON(cmd.OutOrStdout(), groupReportView(report))
			}
			return printGroupReport(cmd.OutOrStdout(), report, a.cfg.Currency)
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports and exports",
	}

	cmd.AddCommand(reportUserCmd(), reportExportCmd())

	return cmd
}

func reportUserCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Show your totals across all groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			report, err := a.reports.UserReport(cmd.Context(), session, recent)
			if err != nil {
				return err
			}

			if a.json {
				return printJSON(cmd.OutOrStdout(), userReportView(report))
			}
			return printUserReport(cmd.OutOrStdout(), report, a.cfg.Currency)
		},
	}

	cmd.Flags().IntVar(&recent, "recent", usecase.DefaultRecentLimit, "Recent expenses and settlements to show per group (0 for all)")

	return cmd
}

func reportExportCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <group-id>",
		Short: "Download a group report as Excel or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			session, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			f, err := domain.ParseExportFormat(format)
			if err != nil {
				return err
			}

			artifact, err := a.reports.Export(cmd.Context(), session, args[0], f)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = artifact.Filename
			} else if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, artifact.Filename)
			}

			if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
				return fmt.Errorf("saving export: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", path, len(artifact.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(domain.ExportExcel), "Export format: excel or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (defaults to the filename suggested by the server)")

	return cmd
}

type balanceJSON struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
	Balance  string `json:"balance"`
	Status   string `json:"status"`
}

type transferJSON struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type amountedJSON struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type summaryJSON struct {
	TotalSpent    string         `json:"totalSpent"`
	MemberCount   int            `json:"memberCount"`
	ByDescription []amountedJSON `json:"byDescription"`
	ByMember      []amountedJSON `json:"byMember"`
}

type groupReportJSON struct {
	Group       groupJSON      `json:"group"`
	Balances    []balanceJSON  `json:"balances"`
	Suggestions []transferJSON `json:"suggestions"`
	Summary     summaryJSON    `json:"summary"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

func reportMembers(report *domain.GroupReport) []domain.Member {
	members := make([]domain.Member, 0, len(report.Group.Members))
	for _, gm := range report.Group.Members {
		members = append(members, gm.Member)
	}
	return members
}

func amountedViews(items []domain.Amounted) []amountedJSON {
	out := make([]amountedJSON, 0, len(items))
	for _, it := range items {
		out = append(out, amountedJSON{Label: it.Label, Amount: it.Amount.StringFixed(2)})
	}
	return out
}

func groupReportView(report *domain.GroupReport) groupReportJSON {
	members := reportMembers(report)

	v := groupReportJSON{
		Group:       groupView(report.Group),
		Balances:    []balanceJSON{},
		Suggestions: []transferJSON{},
		Summary: summaryJSON{
			TotalSpent:    report.Summary.TotalSpent.StringFixed(2),
			MemberCount:   report.Summary.MemberCount,
			ByDescription: amountedViews(report.Summary.ByDescription),
			ByMember:      amountedViews(report.Summary.ByMember),
		},
		GeneratedAt: report.GeneratedAt,
	}

	for _, id := range report.Balances.IDs() {
		v.Balances = append(v.Balances, balanceJSON{
			MemberID: id,
			Name:     nameOf(members, id),
			Balance:  report.Balances.Display(id),
			Status:   string(report.Balances.Status(id)),
		})
	}
	for _, t := range report.Suggestions {
		v.Suggestions = append(v.Suggestions, transferJSON{
			From:   nameOf(members, t.From),
			To:     nameOf(members, t.To),
			Amount: t.Amount.StringFixed(2),
		})
	}

	return v
}

func printGroupReport(w io.Writer, report *domain.GroupReport, currency string) error {
	members := reportMembers(report)

	fmt.Fprintf(w, "%s: %d expenses, %s spent\n\n", report.Group.Name, len(report.Expenses), money(report.Summary.TotalSpent, currency))

	tw := newTable(w)
	fmt.Fprintln(tw, "MEMBER\tBALANCE\tSTATUS")
	for _, id := range report.Balances.IDs() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", nameOf(members, id), report.Balances.Display(id)+" "+currency, report.Balances.Status(id))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	if len(report.Suggestions) == 0 {
		_, err := fmt.Fprintln(w, "Everyone is settled up")
		return err
	}

	fmt.Fprintln(w, "Suggested payments:")
	for _, t := range report.Suggestions {
		fmt.Fprintf(w, "  %s pays %s %s\n", nameOf(members, t.From), nameOf(members, t.To), money(t.Amount, currency))
	}
	return nil
}

type groupActivityJSON struct {
	GroupID     string           `json:"groupId"`
	GroupName   string           `json:"groupName"`
	Expenses    []expenseJSON    `json:"expenses"`
	Settlements []settlementJSON `json:"settlements"`
}

type userReportJSON struct {
	TotalExpenses string              `json:"totalExpenses"`
	TotalPaid     string              `json:"totalPaid"`
	TotalOwed     string              `json:"totalOwed"`
	Balance       string              `json:"balance"`
	Groups        []groupActivityJSON `json:"groups"`
}

func userReportView(r *domain.UserReport) userReportJSON {
	v := userReportJSON{
		TotalExpenses: r.TotalExpenses.StringFixed(2),
		TotalPaid:     r.TotalPaid.StringFixed(2),
		TotalOwed:     r.TotalOwed.StringFixed(2),
		Balance:       r.Balance.StringFixed(2),
		Groups:        []groupActivityJSON{},
	}
	for _, g := range r.Groups {
		v.Groups = append(v.Groups, groupActivityJSON{
			GroupID:     g.GroupID,
			GroupName:   g.GroupName,
			Expenses:    expenseViews(g.Expenses),
			Settlements: settlementViews(g.Settlements),
		})
	}
	return v
}

func printUserReport(w io.Writer, r *domain.UserReport, currency string) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total expenses\t%s\n", money(r.TotalExpenses, currency))
	fmt.Fprintf(tw, "You paid\t%s\n", money(r.TotalPaid, currency))
	fmt.Fprintf(tw, "Your share\t%s\n", money(r.TotalOwed, currency))
	fmt.Fprintf(tw, "Balance\t%s\n", money(r.Balance, currency))
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, g := range r.Groups {
		fmt.Fprintf(w, "\n== %s ==\n", g.GroupName)
		if err := printExpenses(w, g.Expenses, currency); err != nil {
			return err
		}
		if len(g.Settlements) > 0 {
			if err := printSettlements(w, g.Settlements, currency); err != nil {
				return err
			}
		}
	}
	return nil
}
