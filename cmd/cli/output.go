package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func money(d decimal.Decimal, currency string) string {
	return d.StringFixed(2) + " " + currency
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// nameOf returns a member's display name, or the raw ID when unknown.
func nameOf(members []domain.Member, id string) string {
	if m, ok := domain.FindMember(members, id); ok {
		return m.DisplayName()
	}
	return id
}

type sessionJSON struct {
	UserID    string     `json:"userId"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func sessionView(s *domain.Session) sessionJSON {
	v := sessionJSON{UserID: s.User.ID, Email: s.User.Email, Name: s.User.Name}
	if !s.ExpiresAt.IsZero() {
		v.ExpiresAt = &s.ExpiresAt
	}
	return v
}

type memberJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
}

func memberView(m domain.Member) memberJSON {
	return memberJSON{ID: m.ID, Name: m.DisplayName(), Email: m.Email}
}

type groupJSON struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Members     []memberJSON `json:"members"`
}

func groupView(g domain.Group) groupJSON {
	v := groupJSON{ID: g.ID, Name: g.Name, Description: g.Description, Members: []memberJSON{}}
	for _, gm := range g.Members {
		m := memberView(gm.Member)
		accepted := gm.Accepted
		m.Accepted = &accepted
		v.Members = append(v.Members, m)
	}
	return v
}

type splitJSON struct {
	MemberID   string `json:"memberId"`
	Share      string `json:"share"`
	Percentage string `json:"percentage,omitempty"`
}

type expenseJSON struct {
	ID          string      `json:"id,omitempty"`
	GroupID     string      `json:"groupId"`
	Amount      string      `json:"amount"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Payer       memberJSON  `json:"payer"`
	Splits      []splitJSON `json:"splits"`
}

func expenseView(e domain.Expense) expenseJSON {
	v := expenseJSON{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Amount:      e.Amount.StringFixed(2),
		Description: e.Description,
		Date:        day(e.Date),
		Payer:       memberView(e.Payer),
		Splits:      []splitJSON{},
	}
	for _, s := range e.Splits {
		sv := splitJSON{MemberID: s.MemberID, Share: s.Share.StringFixed(2)}
		if s.Percentage != nil {
			sv.Percentage = s.Percentage.StringFixed(2)
		}
		v.Splits = append(v.Splits, sv)
	}
	return v
}

func expenseViews(expenses []domain.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseView(e))
	}
	return out
}

type settlementJSON struct {
	ID      string     `json:"id,omitempty"`
	GroupID string     `json:"groupId"`
	Payer   memberJSON `json:"payer"`
	Payee   memberJSON `json:"payee"`
	Amount  string     `json:"amount"`
	Date    string     `json:"date"`
}

func settlementViews(settlements []domain.Settlement) []settlementJSON {
	out := make([]settlementJSON, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, settlementJSON{
			ID:      s.ID,
			GroupID: s.GroupID,
			Payer:   memberView(s.Payer),
			Payee:   memberView(s.Payee),
			Amount:  s.Amount.StringFixed(2),
			Date:    day(s.Date),
		})
	}
	return out
}

func printExpenses(w io.Writer, expenses []domain.Expense, currency string) error {
	if len(expenses) == 0 {
		_, err := fmt.Fprintln(w, "No expenses yet")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tPAID BY\tAMOUNT")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, day(e.Date), truncate(e.Description, 32), e.Payer.DisplayName(), money(e.Amount, currency))
	}
	return tw.Flush()
}

func printSettlements(w io.Writer, settlements []domain.Settlement, currency string) error {
	if len(settlements) == 0 {
		_, err := fmt.Fprintln(w, "No settlements yet")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATE\tFROM\tTO\tAMOUNT")
	for _, s := range settlements {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, day(s.Date), s.Payer.DisplayName(), s.Payee.DisplayName(), money(s.Amount, currency))
	}
	return tw.Flush()
}
