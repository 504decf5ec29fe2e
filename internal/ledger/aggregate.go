package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

// UncategorizedLabel groups expenses without a description.
const UncategorizedLabel = "Uncategorized"

// Summarize aggregates expenses for the report charts: total spent, totals per
// description and the share each member consumed. members is used for labels;
// unknown IDs are labelled with the ID itself.
func Summarize(expenses []domain.Expense, members []domain.Member) domain.ExpenseSummary {
	total := decimal.Zero
	byDescription := map[string]decimal.Decimal{}
	byMember := map[string]decimal.Decimal{}
	seen := map[string]struct{}{}

	for _, e := range expenses {
		total = total.Add(e.Amount)

		label := strings.TrimSpace(e.Description)
		if label == "" {
			label = UncategorizedLabel
		}
		byDescription[label] = byDescription[label].Add(e.Amount)

		if e.Payer.ID != "" {
			seen[e.Payer.ID] = struct{}{}
		}
		for _, s := range e.Splits {
			if s.MemberID == "" {
				continue
			}
			seen[s.MemberID] = struct{}{}
			byMember[s.MemberID] = byMember[s.MemberID].Add(s.Share)
		}
	}

	memberLabels := make(map[string]decimal.Decimal, len(byMember))
	for id, amount := range byMember {
		label := id
		if m, ok := domain.FindMember(members, id); ok {
			label = m.DisplayName()
		}
		memberLabels[label] = memberLabels[label].Add(amount)
	}

	return domain.ExpenseSummary{
		TotalSpent:    total,
		MemberCount:   len(seen),
		ByDescription: sortedAmounts(byDescription),
		ByMember:      sortedAmounts(memberLabels),
	}
}

func sortedAmounts(m map[string]decimal.Decimal) []domain.Amounted {
	out := make([]domain.Amounted, 0, len(m))
	for label, amount := range m {
		out = append(out, domain.Amounted{Label: label, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Amount.Equal(out[j].Amount) {
			return out[i].Amount.GreaterThan(out[j].Amount)
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// RecentExpenses returns up to n expenses, newest first. The input is not modified.
func RecentExpenses(expenses []domain.Expense, n int) []domain.Expense {
	out := append([]domain.Expense(nil), expenses...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return head(out, n)
}

// RecentSettlements returns up to n settlements, newest first.
func RecentSettlements(settlements []domain.Settlement, n int) []domain.Settlement {
	out := append([]domain.Settlement(nil), settlements...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return head(out, n)
}

func head[T any](s []T, n int) []T {
	if n < 0 || n >= len(s) {
		return s
	}
	return s[:n]
}
