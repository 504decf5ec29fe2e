package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/ledger"
)

func TestSummarize(t *testing.T) {
	group := []domain.Member{
		{ID: "1", Name: "Ann"},
		{ID: "2", Email: "bob@example.com"},
		{ID: "3", Name: "Cid"},
	}

	dinner := equalExpense(t, "e1", "90", group[0], group)
	dinner.Description = "Dinner"
	taxi := equalExpense(t, "e2", "20", group[1], group[:2])
	taxi.Description = "Taxi"
	misc := equalExpense(t, "e3", "30", group[2], group[2:])
	lunch := equalExpense(t, "e4", "30", group[0], group)
	lunch.Description = " Dinner "

	summary := ledger.Summarize([]domain.Expense{dinner, taxi, misc, lunch}, group)

	assert.True(t, summary.TotalSpent.Equal(d("170")))
	assert.Equal(t, 3, summary.MemberCount)

	require.Len(t, summary.ByDescription, 3)
	assert.Equal(t, "Dinner", summary.ByDescription[0].Label)
	assert.True(t, summary.ByDescription[0].Amount.Equal(d("120")))
	assert.Equal(t, ledger.UncategorizedLabel, summary.ByDescription[1].Label)
	assert.Equal(t, "Taxi", summary.ByDescription[2].Label)

	require.Len(t, summary.ByMember, 3)
	assert.Equal(t, "Cid", summary.ByMember[0].Label)
	assert.True(t, summary.ByMember[0].Amount.Equal(d("70")))
	assert.Equal(t, "Ann", summary.ByMember[1].Label)
	assert.True(t, summary.ByMember[1].Amount.Equal(d("50")))
	assert.Equal(t, "bob@example.com", summary.ByMember[2].Label)
	assert.True(t, summary.ByMember[2].Amount.Equal(d("50")))
}

func TestSummarize_Empty(t *testing.T) {
	summary := ledger.Summarize(nil, nil)

	assert.True(t, summary.TotalSpent.IsZero())
	assert.Zero(t, summary.MemberCount)
	assert.Empty(t, summary.ByDescription)
	assert.Empty(t, summary.ByMember)
}

func TestRecentExpenses(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expenses := []domain.Expense{
		{ID: "old", Date: base},
		{ID: "new", Date: base.Add(48 * time.Hour)},
		{ID: "mid", Date: base.Add(24 * time.Hour)},
	}

	recent := ledger.RecentExpenses(expenses, 2)

	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].ID)
	assert.Equal(t, "mid", recent[1].ID)
	assert.Equal(t, "old", expenses[0].ID, "input must not be reordered")

	assert.Len(t, ledger.RecentExpenses(expenses, 10), 3)
	assert.Len(t, ledger.RecentExpenses(expenses, -1), 3)
	assert.Empty(t, ledger.RecentExpenses(expenses, 0))
}

func TestRecentSettlements(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	settlements := []domain.Settlement{
		{ID: "s1", Date: base},
		{ID: "s2", Date: base.Add(time.Hour)},
	}

	recent := ledger.RecentSettlements(settlements, 1)

	require.Len(t, recent, 1)
	assert.Equal(t, "s2", recent[0].ID)
}
