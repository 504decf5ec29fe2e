package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceStatus is the label shown next to a member's balance.
type BalanceStatus string

const (
	StatusOwed    BalanceStatus = "is owed"
	StatusOwes    BalanceStatus = "owes"
	StatusSettled BalanceStatus = "settled"
)

// settledThreshold is the magnitude under which a balance is labelled settled.
var settledThreshold = decimal.New(5, -3)

// Balances maps a member ID to its net balance. Positive means the member is owed,
// negative means the member owes. Balances are derived and never stored.
type Balances map[string]decimal.Decimal

// Get returns the balance of a member, zero if unknown.
func (b Balances) Get(id string) decimal.Decimal {
	return b[id]
}

// Add adds amount to a member's balance, creating the entry if needed.
// Empty IDs are ignored.
func (b Balances) Add(id string, amount decimal.Decimal) {
	if id == "" {
		return
	}
	b[id] = b[id].Add(amount)
}

// Status labels a balance. Values within half a cent of zero count as settled;
// the numeric value itself is left untouched.
func (b Balances) Status(id string) BalanceStatus {
	v := b[id]
	switch {
	case v.Abs().LessThan(settledThreshold):
		return StatusSettled
	case v.IsPositive():
		return StatusOwed
	default:
		return StatusOwes
	}
}

// Display formats a balance rounded to two decimals.
func (b Balances) Display(id string) string {
	return b[id].StringFixed(2)
}

// IDs returns member IDs sorted for stable output.
func (b Balances) IDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Total sums all balances. A closed group sums to zero.
func (b Balances) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range b {
		sum = sum.Add(v)
	}
	return sum
}

// Transfer is a suggested payment that settles part of the outstanding balances.
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}
