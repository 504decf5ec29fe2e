package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SplitStrategy decides how an expense amount is divided between members.
type SplitStrategy string

const (
	SplitEqual      SplitStrategy = "equal"
	SplitPercentage SplitStrategy = "percentage"
	SplitCustom     SplitStrategy = "custom"
)

var validStrategies = map[SplitStrategy]bool{
	SplitEqual:      true,
	SplitPercentage: true,
	SplitCustom:     true,
}

// IsValid checks if the strategy is known.
func (s SplitStrategy) IsValid() bool {
	return validStrategies[s]
}

// ParseSplitStrategy parses a strategy name, case-insensitively.
func ParseSplitStrategy(s string) (SplitStrategy, error) {
	strategy := SplitStrategy(strings.ToLower(strings.TrimSpace(s)))
	if !strategy.IsValid() {
		return "", fmt.Errorf("%w: unknown split strategy %q", ErrInvalidInput, s)
	}
	return strategy, nil
}

// Split is one member's share of an expense.
type Split struct {
	MemberID   string
	Share      decimal.Decimal
	Percentage *decimal.Decimal
}

// Expense is a payment made by one member on behalf of the group.
// Expenses are never modified after creation.
type Expense struct {
	ID          string
	GroupID     string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	Payer       Member
	Splits      []Split
}

// SharesTotal sums the split shares.
func (e *Expense) SharesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range e.Splits {
		sum = sum.Add(s.Share)
	}
	return sum
}

// Validate checks the expense invariants: positive amount, a payer, and shares that
// reconcile to the amount within SplitTolerance.
func (e *Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if e.Payer.ID == "" {
		return fmt.Errorf("%w: expense has no payer", ErrInvalidInput)
	}

	if len(e.Splits) == 0 {
		return fmt.Errorf("%w: expense has no splits", ErrInvalidInput)
	}

	sum := e.SharesTotal()
	delta := e.Amount.Sub(sum)
	if delta.Abs().GreaterThan(SplitTolerance) {
		return &SplitMismatchError{Total: e.Amount, Sum: sum, Delta: delta}
	}

	return nil
}

// SplitTolerance is the largest accepted gap between an amount and the sum of its shares.
var SplitTolerance = decimal.New(1, -2)
