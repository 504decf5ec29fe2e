package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement is a recorded payment from one member to another that reduces
// an outstanding balance.
type Settlement struct {
	ID      string
	GroupID string
	Payer   Member
	Payee   Member
	Amount  decimal.Decimal
	Date    time.Time
}

// Validate checks the settlement before submission.
func (s *Settlement) Validate() error {
	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if s.Payer.ID == "" || s.Payee.ID == "" {
		return ErrInvalidInput
	}

	if s.Payer.ID == s.Payee.ID {
		return ErrSamePayerPayee
	}

	return nil
}
