package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Split ledger errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrSplitMismatch = errors.New("split shares do not add up to the expense amount")

	// Expense and settlement errors
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrSamePayerPayee  = errors.New("payer and payee must be different members")
	ErrPayerNotMember  = errors.New("payer is not an accepted member of the group")
	ErrUnknownMember   = errors.New("member is not part of the group")
	ErrEmptyGroupName  = errors.New("group name cannot be empty")
	ErrGroupNotFound   = errors.New("group not found")
	ErrExpenseNotFound = errors.New("expense not found")

	// Remote API errors
	ErrNotFound            = errors.New("resource not found")
	ErrConflict            = errors.New("resource conflict")
	ErrRemoteUnavailable   = errors.New("remote service unavailable")
	ErrRemoteRejected      = errors.New("remote service rejected the request")
	ErrDuplicateSubmission = errors.New("identical submission already sent recently")
)

// SplitMismatchError reports how far a set of shares is from the expense total.
// Delta is total minus the sum of shares: positive means shares fall short.
type SplitMismatchError struct {
	Total decimal.Decimal
	Sum   decimal.Decimal
	Delta decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("%s: total=%s shares=%s delta=%s",
		ErrSplitMismatch, e.Total.StringFixed(2), e.Sum.StringFixed(2), e.Delta.StringFixed(2))
}

// Is lets errors.Is match the sentinel.
func (e *SplitMismatchError) Is(target error) bool {
	return target == ErrSplitMismatch
}
