package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExpense_Validate(t *testing.T) {
	payer := Member{ID: "a", Name: "Ann"}

	tests := []struct {
		name        string
		expense     Expense
		expectError error
	}{
		{
			name: "shares reconcile",
			expense: Expense{
				Amount: d("90"),
				Payer:  payer,
				Splits: []Split{{MemberID: "a", Share: d("30")}, {MemberID: "b", Share: d("30")}, {MemberID: "c", Share: d("30")}},
			},
		},
		{
			name: "within tolerance",
			expense: Expense{
				Amount: d("100"),
				Payer:  payer,
				Splits: []Split{{MemberID: "a", Share: d("33.33")}, {MemberID: "b", Share: d("33.33")}, {MemberID: "c", Share: d("33.33")}},
			},
		},
		{
			name: "zero amount",
			expense: Expense{
				Amount: decimal.Zero,
				Payer:  payer,
				Splits: []Split{{MemberID: "a", Share: decimal.Zero}},
			},
			expectError: ErrInvalidAmount,
		},
		{
			name: "missing payer",
			expense: Expense{
				Amount: d("10"),
				Splits: []Split{{MemberID: "a", Share: d("10")}},
			},
			expectError: ErrInvalidInput,
		},
		{
			name: "no splits",
			expense: Expense{
				Amount: d("10"),
				Payer:  payer,
			},
			expectError: ErrInvalidInput,
		},
		{
			name: "shares fall short",
			expense: Expense{
				Amount: d("100"),
				Payer:  payer,
				Splits: []Split{{MemberID: "a", Share: d("50")}, {MemberID: "b", Share: d("49")}},
			},
			expectError: ErrSplitMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.expense.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && !errors.Is(err, tt.expectError) {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestSplitMismatchError(t *testing.T) {
	err := error(&SplitMismatchError{Total: d("100"), Sum: d("99"), Delta: d("1")})

	if !errors.Is(err, ErrSplitMismatch) {
		t.Fatalf("expected errors.Is to match ErrSplitMismatch")
	}

	var mismatch *SplitMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected errors.As to extract SplitMismatchError")
	}

	want := "split shares do not add up to the expense amount: total=100.00 shares=99.00 delta=1.00"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestParseSplitStrategy(t *testing.T) {
	for _, in := range []string{"equal", "Percentage", " CUSTOM "} {
		if _, err := ParseSplitStrategy(in); err != nil {
			t.Errorf("ParseSplitStrategy(%q) unexpected error: %v", in, err)
		}
	}

	if _, err := ParseSplitStrategy("shares"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSettlement_Validate(t *testing.T) {
	a := Member{ID: "a"}
	b := Member{ID: "b"}

	tests := []struct {
		name        string
		settlement  Settlement
		expectError error
	}{
		{name: "valid", settlement: Settlement{Payer: b, Payee: a, Amount: d("30")}},
		{name: "same member", settlement: Settlement{Payer: a, Payee: a, Amount: d("30")}, expectError: ErrSamePayerPayee},
		{name: "zero amount", settlement: Settlement{Payer: b, Payee: a, Amount: decimal.Zero}, expectError: ErrInvalidAmount},
		{name: "missing payee", settlement: Settlement{Payer: b, Amount: d("1")}, expectError: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settlement.Validate()
			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && err != tt.expectError {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}
