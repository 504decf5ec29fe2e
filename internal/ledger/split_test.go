package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
	"github.com/iho/splitledger/internal/ledger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func members(ids ...string) []domain.Member {
	out := make([]domain.Member, len(ids))
	for i, id := range ids {
		out[i] = domain.Member{ID: id, Name: "user " + id}
	}
	return out
}

func shares(splits []domain.Split) map[string]string {
	out := make(map[string]string, len(splits))
	for _, s := range splits {
		out[s.MemberID] = s.Share.StringFixed(2)
	}
	return out
}

func TestComputeSplits(t *testing.T) {
	tests := []struct {
		name      string
		total     decimal.Decimal
		members   []domain.Member
		strategy  domain.SplitStrategy
		overrides map[string]decimal.Decimal
		want      map[string]string
	}{
		{
			name:     "equal thirds give the remainder to the first member",
			total:    d("100.00"),
			members:  members("A", "B", "C"),
			strategy: domain.SplitEqual,
			want:     map[string]string{"A": "33.34", "B": "33.33", "C": "33.33"},
		},
		{
			name:     "equal even split",
			total:    d("90"),
			members:  members("A", "B", "C"),
			strategy: domain.SplitEqual,
			want:     map[string]string{"A": "30.00", "B": "30.00", "C": "30.00"},
		},
		{
			name:     "single member takes everything",
			total:    d("12.34"),
			members:  members("A"),
			strategy: domain.SplitEqual,
			want:     map[string]string{"A": "12.34"},
		},
		{
			name:      "equal ignores overrides",
			total:     d("10"),
			members:   members("A", "B"),
			strategy:  domain.SplitEqual,
			overrides: map[string]decimal.Decimal{"A": d("9")},
			want:      map[string]string{"A": "5.00", "B": "5.00"},
		},
		{
			name:      "percentage",
			total:     d("50.00"),
			members:   members("A", "B"),
			strategy:  domain.SplitPercentage,
			overrides: map[string]decimal.Decimal{"A": d("70"), "B": d("30")},
			want:      map[string]string{"A": "35.00", "B": "15.00"},
		},
		{
			name:     "percentage without overrides falls back to equal",
			total:    d("100.00"),
			members:  members("A", "B", "C"),
			strategy: domain.SplitPercentage,
			want:     map[string]string{"A": "33.34", "B": "33.33", "C": "33.33"},
		},
		{
			name:      "percentage missing member gets zero",
			total:     d("40"),
			members:   members("A", "B"),
			strategy:  domain.SplitPercentage,
			overrides: map[string]decimal.Decimal{"A": d("100")},
			want:      map[string]string{"A": "40.00", "B": "0.00"},
		},
		{
			name:      "custom shares are kept as entered",
			total:     d("100.00"),
			members:   members("A", "B", "C"),
			strategy:  domain.SplitCustom,
			overrides: map[string]decimal.Decimal{"A": d("50"), "B": d("25.50"), "C": d("24.50")},
			want:      map[string]string{"A": "50.00", "B": "25.50", "C": "24.50"},
		},
		{
			name:      "custom within a cent is accepted",
			total:     d("100.00"),
			members:   members("A", "B", "C"),
			strategy:  domain.SplitCustom,
			overrides: map[string]decimal.Decimal{"A": d("33.33"), "B": d("33.33"), "C": d("33.33")},
			want:      map[string]string{"A": "33.33", "B": "33.33", "C": "33.33"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			splits, err := ledger.ComputeSplits(tt.total, tt.members, tt.strategy, tt.overrides)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got := shares(splits)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d splits, got %d", len(tt.want), len(got))
			}
			for id, want := range tt.want {
				if got[id] != want {
					t.Errorf("share of %s: expected %s, got %s", id, want, got[id])
				}
			}
		})
	}
}

func TestComputeSplits_PreservesMemberOrder(t *testing.T) {
	splits, err := ledger.ComputeSplits(d("10"), members("z", "a", "m"), domain.SplitEqual, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, id := range []string{"z", "a", "m"} {
		if splits[i].MemberID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, splits[i].MemberID)
		}
	}
}

func TestComputeSplits_Percentages(t *testing.T) {
	splits, err := ledger.ComputeSplits(d("200"), members("A", "B"), domain.SplitCustom,
		map[string]decimal.Decimal{"A": d("150"), "B": d("50")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if splits[0].Percentage == nil || !splits[0].Percentage.Equal(d("75")) {
		t.Errorf("expected A at 75%%, got %v", splits[0].Percentage)
	}
	if splits[1].Percentage == nil || !splits[1].Percentage.Equal(d("25")) {
		t.Errorf("expected B at 25%%, got %v", splits[1].Percentage)
	}
}

func TestComputeSplits_EqualSumsExactly(t *testing.T) {
	totals := []string{"0.01", "0.05", "1", "10", "33.33", "100", "100.01", "999.99", "1234.57", "1000000"}

	for _, total := range totals {
		for n := 1; n <= 12; n++ {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("m%d", i)
			}

			splits, err := ledger.ComputeSplits(d(total), members(ids...), domain.SplitEqual, nil)
			if err != nil {
				t.Fatalf("total %s, %d members: unexpected error: %v", total, n, err)
			}

			sum := decimal.Zero
			for _, s := range splits {
				if s.Share.IsNegative() {
					t.Errorf("total %s, %d members: negative share %s", total, n, s.Share)
				}
				sum = sum.Add(s.Share)
			}
			if !sum.Equal(d(total)) {
				t.Errorf("total %s, %d members: shares sum to %s", total, n, sum)
			}
		}
	}
}

func TestComputeSplits_Errors(t *testing.T) {
	tests := []struct {
		name      string
		total     decimal.Decimal
		members   []domain.Member
		strategy  domain.SplitStrategy
		overrides map[string]decimal.Decimal
		expectErr error
	}{
		{
			name:      "no members",
			total:     d("10"),
			strategy:  domain.SplitEqual,
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "zero total",
			total:     decimal.Zero,
			members:   members("A"),
			strategy:  domain.SplitEqual,
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "negative total",
			total:     d("-5"),
			members:   members("A"),
			strategy:  domain.SplitEqual,
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "duplicate members",
			total:     d("10"),
			members:   members("A", "A"),
			strategy:  domain.SplitEqual,
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "member without id",
			total:     d("10"),
			members:   []domain.Member{{Name: "ghost"}},
			strategy:  domain.SplitEqual,
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "unknown strategy",
			total:     d("10"),
			members:   members("A"),
			strategy:  domain.SplitStrategy("shares"),
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "percentage above 100",
			total:     d("10"),
			members:   members("A", "B"),
			strategy:  domain.SplitPercentage,
			overrides: map[string]decimal.Decimal{"A": d("120"), "B": d("-20")},
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "percentage for unknown member",
			total:     d("10"),
			members:   members("A"),
			strategy:  domain.SplitPercentage,
			overrides: map[string]decimal.Decimal{"A": d("50"), "X": d("50")},
			expectErr: domain.ErrUnknownMember,
		},
		{
			name:      "percentages not adding to 100",
			total:     d("10"),
			members:   members("A", "B"),
			strategy:  domain.SplitPercentage,
			overrides: map[string]decimal.Decimal{"A": d("50"), "B": d("40")},
			expectErr: domain.ErrSplitMismatch,
		},
		{
			name:      "negative custom share",
			total:     d("10"),
			members:   members("A", "B"),
			strategy:  domain.SplitCustom,
			overrides: map[string]decimal.Decimal{"A": d("15"), "B": d("-5")},
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "custom share for unknown member",
			total:     d("10"),
			members:   members("A"),
			strategy:  domain.SplitCustom,
			overrides: map[string]decimal.Decimal{"B": d("10")},
			expectErr: domain.ErrInvalidInput,
		},
		{
			name:      "custom shares short of total",
			total:     d("100.00"),
			members:   members("A", "B"),
			strategy:  domain.SplitCustom,
			overrides: map[string]decimal.Decimal{"A": d("50"), "B": d("49")},
			expectErr: domain.ErrSplitMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			splits, err := ledger.ComputeSplits(tt.total, tt.members, tt.strategy, tt.overrides)
			if !errors.Is(err, tt.expectErr) {
				t.Fatalf("expected %v, got %v", tt.expectErr, err)
			}
			if splits != nil {
				t.Errorf("expected no splits, got %v", splits)
			}
		})
	}
}

func TestComputeSplits_MismatchDelta(t *testing.T) {
	_, err := ledger.ComputeSplits(d("100.00"), members("A", "B", "C"), domain.SplitCustom,
		map[string]decimal.Decimal{"A": d("33"), "B": d("33"), "C": d("33")})

	var mismatch *domain.SplitMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SplitMismatchError, got %v", err)
	}
	if !mismatch.Delta.Equal(d("1.00")) {
		t.Errorf("expected delta 1.00, got %s", mismatch.Delta)
	}
	if !mismatch.Sum.Equal(d("99")) {
		t.Errorf("expected sum 99, got %s", mismatch.Sum)
	}
}

func TestReconcile(t *testing.T) {
	splits := []domain.Split{{MemberID: "A", Share: d("60.01")}, {MemberID: "B", Share: d("40")}}

	if err := ledger.Reconcile(d("100"), splits); err != nil {
		t.Errorf("one cent over should reconcile, got %v", err)
	}

	err := ledger.Reconcile(d("99.98"), splits)
	var mismatch *domain.SplitMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected SplitMismatchError, got %v", err)
	}
	if !mismatch.Delta.Equal(d("-0.03")) {
		t.Errorf("expected delta -0.03, got %s", mismatch.Delta)
	}
}
