package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

const sharePlaces = 2

var hundred = decimal.NewFromInt(100)

// ComputeSplits divides total between members according to strategy.
//
// For SplitPercentage, overrides map member IDs to percentages (0-100); with no
// overrides every member gets an equal percentage. For SplitCustom, overrides map
// member IDs to absolute shares. Members missing from overrides get a zero share.
// SplitEqual ignores overrides.
//
// The returned shares always sum to total within domain.SplitTolerance; otherwise a
// *domain.SplitMismatchError is returned.
func ComputeSplits(
	total decimal.Decimal,
	members []domain.Member,
	strategy domain.SplitStrategy,
	overrides map[string]decimal.Decimal,
) ([]domain.Split, error) {
	if err := validateSplitInput(total, members); err != nil {
		return nil, err
	}

	var (
		splits []domain.Split
		err    error
	)

	switch strategy {
	case domain.SplitEqual:
		splits = equalSplits(total, members)
	case domain.SplitPercentage:
		splits, err = percentageSplits(total, members, overrides)
	case domain.SplitCustom:
		splits, err = customSplits(total, members, overrides)
	default:
		return nil, fmt.Errorf("%w: unknown split strategy %q", domain.ErrInvalidInput, strategy)
	}

	if err != nil {
		return nil, err
	}

	if err := Reconcile(total, splits); err != nil {
		return nil, err
	}

	return splits, nil
}

// Reconcile checks that shares add up to total within domain.SplitTolerance.
func Reconcile(total decimal.Decimal, splits []domain.Split) error {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Share)
	}

	delta := total.Sub(sum)
	if delta.Abs().GreaterThan(domain.SplitTolerance) {
		return &domain.SplitMismatchError{Total: total, Sum: sum, Delta: delta}
	}

	return nil
}

func validateSplitInput(total decimal.Decimal, members []domain.Member) error {
	if len(members) == 0 {
		return fmt.Errorf("%w: at least one member is required", domain.ErrInvalidInput)
	}

	if !total.IsPositive() {
		return fmt.Errorf("%w: total must be positive", domain.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if m.ID == "" {
			return fmt.Errorf("%w: member without an ID", domain.ErrInvalidInput)
		}
		if seen[m.ID] {
			return fmt.Errorf("%w: duplicate member %s", domain.ErrInvalidInput, m.ID)
		}
		seen[m.ID] = true
	}

	return nil
}

// equalSplits gives every member total/n truncated to cents. The first member
// absorbs the remainder so the shares sum to total exactly.
func equalSplits(total decimal.Decimal, members []domain.Member) []domain.Split {
	n := decimal.NewFromInt(int64(len(members)))
	base := total.Div(n).Truncate(sharePlaces)
	remainder := total.Sub(base.Mul(n))

	splits := make([]domain.Split, len(members))
	for i, m := range members {
		share := base
		if i == 0 {
			share = share.Add(remainder)
		}
		splits[i] = newSplit(m.ID, share, total)
	}

	return splits
}

func percentageSplits(total decimal.Decimal, members []domain.Member, percentages map[string]decimal.Decimal) ([]domain.Split, error) {
	if len(percentages) == 0 {
		return equalSplits(total, members), nil
	}

	if err := checkOverrideKeys(members, percentages); err != nil {
		return nil, err
	}

	splits := make([]domain.Split, len(members))
	for i, m := range members {
		pct := percentages[m.ID]
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percentage for %s must be between 0 and 100, got %s",
				domain.ErrInvalidInput, m.ID, pct)
		}

		p := pct
		splits[i] = domain.Split{
			MemberID:   m.ID,
			Share:      total.Mul(pct).Div(hundred).Round(sharePlaces),
			Percentage: &p,
		}
	}

	return splits, nil
}

func customSplits(total decimal.Decimal, members []domain.Member, shares map[string]decimal.Decimal) ([]domain.Split, error) {
	if err := checkOverrideKeys(members, shares); err != nil {
		return nil, err
	}

	splits := make([]domain.Split, len(members))
	for i, m := range members {
		share := shares[m.ID]
		if share.IsNegative() {
			return nil, fmt.Errorf("%w: share for %s cannot be negative", domain.ErrInvalidInput, m.ID)
		}
		splits[i] = newSplit(m.ID, share, total)
	}

	return splits, nil
}

func checkOverrideKeys(members []domain.Member, overrides map[string]decimal.Decimal) error {
	for id := range overrides {
		if _, ok := domain.FindMember(members, id); !ok {
			return fmt.Errorf("%w: %w %s", domain.ErrInvalidInput, domain.ErrUnknownMember, id)
		}
	}
	return nil
}

func newSplit(memberID string, share, total decimal.Decimal) domain.Split {
	pct := share.Div(total).Mul(hundred).Round(sharePlaces)
	return domain.Split{
		MemberID:   memberID,
		Share:      share,
		Percentage: &pct,
	}
}
