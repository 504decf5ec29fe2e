package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

// ComputeBalances nets expenses and settlements into a balance per member.
//
// The payer of an expense is credited the full amount and every split member is
// debited their share. A settlement credits its payer and debits its payee. Members
// referenced by expenses or settlements but missing from members still get an entry.
// Values are not rounded; round only when displaying.
func ComputeBalances(expenses []domain.Expense, settlements []domain.Settlement, members []domain.Member) domain.Balances {
	balances := make(domain.Balances, len(members))
	for _, m := range members {
		balances.Add(m.ID, decimal.Zero)
	}

	for _, e := range expenses {
		balances.Add(e.Payer.ID, e.Amount)
		for _, s := range e.Splits {
			balances.Add(s.MemberID, s.Share.Neg())
		}
	}

	for _, s := range settlements {
		balances.Add(s.Payer.ID, s.Amount)
		balances.Add(s.Payee.ID, s.Amount.Neg())
	}

	return balances
}
