package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/splitledger/internal/domain"
)

var cent = decimal.New(1, -2)

type position struct {
	id     string
	amount decimal.Decimal
}

// SuggestSettlements proposes payments that bring every balance to zero.
// Debtors are matched greedily against creditors, largest amounts first, which
// keeps the number of payments small. Amounts are rounded to cents and anything
// under a cent is ignored.
func SuggestSettlements(balances domain.Balances) []domain.Transfer {
	var debtors, creditors []position
	for _, id := range balances.IDs() {
		v := balances[id].Round(sharePlaces)
		switch {
		case v.GreaterThanOrEqual(cent):
			creditors = append(creditors, position{id: id, amount: v})
		case v.LessThanOrEqual(cent.Neg()):
			debtors = append(debtors, position{id: id, amount: v.Neg()})
		}
	}

	sortPositions(debtors)
	sortPositions(creditors)

	var transfers []domain.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)

		if amount.GreaterThanOrEqual(cent) {
			transfers = append(transfers, domain.Transfer{
				From:   debtors[i].id,
				To:     creditors[j].id,
				Amount: amount,
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.LessThan(cent) {
			i++
		}
		if creditors[j].amount.LessThan(cent) {
			j++
		}
	}

	return transfers
}

func sortPositions(p []position) {
	sort.SliceStable(p, func(a, b int) bool {
		if !p[a].amount.Equal(p[b].amount) {
			return p[a].amount.GreaterThan(p[b].amount)
		}
		return p[a].id < p[b].id
	})
}
