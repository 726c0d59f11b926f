package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is a suggested payment that clears debt between two participants.
type Transfer struct {
	From   ParticipantID // Person who owes
	To     ParticipantID // Person who is owed
	Amount decimal.Decimal
}

// SimplifyDebts proposes a short list of transfers that settles every position
// in the report.
//
// Greedy algorithm: match the largest debt with the largest credit, pay the
// smaller of the two and move on once either side is below Epsilon.
func SimplifyDebts(report Report) []Transfer {
	type party struct {
		id        ParticipantID
		remaining decimal.Decimal
	}

	var debtors, creditors []*party
	for p, pos := range report {
		switch pos.Direction {
		case DirectionOwes:
			debtors = append(debtors, &party{id: p, remaining: pos.Amount})
		case DirectionIsOwed:
			creditors = append(creditors, &party{id: p, remaining: pos.Amount})
		}
	}

	byLargest := func(parties []*party) {
		sort.Slice(parties, func(i, j int) bool {
			if c := parties[i].remaining.Cmp(parties[j].remaining); c != 0 {
				return c > 0
			}
			return parties[i].id < parties[j].id
		})
	}
	byLargest(debtors)
	byLargest(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := debtors[i], creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)
		if amount.GreaterThanOrEqual(Epsilon) {
			transfers = append(transfers, Transfer{From: debtor.id, To: creditor.id, Amount: amount})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.LessThan(Epsilon) {
			i++
		}
		if creditor.remaining.LessThan(Epsilon) {
			j++
		}
	}

	return transfers
}
