package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrInconsistentData is returned when an expense, split or settlement record
// cannot be part of a valid ledger.
var ErrInconsistentData = errors.New("inconsistent event data")

// splitTolerance bounds how far the recorded shares of an expense may exceed
// its amount. Equal division rounds every share, so a few units in the last
// digit are expected.
var splitTolerance = decimal.New(1, -9)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	ID      string
	PayerID ParticipantID
	Amount  decimal.Decimal
}

// SettlementForBalance represents a settlement with the minimal information needed for balance calculations.
type SettlementForBalance struct {
	ID     string
	FromID ParticipantID // Who paid (debtor settling up)
	ToID   ParticipantID // Who received (creditor being paid)
	Amount decimal.Decimal
}

// MemberBalance represents the balance information for one participant.
type MemberBalance struct {
	Participant ParticipantID
	NetBalance  decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid   decimal.Decimal // Credits: expenses paid and settlements sent
	TotalOwed   decimal.Decimal // Debits: shares owed and settlements received
}

// NetBalances maps every participant to their signed balance.
type NetBalances map[ParticipantID]decimal.Decimal

// Sum adds every balance. It is zero for any ledger folded by ComputeNetBalances.
func (n NetBalances) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range n {
		sum = sum.Add(v)
	}
	return sum
}

// ComputeNetBalances folds expenses, their splits and settlements into one
// signed balance per participant. The result does not depend on the order of
// any of the inputs.
func ComputeNetBalances(expenses []ExpenseForBalance, splitsByExpense map[string][]Share, settlements []SettlementForBalance) (NetBalances, error) {
	members, err := ComputeMemberBalances(expenses, splitsByExpense, settlements)
	if err != nil {
		return nil, err
	}
	return NetBalancesOf(members), nil
}

// NetBalancesOf extracts the net balance of each member.
func NetBalancesOf(members []MemberBalance) NetBalances {
	net := make(NetBalances, len(members))
	for _, m := range members {
		net[m.Participant] = m.NetBalance
	}
	return net
}

// ComputeMemberBalances computes credits, debits and net balance per participant.
//
// Algorithm:
//   - For each expense: payer is credited the full amount, each split member is
//     debited their owed amount, and the payer is debited whatever the splits
//     leave unrecorded (their implicit share).
//   - For each settlement: payer's balance improves, receiver's balance decreases.
//   - Net = credits - debits.
//
// Members are returned sorted by participant ID.
func ComputeMemberBalances(expenses []ExpenseForBalance, splitsByExpense map[string][]Share, settlements []SettlementForBalance) ([]MemberBalance, error) {
	acc := make(accumulator)

	known := make(map[string]ExpenseForBalance, len(expenses))
	for _, e := range expenses {
		if _, dup := known[e.ID]; dup {
			return nil, fmt.Errorf("%w: expense %s listed twice", ErrInconsistentData, e.ID)
		}
		if !e.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: expense %s has non-positive amount %s", ErrInconsistentData, e.ID, e.Amount)
		}
		known[e.ID] = e
	}
	for expenseID := range splitsByExpense {
		if _, ok := known[expenseID]; !ok {
			return nil, fmt.Errorf("%w: splits reference unknown expense %s", ErrInconsistentData, expenseID)
		}
	}

	for _, e := range expenses {
		acc.credit(e.PayerID, e.Amount)

		recorded := decimal.Zero
		for _, s := range splitsByExpense[e.ID] {
			if s.Owed.IsNegative() {
				return nil, fmt.Errorf("%w: expense %s owes negative amount %s for member %d",
					ErrInconsistentData, e.ID, s.Owed, s.Member)
			}
			if s.Member == e.PayerID {
				return nil, fmt.Errorf("%w: expense %s has a split for its own payer %d",
					ErrInconsistentData, e.ID, e.PayerID)
			}
			acc.debit(s.Member, s.Owed)
			recorded = recorded.Add(s.Owed)
		}

		implicit := e.Amount.Sub(recorded)
		if implicit.LessThan(splitTolerance.Neg()) {
			return nil, fmt.Errorf("%w: splits of expense %s total %s, more than its amount %s",
				ErrInconsistentData, e.ID, recorded, e.Amount)
		}
		acc.debit(e.PayerID, implicit)
	}

	for _, s := range settlements {
		if !s.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: settlement %s has non-positive amount %s", ErrInconsistentData, s.ID, s.Amount)
		}
		if s.FromID == s.ToID {
			return nil, fmt.Errorf("%w: settlement %s pays member %d to themselves", ErrInconsistentData, s.ID, s.FromID)
		}
		acc.credit(s.FromID, s.Amount)
		acc.debit(s.ToID, s.Amount)
	}

	return acc.balances(), nil
}

// accumulator holds the running totals of a single fold. It never outlives the call.
type accumulator map[ParticipantID]*MemberBalance

func (a accumulator) get(p ParticipantID) *MemberBalance {
	bal, ok := a[p]
	if !ok {
		bal = &MemberBalance{Participant: p}
		a[p] = bal
	}
	return bal
}

func (a accumulator) credit(p ParticipantID, amount decimal.Decimal) {
	bal := a.get(p)
	bal.TotalPaid = bal.TotalPaid.Add(amount)
}

func (a accumulator) debit(p ParticipantID, amount decimal.Decimal) {
	bal := a.get(p)
	bal.TotalOwed = bal.TotalOwed.Add(amount)
}

func (a accumulator) balances() []MemberBalance {
	out := make([]MemberBalance, 0, len(a))
	for _, bal := range a {
		bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
		out = append(out, *bal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Participant < out[j].Participant })
	return out
}
