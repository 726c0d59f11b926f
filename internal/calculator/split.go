package calculator

import (
	"github.com/shopspring/decimal"
)

// ParticipantID identifies a person in the ledger.
type ParticipantID int64

// Share is the amount one member owes for a single expense.
type Share struct {
	Member ParticipantID
	Owed   decimal.Decimal
}

// SkipReason explains why ComputeSplit produced no shares.
type SkipReason string

const (
	SkipNoParticipants    SkipReason = "no participants"
	SkipNonPositiveAmount SkipReason = "amount must be positive"
)

// SplitResult is the outcome of an equal split.
// A skipped split is a no-op: Shares is empty and SkipReason says why.
type SplitResult struct {
	Shares     []Share
	PerPerson  decimal.Decimal
	Skipped    bool
	SkipReason SkipReason
}

// Total returns the sum of all recorded shares.
func (r SplitResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range r.Shares {
		total = total.Add(s.Owed)
	}
	return total
}

// PayerShare returns the part of amount that no share records, which is the
// payer's own implicit share when the payer is one of the participants.
func (r SplitResult) PayerShare(amount decimal.Decimal) decimal.Decimal {
	if r.Skipped {
		return decimal.Zero
	}
	return amount.Sub(r.Total())
}

// ComputeSplit divides amount equally across every entry of participants.
//
// The divisor is len(participants) even when the payer is in the list, but the
// payer never gets a share of their own expense. Remainders left by the division
// are not redistributed.
func ComputeSplit(amount decimal.Decimal, payer ParticipantID, participants []ParticipantID) SplitResult {
	if len(participants) == 0 {
		return SplitResult{Skipped: true, SkipReason: SkipNoParticipants}
	}
	if !amount.IsPositive() {
		return SplitResult{Skipped: true, SkipReason: SkipNonPositiveAmount}
	}

	perPerson := amount.Div(decimal.NewFromInt(int64(len(participants))))

	shares := make([]Share, 0, len(participants))
	for _, p := range participants {
		if p == payer {
			continue
		}
		shares = append(shares, Share{Member: p, Owed: perPerson})
	}

	return SplitResult{Shares: shares, PerPerson: perPerson}
}
