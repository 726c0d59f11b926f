package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Epsilon is the smallest balance reported as outstanding.
// Anything strictly below it in absolute value counts as settled.
var Epsilon = decimal.New(1, -2)

// Direction tells whether a participant owes money or is owed money.
type Direction string

const (
	DirectionOwes   Direction = "owes"
	DirectionIsOwed Direction = "is_owed"
)

// Position is a participant's outstanding balance as reported to callers.
type Position struct {
	Direction Direction
	Amount    decimal.Decimal // always positive
}

// Report holds the positions of every participant with an outstanding balance.
type Report map[ParticipantID]Position

// ReportEntry is one row of a Report.
type ReportEntry struct {
	Participant ParticipantID
	Position
}

// BuildReport prunes settled balances and labels the rest.
func BuildReport(net NetBalances) Report {
	report := make(Report)
	for p, v := range net {
		if v.Abs().LessThan(Epsilon) {
			continue
		}
		dir := DirectionIsOwed
		if v.IsNegative() {
			dir = DirectionOwes
		}
		report[p] = Position{Direction: dir, Amount: v.Abs()}
	}
	return report
}

// Entries returns the report rows sorted by participant ID.
func (r Report) Entries() []ReportEntry {
	entries := make([]ReportEntry, 0, len(r))
	for p, pos := range r {
		entries = append(entries, ReportEntry{Participant: p, Position: pos})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Participant < entries[j].Participant })
	return entries
}
