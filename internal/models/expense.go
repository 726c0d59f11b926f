package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the format used to persist and exchange expense dates.
const DateLayout = "2006-01-02"

// Expense represents an amount paid by one member and shared by a party.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// Description is a free-form label (e.g., "Team Dinner").
	Description string

	// PayerID is the member who paid.
	PayerID int64

	// Participants is the party the expense was split across, in the order given.
	// The payer may or may not be part of it.
	Participants []int64

	// Date is the day the expense was incurred.
	Date time.Time

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Splits are the debts the expense created, one per non-payer participant.
	Splits []ExpenseSplit
}

// ExpenseSplit represents what one member owes for an expense.
type ExpenseSplit struct {
	// ID is assigned by the store.
	ID int64

	// ExpenseID is the expense this debt belongs to.
	ExpenseID string

	// MemberID is the member who owes money.
	MemberID int64

	// OwedAmount is never negative.
	OwedAmount decimal.Decimal
}
