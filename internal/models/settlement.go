package models

import "github.com/shopspring/decimal"

// Settlement represents a payment between members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// PayerID is the member who paid (debtor settling up).
	PayerID int64

	// ReceiverID is the member who received payment (creditor being paid).
	ReceiverID int64

	// Amount is the payment amount. Always positive.
	Amount decimal.Decimal

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
