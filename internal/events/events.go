// Package events announces recorded ledger entries to other systems.
package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Event types double as AMQP routing keys.
const (
	TypeExpenseRecorded    = "expense.recorded"
	TypeSettlementRecorded = "settlement.recorded"
)

// Event is a lightweight notification about one immutable ledger entry.
// Consumers fetch balances from the ledger; events never carry them.
type Event struct {
	Type      string          `json:"type"`
	EntityID  string          `json:"entity_id"`
	PayerID   int64           `json:"payer_id"`
	Amount    decimal.Decimal `json:"amount"`
	Members   []int64         `json:"members,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ExpenseRecorded builds the event for a stored expense. Members are the
// debtors the expense created, in split order.
func ExpenseRecorded(expense *models.Expense) Event {
	members := make([]int64, 0, len(expense.Splits))
	for _, s := range expense.Splits {
		members = append(members, s.MemberID)
	}
	return Event{
		Type:      TypeExpenseRecorded,
		EntityID:  expense.ID,
		PayerID:   expense.PayerID,
		Amount:    expense.Amount,
		Members:   members,
		Timestamp: time.Now(),
	}
}

// SettlementRecorded builds the event for a stored settlement.
func SettlementRecorded(settlement *models.Settlement) Event {
	return Event{
		Type:      TypeSettlementRecorded,
		EntityID:  settlement.ID,
		PayerID:   settlement.PayerID,
		Amount:    settlement.Amount,
		Members:   []int64{settlement.ReceiverID},
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
