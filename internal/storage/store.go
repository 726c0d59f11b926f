// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDataUnavailable is the only storage failure the balance computation
	// sees. Driver and connection errors are wrapped in it.
	ErrDataUnavailable = errors.New("ledger data unavailable")
)

// EventSource supplies the two event streams balances are computed from.
type EventSource interface {
	// ListExpenses returns every recorded expense, without splits.
	ListExpenses(ctx context.Context) ([]*models.Expense, error)

	// ListSplitsForExpense returns the debts created by one expense.
	ListSplitsForExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error)

	// ListSettlements returns every recorded settlement.
	ListSettlements(ctx context.Context) ([]*models.Settlement, error)
}

// SnapshotReader serves the event streams from one consistent read.
type SnapshotReader interface {
	// ReadSnapshot calls fn with an EventSource bound to a single read-only
	// transaction. Writes committed while fn runs are not visible through it.
	// The EventSource is only valid until fn returns.
	ReadSnapshot(ctx context.Context, fn func(EventSource) error) error
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	EventSource
	SnapshotReader

	// CreateMember persists a new member. member.ID is set by the store.
	CreateMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a member by ID. Returns ErrNotFound if absent.
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)

	// ListMembers returns all members ordered by ID.
	ListMembers(ctx context.Context) ([]*models.Member, error)

	// DeleteMember removes a member. Recorded expenses and settlements are kept.
	// Returns ErrNotFound if absent.
	DeleteMember(ctx context.Context, memberID int64) error

	// CreateExpense persists an expense together with expense.Splits in one
	// transaction. ID, CreatedAt and split IDs are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// CreateSettlement persists a settlement. ID and CreatedAt are populated by the store.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// Reset deletes every record and restarts member numbering.
	Reset(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
