// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	// WAL lets a snapshot read stay open while writers commit.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Reset deletes every record and restarts member numbering.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Order matters: splits and participants reference expenses.
	for _, table := range []string{"expense_splits", "expense_participants", "expenses", "settlements", "members"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence"); err != nil {
		return fmt.Errorf("failed to reset sequences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateExpense persists a new expense, its party and its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, amount, description, payer_id, expense_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Amount.String(), expense.Description, expense.PayerID,
		expense.Date.Format(models.DateLayout), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for pos, memberID := range expense.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, position, member_id) VALUES (?, ?, ?)",
			expense.ID, pos, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i := range expense.Splits {
		split := &expense.Splits[i]
		split.ExpenseID = expense.ID

		res, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, member_id, owed_amount) VALUES (?, ?, ?)",
			split.ExpenseID, split.MemberID, split.OwedAmount.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
		if split.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read split id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListExpenses retrieves all expenses with their party, oldest first.
// Splits are not loaded; see ListSplitsForExpense.
func (s *SQLiteStore) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return listExpenses(ctx, s.db)
}

func listExpenses(ctx context.Context, q querier) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, amount, description, payer_id, expense_date, created_at
		 FROM expenses ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		expense := &models.Expense{}
		var date string
		if err := rows.Scan(&expense.ID, &expense.Amount, &expense.Description, &expense.PayerID,
			&date, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if expense.Date, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, fmt.Errorf("failed to parse date of expense %s: %w", expense.ID, err)
		}
		expenses = append(expenses, expense)
		byID[expense.ID] = expense
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	partRows, err := q.QueryContext(ctx,
		"SELECT expense_id, member_id FROM expense_participants ORDER BY expense_id, position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer partRows.Close()

	for partRows.Next() {
		var expenseID string
		var memberID int64
		if err := partRows.Scan(&expenseID, &memberID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		if expense, ok := byID[expenseID]; ok {
			expense.Participants = append(expense.Participants, memberID)
		}
	}
	if err := partRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}

	return expenses, nil
}

// ListSplitsForExpense retrieves the debts recorded for one expense.
func (s *SQLiteStore) ListSplitsForExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error) {
	return listSplitsForExpense(ctx, s.db, expenseID)
}

func listSplitsForExpense(ctx context.Context, q querier, expenseID string) ([]*models.ExpenseSplit, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, expense_id, member_id, owed_amount FROM expense_splits WHERE expense_id = ? ORDER BY id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits for expense %s: %w", expenseID, err)
	}
	defer rows.Close()

	var splits []*models.ExpenseSplit
	for rows.Next() {
		split := &models.ExpenseSplit{}
		if err := rows.Scan(&split.ID, &split.ExpenseID, &split.MemberID, &split.OwedAmount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return splits, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// ReadSnapshot runs fn against one read-only transaction. The snapshot is
// fixed by the first read inside fn; later commits are not visible to it.
func (s *SQLiteStore) ReadSnapshot(ctx context.Context, fn func(storage.EventSource) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if err := fn(txSource{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// txSource reads the event streams through one transaction.
type txSource struct {
	tx *sql.Tx
}

func (t txSource) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return listExpenses(ctx, t.tx)
}

func (t txSource) ListSplitsForExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error) {
	return listSplitsForExpense(ctx, t.tx, expenseID)
}

func (t txSource) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	return listSettlements(ctx, t.tx)
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, storage.ErrNotFound)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
