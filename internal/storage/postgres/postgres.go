// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a pgx connection pool.
// Amounts are NUMERIC columns exchanged as text so no precision is lost.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and makes sure the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// RunMigrations creates the ledger tables if they do not exist.
func (s *Store) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS members (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			amount NUMERIC NOT NULL,
			description TEXT NOT NULL,
			payer_id BIGINT NOT NULL,
			expense_date DATE NOT NULL,
			created_at BIGINT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS expense_participants (
			expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			position INT NOT NULL,
			member_id BIGINT NOT NULL,
			PRIMARY KEY (expense_id, position)
		);
		CREATE TABLE IF NOT EXISTS expense_splits (
			id BIGSERIAL PRIMARY KEY,
			expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			member_id BIGINT NOT NULL,
			owed_amount NUMERIC NOT NULL
		);
		CREATE TABLE IF NOT EXISTS settlements (
			id TEXT PRIMARY KEY,
			payer_id BIGINT NOT NULL,
			receiver_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			note TEXT,
			created_at BIGINT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_expense_splits_expense_id ON expense_splits(expense_id);
		CREATE INDEX IF NOT EXISTS idx_expenses_created_at ON expenses(created_at);
		CREATE INDEX IF NOT EXISTS idx_settlements_created_at ON settlements(created_at);
	`)
	return err
}

// Reset truncates every table and restarts identity sequences.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx,
		`TRUNCATE expense_splits, expense_participants, expenses, settlements, members RESTART IDENTITY`)
	if err != nil {
		return fmt.Errorf("failed to reset ledger: %w", err)
	}
	return nil
}

// CreateMember inserts a new member and assigns its ID.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO members (name, email, created_at) VALUES ($1, $2, $3) RETURNING id`,
		member.Name, member.Email, member.CreatedAt,
	).Scan(&member.ID)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by ID.
func (s *Store) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	member := &models.Member{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM members WHERE id = $1`, memberID,
	).Scan(&member.ID, &member.Name, &member.Email, &member.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("member %d: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers retrieves all members ordered by ID.
func (s *Store) ListMembers(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, email, created_at FROM members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m := &models.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// DeleteMember removes a member by ID.
func (s *Store) DeleteMember(ctx context.Context, memberID int64) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("member %d: %w", memberID, storage.ErrNotFound)
	}
	return nil
}

// CreateExpense persists an expense, its party and its splits in one transaction.
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO expenses (id, amount, description, payer_id, expense_date, created_at)
		 VALUES ($1, CAST($2::text AS NUMERIC), $3, $4, CAST($5::text AS DATE), $6)`,
		expense.ID, expense.Amount.String(), expense.Description, expense.PayerID,
		expense.Date.Format(models.DateLayout), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for pos, memberID := range expense.Participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO expense_participants (expense_id, position, member_id) VALUES ($1, $2, $3)`,
			expense.ID, pos, memberID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i := range expense.Splits {
		split := &expense.Splits[i]
		split.ExpenseID = expense.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO expense_splits (expense_id, member_id, owed_amount)
			 VALUES ($1, $2, CAST($3::text AS NUMERIC)) RETURNING id`,
			split.ExpenseID, split.MemberID, split.OwedAmount.String(),
		).Scan(&split.ID)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListExpenses retrieves all expenses with their party, oldest first.
func (s *Store) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return listExpenses(ctx, s.pool)
}

func listExpenses(ctx context.Context, q querier) ([]*models.Expense, error) {
	rows, err := q.Query(ctx,
		`SELECT e.id, e.amount::text, e.description, e.payer_id, e.expense_date::text, e.created_at,
		        COALESCE(array_agg(p.member_id ORDER BY p.position) FILTER (WHERE p.member_id IS NOT NULL), '{}')
		 FROM expenses e
		 LEFT JOIN expense_participants p ON p.expense_id = e.id
		 GROUP BY e.id
		 ORDER BY e.created_at, e.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e := &models.Expense{}
		var amount, date string
		if err := rows.Scan(&e.ID, &amount, &e.Description, &e.PayerID, &date, &e.CreatedAt, &e.Participants); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount of expense %s: %w", e.ID, err)
		}
		if e.Date, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, fmt.Errorf("failed to parse date of expense %s: %w", e.ID, err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ListSplitsForExpense retrieves the debts recorded for one expense.
func (s *Store) ListSplitsForExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error) {
	return listSplitsForExpense(ctx, s.pool, expenseID)
}

func listSplitsForExpense(ctx context.Context, q querier, expenseID string) ([]*models.ExpenseSplit, error) {
	rows, err := q.Query(ctx,
		`SELECT id, expense_id, member_id, owed_amount::text FROM expense_splits WHERE expense_id = $1 ORDER BY id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits for expense %s: %w", expenseID, err)
	}
	defer rows.Close()

	var splits []*models.ExpenseSplit
	for rows.Next() {
		split := &models.ExpenseSplit{}
		var owed string
		if err := rows.Scan(&split.ID, &split.ExpenseID, &split.MemberID, &owed); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if split.OwedAmount, err = decimal.NewFromString(owed); err != nil {
			return nil, fmt.Errorf("failed to parse owed amount of split %d: %w", split.ID, err)
		}
		splits = append(splits, split)
	}
	return splits, rows.Err()
}

// CreateSettlement persists a new settlement.
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	var note *string
	if settlement.Note != "" {
		note = &settlement.Note
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO settlements (id, payer_id, receiver_id, amount, note, created_at)
		 VALUES ($1, $2, $3, CAST($4::text AS NUMERIC), $5, $6)`,
		settlement.ID, settlement.PayerID, settlement.ReceiverID,
		settlement.Amount.String(), note, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements retrieves all settlements, oldest first.
func (s *Store) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	return listSettlements(ctx, s.pool)
}

func listSettlements(ctx context.Context, q querier) ([]*models.Settlement, error) {
	rows, err := q.Query(ctx,
		`SELECT id, payer_id, receiver_id, amount::text, COALESCE(note, ''), created_at
		 FROM settlements ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		st := &models.Settlement{}
		var amount string
		if err := rows.Scan(&st.ID, &st.PayerID, &st.ReceiverID, &amount, &st.Note, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if st.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse amount of settlement %s: %w", st.ID, err)
		}
		settlements = append(settlements, st)
	}
	return settlements, rows.Err()
}

// ReadSnapshot runs fn against a read-only REPEATABLE READ transaction, so
// every list call inside fn sees the same committed state.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(storage.EventSource) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(txSource{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// txSource reads the event streams through one transaction.
type txSource struct {
	tx pgx.Tx
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
