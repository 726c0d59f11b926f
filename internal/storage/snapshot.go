package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// DefaultSnapshotConcurrency bounds parallel split lookups when loading a snapshot.
const DefaultSnapshotConcurrency = 8

// Snapshot is a read of both event streams taken for one balance computation.
type Snapshot struct {
	Expenses    []*models.Expense // Splits populated
	Settlements []*models.Settlement
}

// LoadSnapshot reads every expense with its splits and every settlement.
// When src is a SnapshotReader all reads share one transaction, so the two
// streams always describe the same moment. Split lookups run concurrently,
// at most concurrency at a time.
//
// Any failure is reported as ErrDataUnavailable.
func LoadSnapshot(ctx context.Context, src EventSource, concurrency int) (*Snapshot, error) {
	var snap *Snapshot
	err := consistentRead(ctx, src, func(src EventSource) error {
		expenses, err := loadExpenses(ctx, src, concurrency)
		if err != nil {
			return err
		}
		settlements, err := src.ListSettlements(ctx)
		if err != nil {
			return fmt.Errorf("%w: list settlements: %v", ErrDataUnavailable, err)
		}
		snap = &Snapshot{Expenses: expenses, Settlements: settlements}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// LoadExpenses reads every expense with its splits, without settlements.
func LoadExpenses(ctx context.Context, src EventSource, concurrency int) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := consistentRead(ctx, src, func(src EventSource) error {
		var err error
		expenses, err = loadExpenses(ctx, src, concurrency)
		return err
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// consistentRead runs fn inside a snapshot when src supports one.
func consistentRead(ctx context.Context, src EventSource, fn func(EventSource) error) error {
	reader, ok := src.(SnapshotReader)
	if !ok {
		return fn(src)
	}

	err := reader.ReadSnapshot(ctx, func(tx EventSource) error {
		return fn(&serialSource{src: tx})
	})
	if err != nil && !errors.Is(err, ErrDataUnavailable) {
		return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return err
}

func loadExpenses(ctx context.Context, src EventSource, concurrency int) ([]*models.Expense, error) {
	if concurrency <= 0 {
		concurrency = DefaultSnapshotConcurrency
	}

	listed, err := src.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list expenses: %v", ErrDataUnavailable, err)
	}

	// Copy so filling in splits never touches records owned by the source.
	expenses := make([]*models.Expense, len(listed))
	for i, e := range listed {
		cp := *e
		expenses[i] = &cp
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, expense := range expenses {
		expense := expense
		g.Go(func() error {
			splits, err := src.ListSplitsForExpense(gctx, expense.ID)
			if err != nil {
				return fmt.Errorf("list splits for expense %s: %w", expense.ID, err)
			}
			expense.Splits = make([]models.ExpenseSplit, len(splits))
			for i, s := range splits {
				expense.Splits[i] = *s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	return expenses, nil
}

// serialSource forwards one call at a time. A transaction is a single
// connection and cannot run queries in parallel.
type serialSource struct {
	mu  sync.Mutex
	src EventSource
}

func (s *serialSource) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.ListExpenses(ctx)
}

func (s *serialSource) ListSplitsForExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.ListSplitsForExpense(ctx, expenseID)
}

func (s *serialSource) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.ListSettlements(ctx)
}

// BalanceInputs converts the snapshot into the calculator's input shape.
func (s *Snapshot) BalanceInputs() ([]calculator.ExpenseForBalance, map[string][]calculator.Share, []calculator.SettlementForBalance) {
	expenses := make([]calculator.ExpenseForBalance, 0, len(s.Expenses))
	splits := make(map[string][]calculator.Share, len(s.Expenses))
	for _, e := range s.Expenses {
		expenses = append(expenses, calculator.ExpenseForBalance{
			ID:      e.ID,
			PayerID: calculator.ParticipantID(e.PayerID),
			Amount:  e.Amount,
		})
		if len(e.Splits) == 0 {
			continue
		}
		shares := make([]calculator.Share, len(e.Splits))
		for i, sp := range e.Splits {
			shares[i] = calculator.Share{
				Member: calculator.ParticipantID(sp.MemberID),
				Owed:   sp.OwedAmount,
			}
		}
		splits[e.ID] = shares
	}

	settlements := make([]calculator.SettlementForBalance, 0, len(s.Settlements))
	for _, st := range s.Settlements {
		settlements = append(settlements, calculator.SettlementForBalance{
			ID:     st.ID,
			FromID: calculator.ParticipantID(st.PayerID),
			ToID:   calculator.ParticipantID(st.ReceiverID),
			Amount: st.Amount,
		})
	}

	return expenses, splits, settlements
}
