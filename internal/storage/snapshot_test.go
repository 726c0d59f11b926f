package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// fakeSource is an in-memory EventSource.
type fakeSource struct {
	expenses    []*models.Expense
	splits      map[string][]*models.ExpenseSplit
	settlements []*models.Settlement

	splitErr    error
	listErr     error
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeSource) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.expenses, nil
}

func (f *fakeSource) ListSplitsForExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.splitErr != nil {
		return nil, f.splitErr
	}
	return f.splits[expenseID], nil
}

func (f *fakeSource) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	return f.settlements, nil
}

func newFakeSource(expenseCount int) *fakeSource {
	src := &fakeSource{splits: make(map[string][]*models.ExpenseSplit)}
	for i := 0; i < expenseCount; i++ {
		id := fmt.Sprintf("e%d", i)
		src.expenses = append(src.expenses, &models.Expense{
			ID:      id,
			Amount:  decimal.NewFromInt(30),
			PayerID: 1,
		})
		src.splits[id] = []*models.ExpenseSplit{
			{ExpenseID: id, MemberID: 2, OwedAmount: decimal.NewFromInt(10)},
			{ExpenseID: id, MemberID: 3, OwedAmount: decimal.NewFromInt(10)},
		}
	}
	src.settlements = []*models.Settlement{
		{ID: "s1", PayerID: 2, ReceiverID: 1, Amount: decimal.NewFromInt(5)},
	}
	return src
}

func TestLoadSnapshot(t *testing.T) {
	src := newFakeSource(20)

	snap, err := LoadSnapshot(context.Background(), src, 3)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if len(snap.Expenses) != 20 {
		t.Errorf("expenses = %d, want 20", len(snap.Expenses))
	}
	for _, e := range snap.Expenses {
		if len(e.Splits) != 2 {
			t.Errorf("expense %s has %d splits, want 2", e.ID, len(e.Splits))
		}
	}
	if len(snap.Settlements) != 1 {
		t.Errorf("settlements = %d, want 1", len(snap.Settlements))
	}
	if got := src.maxInFlight.Load(); got > 3 {
		t.Errorf("max concurrent split lookups = %d, want <= 3", got)
	}

	// Source records are left untouched.
	for _, e := range src.expenses {
		if e.Splits != nil {
			t.Errorf("source expense %s was modified", e.ID)
		}
	}
}

func TestLoadSnapshot_WrapsFailures(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"list expenses fails", &fakeSource{listErr: errors.New("connection refused")}},
		{"split lookup fails", func() *fakeSource {
			src := newFakeSource(4)
			src.splitErr = errors.New("disk I/O error")
			return src
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSnapshot(context.Background(), tt.src, 2)
			if !errors.Is(err, ErrDataUnavailable) {
				t.Errorf("error = %v, want ErrDataUnavailable", err)
			}
		})
	}
}

func TestSnapshotBalanceInputs(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), newFakeSource(2), 0)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	expenses, splits, settlements := snap.BalanceInputs()
	net, err := calculator.ComputeNetBalances(expenses, splits, settlements)
	if err != nil {
		t.Fatalf("ComputeNetBalances failed: %v", err)
	}

	// Two 30.00 expenses paid by 1, members 2 and 3 owe 10.00 each per expense,
	// payer carries the 10.00 left unrecorded; member 2 settled 5.00.
	want := map[calculator.ParticipantID]string{1: "35", 2: "-15", 3: "-20"}
	for p, w := range want {
		if !net[p].Equal(decimal.RequireFromString(w)) {
			t.Errorf("participant %d = %s, want %s", p, net[p], w)
		}
	}
}

// snapshotSource serves reads through ReadSnapshot and counts how they arrive.
type snapshotSource struct {
	*fakeSource
	snapshots   int
	direct      int
	settlements int
	beginErr    error
}

func (s *snapshotSource) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	s.direct++
	return s.fakeSource.ListExpenses(ctx)
}

func (s *snapshotSource) ReadSnapshot(ctx context.Context, fn func(EventSource) error) error {
	if s.beginErr != nil {
		return s.beginErr
	}
	s.snapshots++
	return fn(&countingSource{fakeSource: s.fakeSource, settlements: &s.settlements})
}

type countingSource struct {
	*fakeSource
	settlements *int
}

func (c *countingSource) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	*c.settlements++
	return c.fakeSource.ListSettlements(ctx)
}

func TestLoadSnapshot_UsesSnapshotReader(t *testing.T) {
	src := &snapshotSource{fakeSource: newFakeSource(5)}

	snap, err := LoadSnapshot(context.Background(), src, 4)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if src.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", src.snapshots)
	}
	if src.direct != 0 {
		t.Errorf("expenses read outside the snapshot %d times", src.direct)
	}
	if len(snap.Expenses) != 5 || len(snap.Settlements) != 1 {
		t.Errorf("snapshot has %d expenses and %d settlements", len(snap.Expenses), len(snap.Settlements))
	}
	// calls through one transaction never overlap
	if got := src.maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent split lookups = %d, want 1", got)
	}
}

func TestLoadSnapshot_BeginFailure(t *testing.T) {
	src := &snapshotSource{fakeSource: newFakeSource(1), beginErr: errors.New("database is locked")}

	if _, err := LoadSnapshot(context.Background(), src, 2); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("error = %v, want ErrDataUnavailable", err)
	}
}

func TestLoadExpenses(t *testing.T) {
	src := &snapshotSource{fakeSource: newFakeSource(3)}

	expenses, err := LoadExpenses(context.Background(), src, 2)
	if err != nil {
		t.Fatalf("LoadExpenses failed: %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("expenses = %d, want 3", len(expenses))
	}
	for _, e := range expenses {
		if len(e.Splits) != 2 {
			t.Errorf("expense %s has %d splits, want 2", e.ID, len(e.Splits))
		}
	}
	if src.settlements != 0 {
		t.Errorf("settlements read %d times, want 0", src.settlements)
	}
	if src.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", src.snapshots)
	}
}
