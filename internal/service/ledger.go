// Package service implements the ledger's use cases and exposes them over Connect.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ErrInvalidArgument is returned when a request fails validation.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Ledger records expenses and settlements and computes balances from them.
type Ledger struct {
	store       storage.Store
	publisher   events.Publisher
	metrics     *metrics.Metrics
	concurrency int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher announces recorded entries through p.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithMetrics records ledger metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithSnapshotConcurrency bounds parallel split lookups during balance computation.
func WithSnapshotConcurrency(n int) Option {
	return func(l *Ledger) { l.concurrency = n }
}

// NewLedger creates a Ledger on top of store.
func NewLedger(store storage.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		publisher:   events.NopPublisher{},
		concurrency: storage.DefaultSnapshotConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AddMember registers a new member.
func (l *Ledger) AddMember(ctx context.Context, name, email string) (*models.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("name is required")
	}

	member := models.NewMember(name, strings.TrimSpace(email))
	if err := l.store.CreateMember(ctx, member); err != nil {
		return nil, err
	}
	slog.Info("Member added", "member_id", member.ID, "name", member.Name)
	return member, nil
}

// ListMembers returns every member ordered by ID.
func (l *Ledger) ListMembers(ctx context.Context) ([]*models.Member, error) {
	return l.store.ListMembers(ctx)
}

// DeleteMember removes a member. Entries that reference the member are kept,
// so their balance survives the deletion.
func (l *Ledger) DeleteMember(ctx context.Context, memberID int64) error {
	if err := l.store.DeleteMember(ctx, memberID); err != nil {
		return err
	}
	slog.Info("Member deleted", "member_id", memberID)
	return nil
}

// ExpenseInput describes an expense to record.
type ExpenseInput struct {
	Amount       decimal.Decimal
	Description  string
	PayerID      int64
	Participants []int64
	Date         time.Time // zero means today
}

// RecordedExpense is a stored expense and the split that produced its debts.
type RecordedExpense struct {
	Expense *models.Expense
	Split   calculator.SplitResult
}

// RecordExpense stores an expense together with the debts of an equal split.
// An expense with no participants is still recorded; Split reports the no-op.
func (l *Ledger) RecordExpense(ctx context.Context, in ExpenseInput) (*RecordedExpense, error) {
	if !in.Amount.IsPositive() {
		return nil, invalidf("amount must be positive, got %s", in.Amount)
	}
	ids := append([]int64{in.PayerID}, in.Participants...)
	if err := l.requireMembers(ctx, ids...); err != nil {
		return nil, err
	}

	participants := make([]calculator.ParticipantID, len(in.Participants))
	for i, p := range in.Participants {
		participants[i] = calculator.ParticipantID(p)
	}
	split := calculator.ComputeSplit(in.Amount, calculator.ParticipantID(in.PayerID), participants)
	if split.Skipped {
		l.metrics.SplitSkipped(string(split.SkipReason))
		slog.Info("Split skipped", "reason", split.SkipReason, "payer_id", in.PayerID)
	}

	expense := &models.Expense{
		Amount:       in.Amount,
		Description:  strings.TrimSpace(in.Description),
		PayerID:      in.PayerID,
		Participants: in.Participants,
		Date:         in.Date,
		Splits:       make([]models.ExpenseSplit, len(split.Shares)),
	}
	for i, s := range split.Shares {
		expense.Splits[i] = models.ExpenseSplit{MemberID: int64(s.Member), OwedAmount: s.Owed}
	}

	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}
	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"amount", expense.Amount.String(),
		"payer_id", expense.PayerID,
		"splits", len(expense.Splits),
	)

	l.publish(ctx, events.ExpenseRecorded(expense))
	return &RecordedExpense{Expense: expense, Split: split}, nil
}

// ListExpenses returns every expense with its splits, oldest first.
func (l *Ledger) ListExpenses(ctx context.Context) ([]*models.Expense, error) {
	return storage.LoadExpenses(ctx, l.store, l.concurrency)
}

// RecordSettlement stores a payment from payerID to receiverID.
func (l *Ledger) RecordSettlement(ctx context.Context, payerID, receiverID int64, amount decimal.Decimal, note string) (*models.Settlement, error) {
	if !amount.IsPositive() {
		return nil, invalidf("amount must be positive, got %s", amount)
	}
	if payerID == receiverID {
		return nil, invalidf("payer and receiver must differ")
	}
	if err := l.requireMembers(ctx, payerID, receiverID); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		PayerID:    payerID,
		ReceiverID: receiverID,
		Amount:     amount,
		Note:       strings.TrimSpace(note),
	}
	if err := l.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, err
	}
	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"payer_id", payerID,
		"receiver_id", receiverID,
		"amount", amount.String(),
	)

	l.publish(ctx, events.SettlementRecorded(settlement))
	return settlement, nil
}

// ListSettlements returns every settlement, oldest first.
func (l *Ledger) ListSettlements(ctx context.Context) ([]*models.Settlement, error) {
	return l.store.ListSettlements(ctx)
}

// BalanceSummary is everything derived from one snapshot of the ledger.
type BalanceSummary struct {
	Members   []calculator.MemberBalance // every participant ever seen, by ID
	Net       calculator.NetBalances
	Report    calculator.Report
	Transfers []calculator.Transfer
}

// Balances recomputes every balance from the recorded entries.
func (l *Ledger) Balances(ctx context.Context) (*BalanceSummary, error) {
	snap, err := storage.LoadSnapshot(ctx, l.store, l.concurrency)
	if err != nil {
		l.metrics.BalanceComputed("data_unavailable")
		return nil, err
	}

	members, err := calculator.ComputeMemberBalances(snap.BalanceInputs())
	if err != nil {
		l.metrics.BalanceComputed("inconsistent_data")
		slog.Error("Balance computation failed", "error", err)
		return nil, err
	}
	l.metrics.BalanceComputed("ok")

	net := calculator.NetBalancesOf(members)
	report := calculator.BuildReport(net)
	return &BalanceSummary{
		Members:   members,
		Net:       net,
		Report:    report,
		Transfers: calculator.SimplifyDebts(report),
	}, nil
}

// CalculateSplit previews an equal split without recording anything.
func (l *Ledger) CalculateSplit(amount decimal.Decimal, payerID int64, participants []int64) calculator.SplitResult {
	ids := make([]calculator.ParticipantID, len(participants))
	for i, p := range participants {
		ids[i] = calculator.ParticipantID(p)
	}
	return calculator.ComputeSplit(amount, calculator.ParticipantID(payerID), ids)
}

// Reset deletes every member, expense and settlement.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.store.Reset(ctx); err != nil {
		return err
	}
	slog.Warn("Ledger reset")
	return nil
}

// requireMembers fails with ErrInvalidArgument unless every id is a current member.
func (l *Ledger) requireMembers(ctx context.Context, ids ...int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := l.store.GetMember(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return invalidf("unknown member %d", id)
			}
			return err
		}
	}
	return nil
}

// publish delivers event on a best-effort basis.
func (l *Ledger) publish(ctx context.Context, event events.Event) {
	if err := l.publisher.Publish(ctx, event); err != nil {
		l.metrics.PublishFailed()
		slog.Warn("Failed to publish event", "type", event.Type, "entity_id", event.EntityID, "error", err)
	}
}

// ParseDate parses a YYYY-MM-DD date. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, invalidf("date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}
