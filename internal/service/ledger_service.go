package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// LedgerService implements the Connect LedgerService
type LedgerService struct {
	ledgerrpc.UnimplementedLedgerServiceHandler
	ledger *Ledger
}

var _ ledgerrpc.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService backed by ledger.
func NewLedgerService(ledger *Ledger) *LedgerService {
	return &LedgerService{ledger: ledger}
}

// CalculateSplit previews an equal split without recording it.
func (s *LedgerService) CalculateSplit(ctx context.Context, req *connect.Request[ledgerrpc.CalculateSplitRequest]) (*connect.Response[ledgerrpc.CalculateSplitResponse], error) {
	slog.Debug("CalculateSplit request received",
		"amount", req.Msg.Amount.String(),
		"payer_id", req.Msg.PayerID,
		"participants", req.Msg.ParticipantIDs,
	)

	result := s.ledger.CalculateSplit(req.Msg.Amount, req.Msg.PayerID, req.Msg.ParticipantIDs)
	return connect.NewResponse(ToSplit(req.Msg.Amount, result)), nil
}

// CreateExpense records an expense and the debts of its equal split.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[ledgerrpc.CreateExpenseRequest]) (*connect.Response[ledgerrpc.CreateExpenseResponse], error) {
	date, err := ParseDate(req.Msg.Date)
	if err != nil {
		return nil, toConnectError(err)
	}

	recorded, err := s.ledger.RecordExpense(ctx, ExpenseInput{
		Amount:       req.Msg.Amount,
		Description:  req.Msg.Description,
		PayerID:      req.Msg.PayerID,
		Participants: req.Msg.ParticipantIDs,
		Date:         date,
	})
	if err != nil {
		slog.Error("CreateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ledgerrpc.CreateExpenseResponse{
		Expense:    ToExpense(recorded.Expense),
		Skipped:    recorded.Split.Skipped,
		SkipReason: string(recorded.Split.SkipReason),
	}), nil
}

// ListExpenses returns every recorded expense with its splits.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[ledgerrpc.ListExpensesRequest]) (*connect.Response[ledgerrpc.ListExpensesResponse], error) {
	expenses, err := s.ledger.ListExpenses(ctx)
	if err != nil {
		slog.Error("ListExpenses failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ledgerrpc.ListExpensesResponse{Expenses: ToExpenses(expenses)}), nil
}

// RecordSettlement records a payment between two members.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[ledgerrpc.RecordSettlementRequest]) (*connect.Response[ledgerrpc.RecordSettlementResponse], error) {
	settlement, err := s.ledger.RecordSettlement(ctx, req.Msg.PayerID, req.Msg.ReceiverID, req.Msg.Amount, req.Msg.Note)
	if err != nil {
		slog.Error("RecordSettlement failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ledgerrpc.RecordSettlementResponse{Settlement: ToSettlement(settlement)}), nil
}

// ListSettlements returns every recorded settlement.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[ledgerrpc.ListSettlementsRequest]) (*connect.Response[ledgerrpc.ListSettlementsResponse], error) {
	settlements, err := s.ledger.ListSettlements(ctx)
	if err != nil {
		slog.Error("ListSettlements failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ledgerrpc.ListSettlementsResponse{Settlements: ToSettlements(settlements)}), nil
}

// GetBalances recomputes balances, the report and a settle-up plan.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[ledgerrpc.GetBalancesRequest]) (*connect.Response[ledgerrpc.GetBalancesResponse], error) {
	summary, err := s.ledger.Balances(ctx)
	if err != nil {
		slog.Error("GetBalances failed", "error", err)
		return nil, toConnectError(err)
	}

	members, err := s.ledger.ListMembers(ctx)
	if err != nil {
		slog.Error("GetBalances failed - could not list members", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetBalances successful",
		"participants", len(summary.Members),
		"outstanding", len(summary.Report),
		"transfers", len(summary.Transfers),
	)
	return connect.NewResponse(ToBalances(summary, MemberNames(members))), nil
}

// AddMember registers a new member.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[ledgerrpc.AddMemberRequest]) (*connect.Response[ledgerrpc.AddMemberResponse], error) {
	member, err := s.ledger.AddMember(ctx, req.Msg.Name, req.Msg.Email)
	if err != nil {
		slog.Error("AddMember failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ledgerrpc.AddMemberResponse{Member: ToMember(member)}), nil
}

// ListMembers returns every member.
func (s *LedgerService) ListMembers(ctx context.Context, req *connect.Request[ledgerrpc.ListMembersRequest]) (*connect.Response[ledgerrpc.ListMembersResponse], error) {
	members, err := s.ledger.ListMembers(ctx)
	if err != nil {
		slog.Error("ListMembers failed", "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ledgerrpc.ListMembersResponse{Members: ToMembers(members)}), nil
}

// DeleteMember removes a member.
func (s *LedgerService) DeleteMember(ctx context.Context, req *connect.Request[ledgerrpc.DeleteMemberRequest]) (*connect.Response[ledgerrpc.DeleteMemberResponse], error) {
	if err := s.ledger.DeleteMember(ctx, req.Msg.MemberID); err != nil {
		slog.Error("DeleteMember failed", "member_id", req.Msg.MemberID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ledgerrpc.DeleteMemberResponse{}), nil
}
