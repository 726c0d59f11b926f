package service

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// ErrorCode classifies err for the wire.
func ErrorCode(err error) connect.Code {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return connect.CodeInvalidArgument
	case errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, calculator.ErrInconsistentData):
		return connect.CodeFailedPrecondition
	case errors.Is(err, storage.ErrDataUnavailable):
		return connect.CodeUnavailable
	default:
		return connect.CodeInternal
	}
}

func toConnectError(err error) error {
	return connect.NewError(ErrorCode(err), err)
}

// ToMember converts a stored member to its wire form.
func ToMember(m *models.Member) ledgerrpc.Member {
	return ledgerrpc.Member{ID: m.ID, Name: m.Name, Email: m.Email, CreatedAt: m.CreatedAt}
}

// ToMembers converts stored members to their wire form.
func ToMembers(members []*models.Member) []ledgerrpc.Member {
	out := make([]ledgerrpc.Member, len(members))
	for i, m := range members {
		out[i] = ToMember(m)
	}
	return out
}

// ToExpense converts a stored expense, with whatever splits it carries.
func ToExpense(e *models.Expense) ledgerrpc.Expense {
	out := ledgerrpc.Expense{
		ID:             e.ID,
		Amount:         e.Amount,
		Description:    e.Description,
		PayerID:        e.PayerID,
		ParticipantIDs: e.Participants,
		Date:           e.Date.Format(models.DateLayout),
		CreatedAt:      e.CreatedAt,
	}
	if out.ParticipantIDs == nil {
		out.ParticipantIDs = []int64{}
	}
	for _, s := range e.Splits {
		out.Splits = append(out.Splits, ledgerrpc.Share{MemberID: s.MemberID, Owed: s.OwedAmount})
	}
	return out
}

// ToExpenses converts stored expenses to their wire form.
func ToExpenses(expenses []*models.Expense) []ledgerrpc.Expense {
	out := make([]ledgerrpc.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = ToExpense(e)
	}
	return out
}

// ToSettlement converts a stored settlement to its wire form.
func ToSettlement(s *models.Settlement) ledgerrpc.Settlement {
	return ledgerrpc.Settlement{
		ID:         s.ID,
		PayerID:    s.PayerID,
		ReceiverID: s.ReceiverID,
		Amount:     s.Amount,
		Note:       s.Note,
		CreatedAt:  s.CreatedAt,
	}
}

// ToSettlements converts stored settlements to their wire form.
func ToSettlements(settlements []*models.Settlement) []ledgerrpc.Settlement {
	out := make([]ledgerrpc.Settlement, len(settlements))
	for i, s := range settlements {
		out[i] = ToSettlement(s)
	}
	return out
}

// ToSplit converts a split preview for amount.
func ToSplit(amount decimal.Decimal, r calculator.SplitResult) *ledgerrpc.CalculateSplitResponse {
	resp := &ledgerrpc.CalculateSplitResponse{
		Shares:     make([]ledgerrpc.Share, len(r.Shares)),
		PerPerson:  r.PerPerson,
		PayerShare: r.PayerShare(amount),
		Skipped:    r.Skipped,
		SkipReason: string(r.SkipReason),
	}
	for i, s := range r.Shares {
		resp.Shares[i] = ledgerrpc.Share{MemberID: int64(s.Member), Owed: s.Owed}
	}
	return resp
}

// ToBalances converts a balance summary. names labels member balances and may be nil.
func ToBalances(summary *BalanceSummary, names map[int64]string) *ledgerrpc.GetBalancesResponse {
	resp := &ledgerrpc.GetBalancesResponse{
		Members:   make([]ledgerrpc.MemberBalance, len(summary.Members)),
		Balances:  []ledgerrpc.BalanceEntry{},
		Transfers: make([]ledgerrpc.Transfer, len(summary.Transfers)),
	}
	for i, m := range summary.Members {
		id := int64(m.Participant)
		resp.Members[i] = ledgerrpc.MemberBalance{
			MemberID:   id,
			Name:       names[id],
			NetBalance: m.NetBalance,
			TotalPaid:  m.TotalPaid,
			TotalOwed:  m.TotalOwed,
		}
	}
	for _, e := range summary.Report.Entries() {
		resp.Balances = append(resp.Balances, ledgerrpc.BalanceEntry{
			MemberID:  int64(e.Participant),
			Direction: string(e.Direction),
			Amount:    e.Amount,
		})
	}
	for i, t := range summary.Transfers {
		resp.Transfers[i] = ledgerrpc.Transfer{FromID: int64(t.From), ToID: int64(t.To), Amount: t.Amount}
	}
	return resp
}

// MemberNames indexes member names by ID.
func MemberNames(members []*models.Member) map[int64]string {
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names
}
