package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// httpStatus maps a ledger error onto an HTTP status code.
func httpStatus(err error) int {
	switch service.ErrorCode(err) {
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodeFailedPrecondition:
		return http.StatusUnprocessableEntity
	case connect.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports validation failures verbatim. Server side failures are
// logged and answered with a generic message so storage details stay private.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	msg := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		msg = "ledger data unavailable"
	case status >= http.StatusInternalServerError:
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (a *API) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req ledgerrpc.AddMemberRequest
	if !decode(w, r, &req) {
		return
	}

	member, err := a.ledger.AddMember(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "ok",
		"member": service.ToMember(member),
	})
}

func (a *API) handleListFriends(w http.ResponseWriter, r *http.Request) {
	members, err := a.ledger.ListMembers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.ToMembers(members))
}

func (a *API) handleDeleteFriend(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := a.ledger.DeleteMember(r.Context(), id); err != nil {
		if httpStatus(err) == http.StatusNotFound {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "not_found"})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ledgerrpc.CreateExpenseRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := service.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	recorded, err := a.ledger.RecordExpense(r.Context(), service.ExpenseInput{
		Amount:       req.Amount,
		Description:  req.Description,
		PayerID:      req.PayerID,
		Participants: req.ParticipantIDs,
		Date:         date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ledgerrpc.CreateExpenseResponse{
		Expense:    service.ToExpense(recorded.Expense),
		Skipped:    recorded.Split.Skipped,
		SkipReason: string(recorded.Split.SkipReason),
	})
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := a.ledger.ListExpenses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.ToExpenses(expenses))
}

func (a *API) handlePreviewSplit(w http.ResponseWriter, r *http.Request) {
	var req ledgerrpc.CalculateSplitRequest
	if !decode(w, r, &req) {
		return
	}
	result := a.ledger.CalculateSplit(req.Amount, req.PayerID, req.ParticipantIDs)
	writeJSON(w, http.StatusOK, service.ToSplit(req.Amount, result))
}

func (a *API) handleRecordSettlement(w http.ResponseWriter, r *http.Request) {
	var req ledgerrpc.RecordSettlementRequest
	if !decode(w, r, &req) {
		return
	}

	settlement, err := a.ledger.RecordSettlement(r.Context(), req.PayerID, req.ReceiverID, req.Amount, req.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, service.ToSettlement(settlement))
}

func (a *API) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := a.ledger.ListSettlements(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.ToSettlements(settlements))
}

// handleBalances returns the signed net balance of every member with an
// outstanding position: positive is owed money, negative owes money.
func (a *API) handleBalances(w http.ResponseWriter, r *http.Request) {
	summary, err := a.ledger.Balances(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	net := make(map[string]decimal.Decimal, len(summary.Report))
	for p := range summary.Report {
		net[strconv.FormatInt(int64(p), 10)] = summary.Net[p]
	}
	writeJSON(w, http.StatusOK, net)
}

func (a *API) handleSettleUp(w http.ResponseWriter, r *http.Request) {
	summary, err := a.ledger.Balances(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	members, err := a.ledger.ListMembers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, service.ToBalances(summary, service.MemberNames(members)))
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := a.ledger.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "reset",
		"message": "All ledger data deleted.",
	})
}
