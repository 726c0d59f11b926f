package ledgerrpc

import "github.com/shopspring/decimal"

type Member struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type AddMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type AddMemberResponse struct {
	Member Member `json:"member"`
}

type ListMembersRequest struct{}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

type DeleteMemberRequest struct {
	MemberID int64 `json:"member_id"`
}

type DeleteMemberResponse struct{}

// Share is what one member owes for an expense.
type Share struct {
	MemberID int64           `json:"member_id"`
	Owed     decimal.Decimal `json:"owed"`
}

type CalculateSplitRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PayerID        int64           `json:"payer_id"`
	ParticipantIDs []int64         `json:"participant_ids"`
}

// CalculateSplitResponse previews a split without recording it.
// When Skipped is set, Shares is empty and SkipReason says why.
type CalculateSplitResponse struct {
	Shares     []Share         `json:"shares"`
	PerPerson  decimal.Decimal `json:"per_person"`
	PayerShare decimal.Decimal `json:"payer_share"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason string          `json:"skip_reason,omitempty"`
}

type Expense struct {
	ID             string          `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	PayerID        int64           `json:"payer_id"`
	ParticipantIDs []int64         `json:"participant_ids"`
	Date           string          `json:"date"` // YYYY-MM-DD
	CreatedAt      int64           `json:"created_at"`
	Splits         []Share         `json:"splits,omitempty"`
}

type CreateExpenseRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	PayerID        int64           `json:"payer_id"`
	ParticipantIDs []int64         `json:"participant_ids"`
	Date           string          `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type CreateExpenseResponse struct {
	Expense    Expense `json:"expense"`
	Skipped    bool    `json:"skipped,omitempty"`
	SkipReason string  `json:"skip_reason,omitempty"`
}

type ListExpensesRequest struct{}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type Settlement struct {
	ID         string          `json:"id"`
	PayerID    int64           `json:"payer_id"`
	ReceiverID int64           `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  int64           `json:"created_at"`
}

type RecordSettlementRequest struct {
	PayerID    int64           `json:"payer_id"`
	ReceiverID int64           `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type ListSettlementsRequest struct{}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type GetBalancesRequest struct{}

// MemberBalance is the full ledger position of one participant.
// Name is empty for participants that are no longer members.
type MemberBalance struct {
	MemberID   int64           `json:"member_id"`
	Name       string          `json:"name,omitempty"`
	NetBalance decimal.Decimal `json:"net_balance"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	TotalOwed  decimal.Decimal `json:"total_owed"`
}

// BalanceEntry is one line of the balance report. Direction is "owes" or "is_owed".
type BalanceEntry struct {
	MemberID  int64           `json:"member_id"`
	Direction string          `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
}

// Transfer is one payment of a settle-up plan.
type Transfer struct {
	FromID int64           `json:"from_id"`
	ToID   int64           `json:"to_id"`
	Amount decimal.Decimal `json:"amount"`
}

type GetBalancesResponse struct {
	Members   []MemberBalance `json:"members"`
	Balances  []BalanceEntry  `json:"balances"`
	Transfers []Transfer      `json:"transfers"`
}
