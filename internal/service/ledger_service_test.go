package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// setupTestServer creates a test server backed by a temporary SQLite database
func setupTestServer(t *testing.T) (ledgerrpc.LedgerServiceClient, *sqlite.SQLiteStore) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	path, handler := ledgerrpc.NewLedgerServiceHandler(
		NewLedgerService(NewLedger(store)),
		connect.WithInterceptors(middleware.LoggingInterceptor()),
	)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return ledgerrpc.NewLedgerServiceClient(http.DefaultClient, server.URL), store
}

func addMember(t *testing.T, client ledgerrpc.LedgerServiceClient, name string) int64 {
	t.Helper()
	resp, err := client.AddMember(context.Background(), connect.NewRequest(&ledgerrpc.AddMemberRequest{Name: name}))
	if err != nil {
		t.Fatalf("AddMember(%s) failed: %v", name, err)
	}
	return resp.Msg.Member.ID
}

func getBalances(t *testing.T, client ledgerrpc.LedgerServiceClient) *ledgerrpc.GetBalancesResponse {
	t.Helper()
	resp, err := client.GetBalances(context.Background(), connect.NewRequest(&ledgerrpc.GetBalancesRequest{}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	return resp.Msg
}

func TestCalculateSplit_EqualSplit(t *testing.T) {
	client, _ := setupTestServer(t)

	resp, err := client.CalculateSplit(context.Background(), connect.NewRequest(&ledgerrpc.CalculateSplitRequest{
		Amount:         d("90"),
		PayerID:        1,
		ParticipantIDs: []int64{1, 6},
	}))
	if err != nil {
		t.Fatalf("CalculateSplit failed: %v", err)
	}

	if resp.Msg.Skipped {
		t.Fatalf("expected split not to be skipped")
	}
	if len(resp.Msg.Shares) != 1 {
		t.Fatalf("expected 1 share, got %d", len(resp.Msg.Shares))
	}
	if resp.Msg.Shares[0].MemberID != 6 || !resp.Msg.Shares[0].Owed.Equal(d("45")) {
		t.Errorf("expected member 6 to owe 45, got %+v", resp.Msg.Shares[0])
	}
	if !resp.Msg.PayerShare.Equal(d("45")) {
		t.Errorf("expected payer share 45, got %s", resp.Msg.PayerShare)
	}
}

func TestCalculateSplit_NoParticipants(t *testing.T) {
	client, _ := setupTestServer(t)

	resp, err := client.CalculateSplit(context.Background(), connect.NewRequest(&ledgerrpc.CalculateSplitRequest{
		Amount:  d("90"),
		PayerID: 1,
	}))
	if err != nil {
		t.Fatalf("CalculateSplit failed: %v", err)
	}
	if !resp.Msg.Skipped || resp.Msg.SkipReason == "" {
		t.Errorf("expected skipped split with a reason, got %+v", resp.Msg)
	}
	if len(resp.Msg.Shares) != 0 {
		t.Errorf("expected no shares, got %d", len(resp.Msg.Shares))
	}
}

func TestMembers(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	alice := addMember(t, client, "Alice")
	bob := addMember(t, client, "  Bob  ")

	resp, err := client.ListMembers(ctx, connect.NewRequest(&ledgerrpc.ListMembersRequest{}))
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(resp.Msg.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(resp.Msg.Members))
	}
	if resp.Msg.Members[1].Name != "Bob" {
		t.Errorf("expected trimmed name Bob, got %q", resp.Msg.Members[1].Name)
	}

	if _, err := client.DeleteMember(ctx, connect.NewRequest(&ledgerrpc.DeleteMemberRequest{MemberID: bob})); err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}
	resp, err = client.ListMembers(ctx, connect.NewRequest(&ledgerrpc.ListMembersRequest{}))
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(resp.Msg.Members) != 1 || resp.Msg.Members[0].ID != alice {
		t.Errorf("expected only Alice to remain, got %+v", resp.Msg.Members)
	}
}

func TestAddMember_EmptyName(t *testing.T) {
	client, _ := setupTestServer(t)

	_, err := client.AddMember(context.Background(), connect.NewRequest(&ledgerrpc.AddMemberRequest{Name: "   "}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("expected CodeInvalidArgument, got %v", err)
	}
}

func TestDeleteMember_NotFound(t *testing.T) {
	client, _ := setupTestServer(t)

	_, err := client.DeleteMember(context.Background(), connect.NewRequest(&ledgerrpc.DeleteMemberRequest{MemberID: 42}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("expected CodeNotFound, got %v", err)
	}
}

func TestDinnerScenario(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	alice := addMember(t, client, "Alice")
	bob := addMember(t, client, "Bob")

	created, err := client.CreateExpense(ctx, connect.NewRequest(&ledgerrpc.CreateExpenseRequest{
		Amount:         d("90.00"),
		Description:    "Team Dinner",
		PayerID:        alice,
		ParticipantIDs: []int64{alice, bob},
		Date:           "2024-03-09",
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if created.Msg.Expense.ID == "" {
		t.Error("expected expense ID to be generated")
	}
	if created.Msg.Expense.Date != "2024-03-09" {
		t.Errorf("expected date 2024-03-09, got %s", created.Msg.Expense.Date)
	}
	if len(created.Msg.Expense.Splits) != 1 || created.Msg.Expense.Splits[0].MemberID != bob {
		t.Fatalf("expected a single split for Bob, got %+v", created.Msg.Expense.Splits)
	}

	before := getBalances(t, client)
	if len(before.Members) != 2 {
		t.Fatalf("expected 2 member balances, got %d", len(before.Members))
	}
	got := before.Members[0]
	if got.MemberID != alice || got.Name != "Alice" {
		t.Errorf("expected Alice first, got %+v", got)
	}
	if !got.TotalPaid.Equal(d("90")) || !got.NetBalance.Equal(d("45")) {
		t.Errorf("expected Alice paid 90 and net 45, got paid %s net %s", got.TotalPaid, got.NetBalance)
	}
	if !before.Members[1].NetBalance.Equal(d("-45")) {
		t.Errorf("expected Bob net -45, got %s", before.Members[1].NetBalance)
	}

	wantReport := []ledgerrpc.BalanceEntry{
		{MemberID: alice, Direction: "is_owed", Amount: d("45")},
		{MemberID: bob, Direction: "owes", Amount: d("45")},
	}
	if len(before.Balances) != len(wantReport) {
		t.Fatalf("expected %d report entries, got %+v", len(wantReport), before.Balances)
	}
	for i, want := range wantReport {
		e := before.Balances[i]
		if e.MemberID != want.MemberID || e.Direction != want.Direction || !e.Amount.Equal(want.Amount) {
			t.Errorf("report[%d] = %+v, want %+v", i, e, want)
		}
	}
	if len(before.Transfers) != 1 || before.Transfers[0].FromID != bob || before.Transfers[0].ToID != alice {
		t.Errorf("expected Bob to pay Alice, got %+v", before.Transfers)
	}

	_, err = client.RecordSettlement(ctx, connect.NewRequest(&ledgerrpc.RecordSettlementRequest{
		PayerID:    bob,
		ReceiverID: alice,
		Amount:     d("45.00"),
		Note:       "cash",
	}))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}

	after := getBalances(t, client)
	if len(after.Balances) != 0 {
		t.Errorf("expected everyone settled, got %+v", after.Balances)
	}
	if len(after.Transfers) != 0 {
		t.Errorf("expected no transfers, got %+v", after.Transfers)
	}

	settlements, err := client.ListSettlements(ctx, connect.NewRequest(&ledgerrpc.ListSettlementsRequest{}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(settlements.Msg.Settlements) != 1 || settlements.Msg.Settlements[0].Note != "cash" {
		t.Errorf("unexpected settlements: %+v", settlements.Msg.Settlements)
	}
}

func TestCreateExpense_NoParticipants(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	alice := addMember(t, client, "Alice")

	resp, err := client.CreateExpense(ctx, connect.NewRequest(&ledgerrpc.CreateExpenseRequest{
		Amount:      d("30"),
		Description: "Solo lunch",
		PayerID:     alice,
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if !resp.Msg.Skipped {
		t.Error("expected the split to be reported as skipped")
	}

	listed, err := client.ListExpenses(ctx, connect.NewRequest(&ledgerrpc.ListExpensesRequest{}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(listed.Msg.Expenses) != 1 {
		t.Fatalf("expected the expense to be recorded, got %d", len(listed.Msg.Expenses))
	}

	if b := getBalances(t, client); len(b.Balances) != 0 {
		t.Errorf("expected no outstanding balances, got %+v", b.Balances)
	}
}

func TestCreateExpense_InvalidArguments(t *testing.T) {
	client, _ := setupTestServer(t)
	alice := addMember(t, client, "Alice")
	bob := addMember(t, client, "Bob")

	tests := []struct {
		name string
		req  *ledgerrpc.CreateExpenseRequest
	}{
		{
			name: "zero amount",
			req:  &ledgerrpc.CreateExpenseRequest{Amount: d("0"), PayerID: alice, ParticipantIDs: []int64{alice, bob}},
		},
		{
			name: "negative amount",
			req:  &ledgerrpc.CreateExpenseRequest{Amount: d("-5"), PayerID: alice, ParticipantIDs: []int64{bob}},
		},
		{
			name: "unknown payer",
			req:  &ledgerrpc.CreateExpenseRequest{Amount: d("10"), PayerID: 99, ParticipantIDs: []int64{bob}},
		},
		{
			name: "unknown participant",
			req:  &ledgerrpc.CreateExpenseRequest{Amount: d("10"), PayerID: alice, ParticipantIDs: []int64{bob, 99}},
		},
		{
			name: "malformed date",
			req:  &ledgerrpc.CreateExpenseRequest{Amount: d("10"), PayerID: alice, ParticipantIDs: []int64{bob}, Date: "09/03/2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.CreateExpense(context.Background(), connect.NewRequest(tt.req))
			if connect.CodeOf(err) != connect.CodeInvalidArgument {
				t.Errorf("expected CodeInvalidArgument, got %v", err)
			}
		})
	}

	listed, err := client.ListExpenses(context.Background(), connect.NewRequest(&ledgerrpc.ListExpensesRequest{}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(listed.Msg.Expenses) != 0 {
		t.Errorf("expected rejected expenses not to be stored, got %d", len(listed.Msg.Expenses))
	}
}

func TestRecordSettlement_InvalidArguments(t *testing.T) {
	client, _ := setupTestServer(t)
	alice := addMember(t, client, "Alice")
	bob := addMember(t, client, "Bob")

	tests := []struct {
		name string
		req  *ledgerrpc.RecordSettlementRequest
	}{
		{"zero amount", &ledgerrpc.RecordSettlementRequest{PayerID: bob, ReceiverID: alice, Amount: d("0")}},
		{"paying yourself", &ledgerrpc.RecordSettlementRequest{PayerID: bob, ReceiverID: bob, Amount: d("5")}},
		{"unknown receiver", &ledgerrpc.RecordSettlementRequest{PayerID: bob, ReceiverID: 99, Amount: d("5")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.RecordSettlement(context.Background(), connect.NewRequest(tt.req))
			if connect.CodeOf(err) != connect.CodeInvalidArgument {
				t.Errorf("expected CodeInvalidArgument, got %v", err)
			}
		})
	}
}

func TestGetBalances_InconsistentData(t *testing.T) {
	client, store := setupTestServer(t)

	// A split for the payer cannot come from the service; write it directly.
	err := store.CreateExpense(context.Background(), &models.Expense{
		Amount:       d("20"),
		PayerID:      1,
		Participants: []int64{1, 2},
		Splits:       []models.ExpenseSplit{{MemberID: 1, OwedAmount: d("10")}},
	})
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	_, err = client.GetBalances(context.Background(), connect.NewRequest(&ledgerrpc.GetBalancesRequest{}))
	if connect.CodeOf(err) != connect.CodeFailedPrecondition {
		t.Errorf("expected CodeFailedPrecondition, got %v", err)
	}
}

func TestGetBalances_DeletedMemberKeepsBalance(t *testing.T) {
	client, _ := setupTestServer(t)
	ctx := context.Background()

	alice := addMember(t, client, "Alice")
	bob := addMember(t, client, "Bob")
	if _, err := client.CreateExpense(ctx, connect.NewRequest(&ledgerrpc.CreateExpenseRequest{
		Amount: d("50"), PayerID: alice, ParticipantIDs: []int64{alice, bob},
	})); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	if _, err := client.DeleteMember(ctx, connect.NewRequest(&ledgerrpc.DeleteMemberRequest{MemberID: bob})); err != nil {
		t.Fatalf("DeleteMember failed: %v", err)
	}

	b := getBalances(t, client)
	if len(b.Balances) != 2 {
		t.Fatalf("expected both positions to survive, got %+v", b.Balances)
	}
	if b.Members[1].MemberID != bob || b.Members[1].Name != "" {
		t.Errorf("expected unnamed balance for deleted member, got %+v", b.Members[1])
	}
}
