package calculator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

// ledgerFixture builds balance inputs from equal splits, the way expenses are recorded.
type ledgerFixture struct {
	expenses    []ExpenseForBalance
	splits      map[string][]Share
	settlements []SettlementForBalance
}

func newFixture() *ledgerFixture {
	return &ledgerFixture{splits: make(map[string][]Share)}
}

func (f *ledgerFixture) expense(id string, amount string, payer ParticipantID, participants ...ParticipantID) *ledgerFixture {
	e := ExpenseForBalance{ID: id, PayerID: payer, Amount: d(amount)}
	f.expenses = append(f.expenses, e)
	res := ComputeSplit(e.Amount, payer, participants)
	if len(res.Shares) > 0 {
		f.splits[id] = res.Shares
	}
	return f
}

func (f *ledgerFixture) settle(id string, from, to ParticipantID, amount string) *ledgerFixture {
	f.settlements = append(f.settlements, SettlementForBalance{ID: id, FromID: from, ToID: to, Amount: d(amount)})
	return f
}

func (f *ledgerFixture) compute(t *testing.T) NetBalances {
	t.Helper()
	net, err := ComputeNetBalances(f.expenses, f.splits, f.settlements)
	if err != nil {
		t.Fatalf("ComputeNetBalances() error = %v", err)
	}
	return net
}

func assertBalance(t *testing.T, net NetBalances, p ParticipantID, want string) {
	t.Helper()
	got, ok := net[p]
	if !ok {
		t.Errorf("participant %d missing from balances", p)
		return
	}
	if !got.Equal(d(want)) {
		t.Errorf("participant %d balance = %s, want %s", p, got, want)
	}
}

func TestComputeNetBalances_ScenarioA(t *testing.T) {
	f := newFixture().expense("dinner", "90.00", 1, 1, 6)

	if len(f.splits["dinner"]) != 1 || !f.splits["dinner"][0].Owed.Equal(d("45")) {
		t.Fatalf("dinner splits = %+v, want member 6 owing 45", f.splits["dinner"])
	}

	members, err := ComputeMemberBalances(f.expenses, f.splits, f.settlements)
	if err != nil {
		t.Fatalf("ComputeMemberBalances() error = %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}

	// Alice is credited the full 90.00 and carries her own implicit 45.00 share.
	alice := members[0]
	if alice.Participant != 1 {
		t.Fatalf("first member = %d, want 1", alice.Participant)
	}
	if !alice.TotalPaid.Equal(d("90")) {
		t.Errorf("alice paid = %s, want 90", alice.TotalPaid)
	}
	if !alice.TotalOwed.Equal(d("45")) {
		t.Errorf("alice owed = %s, want 45", alice.TotalOwed)
	}

	net := NetBalancesOf(members)
	assertBalance(t, net, 1, "45")
	assertBalance(t, net, 6, "-45")
}

func TestComputeNetBalances_ScenarioB(t *testing.T) {
	f := newFixture().
		expense("dinner", "90.00", 1, 1, 6).
		settle("s1", 6, 1, "45.00")

	net := f.compute(t)
	assertBalance(t, net, 1, "0")
	assertBalance(t, net, 6, "0")

	if report := BuildReport(net); len(report) != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestComputeNetBalances_PartialSettlement(t *testing.T) {
	f := newFixture().
		expense("groceries", "120", 2, 1, 2, 3).
		settle("s1", 1, 2, "15")

	net := f.compute(t)
	assertBalance(t, net, 1, "-25")
	assertBalance(t, net, 2, "65")
	assertBalance(t, net, 3, "-40")
}

func TestComputeNetBalances_Empty(t *testing.T) {
	net, err := ComputeNetBalances(nil, nil, nil)
	if err != nil {
		t.Fatalf("ComputeNetBalances() error = %v", err)
	}
	if len(net) != 0 {
		t.Errorf("balances = %v, want empty", net)
	}
}

func TestComputeNetBalances_ExpenseWithoutSplits(t *testing.T) {
	// An expense nobody shares leaves its payer even.
	f := newFixture().expense("solo", "30", 5)

	net := f.compute(t)
	assertBalance(t, net, 5, "0")
}

func richFixture() *ledgerFixture {
	return newFixture().
		expense("e1", "90.00", 1, 1, 6).
		expense("e2", "55.75", 2, 1, 2, 3).
		expense("e3", "100", 3, 1, 2).
		expense("e4", "10", 6, 1, 2, 3, 6, 7, 8, 9).
		expense("e5", "0.01", 1, 1, 2, 3).
		settle("s1", 6, 1, "20").
		settle("s2", 2, 3, "33.33").
		settle("s3", 1, 2, "0.99")
}

func TestComputeNetBalances_ZeroSum(t *testing.T) {
	net := richFixture().compute(t)

	sum := net.Sum()
	if sum.Abs().GreaterThan(d("0.000000001")) {
		t.Errorf("sum of balances = %s, want 0", sum)
	}
}

func TestComputeNetBalances_Idempotent(t *testing.T) {
	f := richFixture()
	first := f.compute(t)
	second := f.compute(t)

	if len(first) != len(second) {
		t.Fatalf("runs disagree on size: %d vs %d", len(first), len(second))
	}
	for p, v := range first {
		if !second[p].Equal(v) {
			t.Errorf("participant %d: %s then %s", p, v, second[p])
		}
	}
}

func TestComputeNetBalances_OrderIndependent(t *testing.T) {
	f := richFixture()
	want := f.compute(t)

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 20; run++ {
		expenses := append([]ExpenseForBalance(nil), f.expenses...)
		settlements := append([]SettlementForBalance(nil), f.settlements...)
		rng.Shuffle(len(expenses), func(i, j int) { expenses[i], expenses[j] = expenses[j], expenses[i] })
		rng.Shuffle(len(settlements), func(i, j int) { settlements[i], settlements[j] = settlements[j], settlements[i] })

		splits := make(map[string][]Share, len(f.splits))
		for id, shares := range f.splits {
			shuffled := append([]Share(nil), shares...)
			rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			splits[id] = shuffled
		}

		got, err := ComputeNetBalances(expenses, splits, settlements)
		if err != nil {
			t.Fatalf("run %d: ComputeNetBalances() error = %v", run, err)
		}
		for p, v := range want {
			if !got[p].Equal(v) {
				t.Errorf("run %d: participant %d = %s, want %s", run, p, got[p], v)
			}
		}
	}
}

func TestComputeNetBalances_DoesNotMutateInputs(t *testing.T) {
	f := richFixture()
	before := f.splits["e2"][0].Owed

	f.compute(t)

	if !f.splits["e2"][0].Owed.Equal(before) {
		t.Errorf("split modified: %s -> %s", before, f.splits["e2"][0].Owed)
	}
}

func TestComputeNetBalances_InconsistentData(t *testing.T) {
	tests := []struct {
		name        string
		expenses    []ExpenseForBalance
		splits      map[string][]Share
		settlements []SettlementForBalance
	}{
		{
			name:     "negative owed amount",
			expenses: []ExpenseForBalance{{ID: "e1", PayerID: 1, Amount: d("10")}},
			splits:   map[string][]Share{"e1": {{Member: 2, Owed: d("-5")}}},
		},
		{
			name:     "non-positive expense amount",
			expenses: []ExpenseForBalance{{ID: "e1", PayerID: 1, Amount: decimal.Zero}},
		},
		{
			name:     "split for unknown expense",
			expenses: []ExpenseForBalance{{ID: "e1", PayerID: 1, Amount: d("10")}},
			splits:   map[string][]Share{"ghost": {{Member: 2, Owed: d("5")}}},
		},
		{
			name:     "split for the payer",
			expenses: []ExpenseForBalance{{ID: "e1", PayerID: 1, Amount: d("10")}},
			splits:   map[string][]Share{"e1": {{Member: 1, Owed: d("5")}}},
		},
		{
			name:     "splits exceed amount",
			expenses: []ExpenseForBalance{{ID: "e1", PayerID: 1, Amount: d("10")}},
			splits:   map[string][]Share{"e1": {{Member: 2, Owed: d("6")}, {Member: 3, Owed: d("6")}}},
		},
		{
			name: "duplicate expense",
			expenses: []ExpenseForBalance{
				{ID: "e1", PayerID: 1, Amount: d("10")},
				{ID: "e1", PayerID: 1, Amount: d("10")},
			},
		},
		{
			name:        "non-positive settlement",
			settlements: []SettlementForBalance{{ID: "s1", FromID: 1, ToID: 2, Amount: d("-1")}},
		},
		{
			name:        "settlement to self",
			settlements: []SettlementForBalance{{ID: "s1", FromID: 1, ToID: 1, Amount: d("1")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeNetBalances(tt.expenses, tt.splits, tt.settlements)
			if err == nil {
				t.Fatal("ComputeNetBalances() error = nil, want inconsistent data")
			}
			if !errors.Is(err, ErrInconsistentData) {
				t.Errorf("error = %v, want ErrInconsistentData", err)
			}
		})
	}
}

func TestComputeNetBalances_ToleratesDivisionRounding(t *testing.T) {
	// 2 / 3 rounds up in the last digit, so three shares slightly exceed 2.
	f := newFixture().expense("e1", "2", 9, 1, 2, 3)

	net := f.compute(t)
	if !net.Sum().IsZero() {
		t.Errorf("sum = %s, want exactly 0", net.Sum())
	}
}
