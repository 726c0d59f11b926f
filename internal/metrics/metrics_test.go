package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRPC("/splitledger.v1.LedgerService/GetBalances", "ok", 20*time.Millisecond)
	m.ObserveRPC("/splitledger.v1.LedgerService/GetBalances", "ok", 30*time.Millisecond)
	m.ObserveRPC("/splitledger.v1.LedgerService/CreateExpense", "invalid_argument", time.Millisecond)
	m.BalanceComputed("ok")
	m.BalanceComputed("inconsistent_data")
	m.SplitSkipped("no_participants")
	m.PublishFailed()

	if got := testutil.ToFloat64(m.rpcRequests.WithLabelValues("/splitledger.v1.LedgerService/GetBalances", "ok")); got != 2 {
		t.Errorf("rpc_requests_total{GetBalances,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.balanceRuns.WithLabelValues("inconsistent_data")); got != 1 {
		t.Errorf("balance_computations_total{inconsistent_data} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.skippedSplits.WithLabelValues("no_participants")); got != 1 {
		t.Errorf("skipped_splits_total{no_participants} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.publishErrors); got != 1 {
		t.Errorf("event_publish_errors_total = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.rpcDuration); n != 2 {
		t.Errorf("rpc_duration_seconds series = %d, want 2", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	// None of these may panic.
	m.ObserveRPC("p", "ok", time.Second)
	m.BalanceComputed("ok")
	m.SplitSkipped("no_participants")
	m.PublishFailed()
}
