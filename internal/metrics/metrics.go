// Package metrics exposes Prometheus collectors for the ledger.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics were configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "splitledger"

// Metrics holds the ledger's collectors.
type Metrics struct {
	rpcRequests   *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
	balanceRuns   *prometheus.CounterVec
	skippedSplits *prometheus.CounterVec
	publishErrors prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		balanceRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_computations_total",
			Help:      "Balance computations by outcome.",
		}, []string{"outcome"}),
		skippedSplits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_splits_total",
			Help:      "Split requests that recorded no debts, by reason.",
		}, []string{"reason"}),
		publishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Ledger events that could not be delivered.",
		}),
	}
}

// ObserveRPC records one finished call.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// BalanceComputed records a balance computation; outcome is "ok" or an error class.
func (m *Metrics) BalanceComputed(outcome string) {
	if m == nil {
		return
	}
	m.balanceRuns.WithLabelValues(outcome).Inc()
}

// SplitSkipped records a split that was a no-op.
func (m *Metrics) SplitSkipped(reason string) {
	if m == nil {
		return
	}
	m.skippedSplits.WithLabelValues(reason).Inc()
}

// PublishFailed records an undelivered event.
func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}
