// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeError     = "error"
)

var (
	// LedgerApplicationsTotal counts committed balance mutations by kind.
	LedgerApplicationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_applications_total",
			Help: "Total number of committed ledger applications",
		},
		[]string{"type", "status"},
	)

	// LedgerRejectionsTotal counts applications rejected before commit.
	LedgerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_rejections_total",
			Help: "Total number of rejected ledger applications",
		},
		[]string{"reason"},
	)

	// PaymentSignalsTotal counts completion signals by source and outcome.
	PaymentSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_signals_total",
			Help: "Total number of payment completion signals",
		},
		[]string{"source", "outcome"},
	)

	// PaymentAmountMismatchesTotal counts settlements whose amount differs from the stored tip.
	PaymentAmountMismatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_amount_mismatches_total",
			Help: "Total number of settled amounts that disagreed with the stored tip amount",
		},
	)

	// IdempotentReplaysTotal counts initiations answered from an existing transaction.
	IdempotentReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tip_idempotent_replays_total",
			Help: "Total number of tip initiations served from an existing idempotency key",
		},
	)

	// ProviderRequestsTotal counts calls to the payment provider.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_provider_requests_total",
			Help: "Total number of payment provider requests",
		},
		[]string{"operation", "result"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// NotifierFailuresTotal counts best-effort publishes that failed.
	NotifierFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifier_failures_total",
			Help: "Total number of failed ledger event publishes",
		},
		[]string{"backend"},
	)
)
