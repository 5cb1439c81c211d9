package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisions counts explicit visitor decisions (allow|deny).
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_gate_decisions_total",
			Help: "Total number of explicit age gate decisions",
		},
		[]string{"decision"},
	)

	// ConsentChecks counts gate checks by the persistence leg that satisfied
	// them (cookie|store|none).
	ConsentChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agegate_consent_checks_total",
			Help: "Total number of consent checks by satisfying source",
		},
		[]string{"source"},
	)

	// StoreWriteFailures counts best-effort durable writes that were swallowed.
	StoreWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agegate_store_write_failures_total",
			Help: "Durable consent store writes that failed and were ignored",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agegate_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
