package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IncidentsTotal counts processed webhook deliveries by outcome.
	IncidentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubetriage_incidents_total",
		Help: "Webhook deliveries processed, by outcome.",
	}, []string{"outcome"})

	// EvidenceFailures counts evidence aspects whose capture failed.
	EvidenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubetriage_evidence_failures_total",
		Help: "Evidence aspects that failed collection, by aspect.",
	}, []string{"aspect"})

	// ProcessingSeconds observes end-to-end webhook processing time.
	ProcessingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kubetriage_processing_seconds",
		Help:    "End-to-end webhook processing time in seconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)
