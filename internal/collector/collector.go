package collector

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/internal/metrics"
)

// Fragment keys are disjoint across collectors so the merged bundle never
// overwrites one aspect with another.
const (
	KeyNodeInfo  = "node_info"
	KeyPodInfo   = "pod_info"
	KeyEvents    = "events"
	KeyLogs      = "logs"
	KeyPodCPU    = "pod_cpu"
	KeyPodMemory = "pod_memory"
	KeyNodeCPU   = "node_cpu"
	KeyLoki      = "loki"
)

// Collector gathers one family of evidence fragments for a target.
type Collector interface {
	// Name identifies the collector in logs
	Name() string

	// Collect returns the fragments this collector could gather for the
	// target. Failures are folded into error fragments, never returned.
	Collect(ctx context.Context, target evidence.TargetCoordinates) map[string]evidence.Fragment
}

// Aggregator fans collection out to all configured collectors and merges
// the fragments once every collector has returned.
type Aggregator struct {
	collectors []Collector
	logger     *slog.Logger
}

// NewAggregator creates an aggregator over the given collectors.
func NewAggregator(logger *slog.Logger, collectors ...Collector) *Aggregator {
	return &Aggregator{
		collectors: collectors,
		logger:     logger,
	}
}

// Collect runs every collector concurrently and merges their fragments.
// A slow or failing backend delays the merge but never cancels the others.
func (a *Aggregator) Collect(ctx context.Context, target evidence.TargetCoordinates) map[string]evidence.Fragment {
	results := make([]map[string]evidence.Fragment, len(a.collectors))

	g, gCtx := errgroup.WithContext(ctx)
	for i, c := range a.collectors {
		g.Go(func() error {
			results[i] = c.Collect(gCtx, target)
			return nil
		})
	}
	_ = g.Wait() // failures are captured in fragments

	merged := make(map[string]evidence.Fragment)
	for _, fragments := range results {
		for key, frag := range fragments {
			if frag.Failed() {
				a.logger.Warn("evidence aspect failed", slog.String("aspect", key), slog.String("error", frag.Err))
				metrics.EvidenceFailures.WithLabelValues(key).Inc()
			}
			merged[key] = frag
		}
	}
	return merged
}
