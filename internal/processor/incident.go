package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/valentinpelus/kubetriage/internal/collector"
	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/internal/metrics"
	"github.com/valentinpelus/kubetriage/internal/publish"
	"github.com/valentinpelus/kubetriage/internal/triage"
	"github.com/valentinpelus/kubetriage/pkg/types"
)

// IncidentProcessor drives one webhook delivery through the pipeline:
// summarize the alerts, collect evidence, run the model, publish the
// outcome.
type IncidentProcessor struct {
	aggregator *collector.Aggregator
	driver     *triage.Driver
	publisher  *publish.Publisher
	logger     *slog.Logger
}

// NewIncidentProcessor creates a new incident processor
func NewIncidentProcessor(aggregator *collector.Aggregator, driver *triage.Driver, publisher *publish.Publisher, logger *slog.Logger) *IncidentProcessor {
	return &IncidentProcessor{
		aggregator: aggregator,
		driver:     driver,
		publisher:  publisher,
		logger:     logger,
	}
}

// Process handles one webhook delivery end to end. Evidence gaps are
// tolerated and recorded in the bundle; an analysis or publishing failure
// fails the whole delivery.
func (p *IncidentProcessor) Process(ctx context.Context, webhook types.AlertmanagerWebhook) (publish.Result, error) {
	start := time.Now()
	defer func() {
		metrics.ProcessingSeconds.Observe(time.Since(start).Seconds())
	}()

	status := webhook.Status
	if status == "" {
		status = "unknown"
	}

	summaries := make([]evidence.AlertSummary, 0, len(webhook.Alerts))
	for _, alert := range webhook.Alerts {
		summaries = append(summaries, evidence.Summarize(alert))
	}

	bundle := evidence.NewBundle(status, summaries)
	primary := bundle.Primary()

	logger := p.logger.With(slog.String("incident_id", bundle.IncidentID))
	logger.Info("incident opened",
		slog.String("status", bundle.AlertStatus),
		slog.String("alertname", primary.AlertName),
		slog.Int("alerts", len(bundle.Alerts)),
	)

	bundle.Fragments = p.aggregator.Collect(ctx, primary.Coordinates())
	logger.Info("evidence collected", slog.Int("fragments", len(bundle.Fragments)))

	runbook, err := p.driver.Analyze(ctx, bundle)
	if err != nil {
		metrics.IncidentsTotal.WithLabelValues("failed").Inc()
		return publish.Result{}, err
	}

	result, err := p.publisher.Publish(ctx, bundle, runbook)
	if err != nil {
		metrics.IncidentsTotal.WithLabelValues("failed").Inc()
		return publish.Result{}, err
	}

	metrics.IncidentsTotal.WithLabelValues("ok").Inc()
	logger.Info("incident processed", slog.Duration("elapsed", time.Since(start)))
	return result, nil
}
