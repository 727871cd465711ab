package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valentinpelus/kubetriage/internal/evidence"
)

// slackExcerptLines bounds the runbook excerpt included in a notification.
const slackExcerptLines = 20

// Archiver persists incident artifacts.
type Archiver interface {
	Bucket() string
	PutJSON(ctx context.Context, key string, data any) error
	PutText(ctx context.Context, key, text string) error
}

// IssueCreator files incident issues and returns their URL.
type IssueCreator interface {
	Create(ctx context.Context, title, body string) (string, error)
}

// Notifier sends chat notifications.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// ArchiveLocations points at the stored incident artifacts.
type ArchiveLocations struct {
	EvidenceKey string `json:"evidence_key"`
	RunbookKey  string `json:"runbook_key"`
}

// Result is the wire response returned for a processed webhook.
type Result struct {
	OK         bool              `json:"ok"`
	IncidentID string            `json:"incident_id"`
	IssueURL   string            `json:"issue_url,omitempty"`
	Archive    *ArchiveLocations `json:"s3,omitempty"`
}

// Publisher runs the side-effect chain for a triaged incident: archive the
// artifacts, file an issue, notify chat, in that order. A nil destination
// is skipped, a configured destination that fails fails the incident.
type Publisher struct {
	archiver Archiver
	issues   IssueCreator
	notifier Notifier
	logger   *slog.Logger
}

// NewPublisher creates a publisher. Any destination may be nil to disable it.
func NewPublisher(archiver Archiver, issues IssueCreator, notifier Notifier, logger *slog.Logger) *Publisher {
	return &Publisher{
		archiver: archiver,
		issues:   issues,
		notifier: notifier,
		logger:   logger,
	}
}

// Publish runs the configured destinations in order and reports where the
// artifacts landed. The issue references the archive keys and the
// notification references both, so the order is fixed.
func (p *Publisher) Publish(ctx context.Context, bundle *evidence.Bundle, runbook string) (Result, error) {
	result := Result{OK: true, IncidentID: bundle.IncidentID}

	if p.archiver != nil {
		locations, err := p.archive(ctx, bundle, runbook)
		if err != nil {
			return Result{}, err
		}
		result.Archive = locations
	}

	if p.issues != nil {
		url, err := p.issues.Create(ctx, issueTitle(bundle), issueBody(bundle, runbook, result.Archive, p.bucket()))
		if err != nil {
			return Result{}, fmt.Errorf("failed to file issue: %w", err)
		}
		result.IssueURL = url
		p.logger.Info("issue filed", slog.String("incident_id", bundle.IncidentID), slog.String("url", url))
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, notification(bundle, runbook, result, p.bucket())); err != nil {
			return Result{}, fmt.Errorf("failed to notify slack: %w", err)
		}
		p.logger.Info("notification sent", slog.String("incident_id", bundle.IncidentID))
	}

	return result, nil
}

func (p *Publisher) bucket() string {
	if p.archiver == nil {
		return ""
	}
	return p.archiver.Bucket()
}

func (p *Publisher) archive(ctx context.Context, bundle *evidence.Bundle, runbook string) (*ArchiveLocations, error) {
	prefix := bundle.ArchivePrefix()
	locations := &ArchiveLocations{
		EvidenceKey: prefix + "/evidence.json",
		RunbookKey:  prefix + "/runbook.md",
	}

	if err := p.archiver.PutJSON(ctx, locations.EvidenceKey, bundle); err != nil {
		return nil, fmt.Errorf("failed to archive evidence: %w", err)
	}
	if err := p.archiver.PutText(ctx, locations.RunbookKey, runbook); err != nil {
		return nil, fmt.Errorf("failed to archive runbook: %w", err)
	}

	p.logger.Info("incident archived",
		slog.String("incident_id", bundle.IncidentID),
		slog.String("bucket", p.bucket()),
		slog.String("prefix", prefix),
	)
	return locations, nil
}

func issueTitle(bundle *evidence.Bundle) string {
	primary := bundle.Primary()

	severity := primary.Severity
	if severity == "" {
		severity = "info"
	}
	alertname := primary.AlertName
	if alertname == "" {
		alertname = "Alert"
	}
	target := primary.Pod
	if target == "" {
		target = primary.Node
	}
	if target == "" {
		target = "unknown"
	}

	return fmt.Sprintf("[%s] %s - %s/%s", severity, alertname, primary.Namespace, target)
}

func issueBody(bundle *evidence.Bundle, runbook string, locations *ArchiveLocations, bucket string) string {
	summaries, _ := json.MarshalIndent(bundle.Alerts, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "### Incident ID\n`%s`\n\n", bundle.IncidentID)
	fmt.Fprintf(&b, "### Created\n%s\n\n", bundle.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "### Alerts\n```json\n%s\n```\n\n", summaries)
	fmt.Fprintf(&b, "### Runbook (AI)\n%s\n\n", runbook)
	if locations != nil {
		fmt.Fprintf(&b, "\n### Artifacts (S3)\n- evidence: `s3://%s/%s`\n- runbook:  `s3://%s/%s`\n",
			bucket, locations.EvidenceKey, bucket, locations.RunbookKey)
	}
	return b.String()
}

func notification(bundle *evidence.Bundle, runbook string, result Result, bucket string) string {
	primary := bundle.Primary()

	namespace := primary.Namespace
	if namespace == "" {
		namespace = "-"
	}
	target := primary.Pod
	if target == "" {
		target = primary.Node
	}
	if target == "" {
		target = "-"
	}

	var b strings.Builder
	b.WriteString("*K8s Incident Triage*\n")
	fmt.Fprintf(&b, "*Status:* `%s`\n", bundle.AlertStatus)
	fmt.Fprintf(&b, "*Alert:* `%s`  *Severity:* `%s`\n", primary.AlertName, primary.Severity)
	fmt.Fprintf(&b, "*Target:* `%s / %s`\n", namespace, target)
	fmt.Fprintf(&b, "*Incident ID:* `%s`\n", bundle.IncidentID)
	if result.IssueURL != "" {
		fmt.Fprintf(&b, "*GitHub Issue:* %s\n", result.IssueURL)
	}
	if result.Archive != nil {
		fmt.Fprintf(&b, "*S3:* `s3://%s/%s`\n", bucket, result.Archive.RunbookKey)
	}

	lines := strings.Split(runbook, "\n")
	if len(lines) > slackExcerptLines {
		lines = lines[:slackExcerptLines]
	}
	fmt.Fprintf(&b, "\n```%s```", strings.Join(lines, "\n"))

	return b.String()
}
