package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/pkg/llm"
)

const promptStyle = `You are an SRE incident triage assistant for Kubernetes.
You will be given evidence from Kubernetes API, Prometheus, and Loki.
Your job:
1) Identify the most probable root cause
2) Provide step-by-step fix
3) Provide rollback plan
4) Provide a short runbook in Markdown
Be concrete, safe, and actionable. Avoid guessing; if uncertain, list top 2 hypotheses with checks.`

const promptFormat = `Return Markdown with these sections exactly:
## Summary
## Probable Root Cause
## Evidence
## Step-by-step Fix
## Rollback Plan
## Verification
## Preventive Actions
`

const (
	// maxEvidenceBytes bounds the serialized evidence embedded in a prompt,
	// keeping one oversized log dump from blowing the model context.
	maxEvidenceBytes = 120000

	truncationMarker  = "\n...<truncated>..."
	placeholderAnswer = "## Summary\nNo response from model."
)

// Driver turns an evidence bundle into a runbook through one model call.
type Driver struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewDriver creates a driver over the given provider.
func NewDriver(provider llm.Provider, logger *slog.Logger) *Driver {
	return &Driver{
		provider: provider,
		logger:   logger,
	}
}

// BuildPrompt renders the bundle into the full model prompt. Evidence
// beyond maxEvidenceBytes is cut at the cap and marked, never summarized.
func BuildPrompt(bundle *evidence.Bundle) (string, error) {
	safe, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal evidence: %w", err)
	}

	body := string(safe)
	if len(body) > maxEvidenceBytes {
		body = body[:maxEvidenceBytes] + truncationMarker
	}

	return fmt.Sprintf("%s\n\n%s\n\n### Evidence JSON\n```json\n%s\n```", promptStyle, promptFormat, body), nil
}

// Analyze sends the bundle to the provider and returns the runbook
// Markdown. An empty model reply becomes a placeholder runbook, a provider
// error fails the incident.
func (d *Driver) Analyze(ctx context.Context, bundle *evidence.Bundle) (string, error) {
	prompt, err := BuildPrompt(bundle)
	if err != nil {
		return "", err
	}

	d.logger.Debug("invoking model",
		slog.String("provider", d.provider.Name()),
		slog.Int("prompt_bytes", len(prompt)),
	)

	answer, err := d.provider.Triage(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("model analysis failed: %w", err)
	}
	if strings.TrimSpace(answer) == "" {
		return placeholderAnswer, nil
	}
	return answer, nil
}
