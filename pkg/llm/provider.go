package llm

import "context"

// Provider defines the interface for the model backend that turns an
// evidence prompt into a runbook
type Provider interface {
	// Triage sends the assembled prompt and returns the model's Markdown
	// reply with surrounding whitespace trimmed
	Triage(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (for logging)
	Name() string
}
