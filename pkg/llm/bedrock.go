package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	maxAnswerTokens  = 900
	temperature      = 0.2
	invokeTimeout    = 20 * time.Second
)

// invokeAPI is the slice of the Bedrock runtime client used here, kept
// narrow so tests can fake the model.
type invokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockProvider implements the Provider interface for AWS Bedrock
type BedrockProvider struct {
	client invokeAPI
	model  string
}

// NewBedrockProvider creates a new AWS Bedrock provider
func NewBedrockProvider(cfg aws.Config, model string) *BedrockProvider {
	return &BedrockProvider{
		client: bedrockruntime.NewFromConfig(cfg),
		model:  model,
	}
}

// Name returns the provider name
func (p *BedrockProvider) Name() string {
	return fmt.Sprintf("AWS Bedrock (%s)", p.model)
}

// Bedrock request/response structures (using Claude's format on Bedrock)
type bedrockClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type bedrockClaudeRequest struct {
	Messages         []bedrockClaudeMessage `json:"messages"`
	MaxTokens        int                    `json:"max_tokens"`
	Temperature      float64                `json:"temperature,omitempty"`
	AnthropicVersion string                 `json:"anthropic_version"`
}

type bedrockClaudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bedrockClaudeResponse struct {
	ID      string                      `json:"id"`
	Type    string                      `json:"type"`
	Role    string                      `json:"role"`
	Content []bedrockClaudeContentBlock `json:"content"`
}

// Triage sends the prompt as a single user turn and joins the text blocks
// of the reply.
func (p *BedrockProvider) Triage(ctx context.Context, prompt string) (string, error) {
	reqBody := bedrockClaudeRequest{
		Messages: []bedrockClaudeMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:        maxAnswerTokens,
		Temperature:      temperature,
		AnthropicVersion: anthropicVersion,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	resp, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        jsonData,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call Bedrock API: %w", err)
	}

	var bedrockResp bedrockClaudeResponse
	if err := json.Unmarshal(resp.Body, &bedrockResp); err != nil {
		return "", fmt.Errorf("failed to decode Bedrock response: %w", err)
	}

	parts := make([]string, 0, len(bedrockResp.Content))
	for _, block := range bedrockResp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}

	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}
