package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 20 * time.Second

// Client posts incident notifications to a Slack incoming webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
}

// NewClient creates a new Slack client for the given webhook URL
func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type webhookMessage struct {
	Text string `json:"text"`
}

// Notify sends one message to the webhook.
// Reference: https://api.slack.com/messaging/webhooks
func (c *Client) Notify(ctx context.Context, text string) error {
	jsonData, err := json.Marshal(webhookMessage{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
