package prometheus

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

const requestTimeout = 20 * time.Second

// queryAPI is the slice of the Prometheus v1 API used here, kept narrow so
// tests can fake query results.
type queryAPI interface {
	Query(ctx context.Context, query string, ts time.Time, opts ...v1.Option) (model.Value, v1.Warnings, error)
}

// Client evaluates instant PromQL queries against one Prometheus server.
type Client struct {
	api queryAPI
}

// NewClient creates a new Prometheus client for the given base URL.
func NewClient(address string) (*Client, error) {
	c, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &Client{api: v1.NewAPI(c)}, nil
}

// MetricResult pairs the executed query with its instant evaluation so the
// archived evidence stays self-describing.
type MetricResult struct {
	Query  string      `json:"query"`
	Result model.Value `json:"result"`
}

// Query evaluates one instant query at the current time.
func (c *Client) Query(ctx context.Context, query string) (*MetricResult, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	result, _, err := c.api.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("prometheus query failed: %w", err)
	}

	return &MetricResult{Query: query, Result: result}, nil
}
