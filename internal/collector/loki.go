package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/pkg/loki"
)

const (
	lokiWindow = 20 * time.Minute
	lokiLimit  = 200
)

// LogQueryResult pairs the executed LogQL query and window with the raw
// Loki response.
type LogQueryResult struct {
	Query        string          `json:"query"`
	RangeMinutes int             `json:"range_minutes"`
	Response     json.RawMessage `json:"response"`
}

// LokiCollector pulls the recent log window for the target pod.
type LokiCollector struct {
	client *loki.Client
}

// NewLokiCollector creates a collector over the given Loki client.
func NewLokiCollector(client *loki.Client) *LokiCollector {
	return &LokiCollector{client: client}
}

// Name identifies the collector in logs
func (c *LokiCollector) Name() string {
	return "loki"
}

// Collect queries the last window of log lines for the pod, newest first.
// Targets without a namespace and pod produce no fragment.
func (c *LokiCollector) Collect(ctx context.Context, target evidence.TargetCoordinates) map[string]evidence.Fragment {
	if !target.HasPod() {
		return nil
	}

	end := time.Now().UTC()
	start := end.Add(-lokiWindow)
	query := fmt.Sprintf(`{namespace="%s", pod="%s"}`, target.Namespace, target.Pod)

	resp, err := c.client.QueryRange(ctx, loki.QueryRangeRequest{
		Query:     query,
		Start:     start,
		End:       end,
		Limit:     lokiLimit,
		Direction: "BACKWARD",
	})
	if err != nil {
		return map[string]evidence.Fragment{KeyLoki: evidence.Fail(err)}
	}

	return map[string]evidence.Fragment{KeyLoki: evidence.OK(LogQueryResult{
		Query:        query,
		RangeMinutes: int(lokiWindow.Minutes()),
		Response:     resp,
	})}
}
