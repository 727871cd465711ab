package collector

import (
	"context"
	"fmt"

	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/pkg/prometheus"
)

// Instant queries evaluated per target. Node metrics match by instance
// prefix because node exporters register with a port suffix.
const (
	podCPUQuery    = `sum(rate(container_cpu_usage_seconds_total{namespace="%s",pod="%s",container!=""}[5m]))`
	podMemoryQuery = `sum(container_memory_working_set_bytes{namespace="%s",pod="%s",container!=""})`
	nodeCPUQuery   = `sum(rate(node_cpu_seconds_total{instance=~"%s.*",mode!="idle"}[5m]))`
)

// PrometheusCollector evaluates resource-usage queries for the target pod
// and node.
type PrometheusCollector struct {
	client *prometheus.Client
}

// NewPrometheusCollector creates a collector over the given Prometheus client.
func NewPrometheusCollector(client *prometheus.Client) *PrometheusCollector {
	return &PrometheusCollector{client: client}
}

// Name identifies the collector in logs
func (c *PrometheusCollector) Name() string {
	return "prometheus"
}

// Collect evaluates pod CPU and memory when a pod is named, and node CPU
// when a node is named.
func (c *PrometheusCollector) Collect(ctx context.Context, target evidence.TargetCoordinates) map[string]evidence.Fragment {
	fragments := make(map[string]evidence.Fragment)

	if target.HasPod() {
		fragments[KeyPodCPU] = c.query(ctx, fmt.Sprintf(podCPUQuery, target.Namespace, target.Pod))
		fragments[KeyPodMemory] = c.query(ctx, fmt.Sprintf(podMemoryQuery, target.Namespace, target.Pod))
	}
	if target.HasNode() {
		fragments[KeyNodeCPU] = c.query(ctx, fmt.Sprintf(nodeCPUQuery, target.Node))
	}

	return fragments
}

func (c *PrometheusCollector) query(ctx context.Context, expr string) evidence.Fragment {
	result, err := c.client.Query(ctx, expr)
	if err != nil {
		return evidence.Fail(err)
	}
	return evidence.OK(result)
}
