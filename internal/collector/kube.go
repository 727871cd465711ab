package collector

import (
	"context"
	"fmt"

	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/pkg/kubernetes"
)

const (
	eventLimit   = 50
	logTailLines = 200
)

// KubeCollector gathers node, pod, event and log evidence from the
// Kubernetes API.
type KubeCollector struct {
	client *kubernetes.Client
}

// NewKubeCollector creates a collector over the given Kubernetes client.
func NewKubeCollector(client *kubernetes.Client) *KubeCollector {
	return &KubeCollector{client: client}
}

// Name identifies the collector in logs
func (c *KubeCollector) Name() string {
	return "kubernetes"
}

// Collect fetches whichever aspects the target coordinates allow: node
// details when a node is named, pod details, events and container logs when
// a namespace and pod are named.
func (c *KubeCollector) Collect(ctx context.Context, target evidence.TargetCoordinates) map[string]evidence.Fragment {
	fragments := make(map[string]evidence.Fragment)

	if target.HasNode() {
		if info, err := c.client.NodeInfo(ctx, target.Node); err != nil {
			fragments[KeyNodeInfo] = evidence.Fail(err)
		} else {
			fragments[KeyNodeInfo] = evidence.OK(info)
		}
	}

	if target.HasPod() {
		if info, err := c.client.PodInfo(ctx, target.Namespace, target.Pod); err != nil {
			fragments[KeyPodInfo] = evidence.Fail(err)
		} else {
			fragments[KeyPodInfo] = evidence.OK(info)
		}

		if events, err := c.client.PodEvents(ctx, target.Namespace, target.Pod, eventLimit); err != nil {
			fragments[KeyEvents] = evidence.Fail(err)
		} else {
			fragments[KeyEvents] = evidence.OK(events)
		}

		fragments[KeyLogs] = c.collectLogs(ctx, target)
	}

	return fragments
}

// collectLogs tails every container declared in the pod spec. A container
// whose log read fails keeps its map entry with an inline error marker so
// one broken container never hides the others.
func (c *KubeCollector) collectLogs(ctx context.Context, target evidence.TargetCoordinates) evidence.Fragment {
	containers, err := c.client.PodContainers(ctx, target.Namespace, target.Pod)
	if err != nil {
		return evidence.Fail(err)
	}

	logs := make(map[string]string, len(containers))
	for _, name := range containers {
		text, err := c.client.ContainerLogTail(ctx, target.Namespace, target.Pod, name, logTailLines)
		if err != nil {
			logs[name] = fmt.Sprintf("<log_error> %v", err)
			continue
		}
		logs[name] = text
	}
	return evidence.OK(logs)
}
