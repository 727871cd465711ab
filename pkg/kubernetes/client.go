package kubernetes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

const requestTimeout = 20 * time.Second

// GetClientset builds a clientset from the in-cluster ServiceAccount when
// running inside a cluster, falling back to the local kubeconfig otherwise.
func GetClientset() (kubernetes.Interface, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		cfg, err = clientcmd.BuildConfigFromFlags("", rules.GetDefaultFilename())
		if err != nil {
			return nil, fmt.Errorf("failed to load kubernetes config: %w", err)
		}
	}
	cfg.Timeout = requestTimeout
	return kubernetes.NewForConfig(cfg)
}

// Client wraps the Kubernetes clientset with the evidence reads the
// cluster-state adapter needs.
type Client struct {
	clientset kubernetes.Interface
}

// NewClient creates a new Kubernetes client
func NewClient(clientset kubernetes.Interface) *Client {
	return &Client{
		clientset: clientset,
	}
}

// Condition is the trimmed node/pod condition kept in evidence.
type Condition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// NodeInfo is the node descriptor fragment payload.
type NodeInfo struct {
	Name       string            `json:"name"`
	Labels     map[string]string `json:"labels"`
	Conditions []Condition       `json:"conditions"`
}

// ContainerStatus mirrors the status of one container in a pod, including
// the raw state objects so crash reasons and exit codes survive into the
// archived bundle.
type ContainerStatus struct {
	Name         string                `json:"name"`
	Ready        bool                  `json:"ready"`
	RestartCount int32                 `json:"restart_count"`
	State        corev1.ContainerState `json:"state"`
	LastState    corev1.ContainerState `json:"last_state"`
}

// PodInfo is the pod descriptor fragment payload.
type PodInfo struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace"`
	NodeName          string            `json:"node_name"`
	Labels            map[string]string `json:"labels"`
	Phase             string            `json:"phase"`
	Conditions        []Condition       `json:"conditions"`
	ContainerStatuses []ContainerStatus `json:"container_statuses"`
}

// EventInfo is one namespaced event scoped to the target pod.
type EventInfo struct {
	Type           string `json:"type"`
	Reason         string `json:"reason"`
	Message        string `json:"message"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// NodeInfo retrieves the node descriptor and its conditions.
// Reference: https://pkg.go.dev/k8s.io/client-go/kubernetes/typed/core/v1#NodeInterface
func (c *Client) NodeInfo(ctx context.Context, name string) (*NodeInfo, error) {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	info := &NodeInfo{
		Name:       node.Name,
		Labels:     node.Labels,
		Conditions: make([]Condition, 0, len(node.Status.Conditions)),
	}
	for _, cond := range node.Status.Conditions {
		info.Conditions = append(info.Conditions, Condition{
			Type:    string(cond.Type),
			Status:  string(cond.Status),
			Reason:  cond.Reason,
			Message: cond.Message,
		})
	}
	return info, nil
}

// PodInfo retrieves the pod descriptor, its conditions and the per-container
// statuses.
// Reference: https://pkg.go.dev/k8s.io/client-go/kubernetes/typed/core/v1#PodInterface
func (c *Client) PodInfo(ctx context.Context, namespace, name string) (*PodInfo, error) {
	pod, err := c.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod: %w", err)
	}

	info := &PodInfo{
		Name:       pod.Name,
		Namespace:  pod.Namespace,
		NodeName:   pod.Spec.NodeName,
		Labels:     pod.Labels,
		Phase:      string(pod.Status.Phase),
		Conditions: make([]Condition, 0, len(pod.Status.Conditions)),
	}
	for _, cond := range pod.Status.Conditions {
		info.Conditions = append(info.Conditions, Condition{
			Type:    string(cond.Type),
			Status:  string(cond.Status),
			Reason:  cond.Reason,
			Message: cond.Message,
		})
	}
	for _, cs := range pod.Status.ContainerStatuses {
		info.ContainerStatuses = append(info.ContainerStatuses, ContainerStatus{
			Name:         cs.Name,
			Ready:        cs.Ready,
			RestartCount: cs.RestartCount,
			State:        cs.State,
			LastState:    cs.LastTerminationState,
		})
	}
	return info, nil
}

// PodEvents lists recent events whose involved object is the given pod,
// bounded to limit entries.
// Reference: https://pkg.go.dev/k8s.io/client-go/kubernetes/typed/core/v1#EventInterface
func (c *Client) PodEvents(ctx context.Context, namespace, pod string, limit int64) ([]EventInfo, error) {
	events, err := c.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("involvedObject.name", pod).String(),
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	out := make([]EventInfo, 0, len(events.Items))
	for _, ev := range events.Items {
		out = append(out, EventInfo{
			Type:           ev.Type,
			Reason:         ev.Reason,
			Message:        ev.Message,
			FirstTimestamp: eventTime(ev.FirstTimestamp),
			LastTimestamp:  eventTime(ev.LastTimestamp),
		})
	}
	return out, nil
}

func eventTime(t metav1.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// PodContainers returns the container names declared in the pod spec.
func (c *Client) PodContainers(ctx context.Context, namespace, name string) ([]string, error) {
	pod, err := c.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get pod: %w", err)
	}

	names := make([]string, 0, len(pod.Spec.Containers))
	for _, container := range pod.Spec.Containers {
		names = append(names, container.Name)
	}
	return names, nil
}

// ContainerLogTail retrieves the most recent tailLines of one container's
// log, timestamped, oldest line first.
// Reference: https://pkg.go.dev/k8s.io/client-go/kubernetes/typed/core/v1#PodInterface
func (c *Client) ContainerLogTail(ctx context.Context, namespace, pod, container string, tailLines int64) (string, error) {
	req := c.clientset.CoreV1().Pods(namespace).GetLogs(pod, &corev1.PodLogOptions{
		Container:  container,
		TailLines:  &tailLines,
		Timestamps: true,
	})

	logs, err := req.Stream(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, logs); err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}

	return buf.String(), nil
}
