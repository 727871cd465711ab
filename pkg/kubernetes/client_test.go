package kubernetes_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	kube "github.com/valentinpelus/kubetriage/pkg/kubernetes"
)

func testPod() *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "api-7f9",
			Namespace: "payments",
			Labels:    map[string]string{"app": "api"},
		},
		Spec: corev1.PodSpec{
			NodeName:   "ip-10-0-1-5",
			Containers: []corev1.Container{{Name: "app"}, {Name: "sidecar"}},
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{{
				Type:   corev1.PodReady,
				Status: corev1.ConditionFalse,
				Reason: "ContainersNotReady",
			}},
			ContainerStatuses: []corev1.ContainerStatus{{
				Name:         "app",
				Ready:        false,
				RestartCount: 5,
				State: corev1.ContainerState{
					Waiting: &corev1.ContainerStateWaiting{Reason: "CrashLoopBackOff"},
				},
				LastTerminationState: corev1.ContainerState{
					Terminated: &corev1.ContainerStateTerminated{ExitCode: 1, Reason: "Error"},
				},
			}},
		},
	}
}

func TestNodeInfo(t *testing.T) {
	node := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:   "ip-10-0-1-5",
			Labels: map[string]string{"kubernetes.io/os": "linux"},
		},
		Status: corev1.NodeStatus{
			Conditions: []corev1.NodeCondition{{
				Type:    corev1.NodeReady,
				Status:  corev1.ConditionTrue,
				Reason:  "KubeletReady",
				Message: "kubelet is posting ready status",
			}},
		},
	}
	c := kube.NewClient(fake.NewSimpleClientset(node))

	info, err := c.NodeInfo(context.Background(), "ip-10-0-1-5")
	require.NoError(t, err)

	assert.Equal(t, "ip-10-0-1-5", info.Name)
	assert.Equal(t, "linux", info.Labels["kubernetes.io/os"])
	require.Len(t, info.Conditions, 1)
	assert.Equal(t, kube.Condition{
		Type:    "Ready",
		Status:  "True",
		Reason:  "KubeletReady",
		Message: "kubelet is posting ready status",
	}, info.Conditions[0])
}

func TestNodeInfo_Missing(t *testing.T) {
	c := kube.NewClient(fake.NewSimpleClientset())

	_, err := c.NodeInfo(context.Background(), "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get node")
}

func TestPodInfo(t *testing.T) {
	c := kube.NewClient(fake.NewSimpleClientset(testPod()))

	info, err := c.PodInfo(context.Background(), "payments", "api-7f9")
	require.NoError(t, err)

	assert.Equal(t, "api-7f9", info.Name)
	assert.Equal(t, "payments", info.Namespace)
	assert.Equal(t, "ip-10-0-1-5", info.NodeName)
	assert.Equal(t, "Running", info.Phase)
	require.Len(t, info.Conditions, 1)
	assert.Equal(t, "ContainersNotReady", info.Conditions[0].Reason)

	require.Len(t, info.ContainerStatuses, 1)
	status := info.ContainerStatuses[0]
	assert.Equal(t, "app", status.Name)
	assert.False(t, status.Ready)
	assert.Equal(t, int32(5), status.RestartCount)
	require.NotNil(t, status.State.Waiting)
	assert.Equal(t, "CrashLoopBackOff", status.State.Waiting.Reason)
	require.NotNil(t, status.LastState.Terminated)
	assert.Equal(t, int32(1), status.LastState.Terminated.ExitCode)
}

func TestPodInfo_Missing(t *testing.T) {
	c := kube.NewClient(fake.NewSimpleClientset())

	_, err := c.PodInfo(context.Background(), "payments", "gone")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get pod")
}

func TestPodEvents(t *testing.T) {
	event := &corev1.Event{
		ObjectMeta:     metav1.ObjectMeta{Name: "api-7f9.1", Namespace: "payments"},
		InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "api-7f9", Namespace: "payments"},
		Type:           "Warning",
		Reason:         "BackOff",
		Message:        "Back-off restarting failed container",
		FirstTimestamp: metav1.NewTime(time.Date(2026, 8, 22, 10, 25, 0, 0, time.UTC)),
		LastTimestamp:  metav1.NewTime(time.Date(2026, 8, 22, 10, 29, 0, 0, time.UTC)),
	}
	c := kube.NewClient(fake.NewSimpleClientset(event))

	events, err := c.PodEvents(context.Background(), "payments", "api-7f9", 50)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, kube.EventInfo{
		Type:           "Warning",
		Reason:         "BackOff",
		Message:        "Back-off restarting failed container",
		FirstTimestamp: "2026-08-22T10:25:00Z",
		LastTimestamp:  "2026-08-22T10:29:00Z",
	}, events[0])
}

func TestPodEvents_ZeroTimestampsBlank(t *testing.T) {
	event := &corev1.Event{
		ObjectMeta:     metav1.ObjectMeta{Name: "api-7f9.2", Namespace: "payments"},
		InvolvedObject: corev1.ObjectReference{Kind: "Pod", Name: "api-7f9", Namespace: "payments"},
		Type:           "Normal",
		Reason:         "Pulled",
	}
	c := kube.NewClient(fake.NewSimpleClientset(event))

	events, err := c.PodEvents(context.Background(), "payments", "api-7f9", 50)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Empty(t, events[0].FirstTimestamp)
	assert.Empty(t, events[0].LastTimestamp)
}

func TestPodEvents_NoMatches(t *testing.T) {
	c := kube.NewClient(fake.NewSimpleClientset())

	events, err := c.PodEvents(context.Background(), "payments", "api-7f9", 50)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPodContainers(t *testing.T) {
	c := kube.NewClient(fake.NewSimpleClientset(testPod()))

	containers, err := c.PodContainers(context.Background(), "payments", "api-7f9")
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "sidecar"}, containers)
}

func TestContainerLogTail(t *testing.T) {
	c := kube.NewClient(fake.NewSimpleClientset(testPod()))

	logs, err := c.ContainerLogTail(context.Background(), "payments", "api-7f9", "app", 200)
	require.NoError(t, err)
	assert.Equal(t, "fake logs", logs)
}
