package evidence

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valentinpelus/kubetriage/pkg/types"
)

// TargetCoordinates identifies what an alert is about. Any subset may be
// absent; adapters decide per aspect whether the coordinates they need are
// present.
type TargetCoordinates struct {
	Namespace string
	Pod       string
	Node      string
}

// HasPod reports whether both namespace and pod are known.
func (t TargetCoordinates) HasPod() bool {
	return t.Namespace != "" && t.Pod != ""
}

// HasNode reports whether the node is known.
func (t TargetCoordinates) HasNode() bool {
	return t.Node != ""
}

// AlertSummary is the projection of one Alertmanager alert kept in the
// bundle. Field names are part of the archived JSON contract.
type AlertSummary struct {
	AlertName   string `json:"alertname,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	Pod         string `json:"pod,omitempty"`
	Container   string `json:"container,omitempty"`
	Node        string `json:"node,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
}

// Summarize extracts the target labels and annotations from a raw alert,
// honoring the alternate label names some exporters emit.
func Summarize(a types.Alert) AlertSummary {
	return AlertSummary{
		AlertName:   a.Labels["alertname"],
		Severity:    a.Labels["severity"],
		Namespace:   firstOf(a.Labels, "namespace", "kubernetes_namespace"),
		Pod:         firstOf(a.Labels, "pod", "pod_name"),
		Container:   a.Labels["container"],
		Node:        firstOf(a.Labels, "node", "instance"),
		Summary:     a.Annotations["summary"],
		Description: a.Annotations["description"],
	}
}

// Coordinates returns the namespace/pod/node triple this summary points at.
func (s AlertSummary) Coordinates() TargetCoordinates {
	return TargetCoordinates{Namespace: s.Namespace, Pod: s.Pod, Node: s.Node}
}

func firstOf(labels map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := labels[k]; v != "" {
			return v
		}
	}
	return ""
}

// Fragment is one named unit of retrieved diagnostic data, or the capture
// error for it. A fragment carries exactly one of the two fields; the
// constructors enforce that.
type Fragment struct {
	Data any    `json:"data,omitempty"`
	Err  string `json:"error,omitempty"`
}

// OK wraps a successfully retrieved payload.
func OK(data any) Fragment {
	return Fragment{Data: data}
}

// Fail wraps a capture error as an in-bundle marker.
func Fail(err error) Fragment {
	return Fragment{Err: err.Error()}
}

// Failed reports whether the fragment is an error marker.
func (f Fragment) Failed() bool {
	return f.Err != ""
}

// Bundle is the full merged diagnostic record for one incident. Its JSON
// shape is also what gets archived, so field names are load-bearing.
type Bundle struct {
	IncidentID  string              `json:"incident_id"`
	CreatedAt   time.Time           `json:"created_at"`
	AlertStatus string              `json:"alertmanager_status"`
	Alerts      []AlertSummary      `json:"alerts"`
	Fragments   map[string]Fragment `json:"fragments"`
}

// NewBundle assigns a fresh incident identity. CreatedAt is truncated to
// whole seconds so it serializes as plain RFC3339 and derives a stable
// archive key.
func NewBundle(status string, alerts []AlertSummary) *Bundle {
	return &Bundle{
		IncidentID:  uuid.NewString(),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
		AlertStatus: status,
		Alerts:      alerts,
		Fragments:   map[string]Fragment{},
	}
}

// Primary returns the first alert of the batch, which names and labels the
// incident. Zero value when the batch was empty.
func (b *Bundle) Primary() AlertSummary {
	if len(b.Alerts) == 0 {
		return AlertSummary{}
	}
	return b.Alerts[0]
}

// ArchivePrefix derives the object-store prefix for this incident. Colons in
// the timestamp are replaced so the key stays filesystem-safe.
func (b *Bundle) ArchivePrefix() string {
	ts := strings.ReplaceAll(b.CreatedAt.Format(time.RFC3339), ":", "-")
	return "incidents/" + ts + "_" + b.IncidentID
}
