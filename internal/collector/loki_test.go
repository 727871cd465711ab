package collector_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinpelus/kubetriage/internal/collector"
	"github.com/valentinpelus/kubetriage/internal/evidence"
	"github.com/valentinpelus/kubetriage/pkg/loki"
)

const lokiStreamsBody = `{"status":"success","data":{"resultType":"streams","result":[]}}`

func lokiServer(t *testing.T) (*httptest.Server, *url.Values) {
	t.Helper()
	params := &url.Values{}

	mux := http.NewServeMux()
	mux.HandleFunc("/loki/api/v1/query_range", func(w http.ResponseWriter, r *http.Request) {
		*params = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, lokiStreamsBody)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, params
}

func TestLokiCollector_PodTarget(t *testing.T) {
	ts, params := lokiServer(t)
	c := collector.NewLokiCollector(loki.NewClient(ts.URL))

	fragments := c.Collect(context.Background(), evidence.TargetCoordinates{Namespace: "payments", Pod: "api-7f9"})

	require.Len(t, fragments, 1)
	require.Contains(t, fragments, collector.KeyLoki)

	assert.Equal(t, `{namespace="payments", pod="api-7f9"}`, params.Get("query"))
	assert.Equal(t, "200", params.Get("limit"))
	assert.Equal(t, "BACKWARD", params.Get("direction"))

	start, err := strconv.ParseInt(params.Get("start"), 10, 64)
	require.NoError(t, err)
	end, err := strconv.ParseInt(params.Get("end"), 10, 64)
	require.NoError(t, err)
	assert.Equal(t, (20 * time.Minute).Nanoseconds(), end-start)

	result, ok := fragments[collector.KeyLoki].Data.(collector.LogQueryResult)
	require.True(t, ok)
	assert.Equal(t, `{namespace="payments", pod="api-7f9"}`, result.Query)
	assert.Equal(t, 20, result.RangeMinutes)
	assert.JSONEq(t, lokiStreamsBody, string(result.Response))
}

func TestLokiCollector_NoPod(t *testing.T) {
	ts, params := lokiServer(t)
	c := collector.NewLokiCollector(loki.NewClient(ts.URL))

	fragments := c.Collect(context.Background(), evidence.TargetCoordinates{Node: "ip-10-0-1-5"})

	assert.Empty(t, fragments)
	assert.Empty(t, *params)
}

func TestLokiCollector_ServerDownMarksFragment(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "ingester unavailable", http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)
	c := collector.NewLokiCollector(loki.NewClient(ts.URL))

	fragments := c.Collect(context.Background(), evidence.TargetCoordinates{Namespace: "payments", Pod: "api-7f9"})

	require.Len(t, fragments, 1)
	assert.True(t, fragments[collector.KeyLoki].Failed())
	assert.Contains(t, fragments[collector.KeyLoki].Err, "loki returned status 500")
}

// All three collectors together must produce disjoint fragment keys, so the
// merged bundle carries every aspect.
func TestCollectors_DisjointFragmentKeys(t *testing.T) {
	promTS, _ := promServer(t)
	lokiTS, _ := lokiServer(t)

	kubeCollector, _ := newKubeCollector(crashingPod(), readyNode())
	promCollector := newPrometheusCollector(t, promTS.URL)
	lokiCollector := collector.NewLokiCollector(loki.NewClient(lokiTS.URL))

	a := collector.NewAggregator(testLogger(), kubeCollector, promCollector, lokiCollector)

	merged := a.Collect(context.Background(), evidence.TargetCoordinates{
		Namespace: "payments",
		Pod:       "api-7f9",
		Node:      "ip-10-0-1-5",
	})

	expected := []string{
		collector.KeyNodeInfo,
		collector.KeyPodInfo,
		collector.KeyEvents,
		collector.KeyLogs,
		collector.KeyPodCPU,
		collector.KeyPodMemory,
		collector.KeyNodeCPU,
		collector.KeyLoki,
	}
	require.Len(t, merged, len(expected))
	for _, key := range expected {
		assert.Contains(t, merged, key)
		assert.False(t, merged[key].Failed(), "aspect %s should have collected", key)
	}
}
