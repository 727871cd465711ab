package loki_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinpelus/kubetriage/pkg/loki"
)

const streamsBody = `{"status":"success","data":{"resultType":"streams","result":[{"stream":{"pod":"api-7f9"},"values":[["1755857400000000000","panic: runtime error"]]}]}}`

func queryRangeServer(t *testing.T, status int, body string) (*httptest.Server, *string, *url.Values) {
	t.Helper()
	var path string
	params := &url.Values{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		*params = r.URL.Query()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, &path, params
}

func TestQueryRange(t *testing.T) {
	ts, path, params := queryRangeServer(t, http.StatusOK, streamsBody)
	c := loki.NewClient(ts.URL)

	start := time.Date(2026, 8, 22, 10, 10, 0, 0, time.UTC)
	end := start.Add(20 * time.Minute)

	resp, err := c.QueryRange(context.Background(), loki.QueryRangeRequest{
		Query:     `{namespace="payments", pod="api-7f9"}`,
		Start:     start,
		End:       end,
		Limit:     200,
		Direction: "BACKWARD",
	})
	require.NoError(t, err)
	assert.JSONEq(t, streamsBody, string(resp))

	assert.Equal(t, "/loki/api/v1/query_range", *path)
	assert.Equal(t, `{namespace="payments", pod="api-7f9"}`, params.Get("query"))
	assert.Equal(t, strconv.FormatInt(start.UnixNano(), 10), params.Get("start"))
	assert.Equal(t, strconv.FormatInt(end.UnixNano(), 10), params.Get("end"))
	assert.Equal(t, "200", params.Get("limit"))
	assert.Equal(t, "BACKWARD", params.Get("direction"))
}

func TestQueryRange_DirectionDefaultsBackward(t *testing.T) {
	ts, _, params := queryRangeServer(t, http.StatusOK, streamsBody)
	c := loki.NewClient(ts.URL)

	_, err := c.QueryRange(context.Background(), loki.QueryRangeRequest{
		Query: `{namespace="payments"}`,
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "BACKWARD", params.Get("direction"))
}

func TestQueryRange_ZeroLimitOmitted(t *testing.T) {
	ts, _, params := queryRangeServer(t, http.StatusOK, streamsBody)
	c := loki.NewClient(ts.URL)

	_, err := c.QueryRange(context.Background(), loki.QueryRangeRequest{
		Query: `{namespace="payments"}`,
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	require.NoError(t, err)
	assert.False(t, params.Has("limit"))
}

func TestQueryRange_TrailingSlashTrimmed(t *testing.T) {
	ts, path, _ := queryRangeServer(t, http.StatusOK, streamsBody)
	c := loki.NewClient(ts.URL + "/")

	_, err := c.QueryRange(context.Background(), loki.QueryRangeRequest{
		Query: `{namespace="payments"}`,
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "/loki/api/v1/query_range", *path)
}

func TestQueryRange_ServerError(t *testing.T) {
	ts, _, _ := queryRangeServer(t, http.StatusInternalServerError, "ingester unavailable")
	c := loki.NewClient(ts.URL)

	_, err := c.QueryRange(context.Background(), loki.QueryRangeRequest{
		Query: `{namespace="payments"}`,
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loki returned status 500")
	assert.Contains(t, err.Error(), "ingester unavailable")
}

func TestQueryRange_MalformedJSON(t *testing.T) {
	ts, _, _ := queryRangeServer(t, http.StatusOK, "<html>not json</html>")
	c := loki.NewClient(ts.URL)

	_, err := c.QueryRange(context.Background(), loki.QueryRangeRequest{
		Query: `{namespace="payments"}`,
		Start: time.Now().Add(-time.Hour),
		End:   time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loki returned malformed JSON")
}
