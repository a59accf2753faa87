package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	r := NewRegistry()
	finished := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	r.Observe(RunStats{
		Mode:          "incremental",
		Watermark:     104,
		OrdersFetched: 3,
		RowsAppended:  5,
		Pages:         1,
		Succeeded:     true,
		Duration:      1500 * time.Millisecond,
		FinishedAt:    finished,
	})

	assert.Equal(t, 3.0, testutil.ToFloat64(r.OrdersFetched))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.RowsAppended))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PagesFetched))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FetchFailed))
	assert.Equal(t, 104.0, testutil.ToFloat64(r.Watermark))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.DurationSec))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.LastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Mode.WithLabelValues("incremental")))
}

func TestObserve_FailedRunKeepsLastSuccess(t *testing.T) {
	r := NewRegistry()
	r.Observe(RunStats{Mode: "full", Succeeded: true, FinishedAt: time.Unix(1000, 0)})
	r.Observe(RunStats{Mode: "full", FetchFailed: true, FinishedAt: time.Unix(2000, 0)})

	assert.Equal(t, 1000.0, testutil.ToFloat64(r.LastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FetchFailed))
}

func TestPush(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method = req.Method
		path = req.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRegistry().WithPushTarget(srv.URL, "12345")
	r.Observe(RunStats{Mode: "full"})
	require.NoError(t, r.Push(context.Background()))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/ecwid_order_sync/store/12345", path)
}

func TestPush_Disabled(t *testing.T) {
	assert.NoError(t, NewRegistry().Push(context.Background()))
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRegistry().WithPushTarget(srv.URL, "1").Push(context.Background())
	assert.Error(t, err)
}
