package metricsserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpointReflectsSnapshot(t *testing.T) {
	s := New("127.0.0.1:0", nil)

	st := stats.New()
	st.RecordSent()
	st.RecordSent()
	st.RecordReceived(1000)
	st.RecordError()
	s.Refresh(st.Snapshot())

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "mqbench_sent_total 2")
	assert.Contains(t, body, "mqbench_received_total 1")
	assert.Contains(t, body, "mqbench_errors_total 1")
}

func TestHealthzWithoutTransportIsOK(t *testing.T) {
	s := New("127.0.0.1:0", nil)
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
