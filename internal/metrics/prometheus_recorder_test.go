package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveHTTP(http.MethodGet, "/api/book/{id}", http.StatusOK, 20*time.Millisecond)
	pr.IncLoan("borrow", "ok")
	pr.IncLoan("borrow", "rejected")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]int)
	for _, mf := range mfs {
		names[mf.GetName()] = len(mf.GetMetric())
	}
	assert.Equal(t, 1, names["bibliotheca_http_requests_total"])
	assert.Equal(t, 1, names["bibliotheca_http_request_duration_seconds"])
	assert.Equal(t, 2, names["bibliotheca_loans_total"])
}

func TestPrometheusRecorderHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncLoan("return", "ok")

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `bibliotheca_loans_total{action="return",result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	r.IncLoan("borrow", "ok")
}
