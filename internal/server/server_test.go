package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliotheca/bibliotheca/internal/config"
)

type observation struct {
	method string
	route  string
	status int
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (f *fakeRecorder) ObserveHTTP(method, route string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, observation{method, route, status})
}

func (f *fakeRecorder) IncLoan(string, string) {}

func newTestServer(rec *fakeRecorder) *Server {
	cfg := config.Config{HTTPPort: 8000, RequestTimeout: time.Second}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), rec)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&fakeRecorder{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	srv := newTestServer(&fakeRecorder{})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())

	srv.SetReadiness(func(context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	fake := &fakeRecorder{}
	srv := newTestServer(fake)
	srv.Router().Get("/api/book/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/book/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.Len(t, fake.obs, 2)
	assert.Equal(t, observation{http.MethodGet, "/api/book/{id}", http.StatusTeapot}, fake.obs[0])
	assert.Equal(t, http.StatusNotFound, fake.obs[1].status)
}

func TestRecovererReturns500(t *testing.T) {
	srv := newTestServer(&fakeRecorder{})
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
