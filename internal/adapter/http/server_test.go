package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/jmorake/floodwatch/internal/adapter/http"
	"github.com/jmorake/floodwatch/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockSource struct {
	obs []domain.Observation
	err error

	gotLimit int
}

func (m *mockSource) Recent(_ context.Context, limit int) ([]domain.Observation, error) {
	m.gotLimit = limit
	return m.obs, m.err
}

func newTestServer(readyErr error, source *mockSource) *httpadapter.Server {
	if source == nil {
		source = &mockSource{}
	}
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, source, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no cycle completed yet"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no cycle completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestObservationsReturnsRows(t *testing.T) {
	source := &mockSource{obs: []domain.Observation{
		{ID: 2, City: "Gaborone", Timestamp: "2026/01/15,14:00:00", Rainfall: 6.2, FloodAlert: domain.LevelWatch.Label(), RainStreak: 2},
		{ID: 1, City: "Gaborone", Timestamp: "2026/01/15,13:00:00", Rainfall: 1.1, FloodAlert: domain.LevelNone.Label()},
	}}
	srv := newTestServer(nil, source)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/observations", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 24, source.gotLimit, "default limit")

	var body []domain.Observation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, source.obs[0], body[0])
}

func TestObservationsCustomLimit(t *testing.T) {
	source := &mockSource{}
	srv := newTestServer(nil, source)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/observations?limit=7", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, source.gotLimit)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestObservationsRejectsBadLimit(t *testing.T) {
	for _, limit := range []string{"0", "-3", "9999", "many"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/observations?limit="+limit, nil)

		newTestServer(nil, nil).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestObservationsStoreErrorIs500(t *testing.T) {
	source := &mockSource{err: errors.New("disk gone")}
	srv := newTestServer(nil, source)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/observations", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk gone", "internal errors are not leaked")
}
