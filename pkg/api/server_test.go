package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/fluxdns/pkg/metrics"
	"github.com/cuemby/fluxdns/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPasses struct {
	report *types.PassReport
}

func (s stubPasses) LastPass() (types.PassReport, bool) {
	if s.report == nil {
		return types.PassReport{}, false
	}
	return *s.report, true
}

func serve(s *StatusServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// TestStatusServerRoutes checks every route is registered
func TestStatusServerRoutes(t *testing.T) {
	metrics.RegisterComponent(metrics.ComponentStore, true, "")
	metrics.RegisterComponent(metrics.ComponentReconciler, true, "")
	s := NewStatusServer(stubPasses{})

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{path: "/health", expectedStatus: http.StatusOK},
		{path: "/health/live", expectedStatus: http.StatusOK},
		{path: "/ready", expectedStatus: http.StatusOK},
		{path: "/metrics", expectedStatus: http.StatusOK},
		{path: "/status", expectedStatus: http.StatusOK},
		{path: "/nonexistent", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := serve(s, http.MethodGet, tt.path)
			assert.Equal(t, tt.expectedStatus, w.Code, "Path: %s", tt.path)
		})
	}
}

// TestStatusServerMethodValidation tests that write methods are rejected
func TestStatusServerMethodValidation(t *testing.T) {
	s := NewStatusServer(stubPasses{})

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{name: "GET request accepted", method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "HEAD request accepted", method: http.MethodHead, expectedStatus: http.StatusOK},
		{name: "POST request rejected", method: http.MethodPost, expectedStatus: http.StatusMethodNotAllowed},
		{name: "PUT request rejected", method: http.MethodPut, expectedStatus: http.StatusMethodNotAllowed},
		{name: "DELETE request rejected", method: http.MethodDelete, expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, tt.method, "/status")
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestStatusPending(t *testing.T) {
	s := NewStatusServer(stubPasses{})

	w := serve(s, http.MethodGet, "/status")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "pending", response.Status)
	assert.Nil(t, response.Pass)
}

func TestStatusReportsLastPass(t *testing.T) {
	report := &types.PassReport{
		ID:           "c7f2a2a4-7d0e-4b53-9d3f-0d3f0c1f6d11",
		StartedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
		Applications: 3,
		Outcomes: map[string]types.Outcome{
			"app1": {App: "app1", Kind: types.OutcomeCreated, Selected: "10.0.0.2"},
			"app2": {App: "app2", Kind: types.OutcomeNoHealthy},
			"app3": {App: "app3", Kind: types.OutcomeNoHealthy},
		},
	}
	s := NewStatusServer(stubPasses{report: report})

	w := serve(s, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	require.NotNil(t, response.Pass)
	assert.Equal(t, report.ID, response.Pass.ID)
	assert.Equal(t, "10.0.0.2", response.Pass.Outcomes["app1"].Selected)
	assert.Equal(t, 1, response.Summary[types.OutcomeCreated])
	assert.Equal(t, 2, response.Summary[types.OutcomeNoHealthy])
}

func startInBackground(s *StatusServer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start("127.0.0.1:0") }()
	return errCh
}

func waitStopped(t *testing.T, errCh <-chan error) {
	t.Helper()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := NewStatusServer(stubPasses{})
	require.NoError(t, s.Shutdown(t.Context()))

	waitStopped(t, startInBackground(s))
	assert.Nil(t, s.Addr())
}

func TestStartThenShutdown(t *testing.T) {
	s := NewStatusServer(stubPasses{})
	errCh := startInBackground(s)

	require.Eventually(t, func() bool { return s.Addr() != nil }, 5*time.Second, 10*time.Millisecond)
	addr := s.Addr().String()

	resp, err := http.Get("http://" + addr + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	waitStopped(t, errCh)

	_, err = net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err, "server still listening on %s after Shutdown", addr)
}

// TestShutdownConcurrentWithStart shuts down while Start may still be
// setting up; run with -race
func TestShutdownConcurrentWithStart(t *testing.T) {
	for i := 0; i < 20; i++ {
		s := NewStatusServer(stubPasses{})
		errCh := startInBackground(s)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		require.NoError(t, s.Shutdown(ctx))
		cancel()

		waitStopped(t, errCh)
		assert.Nil(t, s.Addr())
	}
}
