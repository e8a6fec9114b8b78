package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 HealthHandler 测试
// =============================================================================

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

func newHealth() *HealthHandler {
	return NewHealthHandler(zap.NewNop(), BuildInfo{Version: "1.0.0", BuildTime: "2026-01-01T00:00:00Z", GitCommit: "abc123"})
}

func TestHealthHandler_Root(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealth().HandleRoot(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Eventually API","version":"1.0.0","docs":"/docs"}`, rec.Body.String())
}

func TestHealthHandler_HealthAndLiveness(t *testing.T) {
	h := newHealth()

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.HandleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthHandler_HandleReady(t *testing.T) {
	tests := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		want       map[string]string
	}{
		{"no checks", nil, http.StatusOK, map[string]string{}},
		{"all pass", []HealthCheck{
			NewCheck("database", func(context.Context) error { return nil }),
			NewReadyCheck("http_client", readyFlag(true)),
		}, http.StatusOK, map[string]string{"database": "pass", "http_client": "pass"}},
		{"one fails", []HealthCheck{
			NewCheck("database", func(context.Context) error { return errors.New("connection refused") }),
			NewReadyCheck("http_client", readyFlag(true)),
		}, http.StatusServiceUnavailable, map[string]string{"database": "fail", "http_client": "pass"}},
		{"pool not ready", []HealthCheck{
			NewReadyCheck("http_client", readyFlag(false)),
		}, http.StatusServiceUnavailable, map[string]string{"http_client": "fail"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHealth()
			for _, c := range tt.checks {
				h.RegisterCheck(c)
			}

			rec := httptest.NewRecorder()
			h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var status HealthStatus
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
			got := map[string]string{}
			for name, res := range status.Checks {
				got[name] = res.Status
			}
			assert.Equal(t, tt.want, got)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "unhealthy", status.Status)
			}
		})
	}
}

func TestHealthHandler_ReadyFailureMessage(t *testing.T) {
	h := newHealth()
	h.RegisterCheck(NewReadyCheck("http_client", readyFlag(false)))

	rec := httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "http_client is not ready", status.Checks["http_client"].Message)
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealth().HandleVersion(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info BuildInfo
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	assert.Equal(t, BuildInfo{Version: "1.0.0", BuildTime: "2026-01-01T00:00:00Z", GitCommit: "abc123"}, info)
}

func TestHealthHandler_ConcurrentReady(t *testing.T) {
	h := newHealth()
	for i := 0; i < 10; i++ {
		h.RegisterCheck(NewCheck(string(rune('a'+i)), func(context.Context) error { return nil }))
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()
}
