package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func healthzStatus(t *testing.T, h *HealthStatus) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode healthz body: %v", err)
	}
	return rec.Code, body.Status
}

func TestHealthz_NothingWatchedIsHealthy(t *testing.T) {
	h := NewHealthStatus()

	code, status := healthzStatus(t, h)
	if code != http.StatusOK || status != "healthy" {
		t.Errorf("got %d %q, want 200 healthy", code, status)
	}
}

func TestHealthz_WatchedStreamUpIsHealthy(t *testing.T) {
	h := NewHealthStatus()
	h.WatchStream()
	h.SetStreamConnected(true)

	code, status := healthzStatus(t, h)
	if code != http.StatusOK || status != "healthy" {
		t.Errorf("got %d %q, want 200 healthy", code, status)
	}
}

func TestHealthz_OneOfTwoWatchedDownIsDegraded(t *testing.T) {
	h := NewHealthStatus()
	h.WatchStream()
	h.SetStreamConnected(true)
	h.mu.Lock()
	h.watchSQLite = true
	h.SQLiteOK = false
	h.mu.Unlock()

	code, status := healthzStatus(t, h)
	if code != http.StatusServiceUnavailable || status != "degraded" {
		t.Errorf("got %d %q, want 503 degraded", code, status)
	}
}

func TestHealthz_AllWatchedDownIsUnhealthy(t *testing.T) {
	h := NewHealthStatus()
	h.WatchStream() // never connects

	code, status := healthzStatus(t, h)
	if code != http.StatusServiceUnavailable || status != "unhealthy" {
		t.Errorf("got %d %q, want 503 unhealthy", code, status)
	}
}

func TestHealthz_UnwatchedDepsDoNotCount(t *testing.T) {
	h := NewHealthStatus()
	h.WatchStream()
	h.SetStreamConnected(true)
	// Redis and SQLite never checked, so their false zero values are
	// ignored.

	code, status := healthzStatus(t, h)
	if code != http.StatusOK || status != "healthy" {
		t.Errorf("got %d %q, want 200 healthy", code, status)
	}
}
