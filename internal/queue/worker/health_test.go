package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/observability"
)

func getJSON(t *testing.T, h http.Handler, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("%s: invalid json %q", path, w.Body.String())
	}
	return w.Code, body
}

func TestHealthHandler_Readiness(t *testing.T) {
	w := New(Config{WorkerID: "w-1"}, Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil))})

	h := w.HealthHandler(func(context.Context) error { return nil }, nil)
	if code, _ := getJSON(t, h, "/healthz"); code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", code)
	}
	if code, body := getJSON(t, h, "/readyz"); code != http.StatusServiceUnavailable || body["reason"] != "loop_stopped" {
		t.Fatalf("readyz before start: got %d %v", code, body)
	}

	w.setReady(true)
	if code, _ := getJSON(t, h, "/readyz"); code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", code)
	}

	down := w.HealthHandler(func(context.Context) error { return errors.New("refused") }, nil)
	if code, body := getJSON(t, down, "/readyz"); code != http.StatusServiceUnavailable || body["reason"] != "db_unreachable" {
		t.Fatalf("readyz with db down: got %d %v", code, body)
	}
}

func TestHealthHandler_Stats(t *testing.T) {
	stats := observability.NewQueueStats()
	stats.Claimed()
	stats.Finished(observability.ResultDone, 40*time.Millisecond)
	stats.Delivered("notify_job_application")

	w := New(Config{WorkerID: "w-1"}, Deps{Stats: stats, Log: slog.New(slog.NewTextHandler(io.Discard, nil))})

	backlog := func(context.Context) (map[job.Status]int64, error) {
		return map[job.Status]int64{job.StatusPending: 3, job.StatusFailed: 1}, nil
	}
	code, body := getJSON(t, w.HealthHandler(nil, backlog), "/stats")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["claimed"] != float64(1) || body["done"] != float64(1) {
		t.Fatalf("unexpected counters %v", body)
	}
	pending := body["backlog"].(map[string]any)["pending"]
	if pending != float64(3) {
		t.Fatalf("expected pending backlog 3, got %v", pending)
	}

	failing := func(context.Context) (map[job.Status]int64, error) { return nil, errors.New("timeout") }
	_, body = getJSON(t, w.HealthHandler(nil, failing), "/stats")
	if body["backlogError"] != "unavailable" {
		t.Fatalf("expected backlog error marker, got %v", body)
	}
}
