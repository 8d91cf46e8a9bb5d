package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/worklink/internal/auth"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/gin-gonic/gin"
)

func testRouter(t *testing.T) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewManager("test-secret", time.Hour)
	cfg := config.Config{
		Env:                 "test",
		CORSAllowedOrigins:  []string{"http://localhost:5173"},
		AuthRateLimit:       100,
		AuthRateLimitWindow: time.Minute,
		MaxBodyBytes:        1 << 20,
		JobMaxAttempts:      3,
	}

	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewRouter(log, cfg, Deps{Tokens: tokens}), tokens
}

func bearer(t *testing.T, m *auth.Manager, role string) string {
	t.Helper()
	tok, _, err := m.GenerateAccessToken("u-1", role, "Test")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return "Bearer " + tok
}

// Role checks run before any store is touched, so nil stores are fine here.
func TestRouter_RoleGates(t *testing.T) {
	r, tokens := testRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{name: "no token", method: http.MethodGet, path: "/api/work-posts", want: http.StatusUnauthorized},
		{name: "worker cannot post work", method: http.MethodPost, path: "/api/work-posts", role: "worker", want: http.StatusForbidden},
		{name: "contractor cannot toggle request", method: http.MethodPost, path: "/api/work-posts/x/request", role: "contractor", want: http.StatusForbidden},
		{name: "contractor cannot create profile", method: http.MethodPost, path: "/api/worker-profiles", role: "contractor", want: http.StatusForbidden},
		{name: "contractor cannot apply", method: http.MethodPost, path: "/api/connection-requests", role: "contractor", want: http.StatusForbidden},
		{name: "worker cannot decide", method: http.MethodPut, path: "/api/connection-requests/x", role: "worker", want: http.StatusForbidden},
		{name: "contractor has no saved jobs", method: http.MethodGet, path: "/api/saved-jobs", role: "contractor", want: http.StatusForbidden},
		{name: "worker has no saved workers", method: http.MethodGet, path: "/api/saved-workers", role: "worker", want: http.StatusForbidden},
		{name: "unknown role cannot list profiles", method: http.MethodGet, path: "/api/worker-profiles", role: "admin", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, tokens, tt.role))
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d body=%s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouter_OpsRoutes(t *testing.T) {
	r, _ := testRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/docs", "/docs/openapi.yaml"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestRouter_RejectsNonJSONBodies(t *testing.T) {
	r, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}
