package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/worklink/internal/auth"
	"github.com/geocoder89/worklink/internal/cache"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/db"
	apphttp "github.com/geocoder89/worklink/internal/http"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/geocoder89/worklink/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

type testEnv struct {
	router http.Handler
	pool   *pgxpool.Pool
	prom   *observability.Prom
	log    *slog.Logger
}

// setupEnv needs a disposable database in TEST_DB_DSN; the tests truncate it.
func setupEnv(t *testing.T) testEnv {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database integration test")
	}

	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pg pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE notification_deliveries, jobs, chat_messages, chats, saved_workers, saved_jobs,
		         connection_requests, worker_profiles, work_posts, users
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}

	cfg := config.Config{
		Env:                 "test",
		DBURL:               dsn,
		JWTSecret:           "test-secret",
		JWTTTLHours:         1,
		CORSAllowedOrigins:  []string{"http://localhost:5173"},
		AuthRateLimit:       1000,
		AuthRateLimitWindow: time.Minute,
		MaxBodyBytes:        1 << 20,
		JobMaxAttempts:      3,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	prom := observability.NewProm(prometheus.NewRegistry())
	connections := postgres.NewConnectionRequestsRepo(pool, prom)

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		DB:                 pool,
		Users:              postgres.NewUsersRepo(pool, prom),
		WorkPosts:          postgres.NewWorkPostsRepo(pool, prom),
		WorkerProfiles:     postgres.NewWorkerProfilesRepo(pool, prom),
		ConnectionRequests: connections,
		Applied:            connections,
		SavedJobs:          postgres.NewSavedJobsRepo(pool, prom),
		SavedWorkers:       postgres.NewSavedWorkersRepo(pool, prom),
		Chats:              postgres.NewChatsRepo(pool, prom),
		Cache:              cache.NewMemory(time.Minute),
		Tokens:             auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()),
	})

	return testEnv{router: router, pool: pool, prom: prom, log: logger}
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type session struct {
	ID    string
	Token string
}

// signUp registers and logs in one user.
func signUp(t *testing.T, router http.Handler, name, email, role string) session {
	t.Helper()

	body := `{"name":"` + name + `","email":"` + email + `","password":"secret123","role":"` + role + `"}`
	if w := doRequest(router, http.MethodPost, "/api/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, w.Code, w.Body.String())
	}

	w := doRequest(router, http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	mustReadJSON(t, w, &resp)
	return session{ID: resp.User.ID, Token: resp.Token}
}
