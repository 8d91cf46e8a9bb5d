package integration_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/notifications"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/geocoder89/worklink/internal/queue/worker"
	"github.com/geocoder89/worklink/internal/repo/postgres"
)

type capturingNotifier struct {
	mu   sync.Mutex
	sent []notifications.Notification
}

func (c *capturingNotifier) Send(ctx context.Context, n notifications.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func TestApplicationNotificationPipeline(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	contractor := signUp(t, env.router, "Asha", "asha@example.com", "contractor")
	worker1 := signUp(t, env.router, "Ravi", "ravi@example.com", "worker")

	w := doRequest(env.router, http.MethodPost, "/api/work-posts", contractor.Token,
		`{"title":"Fix roof","workType":"roofing","pincode":"560001","description":"Leaking roof","budget":1500}`)
	var post workpost.WorkPost
	mustReadJSON(t, w, &post)

	if w := doRequest(env.router, http.MethodPost, "/api/connection-requests", worker1.Token, `{"workPostId":"`+post.ID+`"}`); w.Code != http.StatusCreated {
		t.Fatalf("apply: %d %s", w.Code, w.Body.String())
	}

	n := &capturingNotifier{}
	wk := worker.New(worker.Config{WorkerID: "test-worker"}, worker.Deps{
		Jobs:       postgres.NewJobsRepo(env.pool, env.prom),
		Requests:   postgres.NewConnectionRequestsRepo(env.pool, env.prom),
		Users:      postgres.NewUsersRepo(env.pool, env.prom),
		Deliveries: postgres.NewNotificationDeliveriesRepo(env.pool, env.prom),
		Notifier:   n,
		Log:        env.log,
		Stats:      observability.NewQueueStats(),
		Prom:       env.prom,
	})

	processed, err := wk.ProcessOne(ctx)
	if err != nil || !processed {
		t.Fatalf("expected one job processed, got processed=%v err=%v", processed, err)
	}

	if len(n.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.sent))
	}
	if n.sent[0].Kind != notifications.KindJobApplication || n.sent[0].Recipient.Email != "asha@example.com" {
		t.Fatalf("unexpected notification %+v", n.sent[0])
	}

	var status string
	if err := env.pool.QueryRow(ctx, `SELECT status FROM jobs LIMIT 1`).Scan(&status); err != nil || status != "done" {
		t.Fatalf("expected job done, got %q err=%v", status, err)
	}

	var deliveryStatus string
	if err := env.pool.QueryRow(ctx, `SELECT status FROM notification_deliveries LIMIT 1`).Scan(&deliveryStatus); err != nil || deliveryStatus != "sent" {
		t.Fatalf("expected delivery sent, got %q err=%v", deliveryStatus, err)
	}

	processed, err = wk.ProcessOne(ctx)
	if err != nil || processed {
		t.Fatalf("queue should be empty, got processed=%v err=%v", processed, err)
	}
}
