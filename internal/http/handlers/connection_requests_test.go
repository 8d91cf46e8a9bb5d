package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/http/handlers"
	"github.com/geocoder89/worklink/internal/jobs"
)

type fakeConnectionRequests struct {
	getFn        func(ctx context.Context, id string) (connection.Request, error)
	listFn       func(ctx context.Context, userID string) ([]connection.Request, error)
	hasPendingFn func(ctx context.Context, senderID, workPostID string) (bool, error)
	createFn     func(ctx context.Context, c connection.Request, notify job.CreateRequest) (connection.Request, error)
	decideFn     func(ctx context.Context, id string, status connection.Status, notify *job.CreateRequest) (connection.Request, error)
}

func (f *fakeConnectionRequests) GetByID(ctx context.Context, id string) (connection.Request, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return connection.Request{}, connection.ErrNotFound
}

func (f *fakeConnectionRequests) ListForUser(ctx context.Context, userID string) ([]connection.Request, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeConnectionRequests) HasPending(ctx context.Context, senderID, workPostID string) (bool, error) {
	if f.hasPendingFn != nil {
		return f.hasPendingFn(ctx, senderID, workPostID)
	}
	return false, nil
}

func (f *fakeConnectionRequests) Create(ctx context.Context, c connection.Request, notify job.CreateRequest) (connection.Request, error) {
	if f.createFn != nil {
		return f.createFn(ctx, c, notify)
	}
	return c, nil
}

func (f *fakeConnectionRequests) Decide(ctx context.Context, id string, status connection.Status, notify *job.CreateRequest) (connection.Request, error) {
	if f.decideFn != nil {
		return f.decideFn(ctx, id, status, notify)
	}
	return connection.Request{ID: id, Status: status}, nil
}

func TestCreateConnectionRequestHandler(t *testing.T) {
	workerID := newUUID()
	post := samplePost(newUUID(), newUUID())

	posts := &fakeWorkPosts{
		getFn: func(ctx context.Context, id string) (workpost.WorkPost, error) {
			if id == post.ID {
				return post, nil
			}
			return workpost.WorkPost{}, workpost.ErrNotFound
		},
	}

	tests := []struct {
		name     string
		body     string
		setup    func(*fakeConnectionRequests)
		want     int
		wantCode string
	}{
		{
			name:     "missing work post",
			body:     `{"workPostId":"` + newUUID() + `"}`,
			want:     http.StatusNotFound,
			wantCode: "not_found",
		},
		{
			name: "already pending",
			body: `{"workPostId":"` + post.ID + `"}`,
			setup: func(f *fakeConnectionRequests) {
				f.hasPendingFn = func(ctx context.Context, senderID, workPostID string) (bool, error) {
					return true, nil
				}
			},
			want:     http.StatusBadRequest,
			wantCode: "already_applied",
		},
		{
			name: "lost race on unique index",
			body: `{"workPostId":"` + post.ID + `"}`,
			setup: func(f *fakeConnectionRequests) {
				f.createFn = func(ctx context.Context, c connection.Request, notify job.CreateRequest) (connection.Request, error) {
					return connection.Request{}, connection.ErrAlreadyApplied
				}
			},
			want:     http.StatusBadRequest,
			wantCode: "already_applied",
		},
		{
			name: "created with notification job",
			body: `{"workPostId":"` + post.ID + `"}`,
			setup: func(f *fakeConnectionRequests) {
				f.createFn = func(ctx context.Context, c connection.Request, notify job.CreateRequest) (connection.Request, error) {
					if c.SenderID != workerID || c.ReceiverID != post.ContractorID || c.Status != connection.StatusPending {
						t.Errorf("unexpected request %+v", c)
					}
					if c.JobDetails.Location != post.Pincode || c.ChatID == "" {
						t.Errorf("work post snapshot missing: %+v", c)
					}

					jt, payload, err := jobs.DecodePayload(job.Job{Type: notify.Type, Payload: notify.Payload})
					if err != nil {
						t.Errorf("notification payload invalid: %v", err)
					}
					if jt != jobs.JobNotifyJobApplication || payload.RecipientID != post.ContractorID || payload.ConnectionRequestID != c.ID {
						t.Errorf("unexpected notification %s %+v", jt, payload)
					}
					if notify.IdempotencyKey == nil || *notify.IdempotencyKey == "" {
						t.Errorf("notification needs an idempotency key")
					}
					return c, nil
				}
			},
			want: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeConnectionRequests{}
			if tt.setup != nil {
				tt.setup(repo)
			}

			h := handlers.NewConnectionRequestsHandler(repo, posts, 5)
			r := setupRouter(http.MethodPost, "/api/connection-requests", identity(workerID, user.RoleWorker, "Ravi"), h.Create)

			w := perform(r, http.MethodPost, "/api/connection-requests", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d body=%s", tt.want, w.Code, w.Body.String())
			}
			if tt.wantCode != "" {
				if got := decodeError(t, w).Code; got != tt.wantCode {
					t.Fatalf("expected code %q, got %q", tt.wantCode, got)
				}
			}
		})
	}
}

func TestUpdateConnectionRequestHandler(t *testing.T) {
	contractorID := newUUID()
	workerID := newUUID()
	reqID := newUUID()

	existing := connection.Request{
		ID:         reqID,
		SenderID:   workerID,
		ReceiverID: contractorID,
		Status:     connection.StatusPending,
	}

	tests := []struct {
		name       string
		caller     string
		body       string
		want       int
		wantNotify bool
	}{
		{name: "receiver accepts", caller: contractorID, body: `{"status":"accepted"}`, want: http.StatusOK, wantNotify: true},
		{name: "receiver declines", caller: contractorID, body: `{"status":"declined"}`, want: http.StatusOK},
		{name: "other contractor", caller: newUUID(), body: `{"status":"accepted"}`, want: http.StatusForbidden},
		{name: "invalid status", caller: contractorID, body: `{"status":"maybe"}`, want: http.StatusBadRequest},
		{name: "back to pending", caller: contractorID, body: `{"status":"pending"}`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decided := false
			repo := &fakeConnectionRequests{
				getFn: func(ctx context.Context, id string) (connection.Request, error) {
					return existing, nil
				},
				decideFn: func(ctx context.Context, id string, status connection.Status, notify *job.CreateRequest) (connection.Request, error) {
					decided = true
					if (notify != nil) != tt.wantNotify {
						t.Errorf("notify presence = %v, want %v", notify != nil, tt.wantNotify)
					}
					if notify != nil && notify.Type != string(jobs.JobNotifyContactRequest) {
						t.Errorf("unexpected job type %s", notify.Type)
					}
					out := existing
					out.Status = status
					return out, nil
				},
			}

			h := handlers.NewConnectionRequestsHandler(repo, &fakeWorkPosts{}, 5)
			r := setupRouter(http.MethodPut, "/api/connection-requests/:id", identity(tt.caller, user.RoleContractor, "Asha"), h.Update)

			w := perform(r, http.MethodPut, "/api/connection-requests/"+reqID, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d body=%s", tt.want, w.Code, w.Body.String())
			}
			if decided != (tt.want == http.StatusOK) {
				t.Fatalf("decide called = %v for status %d", decided, tt.want)
			}
			if tt.want == http.StatusForbidden {
				if e := decodeError(t, w); e.Message != "Forbidden" || e.Code != "forbidden" {
					t.Fatalf("unexpected body %s", w.Body.String())
				}
			}
		})
	}
}

func TestListConnectionRequestsHandler(t *testing.T) {
	userID := newUUID()
	repo := &fakeConnectionRequests{
		listFn: func(ctx context.Context, got string) ([]connection.Request, error) {
			if got != userID {
				t.Errorf("expected caller id, got %s", got)
			}
			return []connection.Request{{ID: newUUID(), SenderID: userID}}, nil
		},
	}

	h := handlers.NewConnectionRequestsHandler(repo, &fakeWorkPosts{}, 5)
	r := setupRouter(http.MethodGet, "/api/connection-requests", identity(userID, user.RoleWorker, "Ravi"), h.List)

	w := perform(r, http.MethodGet, "/api/connection-requests", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decodeJSON[listBody[connection.Request]](t, w); body.Count != 1 {
		t.Fatalf("expected 1 request, got %d", body.Count)
	}
}
