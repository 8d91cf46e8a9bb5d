package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/jobs"
	"github.com/geocoder89/worklink/internal/utils"
	"github.com/gin-gonic/gin"
)

type ConnectionRequestStore interface {
	GetByID(ctx context.Context, id string) (connection.Request, error)
	ListForUser(ctx context.Context, userID string) ([]connection.Request, error)
	HasPending(ctx context.Context, senderID, workPostID string) (bool, error)
	Create(ctx context.Context, c connection.Request, notify job.CreateRequest) (connection.Request, error)
	Decide(ctx context.Context, id string, status connection.Status, notify *job.CreateRequest) (connection.Request, error)
}

type WorkPostReader interface {
	GetByID(ctx context.Context, id string) (workpost.WorkPost, error)
}

type ConnectionRequestsHandler struct {
	repo        ConnectionRequestStore
	posts       WorkPostReader
	maxAttempts int
}

func NewConnectionRequestsHandler(repo ConnectionRequestStore, posts WorkPostReader, maxAttempts int) *ConnectionRequestsHandler {
	return &ConnectionRequestsHandler{repo: repo, posts: posts, maxAttempts: maxAttempts}
}

// List returns requests the caller sent or received.
func (h *ConnectionRequestsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.repo.ListForUser(cctx, userID)
	if err != nil {
		respondStoreError(ctx, "Could not list connection requests", err)
		return
	}

	respondList(ctx, items)
}

// Create is a worker applying to a work post. The contractor notification is
// queued in the same transaction as the request.
func (h *ConnectionRequestsHandler) Create(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req connection.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	post, err := h.posts.GetByID(cctx, req.WorkPostID)
	if err != nil {
		if errors.Is(err, workpost.ErrNotFound) {
			RespondNotFound(ctx, "Work post not found")
			return
		}
		respondStoreError(ctx, "Could not fetch work post", err)
		return
	}

	pending, err := h.repo.HasPending(cctx, userID, post.ID)
	if err != nil {
		respondStoreError(ctx, "Could not create connection request", err)
		return
	}
	if pending {
		RespondBadRequestCode(ctx, "already_applied", "You have already applied to this work post")
		return
	}

	r := connection.New(userID, middlewares.NameFromContext(ctx), post)

	notify, err := jobs.NewNotificationJob(jobs.JobNotifyJobApplication, jobs.NotificationPayload{
		ConnectionRequestID: r.ID,
		RecipientID:         r.ReceiverID,
		RequestID:           requestIDFrom(ctx),
	}, h.maxAttempts)
	if err != nil {
		respondStoreError(ctx, "Could not create connection request", err)
		return
	}

	created, err := h.repo.Create(cctx, r, notify)
	if err != nil {
		if errors.Is(err, connection.ErrAlreadyApplied) {
			RespondBadRequestCode(ctx, "already_applied", "You have already applied to this work post")
			return
		}
		respondStoreError(ctx, "Could not create connection request", err)
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Update lets the receiving contractor accept or decline.
func (h *ConnectionRequestsHandler) Update(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	var req connection.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if !req.Status.IsDecision() {
		RespondBadRequest(ctx, "status must be accepted or declined", gin.H{"field": "status"})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			RespondNotFound(ctx, "Connection request not found")
			return
		}
		respondStoreError(ctx, "Could not fetch connection request", err)
		return
	}

	if err := authz.Owns(userID, existing.ReceiverID); err != nil {
		RespondForbidden(ctx)
		return
	}

	var notify *job.CreateRequest
	if req.Status == connection.StatusAccepted {
		n, err := jobs.NewNotificationJob(jobs.JobNotifyContactRequest, jobs.NotificationPayload{
			ConnectionRequestID: existing.ID,
			RecipientID:         existing.SenderID,
			RequestID:           requestIDFrom(ctx),
		}, h.maxAttempts)
		if err != nil {
			respondStoreError(ctx, "Could not update connection request", err)
			return
		}
		notify = &n
	}

	updated, err := h.repo.Decide(cctx, id, req.Status, notify)
	if err != nil {
		switch {
		case errors.Is(err, connection.ErrNotFound):
			RespondNotFound(ctx, "Connection request not found")
		case errors.Is(err, connection.ErrInvalidStatus):
			RespondBadRequest(ctx, "status must be accepted or declined", gin.H{"field": "status"})
		default:
			respondStoreError(ctx, "Could not update connection request", err)
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}
