package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/saved"
	"github.com/geocoder89/worklink/internal/domain/workerprofile"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/utils"
	"github.com/gin-gonic/gin"
)

type SavedJobStore interface {
	Create(ctx context.Context, s saved.Job) (saved.Job, error)
	GetByID(ctx context.Context, id string) (saved.Job, error)
	ListByUser(ctx context.Context, userID string) ([]saved.Job, error)
	Delete(ctx context.Context, id string) error
}

type SavedWorkerStore interface {
	Create(ctx context.Context, s saved.Worker) (saved.Worker, error)
	GetByID(ctx context.Context, id string) (saved.Worker, error)
	ListByUser(ctx context.Context, userID string) ([]saved.Worker, error)
	Delete(ctx context.Context, id string) error
}

type WorkerProfileReader interface {
	GetByID(ctx context.Context, id string) (workerprofile.Profile, error)
}

// Saved jobs: a worker's bookmarked work posts.

type SavedJobsHandler struct {
	repo  SavedJobStore
	posts WorkPostReader
}

func NewSavedJobsHandler(repo SavedJobStore, posts WorkPostReader) *SavedJobsHandler {
	return &SavedJobsHandler{repo: repo, posts: posts}
}

func (h *SavedJobsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.repo.ListByUser(cctx, userID)
	if err != nil {
		respondStoreError(ctx, "Could not list saved jobs", err)
		return
	}

	respondList(ctx, items)
}

func (h *SavedJobsHandler) Create(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req saved.SaveJobRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.posts.GetByID(cctx, req.WorkPostID); err != nil {
		if errors.Is(err, workpost.ErrNotFound) {
			RespondNotFound(ctx, "Work post not found")
			return
		}
		respondStoreError(ctx, "Could not save job", err)
		return
	}

	s, err := h.repo.Create(cctx, saved.NewJob(userID, req.WorkPostID))
	if err != nil {
		if errors.Is(err, saved.ErrAlreadySaved) {
			RespondBadRequestCode(ctx, "already_saved", "Job already saved")
			return
		}
		respondStoreError(ctx, "Could not save job", err)
		return
	}

	ctx.JSON(http.StatusCreated, s)
}

func (h *SavedJobsHandler) Delete(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			RespondNotFound(ctx, "Saved job not found")
			return
		}
		respondStoreError(ctx, "Could not remove saved job", err)
		return
	}

	if err := authz.Owns(userID, s.UserID); err != nil {
		RespondForbidden(ctx)
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			RespondNotFound(ctx, "Saved job not found")
			return
		}
		respondStoreError(ctx, "Could not remove saved job", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Saved workers: a contractor's shortlisted worker profiles.

type SavedWorkersHandler struct {
	repo     SavedWorkerStore
	profiles WorkerProfileReader
}

func NewSavedWorkersHandler(repo SavedWorkerStore, profiles WorkerProfileReader) *SavedWorkersHandler {
	return &SavedWorkersHandler{repo: repo, profiles: profiles}
}

func (h *SavedWorkersHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.repo.ListByUser(cctx, userID)
	if err != nil {
		respondStoreError(ctx, "Could not list saved workers", err)
		return
	}

	respondList(ctx, items)
}

func (h *SavedWorkersHandler) Create(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req saved.SaveWorkerRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if _, err := h.profiles.GetByID(cctx, req.WorkerProfileID); err != nil {
		if errors.Is(err, workerprofile.ErrNotFound) {
			RespondNotFound(ctx, "Worker profile not found")
			return
		}
		respondStoreError(ctx, "Could not save worker", err)
		return
	}

	s, err := h.repo.Create(cctx, saved.NewWorker(userID, req.WorkerProfileID))
	if err != nil {
		if errors.Is(err, saved.ErrAlreadySaved) {
			RespondBadRequestCode(ctx, "already_saved", "Worker already saved")
			return
		}
		respondStoreError(ctx, "Could not save worker", err)
		return
	}

	ctx.JSON(http.StatusCreated, s)
}

func (h *SavedWorkersHandler) Delete(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	s, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			RespondNotFound(ctx, "Saved worker not found")
			return
		}
		respondStoreError(ctx, "Could not remove saved worker", err)
		return
	}

	if err := authz.Owns(userID, s.UserID); err != nil {
		RespondForbidden(ctx)
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, saved.ErrNotFound) {
			RespondNotFound(ctx, "Saved worker not found")
			return
		}
		respondStoreError(ctx, "Could not remove saved worker", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
