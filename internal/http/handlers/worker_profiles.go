package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workerprofile"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/utils"
	"github.com/gin-gonic/gin"
)

type WorkerProfileStore interface {
	Create(ctx context.Context, p workerprofile.Profile) (workerprofile.Profile, error)
	GetByID(ctx context.Context, id string) (workerprofile.Profile, error)
	List(ctx context.Context, filter workerprofile.ListFilter) ([]workerprofile.Profile, error)
	Update(ctx context.Context, p workerprofile.Profile) (workerprofile.Profile, error)
	Delete(ctx context.Context, id string) error
}

type WorkerProfilesHandler struct {
	repo WorkerProfileStore
}

func NewWorkerProfilesHandler(repo WorkerProfileStore) *WorkerProfilesHandler {
	return &WorkerProfilesHandler{repo: repo}
}

// List shows contractors every profile; workers only see their own.
func (h *WorkerProfilesHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)

	var filter workerprofile.ListFilter
	if role == user.RoleWorker {
		filter.UserID = &userID
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	profiles, err := h.repo.List(cctx, filter)
	if err != nil {
		respondStoreError(ctx, "Could not list worker profiles", err)
		return
	}

	respondList(ctx, profiles)
}

func (h *WorkerProfilesHandler) Create(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req workerprofile.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, workerprofile.New(userID, req))
	if err != nil {
		respondStoreError(ctx, "Could not create worker profile", err)
		return
	}

	ctx.JSON(http.StatusCreated, p)
}

func (h *WorkerProfilesHandler) loadOwned(ctx *gin.Context, cctx context.Context, id string) (workerprofile.Profile, bool) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, workerprofile.ErrNotFound) {
			RespondNotFound(ctx, "Worker profile not found")
			return workerprofile.Profile{}, false
		}
		respondStoreError(ctx, "Could not fetch worker profile", err)
		return workerprofile.Profile{}, false
	}

	if err := authz.Owns(userID, p.UserID); err != nil {
		RespondForbidden(ctx)
		return workerprofile.Profile{}, false
	}
	return p, true
}

func (h *WorkerProfilesHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	var req workerprofile.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, ok := h.loadOwned(ctx, cctx, id)
	if !ok {
		return
	}

	p.Apply(req)
	p.UpdatedAt = time.Now().UTC()

	updated, err := h.repo.Update(cctx, p)
	if err != nil {
		if errors.Is(err, workerprofile.ErrNotFound) {
			RespondNotFound(ctx, "Worker profile not found")
			return
		}
		respondStoreError(ctx, "Could not update worker profile", err)
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *WorkerProfilesHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if _, ok := h.loadOwned(ctx, cctx, id); !ok {
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, workerprofile.ErrNotFound) {
			RespondNotFound(ctx, "Worker profile not found")
			return
		}
		respondStoreError(ctx, "Could not delete worker profile", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
