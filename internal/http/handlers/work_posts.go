package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/geocoder89/worklink/internal/cache"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/utils"
	"github.com/gin-gonic/gin"
)

type WorkPostStore interface {
	Create(ctx context.Context, p workpost.WorkPost) (workpost.WorkPost, error)
	GetByID(ctx context.Context, id string) (workpost.WorkPost, error)
	List(ctx context.Context, filter workpost.ListFilter) ([]workpost.WorkPost, error)
	Update(ctx context.Context, p workpost.WorkPost) (workpost.WorkPost, error)
	Delete(ctx context.Context, id string) error
	ToggleRequest(ctx context.Context, id, workerID string) (workpost.WorkPost, error)
}

// AppliedLookup answers "which posts has this worker already applied to".
type AppliedLookup interface {
	AppliedWorkPostIDs(ctx context.Context, senderID string) (map[string]bool, error)
}

type WorkPostsHandler struct {
	repo    WorkPostStore
	applied AppliedLookup
	cache   cache.Store
}

func NewWorkPostsHandler(repo WorkPostStore, applied AppliedLookup, c cache.Store) *WorkPostsHandler {
	return &WorkPostsHandler{repo: repo, applied: applied, cache: c}
}

func (h *WorkPostsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)

	filter := workpost.ListFilter{OnlyActive: true}
	key := utils.ActiveWorkPostsKey()

	if ctx.Query("mine") == "true" {
		filter = workpost.ListFilter{ContractorID: &userID}
		key = utils.ContractorWorkPostsKey(userID)
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	posts, err := h.loadPosts(cctx, key, filter)
	if err != nil {
		respondStoreError(ctx, "Could not list work posts", err)
		return
	}

	// applied is per caller, so it is added after the shared cache layer
	if role == user.RoleWorker && h.applied != nil {
		ids, err := h.applied.AppliedWorkPostIDs(cctx, userID)
		if err != nil {
			respondStoreError(ctx, "Could not list work posts", err)
			return
		}
		for i := range posts {
			applied := ids[posts[i].ID]
			posts[i].Applied = &applied
		}
	}

	respondListWithETag(ctx, posts)
}

func (h *WorkPostsHandler) loadPosts(ctx context.Context, key string, filter workpost.ListFilter) ([]workpost.WorkPost, error) {
	return cache.ReadThrough(ctx, h.cache, key, func(ctx context.Context) ([]workpost.WorkPost, error) {
		posts, err := h.repo.List(ctx, filter)
		if posts == nil && err == nil {
			posts = []workpost.WorkPost{}
		}
		return posts, err
	})
}

func (h *WorkPostsHandler) invalidate(ctx context.Context, contractorID string) {
	if h.cache != nil {
		h.cache.Delete(ctx, utils.WorkPostKeysFor(contractorID)...)
	}
}

func (h *WorkPostsHandler) Create(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	var req workpost.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, workpost.New(userID, middlewares.NameFromContext(ctx), req))
	if err != nil {
		respondStoreError(ctx, "Could not create work post", err)
		return
	}

	h.invalidate(cctx, userID)
	ctx.JSON(http.StatusCreated, p)
}

// loadOwned fetches a post and enforces that the caller owns it. It writes
// the error response itself and reports whether the handler may continue.
func (h *WorkPostsHandler) loadOwned(ctx *gin.Context, cctx context.Context, id string) (workpost.WorkPost, bool) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, workpost.ErrNotFound) {
			RespondNotFound(ctx, "Work post not found")
			return workpost.WorkPost{}, false
		}
		respondStoreError(ctx, "Could not fetch work post", err)
		return workpost.WorkPost{}, false
	}

	if err := authz.Owns(userID, p.ContractorID); err != nil {
		RespondForbidden(ctx)
		return workpost.WorkPost{}, false
	}
	return p, true
}

func (h *WorkPostsHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	var req workpost.UpdateRequest
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
		if errors.Is(err, workpost.ErrNotFound) {
			RespondNotFound(ctx, "Work post not found")
			return
		}
		respondStoreError(ctx, "Could not update work post", err)
		return
	}

	h.invalidate(cctx, updated.ContractorID)
	ctx.JSON(http.StatusOK, updated)
}

func (h *WorkPostsHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, ok := h.loadOwned(ctx, cctx, id)
	if !ok {
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, workpost.ErrNotFound) {
			RespondNotFound(ctx, "Work post not found")
			return
		}
		respondStoreError(ctx, "Could not delete work post", err)
		return
	}

	h.invalidate(cctx, p.ContractorID)
	ctx.Status(http.StatusNoContent)
}

// ToggleRequest adds the worker to the post's request list, or removes them
// if already present.
func (h *WorkPostsHandler) ToggleRequest(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequestCode(ctx, "invalid_id", "id must be a valid UUID")
		return
	}

	var req workpost.ToggleRequest
	if ctx.Request.ContentLength != 0 {
		if !BindJSON(ctx, &req) {
			return
		}
	}

	workerID := req.WorkerID
	if workerID == "" {
		workerID = userID
	}
	if err := authz.Owns(userID, workerID); err != nil {
		RespondForbidden(ctx)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	p, err := h.repo.ToggleRequest(cctx, id, workerID)
	if err != nil {
		if errors.Is(err, workpost.ErrNotFound) {
			RespondNotFound(ctx, "Work post not found")
			return
		}
		respondStoreError(ctx, "Could not update request", err)
		return
	}

	h.invalidate(cctx, p.ContractorID)
	ctx.JSON(http.StatusOK, p)
}
