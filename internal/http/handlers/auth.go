package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID, role, name string) (string, time.Time, error)
}

type AuthHandler struct {
	users UserStore
	jwt   TokenIssuer
}

func NewAuthHandler(users UserStore, jwt TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

const invalidCredentialsMessage = "Email or password is incorrect."

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// the binding tag counts runes; bcrypt counts bytes
	if len(req.Password) > security.MaxPasswordBytes {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "password",
			Rule:    "max_bytes",
			Param:   strconv.Itoa(security.MaxPasswordBytes),
			Message: "must be at most " + strconv.Itoa(security.MaxPasswordBytes) + " bytes",
		}}})
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		respondStoreError(ctx, "Could not create user", err)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	now := time.Now().UTC()
	u, err := h.users.Create(cctx, user.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			RespondBadRequestCode(ctx, "email_taken", "Email is already in use.")
			return
		}
		respondStoreError(ctx, "Could not create user", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    u.Public(),
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			_ = security.CheckMissing(req.Password)
			RespondBadRequestCode(ctx, "invalid_credentials", invalidCredentialsMessage)
			return
		}
		respondStoreError(ctx, "Could not log in", err)
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondBadRequestCode(ctx, "invalid_credentials", invalidCredentialsMessage)
		return
	}

	token, expiresAt, err := h.jwt.GenerateAccessToken(u.ID, u.Role, u.Name)
	if err != nil {
		respondStoreError(ctx, "Could not generate access token", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      u.Public(),
	})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		respondStoreError(ctx, "Could not fetch user", err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}
