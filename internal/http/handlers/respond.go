package handlers

import (
	"net/http"

	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message   string      `json:"message"`
	Code      string      `json:"code"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.Set(middlewares.CtxErrorCode, code)
	ctx.JSON(status, APIError{
		Message:   message,
		Code:      code,
		RequestID: requestIDFrom(ctx),
		Details:   details,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

// RespondBadRequestCode is for 400s clients branch on, e.g. email_taken.
func RespondBadRequestCode(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message, nil)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

// RespondForbidden is used for every ownership and participant failure. The
// body is the same for all of them so it never hints at what exists.
func RespondForbidden(ctx *gin.Context) {
	RespondError(ctx, http.StatusForbidden, "forbidden", "Forbidden", nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func respondList[T any](ctx *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// respondStoreError records the cause for the request logger and hides it from the client.
func respondStoreError(ctx *gin.Context, message string, err error) {
	_ = ctx.Error(err)
	RespondInternal(ctx, message)
}
