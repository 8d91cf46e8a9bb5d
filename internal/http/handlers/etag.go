package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondListWithETag writes an {items, count} body with a weak ETag over the
// encoded bytes, answering 304 when the client already holds them. Bodies can
// differ per caller, so the response varies on Authorization.
func respondListWithETag[T any](ctx *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}

	body, err := json.Marshal(gin.H{"items": items, "count": len(items)})
	if err != nil {
		respondList(ctx, items)
		return
	}

	sum := sha256.Sum256(body)
	etag := `W/"` + hex.EncodeToString(sum[:16]) + `"`

	ctx.Header("ETag", etag)
	ctx.Header("Vary", "Authorization")
	ctx.Header("Cache-Control", "private, no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// etagMatches compares If-None-Match candidates weakly.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}
