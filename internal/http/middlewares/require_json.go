package middlewares

import (
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests whose body is not JSON. Bodyless writes
// such as POST /api/chats/:chatId/read pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasBodySemantics(c.Request.Method) || c.Request.ContentLength == 0 {
			c.Next()
			return
		}
		if !isJSONMediaType(c.GetHeader("Content-Type")) {
			abortWithError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
			return
		}
		c.Next()
	}
}

func hasBodySemantics(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// isJSONMediaType accepts application/json and structured suffixes like
// application/merge-patch+json, with any parameters.
func isJSONMediaType(header string) bool {
	if header == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mt == "application/json" || (strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
