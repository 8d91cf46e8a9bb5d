package middlewares

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes rejects declared bodies over limit with 413 and caps the
// reader for chunked ones. A limit <= 0 disables the check.
func MaxBodyBytes(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			abortWithError(c, http.StatusRequestEntityTooLarge, "payload_too_large",
				"Request body exceeds "+strconv.FormatInt(limit, 10)+" bytes")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
