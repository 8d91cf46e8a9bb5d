package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only when the caller's role is one of roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	message := "Role " + strings.Join(roles, " or ") + " required"

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !authz.HasRole(role, roles...) {
			abortWithError(c, http.StatusForbidden, "forbidden", message)
			return
		}
		c.Next()
	}
}
