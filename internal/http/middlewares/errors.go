package middlewares

import "github.com/gin-gonic/gin"

// abortWithError writes the same error body the handlers use.
func abortWithError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id := c.GetString(CtxRequestID); id != "" {
		body["requestId"] = id
	}
	c.Set(CtxErrorCode, code)
	c.AbortWithStatusJSON(status, body)
}
