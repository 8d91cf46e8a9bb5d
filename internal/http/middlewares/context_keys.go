package middlewares

// gin context keys shared by middlewares and handlers
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
	CtxRole      = "auth.role"
	CtxName      = "auth.name"

	// CtxErrorCode holds the error code written to the response, for logs.
	CtxErrorCode = "response.errorCode"
)
