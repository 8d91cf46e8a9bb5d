package jobs

// NotificationPayload is ID-based; the worker loads names and emails when it runs.
type NotificationPayload struct {
	ConnectionRequestID string `json:"connectionRequestId"`
	RecipientID         string `json:"recipientId"`
	RequestID           string `json:"requestId,omitempty"` // optional: HTTP correlation
}
