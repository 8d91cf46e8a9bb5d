package jobs

import "strings"

// ValidatePayload performs minimal validation on payloads before they are
// queued and after they are decoded.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	var p NotificationPayload
	switch v := payload.(type) {
	case NotificationPayload:
		p = v
	case *NotificationPayload:
		if v == nil {
			return ErrInvalidJobPayload
		}
		p = *v
	default:
		return ErrPayloadTypeMismatch
	}

	if strings.TrimSpace(p.ConnectionRequestID) == "" || strings.TrimSpace(p.RecipientID) == "" {
		return ErrInvalidJobPayload
	}
	return nil
}
