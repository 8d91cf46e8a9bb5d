package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/worklink/internal/domain/job"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals a queued job into its typed payload.
func DecodePayload(j job.Job) (JobType, NotificationPayload, error) {
	t := JobType(j.Type)

	if !t.IsValid() {
		return "", NotificationPayload{}, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return "", NotificationPayload{}, ErrInvalidJobPayload
	}

	var p NotificationPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return "", NotificationPayload{}, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	if err := ValidatePayload(t, p); err != nil {
		return "", NotificationPayload{}, err
	}
	return t, p, nil
}

// NewNotificationJob builds the outbox row for a connection request event.
// The idempotency key makes a repeated event enqueue at most one job.
func NewNotificationJob(t JobType, p NotificationPayload, maxAttempts int) (job.CreateRequest, error) {
	b, err := EncodePayload(t, p)
	if err != nil {
		return job.CreateRequest{}, err
	}

	key := string(t) + ":" + p.ConnectionRequestID

	return job.CreateRequest{
		Type:           string(t),
		Payload:        b,
		MaxAttempts:    maxAttempts,
		IdempotencyKey: &key,
	}, nil
}
