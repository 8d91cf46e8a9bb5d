package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/worklink/internal/domain/delivery"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationDeliveriesRepo records one delivery per (kind, connection request)
// so retried jobs never notify twice.
type NotificationDeliveriesRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewNotificationDeliveriesRepo(pool *pgxpool.Pool, prom *observability.Prom) *NotificationDeliveriesRepo {
	return &NotificationDeliveriesRepo{pool: pool, observer: observer{prom: prom}}
}

func (r *NotificationDeliveriesRepo) TryStart(ctx context.Context, kind, requestID, jobID, recipient string) error {
	// 1) Insert if missing
	err := r.observe("notification_deliveries.insert", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO notification_deliveries (kind, request_id, job_id, recipient, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'sending', NOW(), NOW())
		`, kind, requestID, jobID, recipient)
		return err
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// 2) Row exists. A failed delivery can be claimed again; only one worker wins the flip.
	var claimed int64
	err = r.observe("notification_deliveries.reclaim", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sending',
			    job_id = $3,
			    recipient = $4,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND request_id = $2 AND status = 'failed'
		`, kind, requestID, jobID, recipient)
		if err != nil {
			return err
		}
		claimed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	if claimed == 1 {
		return nil
	}

	// 3) Not failed: either sent already or someone else is sending.
	var status, owner string
	var sentAt *time.Time

	err = r.observe("notification_deliveries.status", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT status, job_id, sent_at
			FROM notification_deliveries
			WHERE kind = $1 AND request_id = $2
		`, kind, requestID).Scan(&status, &owner, &sentAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return delivery.ErrAlreadySent
	}
	// the same job retrying after a crash between claim and send owns the row
	if owner == jobID {
		return nil
	}
	return delivery.ErrInProgress
}

func (r *NotificationDeliveriesRepo) MarkSent(ctx context.Context, kind, requestID string, providerMessageID *string) error {
	return r.observe("notification_deliveries.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'sent',
			    sent_at = NOW(),
			    provider_message_id = $3,
			    last_error = NULL,
			    updated_at = NOW()
			WHERE kind = $1 AND request_id = $2
		`, kind, requestID, providerMessageID)
		return err
	})
}

func (r *NotificationDeliveriesRepo) MarkFailed(ctx context.Context, kind, requestID, errMsg string) error {
	return r.observe("notification_deliveries.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
			UPDATE notification_deliveries
			SET status = 'failed',
			    last_error = $3,
			    updated_at = NOW()
			WHERE kind = $1 AND request_id = $2
		`, kind, requestID, errMsg)
		return err
	})
}
