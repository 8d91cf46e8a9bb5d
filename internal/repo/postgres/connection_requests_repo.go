package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConnectionRequestsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewConnectionRequestsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ConnectionRequestsRepo {
	return &ConnectionRequestsRepo{pool: pool, observer: observer{prom: prom}}
}

const connectionRequestColumns = `id, sender_id, receiver_id, sender_name, receiver_name, type, status,
	work_post_id, work_post_title, job_title, job_work_type, job_location, job_budget,
	created_at, updated_at`

func scanConnectionRequest(row pgx.Row) (connection.Request, error) {
	var c connection.Request
	var status string

	err := row.Scan(
		&c.ID, &c.SenderID, &c.ReceiverID, &c.SenderName, &c.ReceiverName, &c.Type, &status,
		&c.WorkPostID, &c.WorkPostTitle,
		&c.JobDetails.Title, &c.JobDetails.WorkType, &c.JobDetails.Location, &c.JobDetails.Budget,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return connection.Request{}, connection.ErrNotFound
		}
		return connection.Request{}, err
	}

	c.Status = connection.Status(status)
	c.ChatID = c.ConversationID()
	return c, nil
}

func (r *ConnectionRequestsRepo) GetByID(ctx context.Context, id string) (connection.Request, error) {
	var out connection.Request

	err := r.observe("connection_requests.get_by_id", func() error {
		var err error
		out, err = scanConnectionRequest(r.pool.QueryRow(ctx,
			`SELECT `+connectionRequestColumns+` FROM connection_requests WHERE id = $1`, id))
		return err
	})
	return out, err
}

// ListForUser returns requests the user sent or received, newest first.
func (r *ConnectionRequestsRepo) ListForUser(ctx context.Context, userID string) ([]connection.Request, error) {
	out := make([]connection.Request, 0)

	err := r.observe("connection_requests.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+connectionRequestColumns+`
			FROM connection_requests
			WHERE sender_id = $1 OR receiver_id = $1
			ORDER BY created_at DESC, id DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanConnectionRequest(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ConnectionRequestsRepo) HasPending(ctx context.Context, senderID, workPostID string) (bool, error) {
	var exists bool

	err := r.observe("connection_requests.has_pending", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM connection_requests
				WHERE sender_id = $1 AND work_post_id = $2 AND status = 'pending'
			)`, senderID, workPostID).Scan(&exists)
	})
	return exists, err
}

// AppliedWorkPostIDs lists posts the sender has a pending or accepted request for.
func (r *ConnectionRequestsRepo) AppliedWorkPostIDs(ctx context.Context, senderID string) (map[string]bool, error) {
	out := make(map[string]bool)

	err := r.observe("connection_requests.applied_post_ids", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT DISTINCT work_post_id
			FROM connection_requests
			WHERE sender_id = $1 AND status IN ('pending', 'accepted')`, senderID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out[id] = true
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores the request and its notification job atomically.
func (r *ConnectionRequestsRepo) Create(ctx context.Context, c connection.Request, notify job.CreateRequest) (connection.Request, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return connection.Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var out connection.Request

	err = r.observe("connection_requests.create_tx", func() error {
		var err error
		out, err = scanConnectionRequest(tx.QueryRow(ctx, `
			INSERT INTO connection_requests (
				id, sender_id, receiver_id, sender_name, receiver_name, type, status,
				work_post_id, work_post_title, job_title, job_work_type, job_location, job_budget,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			RETURNING `+connectionRequestColumns,
			c.ID, c.SenderID, c.ReceiverID, c.SenderName, c.ReceiverName, c.Type, string(c.Status),
			c.WorkPostID, c.WorkPostTitle,
			c.JobDetails.Title, c.JobDetails.WorkType, c.JobDetails.Location, c.JobDetails.Budget,
			c.CreatedAt, c.UpdatedAt,
		))
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return connection.Request{}, connection.ErrAlreadyApplied
		}
		return connection.Request{}, err
	}

	err = r.observe("connection_requests.enqueue_notification", func() error {
		return insertJob(ctx, tx, job.New(notify))
	})
	if err != nil {
		return connection.Request{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return connection.Request{}, err
	}
	return out, nil
}

// Decide records the receiver's answer. Accepting also opens the conversation
// and queues the notification, all in one transaction.
func (r *ConnectionRequestsRepo) Decide(ctx context.Context, id string, status connection.Status, notify *job.CreateRequest) (connection.Request, error) {
	if !status.IsDecision() {
		return connection.Request{}, connection.ErrInvalidStatus
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return connection.Request{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var out connection.Request

	err = r.observe("connection_requests.decide", func() error {
		var err error
		out, err = scanConnectionRequest(tx.QueryRow(ctx, `
			UPDATE connection_requests
			SET status = $2,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+connectionRequestColumns,
			id, string(status),
		))
		return err
	})
	if err != nil {
		return connection.Request{}, err
	}

	if status == connection.StatusAccepted {
		err = r.observe("connection_requests.open_chat", func() error {
			return ensureChat(ctx, tx, out.ChatID, []string{out.SenderID, out.ReceiverID})
		})
		if err != nil {
			return connection.Request{}, err
		}
	}

	if notify != nil {
		err = r.observe("connection_requests.enqueue_notification", func() error {
			return insertJob(ctx, tx, job.New(*notify))
		})
		if err != nil {
			return connection.Request{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return connection.Request{}, err
	}
	return out, nil
}
