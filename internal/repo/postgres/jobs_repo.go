package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, observer: observer{prom: prom}}
}

const jobColumns = `id, type, payload, status, attempts, max_attempts,
	run_at, locked_at, locked_by, last_error, idempotency_key, created_at, updated_at`

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.IdempotencyKey, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertJob(ctx context.Context, db execer, j job.Job) error {
	// a repeated idempotency key means the job is already queued
	_, err := db.Exec(ctx, `
		INSERT INTO jobs (
			id, type, payload, status, attempts, max_attempts, run_at,
			locked_at, locked_by, last_error, idempotency_key, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts, j.RunAt,
		j.LockedAt, j.LockedBy, j.LastError, j.IdempotencyKey, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe("jobs.create", func() error {
		return insertJob(ctx, r.pool, j)
	})
	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe("jobs.create_tx", func() error {
		return insertJob(ctx, tx, j)
	})
	if err != nil {
		return job.Job{}, err
	}
	return j, nil
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job

	err := r.observe("jobs.get_by_id", func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		return err
	})
	return j, err
}

func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	// Single statement claim using the SKIP LOCKED pattern.
	var j job.Job

	err := r.observe("jobs.claim_next", func() error {
		var err error
		j, err = scanJob(r.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT id
			FROM jobs
			WHERE status = 'pending'
			  AND run_at <= NOW()
			  AND attempts < max_attempts
			ORDER BY run_at ASC, created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		UPDATE jobs
		SET status = 'processing',
		    locked_at = NOW(),
		    locked_by = $1,
		    updated_at = NOW()
		WHERE id = (SELECT id FROM next)
		RETURNING `+jobColumns, workerID))
		return err
	})

	// job.ErrJobNotFound means nothing is ready
	return j, err
}

// release ends a claim. set holds the extra assignments for the target
// state; args after id are numbered from $2.
func (r *JobsRepo) release(ctx context.Context, op, set string, args ...any) error {
	sql := `UPDATE jobs SET locked_at = NULL, locked_by = NULL, updated_at = NOW(), ` + set + ` WHERE id = $1`

	var tag pgconn.CommandTag
	err := r.observe(op, func() error {
		var err error
		tag, err = r.pool.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	return r.release(ctx, "jobs.mark_done", `status = 'done', last_error = NULL`, id)
}

// MarkFailed parks a job for good. Failed jobs are never claimed again.
func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.release(ctx, "jobs.mark_failed",
		`status = 'failed', attempts = attempts + 1, last_error = $2`, id, errMsg)
}

func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	return r.release(ctx, "jobs.reschedule",
		`status = 'pending', attempts = attempts + 1, run_at = $2, last_error = $3`, id, runAt, errMsg)
}

// Backlog counts jobs per status, for the worker's /stats endpoint.
func (r *JobsRepo) Backlog(ctx context.Context) (map[job.Status]int64, error) {
	out := map[job.Status]int64{
		job.StatusPending:    0,
		job.StatusProcessing: 0,
		job.StatusDone:       0,
		job.StatusFailed:     0,
	}

	err := r.observe("jobs.backlog", func() error {
		rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				status string
				n      int64
			)
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			out[job.Status(status)] = n
		}
		return rows.Err()
	})
	return out, err
}

// RequeueStaleProcessing returns jobs whose lock is older than lockTTL to the
// pending state, e.g. after a worker crashed mid-job.
func (r *JobsRepo) RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error) {
	secs := int64(lockTTL.Seconds())
	if secs <= 0 {
		secs = 30
	}
	var rows int64

	err := r.observe("jobs.requeue_stale", func() error {
		tag, err := r.pool.Exec(ctx, `
		UPDATE jobs
		SET status = 'pending',
		    locked_at = NULL,
		    locked_by = NULL,
		    updated_at = NOW()
		WHERE status = 'processing'
		  AND locked_at IS NOT NULL
		  AND locked_at < NOW() - ($1 * INTERVAL '1 second')
	`, secs)

		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})

	return rows, err
}
