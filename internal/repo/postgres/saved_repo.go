package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/worklink/internal/domain/saved"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SavedJobsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewSavedJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SavedJobsRepo {
	return &SavedJobsRepo{pool: pool, observer: observer{prom: prom}}
}

func scanSavedJob(row pgx.Row) (saved.Job, error) {
	var s saved.Job
	err := row.Scan(&s.ID, &s.UserID, &s.WorkPostID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return saved.Job{}, saved.ErrNotFound
		}
		return saved.Job{}, err
	}
	return s, nil
}

func (r *SavedJobsRepo) Create(ctx context.Context, s saved.Job) (saved.Job, error) {
	var out saved.Job

	err := r.observe("saved_jobs.create", func() error {
		var err error
		out, err = scanSavedJob(r.pool.QueryRow(ctx, `
			INSERT INTO saved_jobs (id, user_id, work_post_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, user_id, work_post_id, created_at, updated_at`,
			s.ID, s.UserID, s.WorkPostID, s.CreatedAt, s.UpdatedAt,
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return saved.Job{}, saved.ErrAlreadySaved
		}
		return saved.Job{}, err
	}
	return out, nil
}

func (r *SavedJobsRepo) GetByID(ctx context.Context, id string) (saved.Job, error) {
	var out saved.Job

	err := r.observe("saved_jobs.get_by_id", func() error {
		var err error
		out, err = scanSavedJob(r.pool.QueryRow(ctx,
			`SELECT id, user_id, work_post_id, created_at, updated_at FROM saved_jobs WHERE id = $1`, id))
		return err
	})
	return out, err
}

func (r *SavedJobsRepo) ListByUser(ctx context.Context, userID string) ([]saved.Job, error) {
	out := make([]saved.Job, 0)

	err := r.observe("saved_jobs.list_by_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, user_id, work_post_id, created_at, updated_at
			FROM saved_jobs
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanSavedJob(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SavedJobsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("saved_jobs.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM saved_jobs WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return saved.ErrNotFound
	}
	return nil
}

type SavedWorkersRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewSavedWorkersRepo(pool *pgxpool.Pool, prom *observability.Prom) *SavedWorkersRepo {
	return &SavedWorkersRepo{pool: pool, observer: observer{prom: prom}}
}

func scanSavedWorker(row pgx.Row) (saved.Worker, error) {
	var s saved.Worker
	err := row.Scan(&s.ID, &s.UserID, &s.WorkerProfileID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return saved.Worker{}, saved.ErrNotFound
		}
		return saved.Worker{}, err
	}
	return s, nil
}

func (r *SavedWorkersRepo) Create(ctx context.Context, s saved.Worker) (saved.Worker, error) {
	var out saved.Worker

	err := r.observe("saved_workers.create", func() error {
		var err error
		out, err = scanSavedWorker(r.pool.QueryRow(ctx, `
			INSERT INTO saved_workers (id, user_id, worker_profile_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, user_id, worker_profile_id, created_at, updated_at`,
			s.ID, s.UserID, s.WorkerProfileID, s.CreatedAt, s.UpdatedAt,
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return saved.Worker{}, saved.ErrAlreadySaved
		}
		return saved.Worker{}, err
	}
	return out, nil
}

func (r *SavedWorkersRepo) GetByID(ctx context.Context, id string) (saved.Worker, error) {
	var out saved.Worker

	err := r.observe("saved_workers.get_by_id", func() error {
		var err error
		out, err = scanSavedWorker(r.pool.QueryRow(ctx,
			`SELECT id, user_id, worker_profile_id, created_at, updated_at FROM saved_workers WHERE id = $1`, id))
		return err
	})
	return out, err
}

func (r *SavedWorkersRepo) ListByUser(ctx context.Context, userID string) ([]saved.Worker, error) {
	out := make([]saved.Worker, 0)

	err := r.observe("saved_workers.list_by_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT id, user_id, worker_profile_id, created_at, updated_at
			FROM saved_workers
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanSavedWorker(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SavedWorkersRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("saved_workers.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM saved_workers WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return saved.ErrNotFound
	}
	return nil
}
