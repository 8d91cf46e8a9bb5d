package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/worklink/internal/domain/workerprofile"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkerProfilesRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewWorkerProfilesRepo(pool *pgxpool.Pool, prom *observability.Prom) *WorkerProfilesRepo {
	return &WorkerProfilesRepo{pool: pool, observer: observer{prom: prom}}
}

const workerProfileColumns = `id, user_id, name, skill, experience, pincode, expected_wage,
	description, mobile, created_at, updated_at`

func scanWorkerProfile(row pgx.Row) (workerprofile.Profile, error) {
	var p workerprofile.Profile

	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Skill, &p.Experience, &p.Pincode, &p.ExpectedWage,
		&p.Description, &p.Mobile, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workerprofile.Profile{}, workerprofile.ErrNotFound
		}
		return workerprofile.Profile{}, err
	}
	return p, nil
}

func (r *WorkerProfilesRepo) Create(ctx context.Context, p workerprofile.Profile) (workerprofile.Profile, error) {
	var out workerprofile.Profile

	err := r.observe("worker_profiles.create", func() error {
		var err error
		out, err = scanWorkerProfile(r.pool.QueryRow(ctx, `
			INSERT INTO worker_profiles (
				id, user_id, name, skill, experience, pincode, expected_wage,
				description, mobile, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING `+workerProfileColumns,
			p.ID, p.UserID, p.Name, p.Skill, p.Experience, p.Pincode, p.ExpectedWage,
			p.Description, p.Mobile, p.CreatedAt, p.UpdatedAt,
		))
		return err
	})
	return out, err
}

func (r *WorkerProfilesRepo) GetByID(ctx context.Context, id string) (workerprofile.Profile, error) {
	var out workerprofile.Profile

	err := r.observe("worker_profiles.get_by_id", func() error {
		var err error
		out, err = scanWorkerProfile(r.pool.QueryRow(ctx,
			`SELECT `+workerProfileColumns+` FROM worker_profiles WHERE id = $1`, id))
		return err
	})
	return out, err
}

func (r *WorkerProfilesRepo) List(ctx context.Context, filter workerprofile.ListFilter) ([]workerprofile.Profile, error) {
	q := `SELECT ` + workerProfileColumns + ` FROM worker_profiles`
	var args []any

	if filter.UserID != nil {
		q += ` WHERE user_id = $1`
		args = append(args, *filter.UserID)
	}
	q += ` ORDER BY created_at DESC, id DESC`

	out := make([]workerprofile.Profile, 0)

	err := r.observe("worker_profiles.list", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanWorkerProfile(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WorkerProfilesRepo) Update(ctx context.Context, p workerprofile.Profile) (workerprofile.Profile, error) {
	var out workerprofile.Profile

	err := r.observe("worker_profiles.update", func() error {
		var err error
		out, err = scanWorkerProfile(r.pool.QueryRow(ctx, `
			UPDATE worker_profiles
			SET name = $2,
			    skill = $3,
			    experience = $4,
			    pincode = $5,
			    expected_wage = $6,
			    description = $7,
			    mobile = $8,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+workerProfileColumns,
			p.ID, p.Name, p.Skill, p.Experience, p.Pincode, p.ExpectedWage, p.Description, p.Mobile,
		))
		return err
	})
	return out, err
}

func (r *WorkerProfilesRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("worker_profiles.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM worker_profiles WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return workerprofile.ErrNotFound
	}
	return nil
}
