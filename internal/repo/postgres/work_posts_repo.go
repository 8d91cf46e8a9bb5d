package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkPostsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewWorkPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *WorkPostsRepo {
	return &WorkPostsRepo{pool: pool, observer: observer{prom: prom}}
}

const workPostColumns = `id, contractor_id, contractor_name, title, work_type, pincode,
	description, budget, start_date, end_date, requests, status, created_at, updated_at`

func scanWorkPost(row pgx.Row) (workpost.WorkPost, error) {
	var p workpost.WorkPost
	var status string

	err := row.Scan(
		&p.ID, &p.ContractorID, &p.ContractorName, &p.Title, &p.WorkType, &p.Pincode,
		&p.Description, &p.Budget, &p.StartDate, &p.EndDate, &p.Requests, &status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return workpost.WorkPost{}, workpost.ErrNotFound
		}
		return workpost.WorkPost{}, err
	}

	if p.Requests == nil {
		p.Requests = []string{}
	}
	p.Status = workpost.Status(status)
	return p, nil
}

func (r *WorkPostsRepo) Create(ctx context.Context, p workpost.WorkPost) (workpost.WorkPost, error) {
	var out workpost.WorkPost

	err := r.observe("work_posts.create", func() error {
		var err error
		out, err = scanWorkPost(r.pool.QueryRow(ctx, `
			INSERT INTO work_posts (
				id, contractor_id, contractor_name, title, work_type, pincode,
				description, budget, start_date, end_date, requests, status, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			RETURNING `+workPostColumns,
			p.ID, p.ContractorID, p.ContractorName, p.Title, p.WorkType, p.Pincode,
			p.Description, p.Budget, p.StartDate, p.EndDate, p.Requests, string(p.Status),
			p.CreatedAt, p.UpdatedAt,
		))
		return err
	})
	return out, err
}

func (r *WorkPostsRepo) GetByID(ctx context.Context, id string) (workpost.WorkPost, error) {
	var out workpost.WorkPost

	err := r.observe("work_posts.get_by_id", func() error {
		var err error
		out, err = scanWorkPost(r.pool.QueryRow(ctx,
			`SELECT `+workPostColumns+` FROM work_posts WHERE id = $1`, id))
		return err
	})
	return out, err
}

func (r *WorkPostsRepo) List(ctx context.Context, filter workpost.ListFilter) ([]workpost.WorkPost, error) {
	var (
		conds []string
		args  []any
	)

	if filter.OnlyActive {
		args = append(args, string(workpost.StatusActive))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ContractorID != nil {
		args = append(args, *filter.ContractorID)
		conds = append(conds, fmt.Sprintf("contractor_id = $%d", len(args)))
	}

	q := `SELECT ` + workPostColumns + ` FROM work_posts`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC, id DESC"

	out := make([]workpost.WorkPost, 0)

	err := r.observe("work_posts.list", func() error {
		rows, err := r.pool.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanWorkPost(rows)
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

// Update writes every mutable field of p; callers merge partial input first.
func (r *WorkPostsRepo) Update(ctx context.Context, p workpost.WorkPost) (workpost.WorkPost, error) {
	var out workpost.WorkPost

	err := r.observe("work_posts.update", func() error {
		var err error
		out, err = scanWorkPost(r.pool.QueryRow(ctx, `
			UPDATE work_posts
			SET title = $2,
			    work_type = $3,
			    pincode = $4,
			    description = $5,
			    budget = $6,
			    start_date = $7,
			    end_date = $8,
			    status = $9,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+workPostColumns,
			p.ID, p.Title, p.WorkType, p.Pincode, p.Description, p.Budget,
			p.StartDate, p.EndDate, string(p.Status),
		))
		return err
	})
	return out, err
}

func (r *WorkPostsRepo) Delete(ctx context.Context, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("work_posts.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx, `DELETE FROM work_posts WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return workpost.ErrNotFound
	}
	return nil
}

// ToggleRequest flips workerID's membership in the request list in a single
// statement so concurrent toggles never lose each other's writes.
func (r *WorkPostsRepo) ToggleRequest(ctx context.Context, id, workerID string) (workpost.WorkPost, error) {
	var out workpost.WorkPost

	err := r.observe("work_posts.toggle_request", func() error {
		var err error
		out, err = scanWorkPost(r.pool.QueryRow(ctx, `
			UPDATE work_posts
			SET requests = CASE
			        WHEN $2 = ANY(requests) THEN array_remove(requests, $2)
			        ELSE array_append(requests, $2)
			    END,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING `+workPostColumns,
			id, workerID,
		))
		return err
	})
	return out, err
}
