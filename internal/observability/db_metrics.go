package observability

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB outcome labels. Only "error" counts toward worklink_db_errors_total.
const (
	dbOK       = "ok"
	dbMiss     = "miss"
	dbConflict = "conflict"
	dbError    = "error"
)

// ObserveDB times one logical store operation. Errors matching expected (for
// example a domain not-found sentinel) and missing rows are recorded as a
// miss; unique violations as a conflict.
func (p *Prom) ObserveDB(op string, fn func() error, expected ...error) error {
	start := time.Now()
	err := fn()

	outcome := dbOutcome(err, expected)
	if outcome == dbError {
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	return err
}

func dbOutcome(err error, expected []error) string {
	if err == nil {
		return dbOK
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return dbMiss
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			return dbMiss
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return dbConflict
	}
	return dbError
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return "foreign_key_violation"
		case "23505":
			return "unique_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "55P03":
			return "lock_not_available"
		case "57014":
			return "query_canceled"
		}
		return "pg_" + pgErr.Code
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "connect:"):
		return "connection"
	}
	return "unknown"
}
