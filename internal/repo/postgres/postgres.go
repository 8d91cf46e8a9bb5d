package postgres

import (
	"errors"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/domain/connection"
	"github.com/geocoder89/worklink/internal/domain/delivery"
	"github.com/geocoder89/worklink/internal/domain/job"
	"github.com/geocoder89/worklink/internal/domain/saved"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/domain/workerprofile"
	"github.com/geocoder89/worklink/internal/domain/workpost"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/jackc/pgx/v5/pgconn"
)

// domainMisses are ordinary outcomes, not store failures.
var domainMisses = []error{
	user.ErrNotFound,
	workpost.ErrNotFound,
	workerprofile.ErrNotFound,
	connection.ErrNotFound,
	saved.ErrNotFound,
	chat.ErrNotFound,
	chat.ErrNotParticipant,
	job.ErrJobNotFound,
	delivery.ErrAlreadySent,
	delivery.ErrInProgress,
}

// observer times every logical DB operation when metrics are wired.
type observer struct {
	prom *observability.Prom
}

func (o observer) observe(op string, fn func() error) error {
	if o.prom != nil {
		return o.prom.ObserveDB(op, fn, domainMisses...)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}
