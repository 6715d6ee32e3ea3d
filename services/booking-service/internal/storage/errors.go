package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const (
	sqlStateExclusionViolation = "23P01"
	sqlStateInvalidText        = "22P02"
	sqlStateForeignKey         = "23503"
)

// IsConflict reports whether err is the bookings_no_overlap exclusion constraint firing.
func IsConflict(err error) bool {
	return hasSQLState(err, sqlStateExclusionViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// lookupErr turns a missing row, or an id that is not even a uuid, into a NotFoundError.
func lookupErr(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || hasSQLState(err, sqlStateInvalidText) {
		return &model.NotFoundError{Kind: kind, ID: id}
	}
	return err
}

// catalogWriteErr reports a write against an unknown provider as NotFound.
func catalogWriteErr(err error, providerID string) error {
	if hasSQLState(err, sqlStateForeignKey) || hasSQLState(err, sqlStateInvalidText) {
		return &model.NotFoundError{Kind: "provider", ID: providerID}
	}
	return err
}

// writeErr maps constraint violations raised by a booking write.
func writeErr(err error) error {
	if err == nil {
		return nil
	}
	if IsConflict(err) {
		return &model.ConflictError{}
	}
	return err
}
