package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

func TestWriteErrMapsExclusionViolation(t *testing.T) {
	err := writeErr(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}))
	var ce *model.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	other := errors.New("connection reset")
	if got := writeErr(other); got != other {
		t.Fatalf("unrelated errors must pass through, got %v", got)
	}
	if writeErr(nil) != nil {
		t.Fatal("nil must stay nil")
	}
}

func TestLookupErr(t *testing.T) {
	var nf *model.NotFoundError
	if err := lookupErr(pgx.ErrNoRows, "booking", "b1"); !errors.As(err, &nf) || nf.ID != "b1" {
		t.Fatalf("expected NotFoundError for no rows, got %v", err)
	}
	if err := lookupErr(&pgconn.PgError{Code: "22P02"}, "provider", "not-a-uuid"); !errors.As(err, &nf) || nf.Kind != "provider" {
		t.Fatalf("expected NotFoundError for a malformed id, got %v", err)
	}
	if err := lookupErr(&pgconn.PgError{Code: "57014"}, "provider", "p"); errors.As(err, &nf) {
		t.Fatalf("query cancellation must not look like not found")
	}
}
