package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const bookingColumns = `
	id::text, provider_id::text, customer_id, service_id::text, service_name,
	booking_date, start_minute, duration_minutes, price::text, status,
	cancellation_reason, notes, created_at, updated_at`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var (
		b     model.Booking
		date  time.Time
		price string
	)
	err := row.Scan(
		&b.ID,
		&b.ProviderID,
		&b.CustomerID,
		&b.ServiceID,
		&b.ServiceName,
		&date,
		&b.StartMinute,
		&b.DurationMinutes,
		&price,
		&b.Status,
		&b.CancellationReason,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Date = model.DateOf(date)
	if b.Price, err = decimal.NewFromString(price); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

func collectBookings(rows pgx.Rows) ([]model.Booking, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Booking, error) {
		return scanBooking(row)
	})
}

func pgDate(d model.Date) time.Time {
	return d.In(time.UTC)
}

// ListActiveBookings returns the day's non-cancelled bookings ordered by start.
func (q queries) ListActiveBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error) {
	rows, err := q.q.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE provider_id = $1
			AND booking_date = $2
			AND status <> 'cancelled'
		ORDER BY start_minute ASC
	`, providerID, pgDate(date))
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (q queries) ListBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error) {
	rows, err := q.q.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE provider_id = $1
			AND booking_date = $2
		ORDER BY start_minute ASC, created_at ASC
	`, providerID, pgDate(date))
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

func (q queries) GetBooking(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(q.q.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id))
	return b, lookupErr(err, "booking", id)
}

func (t *txStore) GetBookingForUpdate(ctx context.Context, id string) (model.Booking, error) {
	b, err := scanBooking(t.tx.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, id))
	return b, lookupErr(err, "booking", id)
}

func (t *txStore) InsertBooking(ctx context.Context, b model.Booking) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO bookings
			(id, provider_id, customer_id, service_id, service_name, booking_date, start_minute,
			 duration_minutes, price, status, cancellation_reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11, $12, $13, $14)
	`, b.ID, b.ProviderID, b.CustomerID, b.ServiceID, b.ServiceName, pgDate(b.Date), b.StartMinute,
		b.DurationMinutes, b.Price.String(), string(b.Status), b.CancellationReason, b.Notes, b.CreatedAt, b.UpdatedAt)
	return writeErr(err)
}

// UpdateBooking writes the mutable columns. Snapshot columns are never rewritten.
func (t *txStore) UpdateBooking(ctx context.Context, b model.Booking) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE bookings
		SET booking_date = $2,
			start_minute = $3,
			status = $4,
			cancellation_reason = $5,
			updated_at = $6
		WHERE id = $1
	`, b.ID, pgDate(b.Date), b.StartMinute, string(b.Status), b.CancellationReason, b.UpdatedAt)
	if err != nil {
		return writeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Kind: "booking", ID: b.ID}
	}
	return nil
}
