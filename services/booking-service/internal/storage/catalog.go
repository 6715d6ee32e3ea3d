package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

func (q queries) GetProvider(ctx context.Context, id string) (model.Provider, error) {
	var p model.Provider
	err := q.q.QueryRow(ctx, `
		SELECT id::text, name, timezone, active
		FROM providers
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Timezone, &p.Active)
	return p, lookupErr(err, "provider", id)
}

func (s *Store) CreateProvider(ctx context.Context, p model.Provider) (model.Provider, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO providers (id, name, timezone, active)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.Name, p.Timezone, p.Active)
	return p, err
}

const serviceColumns = `id::text, provider_id::text, name, duration_minutes, price::text, active`

func scanService(row pgx.Row) (model.Service, error) {
	var (
		svc   model.Service
		price string
	)
	if err := row.Scan(&svc.ID, &svc.ProviderID, &svc.Name, &svc.DurationMinutes, &price, &svc.Active); err != nil {
		return model.Service{}, err
	}
	var err error
	svc.Price, err = decimal.NewFromString(price)
	return svc, err
}

func (q queries) GetService(ctx context.Context, id string) (model.Service, error) {
	svc, err := scanService(q.q.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id))
	return svc, lookupErr(err, "service", id)
}

func (q queries) ListServices(ctx context.Context, providerID string) ([]model.Service, error) {
	rows, err := q.q.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE provider_id = $1 AND active
		ORDER BY name ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Service, error) {
		return scanService(row)
	})
}

// UpsertService creates the service or, when ID is set, replaces its mutable fields.
// Existing bookings keep their snapshot.
func (s *Store) UpsertService(ctx context.Context, svc model.Service) (model.Service, error) {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO services (id, provider_id, name, duration_minutes, price, active)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			duration_minutes = EXCLUDED.duration_minutes,
			price = EXCLUDED.price,
			active = EXCLUDED.active,
			updated_at = now()
		WHERE services.provider_id = EXCLUDED.provider_id
	`, svc.ID, svc.ProviderID, svc.Name, svc.DurationMinutes, svc.Price.String(), svc.Active)
	if err != nil {
		return model.Service{}, catalogWriteErr(err, svc.ProviderID)
	}
	if tag.RowsAffected() == 0 {
		// The id belongs to another provider.
		return model.Service{}, &model.NotFoundError{Kind: "service", ID: svc.ID}
	}
	return svc, nil
}

const workingHoursColumns = `weekday, start_minute, end_minute, is_available, break_start, break_end`

func scanWorkingHours(row pgx.Row) (model.WorkingHoursRule, error) {
	var (
		r       model.WorkingHoursRule
		weekday int16
	)
	err := row.Scan(&weekday, &r.StartMinute, &r.EndMinute, &r.IsAvailable, &r.BreakStart, &r.BreakEnd)
	r.Weekday = time.Weekday(weekday)
	return r, err
}

// GetWorkingHours returns nil when the provider has no rule for weekday.
func (q queries) GetWorkingHours(ctx context.Context, providerID string, weekday time.Weekday) (*model.WorkingHoursRule, error) {
	r, err := scanWorkingHours(q.q.QueryRow(ctx, `
		SELECT `+workingHoursColumns+`
		FROM working_hours
		WHERE provider_id = $1 AND weekday = $2
	`, providerID, int16(weekday)))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (q queries) ListWorkingHours(ctx context.Context, providerID string) ([]model.WorkingHoursRule, error) {
	rows, err := q.q.Query(ctx, `
		SELECT `+workingHoursColumns+`
		FROM working_hours
		WHERE provider_id = $1
		ORDER BY weekday ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.WorkingHoursRule, error) {
		return scanWorkingHours(row)
	})
}

// ReplaceWorkingHours swaps the provider's whole weekly schedule in one transaction.
// Weekdays missing from rules become days off.
func (s *Store) ReplaceWorkingHours(ctx context.Context, providerID string, rules []model.WorkingHoursRule) error {
	return s.pool.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM working_hours WHERE provider_id = $1`, providerID); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for _, r := range rules {
			batch.Queue(`
				INSERT INTO working_hours (provider_id, weekday, start_minute, end_minute, is_available, break_start, break_end)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, providerID, int16(r.Weekday), r.StartMinute, r.EndMinute, r.IsAvailable, r.BreakStart, r.BreakEnd)
		}
		return catalogWriteErr(tx.SendBatch(ctx, batch).Close(), providerID)
	})
}

func (q queries) ListBlockedIntervals(ctx context.Context, providerID string, date model.Date) ([]model.BlockedInterval, error) {
	rows, err := q.q.Query(ctx, `
		SELECT id::text, provider_id::text, block_date, start_minute, end_minute, reason
		FROM blocked_intervals
		WHERE provider_id = $1 AND block_date = $2
		ORDER BY start_minute ASC
	`, providerID, pgDate(date))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BlockedInterval, error) {
		var (
			b    model.BlockedInterval
			date time.Time
		)
		err := row.Scan(&b.ID, &b.ProviderID, &date, &b.StartMinute, &b.EndMinute, &b.Reason)
		b.Date = model.DateOf(date)
		return b, err
	})
}

func (s *Store) CreateBlockedInterval(ctx context.Context, b model.BlockedInterval) (model.BlockedInterval, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO blocked_intervals (id, provider_id, block_date, start_minute, end_minute, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, b.ProviderID, pgDate(b.Date), b.StartMinute, b.EndMinute, b.Reason)
	if err != nil {
		return model.BlockedInterval{}, catalogWriteErr(err, b.ProviderID)
	}
	return b, nil
}

func (s *Store) DeleteBlockedInterval(ctx context.Context, providerID, id string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM blocked_intervals
		WHERE id = $1 AND provider_id = $2
	`, id, providerID)
	if err != nil {
		return lookupErr(err, "blocked interval", id)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Kind: "blocked interval", ID: id}
	}
	return nil
}
