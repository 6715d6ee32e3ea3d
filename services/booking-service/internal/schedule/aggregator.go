// Package schedule is the read side: bookable slots for a requested duration and the
// provider's full day view. Nothing here takes locks or writes.
package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// Reader is the read-only store view. Unknown providers return *model.NotFoundError.
type Reader interface {
	GetProvider(ctx context.Context, id string) (model.Provider, error)
	GetWorkingHours(ctx context.Context, providerID string, weekday time.Weekday) (*model.WorkingHoursRule, error)
	ListBlockedIntervals(ctx context.Context, providerID string, date model.Date) ([]model.BlockedInterval, error)
	// ListBookings returns every booking of the day, cancelled ones included.
	ListBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error)
}

type Config struct {
	// Granularity steps the bookable-slot search.
	Granularity int
	// DisplayGranularity is the row size of the day view.
	DisplayGranularity int
}

type Aggregator struct {
	reader Reader
	cfg    Config
	tracer trace.Tracer
}

func NewAggregator(reader Reader, cfg Config) *Aggregator {
	if cfg.Granularity <= 0 {
		cfg.Granularity = availability.DefaultGranularity
	}
	if cfg.DisplayGranularity <= 0 {
		cfg.DisplayGranularity = cfg.Granularity
	}
	return &Aggregator{
		reader: reader,
		cfg:    cfg,
		tracer: otel.Tracer("barberbook/booking-service/schedule"),
	}
}

// day is everything one calculation needs, fetched once.
type day struct {
	provider model.Provider
	rule     *model.WorkingHoursRule
	blocked  []model.BlockedInterval
	bookings []model.Booking
}

func (a *Aggregator) load(ctx context.Context, providerID string, date model.Date) (day, error) {
	var d day
	var err error
	if d.provider, err = a.reader.GetProvider(ctx, providerID); err != nil {
		return day{}, err
	}
	if d.rule, err = a.reader.GetWorkingHours(ctx, providerID, date.Weekday()); err != nil {
		return day{}, fmt.Errorf("load working hours: %w", err)
	}
	if d.blocked, err = a.reader.ListBlockedIntervals(ctx, providerID, date); err != nil {
		return day{}, fmt.Errorf("load blocked intervals: %w", err)
	}
	if d.bookings, err = a.reader.ListBookings(ctx, providerID, date); err != nil {
		return day{}, fmt.Errorf("load bookings: %w", err)
	}
	sort.SliceStable(d.bookings, func(i, j int) bool { return d.bookings[i].StartMinute < d.bookings[j].StartMinute })
	return d, nil
}

// GetAvailableSlots returns every candidate start of the day with its availability flag.
// A day the provider does not work yields an empty slice.
func (a *Aggregator) GetAvailableSlots(ctx context.Context, providerID string, date model.Date, durationMinutes int) ([]model.TimeSlot, error) {
	ctx, span := a.tracer.Start(ctx, "schedule.GetAvailableSlots", trace.WithAttributes(
		attribute.String("provider.id", providerID),
		attribute.Int("duration_minutes", durationMinutes),
	))
	defer span.End()

	if durationMinutes <= 0 {
		return nil, &model.ValidationError{Field: "duration_minutes", Message: "must be positive"}
	}
	if date.IsZero() {
		return nil, &model.ValidationError{Field: "date", Message: "is required"}
	}
	d, err := a.load(ctx, providerID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return availability.Slots(availability.Input{
		Rule:            d.rule,
		Bookings:        d.bookings,
		Blocked:         d.blocked,
		DurationMinutes: durationMinutes,
		Granularity:     a.cfg.Granularity,
	}), nil
}

func (a *Aggregator) GetDaySchedule(ctx context.Context, providerID string, date model.Date) (model.DaySchedule, error) {
	ctx, span := a.tracer.Start(ctx, "schedule.GetDaySchedule", trace.WithAttributes(
		attribute.String("provider.id", providerID),
		attribute.String("date", date.String()),
	))
	defer span.End()

	if date.IsZero() {
		return model.DaySchedule{}, &model.ValidationError{Field: "date", Message: "is required"}
	}
	d, err := a.load(ctx, providerID, date)
	if err != nil {
		span.RecordError(err)
		return model.DaySchedule{}, err
	}

	step := a.cfg.DisplayGranularity
	out := model.DaySchedule{
		ProviderID: providerID,
		Date:       date,
		Working:    d.rule != nil && d.rule.IsAvailable,
		Bookings:   d.bookings,
		Revenue:    decimal.Zero,
	}

	base := availability.Slots(availability.Input{
		Rule:            d.rule,
		Bookings:        d.bookings,
		Blocked:         d.blocked,
		DurationMinutes: step,
		Granularity:     step,
	})
	for _, s := range base {
		row := model.ScheduleSlot{TimeSlot: s, EndMinute: s.StartMinute + step}
		iv := availability.Interval{Start: s.StartMinute, End: row.EndMinute}
		if b := occupying(d.bookings, iv); b != nil {
			row.Booking = b
		} else if reason, ok := blockedReason(d.blocked, iv); ok {
			row.BlockedReason = reason
		}
		out.Slots = append(out.Slots, row)
	}

	for _, b := range d.bookings {
		if !b.Active() {
			continue
		}
		out.TotalBookings++
		if b.Status == model.StatusConfirmed || b.Status == model.StatusCompleted {
			out.Revenue = out.Revenue.Add(b.Price)
		}
	}
	span.SetAttributes(attribute.Int("bookings", out.TotalBookings))
	return out, nil
}

// ListBookings returns the day's bookings ordered by start.
func (a *Aggregator) ListBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error) {
	if _, err := a.reader.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	bookings, err := a.reader.ListBookings(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	sort.SliceStable(bookings, func(i, j int) bool { return bookings[i].StartMinute < bookings[j].StartMinute })
	return bookings, nil
}

func occupying(bookings []model.Booking, iv availability.Interval) *model.Booking {
	for i := range bookings {
		b := &bookings[i]
		if b.Active() && availability.Overlaps(iv, availability.Interval{Start: b.StartMinute, End: b.EndMinute()}) {
			return b
		}
	}
	return nil
}

func blockedReason(blocked []model.BlockedInterval, iv availability.Interval) (string, bool) {
	for _, b := range blocked {
		if availability.Overlaps(iv, availability.Interval{Start: b.StartMinute, End: b.EndMinute}) {
			if b.Reason == "" {
				return model.ReasonBlocked, true
			}
			return b.Reason, true
		}
	}
	return "", false
}
