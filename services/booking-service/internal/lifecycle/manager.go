// Package lifecycle owns every booking mutation: create, reschedule and status changes.
// Each mutation runs in one transaction that first locks the provider's day, so the
// conflict check and the write cannot interleave with another writer.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/conflict"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

const DefaultCancelThreshold = 2 * time.Hour

type Policy struct {
	// AutoConfirm creates bookings as confirmed instead of pending.
	AutoConfirm bool
	// CancelThreshold is how far ahead of the start a customer must cancel or reschedule.
	CancelThreshold time.Duration
}

type Manager struct {
	store  Store
	policy Policy
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
}

type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, policy Policy, logger *slog.Logger, opts ...Option) *Manager {
	if policy.CancelThreshold < 0 {
		policy.CancelThreshold = 0
	}
	m := &Manager{
		store:  store,
		policy: policy,
		logger: logger,
		tracer: otel.Tracer("barberbook/booking-service/lifecycle"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type CreateRequest struct {
	ProviderID  string
	CustomerID  string
	ServiceID   string
	Date        model.Date
	StartMinute int
	Notes       string
	// IdempotencyKey makes retries of the same request return the first booking.
	IdempotencyKey string
	Actor          model.Actor
}

// DetectConflicts lists the active bookings that [start, start+duration) would overlap.
// It is a read; CreateBooking and RescheduleBooking repeat the check under the day lock.
func (m *Manager) DetectConflicts(ctx context.Context, providerID string, date model.Date, start, duration int, excludeID string) ([]model.Booking, error) {
	if duration <= 0 {
		return nil, &model.ValidationError{Field: "duration_minutes", Message: "must be positive"}
	}
	var out []model.Booking
	err := m.store.InTx(ctx, func(tx Tx) error {
		conflicts, err := conflict.NewDetector(tx).Detect(ctx, providerID, date, start, duration, excludeID)
		out = conflicts
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}
	return out, nil
}

func (m *Manager) CreateBooking(ctx context.Context, req CreateRequest) (b model.Booking, err error) {
	ctx, span := m.tracer.Start(ctx, "lifecycle.CreateBooking", trace.WithAttributes(
		attribute.String("provider.id", req.ProviderID),
		attribute.String("booking.date", req.Date.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := m.validateCreate(&req); err != nil {
		return model.Booking{}, err
	}

	var replayed bool
	err = m.store.InTx(ctx, func(tx Tx) error {
		if req.IdempotencyKey != "" {
			existingID, err := tx.ClaimIdempotencyKey(ctx, req.CustomerID, req.IdempotencyKey)
			if err != nil {
				return fmt.Errorf("claim idempotency key: %w", err)
			}
			if existingID != "" {
				b, err = tx.GetBookingForUpdate(ctx, existingID)
				replayed = true
				return err
			}
		}

		provider, err := tx.GetProvider(ctx, req.ProviderID)
		if err != nil {
			return err
		}
		if !provider.Active {
			return &model.ValidationError{Field: "provider_id", Message: "is not accepting bookings"}
		}
		svc, err := tx.GetService(ctx, req.ServiceID)
		if err != nil {
			return err
		}
		if svc.ProviderID != provider.ID || !svc.Active {
			return &model.ValidationError{Field: "service_id", Message: "is not offered by this provider"}
		}

		if err := tx.LockProviderDay(ctx, provider.ID, req.Date); err != nil {
			return fmt.Errorf("lock provider day: %w", err)
		}
		if err := m.checkSlot(ctx, tx, provider, req.Date, req.StartMinute, svc.DurationMinutes, ""); err != nil {
			return err
		}

		now := m.now().UTC()
		b = model.Booking{
			ID:              m.newID(),
			ProviderID:      provider.ID,
			CustomerID:      req.CustomerID,
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			Date:            req.Date,
			StartMinute:     req.StartMinute,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.Price,
			Status:          model.StatusPending,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if m.policy.AutoConfirm {
			b.Status = model.StatusConfirmed
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if err := m.emit(ctx, tx, outbox.TypeBookingCreated, b, req.Actor, nil); err != nil {
			return err
		}
		if req.IdempotencyKey != "" {
			if err := tx.FinalizeIdempotencyKey(ctx, req.CustomerID, req.IdempotencyKey, b.ID); err != nil {
				return fmt.Errorf("finalize idempotency key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}

	if replayed {
		m.logger.Info("booking create replayed", "booking_id", b.ID, "idempotency_key", req.IdempotencyKey)
	} else {
		m.logger.Info("booking created",
			"booking_id", b.ID,
			"provider_id", b.ProviderID,
			"date", b.Date.String(),
			"start", model.FormatClock(b.StartMinute),
			"status", b.Status,
		)
	}
	return b, nil
}

func (m *Manager) validateCreate(req *CreateRequest) error {
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)

	switch req.Actor.Role {
	case model.RoleCustomer:
		if req.CustomerID == "" {
			req.CustomerID = req.Actor.UserID
		}
		if req.CustomerID != req.Actor.UserID {
			return &model.AuthorizationError{Role: req.Actor.Role, Action: "create", Reason: "customers book for themselves"}
		}
	case model.RoleAdmin:
	default:
		return &model.AuthorizationError{Role: req.Actor.Role, Action: "create"}
	}

	switch {
	case req.ProviderID == "":
		return &model.ValidationError{Field: "provider_id", Message: "is required"}
	case req.ServiceID == "":
		return &model.ValidationError{Field: "service_id", Message: "is required"}
	case req.CustomerID == "":
		return &model.ValidationError{Field: "customer_id", Message: "is required"}
	case req.Date.IsZero():
		return &model.ValidationError{Field: "date", Message: "is required"}
	case req.StartMinute < 0 || req.StartMinute >= model.MinutesPerDay:
		return &model.ValidationError{Field: "start_time", Message: "must be within the day"}
	}
	return nil
}

// checkSlot validates [start, start+duration) on date against working hours, blocks, the
// clock and existing bookings. The caller must hold the day lock.
func (m *Manager) checkSlot(ctx context.Context, tx Tx, provider model.Provider, date model.Date, start, duration int, excludeID string) error {
	rule, err := tx.GetWorkingHours(ctx, provider.ID, date.Weekday())
	if err != nil {
		return fmt.Errorf("load working hours: %w", err)
	}
	blocked, err := tx.ListBlockedIntervals(ctx, provider.ID, date)
	if err != nil {
		return fmt.Errorf("load blocked intervals: %w", err)
	}
	if err := availability.CheckWindow(rule, blocked, start, duration); err != nil {
		return err
	}
	if !date.At(start, provider.Location()).After(m.now()) {
		return &model.ValidationError{Field: "start_time", Message: "must be in the future"}
	}

	conflicts, err := conflict.NewDetector(tx).Detect(ctx, provider.ID, date, start, duration, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &model.ConflictError{Conflicts: conflicts}
	}
	return nil
}

// RescheduleBooking moves a pending or confirmed booking to newDate/newStart. On any
// error the booking is left as it was.
func (m *Manager) RescheduleBooking(ctx context.Context, bookingID string, newDate model.Date, newStart int, actor model.Actor) (b model.Booking, err error) {
	ctx, span := m.tracer.Start(ctx, "lifecycle.RescheduleBooking", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("booking.new_date", newDate.String()),
	))
	defer func() { endSpan(span, err) }()

	if newDate.IsZero() {
		return model.Booking{}, &model.ValidationError{Field: "date", Message: "is required"}
	}
	if newStart < 0 || newStart >= model.MinutesPerDay {
		return model.Booking{}, &model.ValidationError{Field: "start_time", Message: "must be within the day"}
	}

	var prev model.Booking
	err = m.store.InTx(ctx, func(tx Tx) error {
		var err error
		prev, err = tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authorizeOwner(prev, actor, "reschedule"); err != nil {
			return err
		}
		if prev.Status != model.StatusPending && prev.Status != model.StatusConfirmed {
			return &model.ValidationError{Field: "status", Message: "only pending or confirmed bookings can be rescheduled"}
		}
		if prev.Date == newDate && prev.StartMinute == newStart {
			b = prev
			return nil
		}

		provider, err := tx.GetProvider(ctx, prev.ProviderID)
		if err != nil {
			return err
		}
		if actor.Role == model.RoleCustomer {
			if err := m.checkCustomerWindow(prev, provider, actor, "reschedule"); err != nil {
				return err
			}
		}

		// Lock both days in a fixed order so two opposite moves cannot deadlock.
		days := []model.Date{prev.Date, newDate}
		sort.Slice(days, func(i, j int) bool { return days[i].String() < days[j].String() })
		for i, d := range days {
			if i > 0 && d == days[i-1] {
				continue
			}
			if err := tx.LockProviderDay(ctx, provider.ID, d); err != nil {
				return fmt.Errorf("lock provider day: %w", err)
			}
		}

		if err := m.checkSlot(ctx, tx, provider, newDate, newStart, prev.DurationMinutes, prev.ID); err != nil {
			return err
		}

		b = prev
		b.Date = newDate
		b.StartMinute = newStart
		b.UpdatedAt = m.now().UTC()
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		return m.emit(ctx, tx, outbox.TypeBookingRescheduled, b, actor, &prev)
	})
	if err != nil {
		return model.Booking{}, err
	}

	if !b.UpdatedAt.Equal(prev.UpdatedAt) {
		m.logger.Info("booking rescheduled",
			"booking_id", b.ID,
			"provider_id", b.ProviderID,
			"from", prev.Date.String()+" "+model.FormatClock(prev.StartMinute),
			"to", b.Date.String()+" "+model.FormatClock(b.StartMinute),
		)
	}
	return b, nil
}

// UpdateBookingStatus applies one edge of the transition table.
func (m *Manager) UpdateBookingStatus(ctx context.Context, bookingID string, newStatus model.Status, actor model.Actor) (model.Booking, error) {
	return m.changeStatus(ctx, bookingID, newStatus, "", actor)
}

// CancelBooking is UpdateBookingStatus to cancelled with a recorded reason.
func (m *Manager) CancelBooking(ctx context.Context, bookingID, reason string, actor model.Actor) (model.Booking, error) {
	return m.changeStatus(ctx, bookingID, model.StatusCancelled, strings.TrimSpace(reason), actor)
}

func (m *Manager) changeStatus(ctx context.Context, bookingID string, newStatus model.Status, reason string, actor model.Actor) (b model.Booking, err error) {
	ctx, span := m.tracer.Start(ctx, "lifecycle.UpdateBookingStatus", trace.WithAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("booking.new_status", string(newStatus)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer func() { endSpan(span, err) }()

	if !newStatus.Valid() {
		return model.Booking{}, &model.ValidationError{Field: "status", Message: "unknown status"}
	}

	var prev model.Booking
	err = m.store.InTx(ctx, func(tx Tx) error {
		var err error
		prev, err = tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authorizeOwner(prev, actor, string(newStatus)); err != nil {
			return err
		}
		g, err := resolve(prev.Status, newStatus, actor.Role)
		if err != nil {
			return err
		}
		if g == gateCancelWindow {
			provider, err := tx.GetProvider(ctx, prev.ProviderID)
			if err != nil {
				return err
			}
			if err := m.checkCustomerWindow(prev, provider, actor, string(ActionCancel)); err != nil {
				return err
			}
		}

		b = prev
		b.Status = newStatus
		if newStatus == model.StatusCancelled {
			b.CancellationReason = reason
		}
		b.UpdatedAt = m.now().UTC()
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		return m.emit(ctx, tx, outbox.TypeBookingStatusChanged, b, actor, &prev)
	})
	if err != nil {
		return model.Booking{}, err
	}

	m.logger.Info("booking status changed",
		"booking_id", b.ID,
		"provider_id", b.ProviderID,
		"from", prev.Status,
		"to", b.Status,
		"actor_role", actor.Role,
	)
	return b, nil
}

// checkCustomerWindow rejects customer changes closer to the start than the threshold.
func (m *Manager) checkCustomerWindow(b model.Booking, provider model.Provider, actor model.Actor, action string) error {
	start := b.Date.At(b.StartMinute, provider.Location())
	if start.Sub(m.now()) < m.policy.CancelThreshold {
		return &model.AuthorizationError{
			Role:   actor.Role,
			Action: action,
			Reason: fmt.Sprintf("changes close %s before the start", m.policy.CancelThreshold),
		}
	}
	return nil
}

// authorizeOwner limits customers to their own bookings and providers to their own calendar.
func authorizeOwner(b model.Booking, actor model.Actor, action string) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleProvider:
		if actor.CanManageProvider(b.ProviderID) {
			return nil
		}
	case model.RoleCustomer:
		if actor.UserID != "" && actor.UserID == b.CustomerID {
			return nil
		}
	}
	return &model.AuthorizationError{Role: actor.Role, Action: action, Reason: "not a party to this booking"}
}

func (m *Manager) emit(ctx context.Context, tx Tx, eventType string, b model.Booking, actor model.Actor, prev *model.Booking) error {
	evt, err := newBookingEvent(eventType, b, actor, prev)
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}
	if err := tx.InsertEvent(ctx, evt); err != nil {
		return fmt.Errorf("write outbox event: %w", err)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		var conflictErr *model.ConflictError
		if errors.As(err, &conflictErr) {
			span.SetAttributes(attribute.Int("booking.conflicts", len(conflictErr.Conflicts)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
