package lifecycle

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/conflict"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

// Store opens the unit of work every mutation runs in.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view of the store. Lookups of unknown ids return
// *model.NotFoundError; a missing working-hours rule is (nil, nil).
type Tx interface {
	conflict.BookingLister

	// LockProviderDay serializes writers of one provider's calendar day until the
	// transaction ends.
	LockProviderDay(ctx context.Context, providerID string, date model.Date) error

	GetProvider(ctx context.Context, id string) (model.Provider, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	GetWorkingHours(ctx context.Context, providerID string, weekday time.Weekday) (*model.WorkingHoursRule, error)
	ListBlockedIntervals(ctx context.Context, providerID string, date model.Date) ([]model.BlockedInterval, error)

	GetBookingForUpdate(ctx context.Context, id string) (model.Booking, error)
	InsertBooking(ctx context.Context, b model.Booking) error
	UpdateBooking(ctx context.Context, b model.Booking) error

	// ClaimIdempotencyKey returns the booking id already recorded for (owner, key), or ""
	// when the key is new. The key row stays locked until the transaction ends.
	ClaimIdempotencyKey(ctx context.Context, ownerID, key string) (string, error)
	FinalizeIdempotencyKey(ctx context.Context, ownerID, key, bookingID string) error

	InsertEvent(ctx context.Context, evt outbox.Event) error
}
