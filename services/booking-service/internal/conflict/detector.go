// Package conflict finds existing bookings that a candidate interval would overlap.
package conflict

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// Detect returns the active bookings overlapping [start, start+duration), skipping excludeID.
// The result is empty, not nil-with-error, when nothing overlaps.
func Detect(existing []model.Booking, start, duration int, excludeID string) []model.Booking {
	cand := availability.Interval{Start: start, End: start + duration}
	var out []model.Booking
	for _, b := range existing {
		if !b.Active() || (excludeID != "" && b.ID == excludeID) {
			continue
		}
		if availability.Overlaps(cand, availability.Interval{Start: b.StartMinute, End: b.EndMinute()}) {
			out = append(out, b)
		}
	}
	return out
}

// BookingLister reads a provider's bookings for one day. Inside a write path it must be
// bound to the same transaction that holds the day lock.
type BookingLister interface {
	ListActiveBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error)
}

type Detector struct {
	bookings BookingLister
}

func NewDetector(bookings BookingLister) *Detector {
	return &Detector{bookings: bookings}
}

func (d *Detector) Detect(ctx context.Context, providerID string, date model.Date, start, duration int, excludeID string) ([]model.Booking, error) {
	existing, err := d.bookings.ListActiveBookings(ctx, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return Detect(existing, start, duration, excludeID), nil
}
