package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

// memStore serializes transactions with one mutex and restores a snapshot when fn fails.
// Because the mutex already hides races, each memTx also checks lock discipline: a booking
// may only be placed on a day that was locked before any of that day's bookings were read.
type memStore struct {
	mu        sync.Mutex
	providers map[string]model.Provider
	services  map[string]model.Service
	hours     map[string]model.WorkingHoursRule
	blocked   []model.BlockedInterval
	bookings  map[string]model.Booking
	idem      map[string]string
	events    []outbox.Event
	locks     []string
}

func newMemStore() *memStore {
	return &memStore{
		providers: map[string]model.Provider{},
		services:  map[string]model.Service{},
		hours:     map[string]model.WorkingHoursRule{},
		bookings:  map[string]model.Booking{},
		idem:      map[string]string{},
	}
}

func hoursKey(providerID string, wd time.Weekday) string {
	return providerID + "/" + wd.String()
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := make(map[string]model.Booking, len(s.bookings))
	for k, v := range s.bookings {
		bookings[k] = v
	}
	idem := make(map[string]string, len(s.idem))
	for k, v := range s.idem {
		idem[k] = v
	}
	events := append([]outbox.Event(nil), s.events...)

	if err := fn(&memTx{s: s, locked: map[string]bool{}, readUnlocked: map[string]bool{}}); err != nil {
		s.bookings, s.idem, s.events = bookings, idem, events
		return err
	}
	return nil
}

type memTx struct {
	s            *memStore
	locked       map[string]bool
	readUnlocked map[string]bool
}

func dayKey(providerID string, date model.Date) string {
	return providerID + "@" + date.String()
}

// checkPlacement fails when b lands on a day whose bookings were checked without the lock.
func (t *memTx) checkPlacement(b model.Booking) error {
	key := dayKey(b.ProviderID, b.Date)
	if !t.locked[key] {
		return fmt.Errorf("booking %s placed on %s without holding the day lock", b.ID, key)
	}
	if t.readUnlocked[key] {
		return fmt.Errorf("booking %s placed on %s after an unlocked conflict read", b.ID, key)
	}
	return nil
}

func (t *memTx) ListActiveBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error) {
	if key := dayKey(providerID, date); !t.locked[key] {
		t.readUnlocked[key] = true
	}
	var out []model.Booking
	for _, b := range t.s.bookings {
		if b.ProviderID == providerID && b.Date == date && b.Active() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out, nil
}

func (t *memTx) LockProviderDay(ctx context.Context, providerID string, date model.Date) error {
	key := dayKey(providerID, date)
	t.locked[key] = true
	t.s.locks = append(t.s.locks, key)
	return nil
}

func (t *memTx) GetProvider(ctx context.Context, id string) (model.Provider, error) {
	p, ok := t.s.providers[id]
	if !ok {
		return model.Provider{}, &model.NotFoundError{Kind: "provider", ID: id}
	}
	return p, nil
}

func (t *memTx) GetService(ctx context.Context, id string) (model.Service, error) {
	svc, ok := t.s.services[id]
	if !ok {
		return model.Service{}, &model.NotFoundError{Kind: "service", ID: id}
	}
	return svc, nil
}

func (t *memTx) GetWorkingHours(ctx context.Context, providerID string, weekday time.Weekday) (*model.WorkingHoursRule, error) {
	r, ok := t.s.hours[hoursKey(providerID, weekday)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *memTx) ListBlockedIntervals(ctx context.Context, providerID string, date model.Date) ([]model.BlockedInterval, error) {
	var out []model.BlockedInterval
	for _, b := range t.s.blocked {
		if b.ProviderID == providerID && b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, id string) (model.Booking, error) {
	b, ok := t.s.bookings[id]
	if !ok {
		return model.Booking{}, &model.NotFoundError{Kind: "booking", ID: id}
	}
	return b, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b model.Booking) error {
	if err := t.checkPlacement(b); err != nil {
		return err
	}
	t.s.bookings[b.ID] = b
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b model.Booking) error {
	prev, ok := t.s.bookings[b.ID]
	if !ok {
		return &model.NotFoundError{Kind: "booking", ID: b.ID}
	}
	if prev.Date != b.Date || prev.StartMinute != b.StartMinute {
		if err := t.checkPlacement(b); err != nil {
			return err
		}
	}
	t.s.bookings[b.ID] = b
	return nil
}

func (t *memTx) ClaimIdempotencyKey(ctx context.Context, ownerID, key string) (string, error) {
	return t.s.idem[ownerID+"/"+key], nil
}

func (t *memTx) FinalizeIdempotencyKey(ctx context.Context, ownerID, key, bookingID string) error {
	t.s.idem[ownerID+"/"+key] = bookingID
	return nil
}

func (t *memTx) InsertEvent(ctx context.Context, evt outbox.Event) error {
	t.s.events = append(t.s.events, evt)
	return nil
}
