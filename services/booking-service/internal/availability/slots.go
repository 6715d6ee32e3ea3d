// Package availability computes which slots of a provider's day can take a booking of a
// given length. It is pure: callers fetch the day's rule, blocks and bookings once and
// pass them in.
package availability

import (
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const DefaultGranularity = 30

// Interval is a half-open range of minutes since local midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether [a.Start, a.End) and [b.Start, b.End) share at least one minute.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

type Input struct {
	Rule            *model.WorkingHoursRule
	Bookings        []model.Booking
	Blocked         []model.BlockedInterval
	DurationMinutes int
	Granularity     int
}

// Slots steps from the working start to the working end by granularity and marks each
// candidate [s, s+duration) available or not. Unavailable slots carry the first failing
// check in this order: working hours, break, blocked interval, booking.
//
// A day without a rule, or with IsAvailable false, yields no slots.
func Slots(in Input) []model.TimeSlot {
	if in.Rule == nil || !in.Rule.IsAvailable || in.DurationMinutes <= 0 {
		return nil
	}
	step := in.Granularity
	if step <= 0 {
		step = DefaultGranularity
	}

	var breakIv *Interval
	if s, e, ok := in.Rule.Break(); ok {
		breakIv = &Interval{Start: s, End: e}
	}
	blocked := make([]Interval, 0, len(in.Blocked))
	for _, b := range in.Blocked {
		blocked = append(blocked, Interval{Start: b.StartMinute, End: b.EndMinute})
	}
	booked := make([]Interval, 0, len(in.Bookings))
	for _, b := range in.Bookings {
		if !b.Active() {
			continue
		}
		booked = append(booked, Interval{Start: b.StartMinute, End: b.EndMinute()})
	}

	var slots []model.TimeSlot
	for s := in.Rule.StartMinute; s < in.Rule.EndMinute; s += step {
		cand := Interval{Start: s, End: s + in.DurationMinutes}
		slot := model.TimeSlot{StartMinute: s}
		switch {
		case cand.End > in.Rule.EndMinute:
			slot.Reason = model.ReasonExceedsWorkingHours
		case breakIv != nil && Overlaps(cand, *breakIv):
			slot.Reason = model.ReasonBreak
		case overlapsAny(cand, blocked):
			slot.Reason = model.ReasonBlocked
		case overlapsAny(cand, booked):
			slot.Reason = model.ReasonBooked
		default:
			slot.Available = true
		}
		slots = append(slots, slot)
	}
	return slots
}

// Available filters Slots down to the bookable ones.
func Available(slots []model.TimeSlot) []model.TimeSlot {
	out := make([]model.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// CheckWindow validates that [start, start+duration) lies inside working hours and avoids
// the break and every blocked interval. Existing bookings are the conflict detector's concern.
func CheckWindow(rule *model.WorkingHoursRule, blocked []model.BlockedInterval, start, duration int) error {
	if duration <= 0 {
		return &model.ValidationError{Field: "duration_minutes", Message: "must be positive"}
	}
	if rule == nil || !rule.IsAvailable {
		return &model.ValidationError{Field: "date", Message: "provider does not work that day"}
	}
	cand := Interval{Start: start, End: start + duration}
	if cand.Start < rule.StartMinute || cand.End > rule.EndMinute {
		return &model.ValidationError{Field: "start_time", Message: "outside working hours"}
	}
	if s, e, ok := rule.Break(); ok && Overlaps(cand, Interval{Start: s, End: e}) {
		return &model.ValidationError{Field: "start_time", Message: "overlaps the break"}
	}
	for _, b := range blocked {
		if Overlaps(cand, Interval{Start: b.StartMinute, End: b.EndMinute}) {
			return &model.ValidationError{Field: "start_time", Message: "falls in a blocked interval"}
		}
	}
	return nil
}

func overlapsAny(iv Interval, others []Interval) bool {
	for _, o := range others {
		if Overlaps(iv, o) {
			return true
		}
	}
	return false
}
