package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Provider struct {
	ID       string
	Name     string
	Timezone string
	Active   bool
}

// Location falls back to UTC for an unknown zone name.
func (p Provider) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Service struct {
	ID              string
	ProviderID      string
	Name            string
	DurationMinutes int
	Price           decimal.Decimal
	Active          bool
}

// WorkingHoursRule is the opening window for one weekday, with an optional break.
type WorkingHoursRule struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	IsAvailable bool
	BreakStart  *int
	BreakEnd    *int
}

// Break returns the break window, if both ends are set and form a non-empty range.
func (r WorkingHoursRule) Break() (start, end int, ok bool) {
	if r.BreakStart == nil || r.BreakEnd == nil || *r.BreakEnd <= *r.BreakStart {
		return 0, 0, false
	}
	return *r.BreakStart, *r.BreakEnd, true
}

func (r WorkingHoursRule) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return &ValidationError{Field: "day_of_week", Message: "must be 0..6"}
	}
	if r.StartMinute < 0 || r.EndMinute > MinutesPerDay || r.StartMinute >= r.EndMinute {
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	if (r.BreakStart == nil) != (r.BreakEnd == nil) {
		return &ValidationError{Field: "break_end", Message: "break needs both start and end"}
	}
	if s, e, ok := r.Break(); ok {
		if s < r.StartMinute || e > r.EndMinute {
			return &ValidationError{Field: "break_start", Message: "break must lie inside working hours"}
		}
	} else if r.BreakStart != nil {
		return &ValidationError{Field: "break_end", Message: "must be after break_start"}
	}
	return nil
}

// BlockedInterval closes [StartMinute, EndMinute) on Date independently of any booking.
type BlockedInterval struct {
	ID          string
	ProviderID  string
	Date        Date
	StartMinute int
	EndMinute   int
	Reason      string
}

func (b BlockedInterval) Validate() error {
	if b.StartMinute < 0 || b.EndMinute > MinutesPerDay || b.StartMinute >= b.EndMinute {
		return &ValidationError{Field: "end_time", Message: "must be after start_time"}
	}
	return nil
}
