package model

import "github.com/shopspring/decimal"

// Reasons attached to unavailable slots.
const (
	ReasonExceedsWorkingHours = "exceeds_working_hours"
	ReasonBreak               = "break"
	ReasonBlocked             = "blocked"
	ReasonBooked              = "booked"
)

type TimeSlot struct {
	StartMinute int
	Available   bool
	Reason      string
}

// ScheduleSlot is one row of the day view.
type ScheduleSlot struct {
	TimeSlot
	EndMinute     int
	Booking       *Booking
	BlockedReason string
}

type DaySchedule struct {
	ProviderID    string
	Date          Date
	Working       bool
	Slots         []ScheduleSlot
	Bookings      []Booking
	TotalBookings int
	Revenue       decimal.Decimal
}
