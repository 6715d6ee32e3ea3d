package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal statuses have no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Booking is a reserved span of a provider's day. ServiceName, DurationMinutes and Price
// are copied from the service at creation and never follow later catalog edits.
type Booking struct {
	ID                 string
	ProviderID         string
	CustomerID         string
	ServiceID          string
	ServiceName        string
	Date               Date
	StartMinute        int
	DurationMinutes    int
	Price              decimal.Decimal
	Status             Status
	CancellationReason string
	Notes              string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (b Booking) EndMinute() int {
	return b.StartMinute + b.DurationMinutes
}

// Active reports whether the booking still occupies its slot.
func (b Booking) Active() bool {
	return b.Status != StatusCancelled
}
