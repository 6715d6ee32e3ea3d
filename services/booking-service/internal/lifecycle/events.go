package lifecycle

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

type bookingEvent struct {
	BookingID         string    `json:"booking_id"`
	ProviderID        string    `json:"provider_id"`
	CustomerID        string    `json:"customer_id"`
	ServiceID         string    `json:"service_id"`
	Date              string    `json:"date"`
	StartTime         string    `json:"start_time"`
	DurationMinutes   int       `json:"duration_minutes"`
	Price             string    `json:"price"`
	Status            string    `json:"status"`
	PreviousStatus    string    `json:"previous_status,omitempty"`
	PreviousDate      string    `json:"previous_date,omitempty"`
	PreviousStartTime string    `json:"previous_start_time,omitempty"`
	Reason            string    `json:"reason,omitempty"`
	ActorID           string    `json:"actor_id"`
	ActorRole         string    `json:"actor_role"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func newBookingEvent(eventType string, b model.Booking, actor model.Actor, prev *model.Booking) (outbox.Event, error) {
	body := bookingEvent{
		BookingID:       b.ID,
		ProviderID:      b.ProviderID,
		CustomerID:      b.CustomerID,
		ServiceID:       b.ServiceID,
		Date:            b.Date.String(),
		StartTime:       model.FormatClock(b.StartMinute),
		DurationMinutes: b.DurationMinutes,
		Price:           b.Price.StringFixed(2),
		Status:          string(b.Status),
		Reason:          b.CancellationReason,
		ActorID:         actor.UserID,
		ActorRole:       string(actor.Role),
		OccurredAt:      b.UpdatedAt,
	}
	if prev != nil {
		if prev.Status != b.Status {
			body.PreviousStatus = string(prev.Status)
		}
		if prev.Date != b.Date || prev.StartMinute != b.StartMinute {
			body.PreviousDate = prev.Date.String()
			body.PreviousStartTime = model.FormatClock(prev.StartMinute)
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return outbox.Event{}, err
	}
	return outbox.Event{
		AggregateType: outbox.AggregateBooking,
		AggregateID:   b.ID,
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
