package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type bookingItem struct {
	BookingID          string `json:"booking_id"`
	ProviderID         string `json:"provider_id"`
	CustomerID         string `json:"customer_id"`
	ServiceID          string `json:"service_id"`
	ServiceName        string `json:"service_name"`
	Date               string `json:"date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	DurationMinutes    int    `json:"duration_minutes"`
	Price              string `json:"price"`
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	Notes              string `json:"notes,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

func toBookingItem(b model.Booking) bookingItem {
	return bookingItem{
		BookingID:          b.ID,
		ProviderID:         b.ProviderID,
		CustomerID:         b.CustomerID,
		ServiceID:          b.ServiceID,
		ServiceName:        b.ServiceName,
		Date:               b.Date.String(),
		StartTime:          model.FormatClock(b.StartMinute),
		EndTime:            model.FormatClock(b.EndMinute()),
		DurationMinutes:    b.DurationMinutes,
		Price:              b.Price.StringFixed(2),
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		Notes:              b.Notes,
		CreatedAt:          b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingItems(bookings []model.Booking) []bookingItem {
	out := make([]bookingItem, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingItem(b))
	}
	return out
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type scheduleRow struct {
	StartTime     string       `json:"start_time"`
	EndTime       string       `json:"end_time"`
	Available     bool         `json:"available"`
	Reason        string       `json:"reason,omitempty"`
	BlockedReason string       `json:"blocked_reason,omitempty"`
	Booking       *bookingItem `json:"booking,omitempty"`
}

type daySchedule struct {
	ProviderID    string        `json:"provider_id"`
	Date          string        `json:"date"`
	Working       bool          `json:"working"`
	Slots         []scheduleRow `json:"slots"`
	Bookings      []bookingItem `json:"bookings"`
	TotalBookings int           `json:"total_bookings"`
	Revenue       string        `json:"revenue"`
}

func toDaySchedule(d model.DaySchedule) daySchedule {
	out := daySchedule{
		ProviderID:    d.ProviderID,
		Date:          d.Date.String(),
		Working:       d.Working,
		Slots:         make([]scheduleRow, 0, len(d.Slots)),
		Bookings:      toBookingItems(d.Bookings),
		TotalBookings: d.TotalBookings,
		Revenue:       d.Revenue.StringFixed(2),
	}
	for _, s := range d.Slots {
		row := scheduleRow{
			StartTime:     model.FormatClock(s.StartMinute),
			EndTime:       model.FormatClock(s.EndMinute),
			Available:     s.Available,
			Reason:        s.Reason,
			BlockedReason: s.BlockedReason,
		}
		if s.Booking != nil {
			item := toBookingItem(*s.Booking)
			row.Booking = &item
		}
		out.Slots = append(out.Slots, row)
	}
	return out
}

type workingHoursItem struct {
	DayOfWeek   int    `json:"day_of_week"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable bool   `json:"is_available"`
	BreakStart  string `json:"break_start,omitempty"`
	BreakEnd    string `json:"break_end,omitempty"`
}

func toWorkingHoursItem(r model.WorkingHoursRule) workingHoursItem {
	item := workingHoursItem{
		DayOfWeek:   int(r.Weekday),
		StartTime:   model.FormatClock(r.StartMinute),
		EndTime:     model.FormatClock(r.EndMinute),
		IsAvailable: r.IsAvailable,
	}
	if s, e, ok := r.Break(); ok {
		item.BreakStart = model.FormatClock(s)
		item.BreakEnd = model.FormatClock(e)
	}
	return item
}

func (i workingHoursItem) toRule() (model.WorkingHoursRule, error) {
	rule := model.WorkingHoursRule{Weekday: time.Weekday(i.DayOfWeek), IsAvailable: i.IsAvailable}
	var err error
	if rule.StartMinute, err = model.ParseClock("start_time", i.StartTime); err != nil {
		return rule, err
	}
	if rule.EndMinute, err = model.ParseClock("end_time", i.EndTime); err != nil {
		return rule, err
	}
	if i.BreakStart != "" || i.BreakEnd != "" {
		bs, err := model.ParseClock("break_start", i.BreakStart)
		if err != nil {
			return rule, err
		}
		be, err := model.ParseClock("break_end", i.BreakEnd)
		if err != nil {
			return rule, err
		}
		rule.BreakStart, rule.BreakEnd = &bs, &be
	}
	return rule, rule.Validate()
}

type serviceItem struct {
	ServiceID       string `json:"service_id"`
	ProviderID      string `json:"provider_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	Active          bool   `json:"active"`
}

func toServiceItem(s model.Service) serviceItem {
	return serviceItem{
		ServiceID:       s.ID,
		ProviderID:      s.ProviderID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price.StringFixed(2),
		Active:          s.Active,
	}
}

type blockedIntervalItem struct {
	BlockedIntervalID string `json:"blocked_interval_id"`
	ProviderID        string `json:"provider_id"`
	Date              string `json:"date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Reason            string `json:"reason,omitempty"`
}

func toBlockedIntervalItem(b model.BlockedInterval) blockedIntervalItem {
	return blockedIntervalItem{
		BlockedIntervalID: b.ID,
		ProviderID:        b.ProviderID,
		Date:              b.Date.String(),
		StartTime:         model.FormatClock(b.StartMinute),
		EndTime:           model.FormatClock(b.EndMinute),
		Reason:            b.Reason,
	}
}

func queryString(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func queryInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &model.ValidationError{Field: field, Message: "must be an integer"}
	}
	return n, nil
}
