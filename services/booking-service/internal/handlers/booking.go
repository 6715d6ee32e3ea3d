package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/lifecycle"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type BookingManager interface {
	CreateBooking(ctx context.Context, req lifecycle.CreateRequest) (model.Booking, error)
	RescheduleBooking(ctx context.Context, bookingID string, newDate model.Date, newStart int, actor model.Actor) (model.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, newStatus model.Status, actor model.Actor) (model.Booking, error)
	CancelBooking(ctx context.Context, bookingID, reason string, actor model.Actor) (model.Booking, error)
	DetectConflicts(ctx context.Context, providerID string, date model.Date, start, duration int, excludeID string) ([]model.Booking, error)
}

type ScheduleReader interface {
	GetAvailableSlots(ctx context.Context, providerID string, date model.Date, durationMinutes int) ([]model.TimeSlot, error)
	GetDaySchedule(ctx context.Context, providerID string, date model.Date) (model.DaySchedule, error)
	ListBookings(ctx context.Context, providerID string, date model.Date) ([]model.Booking, error)
}

type ServiceGetter interface {
	GetService(ctx context.Context, id string) (model.Service, error)
}

type BookingHandler struct {
	manager  BookingManager
	schedule ScheduleReader
	services ServiceGetter
	logger   *slog.Logger
}

func NewBookingHandler(manager BookingManager, schedule ScheduleReader, services ServiceGetter, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{manager: manager, schedule: schedule, services: services, logger: logger}
}

type createBookingRequest struct {
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id"`
	// CustomerID is only honoured for admins booking on behalf of a customer.
	CustomerID string `json:"customer_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	Notes      string `json:"notes"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	start, err := model.ParseClock("start_time", req.StartTime)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	customerID := strings.TrimSpace(req.CustomerID)
	if actor.Role == model.RoleCustomer {
		customerID = actor.UserID
	}

	b, err := h.manager.CreateBooking(r.Context(), lifecycle.CreateRequest{
		ProviderID:     strings.TrimSpace(req.ProviderID),
		CustomerID:     customerID,
		ServiceID:      strings.TrimSpace(req.ServiceID),
		Date:           date,
		StartMinute:    start,
		Notes:          req.Notes,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
		Actor:          actor,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookingItem(b))
}

type rescheduleRequest struct {
	BookingID string `json:"booking_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req rescheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if strings.TrimSpace(req.BookingID) == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "booking_id", Message: "is required"})
		return
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	start, err := model.ParseClock("start_time", req.StartTime)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	b, err := h.manager.RescheduleBooking(r.Context(), strings.TrimSpace(req.BookingID), date, start, actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(b))
}

type statusRequest struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	status := model.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		writeError(w, r, h.logger, &model.ValidationError{Field: "status", Message: "unknown status"})
		return
	}

	b, err := h.manager.UpdateBookingStatus(r.Context(), strings.TrimSpace(req.BookingID), status, actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(b))
}

type cancelRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	b, err := h.manager.CancelBooking(r.Context(), strings.TrimSpace(req.BookingID), strings.TrimSpace(req.Reason), actor)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(b))
}

// providerDay reads provider_id and date and checks the actor may see that calendar.
func (h *BookingHandler) providerDay(w http.ResponseWriter, r *http.Request) (string, model.Date, bool) {
	providerID := queryString(r, "provider_id")
	if providerID == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "provider_id", Message: "is required"})
		return "", model.Date{}, false
	}
	date, err := model.ParseDate(queryString(r, "date"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return "", model.Date{}, false
	}
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return "", model.Date{}, false
	}
	if !actor.CanManageProvider(providerID) {
		writeError(w, r, h.logger, &model.AuthorizationError{Role: actor.Role, Action: "view schedule", Reason: "not this provider's calendar"})
		return "", model.Date{}, false
	}
	return providerID, date, true
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	providerID, date, ok := h.providerDay(w, r)
	if !ok {
		return
	}

	bookings, err := h.schedule.ListBookings(r.Context(), providerID, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toBookingItems(bookings)})
}

func (h *BookingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	providerID, date, ok := h.providerDay(w, r)
	if !ok {
		return
	}

	day, err := h.schedule.GetDaySchedule(r.Context(), providerID, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toDaySchedule(day))
}

// Conflicts reports which active bookings a candidate window would overlap.
// Query: provider_id, date, start_time, duration_minutes, exclude_booking_id (optional).
func (h *BookingHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	providerID, date, ok := h.providerDay(w, r)
	if !ok {
		return
	}
	start, err := model.ParseClock("start_time", queryString(r, "start_time"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	duration, err := queryInt("duration_minutes", queryString(r, "duration_minutes"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	conflicts, err := h.manager.DetectConflicts(r.Context(), providerID, date, start, duration, queryString(r, "exclude_booking_id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_conflict": len(conflicts) > 0,
		"items":        toBookingItems(conflicts),
	})
}

// Slots lists bookable start times. The duration comes from service_id, or from
// duration_minutes when no service is given.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	providerID := queryString(r, "provider_id")
	if providerID == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "provider_id", Message: "is required"})
		return
	}
	date, err := model.ParseDate(queryString(r, "date"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var duration int
	if serviceID := queryString(r, "service_id"); serviceID != "" {
		svc, err := h.services.GetService(r.Context(), serviceID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if svc.ProviderID != providerID || !svc.Active {
			writeError(w, r, h.logger, &model.NotFoundError{Kind: "service", ID: serviceID})
			return
		}
		duration = svc.DurationMinutes
	} else {
		duration, err = queryInt("duration_minutes", queryString(r, "duration_minutes"))
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	slots, err := h.schedule.GetAvailableSlots(r.Context(), providerID, date, duration)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	onlyAvailable := strings.EqualFold(queryString(r, "available"), "true")
	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		if onlyAvailable && !s.Available {
			continue
		}
		items = append(items, slotItem{
			StartTime: model.FormatClock(s.StartMinute),
			EndTime:   model.FormatClock(s.StartMinute + duration),
			Available: s.Available,
			Reason:    s.Reason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider_id":      providerID,
		"date":             date.String(),
		"duration_minutes": duration,
		"slots":            items,
	})
}
