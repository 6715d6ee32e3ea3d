package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type errorResponse struct {
	Error     string          `json:"error"`
	Field     string          `json:"field,omitempty"`
	Conflicts []conflictEntry `json:"conflicts,omitempty"`
}

type conflictEntry struct {
	BookingID string `json:"booking_id,omitempty"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps domain errors to status codes. Anything unrecognised is logged and
// reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		validation    *model.ValidationError
		authorization *model.AuthorizationError
		notFound      *model.NotFoundError
		conflict      *model.ConflictError
		transition    *model.TransitionError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error(), Field: validation.Field})
	case errors.As(err, &authorization):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: authorization.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.As(err, &conflict):
		// Customers only learn which windows are taken, not whose bookings fill them.
		actor, _ := ActorFromContext(r.Context())
		staffView := actor.Role == model.RoleProvider || actor.Role == model.RoleAdmin
		resp := errorResponse{Error: "time slot already booked", Conflicts: []conflictEntry{}}
		for _, b := range conflict.Conflicts {
			entry := conflictEntry{
				StartTime: model.FormatClock(b.StartMinute),
				EndTime:   model.FormatClock(b.EndMinute()),
			}
			if staffView {
				entry.BookingID = b.ID
				entry.Status = string(b.Status)
			}
			resp.Conflicts = append(resp.Conflicts, entry)
		}
		writeJSON(w, http.StatusConflict, resp)
	case errors.As(err, &transition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: transition.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "request timed out"})
	default:
		logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &model.ValidationError{Message: "invalid json body"}
	}
	return nil
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
