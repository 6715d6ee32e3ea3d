package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

// Register mounts the API on mux. Routes under /api/v1/public need no token.
func Register(mux *http.ServeMux, bookings *BookingHandler, catalog *CatalogHandler, tokens TokenParser) {
	authed := func(h http.HandlerFunc) http.Handler {
		return RequireActor(h, tokens)
	}
	staff := func(h http.HandlerFunc) http.Handler {
		return RequireActor(RequireRole(h, model.RoleProvider, model.RoleAdmin), tokens)
	}

	mux.HandleFunc("/api/v1/public/slots", bookings.Slots)
	mux.HandleFunc("/api/v1/public/services", catalog.ListServices)
	mux.HandleFunc("/api/v1/public/working-hours", func(w http.ResponseWriter, r *http.Request) {
		if !requireMethod(w, r, http.MethodGet) {
			return
		}
		catalog.listWorkingHours(w, r)
	})

	mux.Handle("/api/v1/bookings", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			bookings.List(w, r)
			return
		}
		bookings.Create(w, r)
	}))
	mux.Handle("/api/v1/bookings/reschedule", authed(bookings.Reschedule))
	mux.Handle("/api/v1/bookings/status", authed(bookings.UpdateStatus))
	mux.Handle("/api/v1/bookings/cancel", authed(bookings.Cancel))
	mux.Handle("/api/v1/bookings/conflicts", staff(bookings.Conflicts))
	mux.Handle("/api/v1/schedule", staff(bookings.Schedule))

	mux.Handle("/api/v1/providers", RequireActor(RequireRole(http.HandlerFunc(catalog.CreateProvider), model.RoleAdmin), tokens))
	mux.Handle("/api/v1/providers/working-hours", staff(catalog.WorkingHours))
	mux.Handle("/api/v1/providers/blocked-intervals", staff(catalog.BlockedIntervals))
	mux.Handle("/api/v1/providers/blocked-intervals/delete", staff(catalog.DeleteBlockedInterval))
	mux.Handle("/api/v1/services", staff(catalog.UpsertService))
}
