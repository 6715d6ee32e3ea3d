package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type CatalogStore interface {
	GetProvider(ctx context.Context, id string) (model.Provider, error)
	CreateProvider(ctx context.Context, p model.Provider) (model.Provider, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	ListServices(ctx context.Context, providerID string) ([]model.Service, error)
	UpsertService(ctx context.Context, svc model.Service) (model.Service, error)
	ListWorkingHours(ctx context.Context, providerID string) ([]model.WorkingHoursRule, error)
	ReplaceWorkingHours(ctx context.Context, providerID string, rules []model.WorkingHoursRule) error
	ListBlockedIntervals(ctx context.Context, providerID string, date model.Date) ([]model.BlockedInterval, error)
	CreateBlockedInterval(ctx context.Context, b model.BlockedInterval) (model.BlockedInterval, error)
	DeleteBlockedInterval(ctx context.Context, providerID, id string) error
}

type CatalogHandler struct {
	store CatalogStore
	// blockSlot is the length of a blocked interval created without an end time.
	blockSlot int
	logger    *slog.Logger
}

func NewCatalogHandler(store CatalogStore, blockSlotMinutes int, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, blockSlot: blockSlotMinutes, logger: logger}
}

// manages checks the caller against providerID and writes the error response when denied.
func (h *CatalogHandler) manages(w http.ResponseWriter, r *http.Request, providerID, action string) bool {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return false
	}
	if providerID == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "provider_id", Message: "is required"})
		return false
	}
	if !actor.CanManageProvider(providerID) {
		writeError(w, r, h.logger, &model.AuthorizationError{Role: actor.Role, Action: action, Reason: "not this provider's calendar"})
		return false
	}
	return true
}

type createProviderRequest struct {
	ProviderID string `json:"provider_id"`
	Name       string `json:"name"`
	Timezone   string `json:"timezone"`
}

// CreateProvider is admin-only; the route applies RequireRole.
func (h *CatalogHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req createProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "name", Message: "is required"})
		return
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		writeError(w, r, h.logger, &model.ValidationError{Field: "timezone", Message: "unknown IANA zone"})
		return
	}

	p, err := h.store.CreateProvider(r.Context(), model.Provider{
		ID:       strings.TrimSpace(req.ProviderID),
		Name:     name,
		Timezone: tz,
		Active:   true,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"provider_id": p.ID,
		"name":        p.Name,
		"timezone":    p.Timezone,
		"active":      p.Active,
	})
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	providerID := queryString(r, "provider_id")
	if providerID == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "provider_id", Message: "is required"})
		return
	}
	services, err := h.store.ListServices(r.Context(), providerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, toServiceItem(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type upsertServiceRequest struct {
	ServiceID       string `json:"service_id"`
	ProviderID      string `json:"provider_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	Active          *bool  `json:"active"`
}

func (h *CatalogHandler) UpsertService(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req upsertServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if !h.manages(w, r, providerID, "edit services") {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "name", Message: "is required"})
		return
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > model.MinutesPerDay {
		writeError(w, r, h.logger, &model.ValidationError{Field: "duration_minutes", Message: "must be between 1 and 1440"})
		return
	}
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() {
		writeError(w, r, h.logger, &model.ValidationError{Field: "price", Message: "must be a non-negative decimal"})
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	svc, err := h.store.UpsertService(r.Context(), model.Service{
		ID:              strings.TrimSpace(req.ServiceID),
		ProviderID:      providerID,
		Name:            name,
		DurationMinutes: req.DurationMinutes,
		Price:           price.Round(2),
		Active:          active,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toServiceItem(svc))
}

func (h *CatalogHandler) WorkingHours(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listWorkingHours(w, r)
	case http.MethodPut:
		h.replaceWorkingHours(w, r)
	default:
		w.Header().Set("Allow", "GET, PUT")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) listWorkingHours(w http.ResponseWriter, r *http.Request) {
	providerID := queryString(r, "provider_id")
	if providerID == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "provider_id", Message: "is required"})
		return
	}
	rules, err := h.store.ListWorkingHours(r.Context(), providerID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	items := make([]workingHoursItem, 0, len(rules))
	for _, rule := range rules {
		items = append(items, toWorkingHoursItem(rule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider_id": providerID, "rules": items})
}

type replaceWorkingHoursRequest struct {
	ProviderID string             `json:"provider_id"`
	Rules      []workingHoursItem `json:"rules"`
}

// replaceWorkingHours swaps the whole weekly template. Weekdays left out are closed.
func (h *CatalogHandler) replaceWorkingHours(w http.ResponseWriter, r *http.Request) {
	var req replaceWorkingHoursRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if !h.manages(w, r, providerID, "edit working hours") {
		return
	}

	seen := map[time.Weekday]bool{}
	rules := make([]model.WorkingHoursRule, 0, len(req.Rules))
	for _, item := range req.Rules {
		rule, err := item.toRule()
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if seen[rule.Weekday] {
			writeError(w, r, h.logger, &model.ValidationError{Field: "day_of_week", Message: "appears more than once"})
			return
		}
		seen[rule.Weekday] = true
		rules = append(rules, rule)
	}

	if err := h.store.ReplaceWorkingHours(r.Context(), providerID, rules); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	items := make([]workingHoursItem, 0, len(rules))
	for _, rule := range rules {
		items = append(items, toWorkingHoursItem(rule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider_id": providerID, "rules": items})
}

func (h *CatalogHandler) BlockedIntervals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listBlockedIntervals(w, r)
	case http.MethodPost:
		h.createBlockedInterval(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) listBlockedIntervals(w http.ResponseWriter, r *http.Request) {
	providerID := queryString(r, "provider_id")
	if !h.manages(w, r, providerID, "view blocked intervals") {
		return
	}
	date, err := model.ParseDate(queryString(r, "date"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	blocked, err := h.store.ListBlockedIntervals(r.Context(), providerID, date)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	items := make([]blockedIntervalItem, 0, len(blocked))
	for _, b := range blocked {
		items = append(items, toBlockedIntervalItem(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type blockedIntervalRequest struct {
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	// EndTime defaults to one slot after StartTime.
	EndTime string `json:"end_time"`
	Reason  string `json:"reason"`
}

func (h *CatalogHandler) createBlockedInterval(w http.ResponseWriter, r *http.Request) {
	var req blockedIntervalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if !h.manages(w, r, providerID, "block time") {
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
	if start >= model.MinutesPerDay {
		writeError(w, r, h.logger, &model.ValidationError{Field: "start_time", Message: "must be before 24:00"})
		return
	}
	// Without an end time the block covers one slot, cut off at midnight.
	end := min(start+h.blockSlot, model.MinutesPerDay)
	if strings.TrimSpace(req.EndTime) != "" {
		if end, err = model.ParseClock("end_time", req.EndTime); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	b := model.BlockedInterval{
		ProviderID:  providerID,
		Date:        date,
		StartMinute: start,
		EndMinute:   end,
		Reason:      strings.TrimSpace(req.Reason),
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	b, err = h.store.CreateBlockedInterval(r.Context(), b)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlockedIntervalItem(b))
}

type deleteBlockedIntervalRequest struct {
	ProviderID        string `json:"provider_id"`
	BlockedIntervalID string `json:"blocked_interval_id"`
}

func (h *CatalogHandler) DeleteBlockedInterval(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req deleteBlockedIntervalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	providerID := strings.TrimSpace(req.ProviderID)
	if !h.manages(w, r, providerID, "unblock time") {
		return
	}
	id := strings.TrimSpace(req.BlockedIntervalID)
	if id == "" {
		writeError(w, r, h.logger, &model.ValidationError{Field: "blocked_interval_id", Message: "is required"})
		return
	}
	if err := h.store.DeleteBlockedInterval(r.Context(), providerID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
