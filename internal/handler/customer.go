package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostfold/hostfold/internal/auth"
	"github.com/hostfold/hostfold/internal/billing"
	"github.com/hostfold/hostfold/internal/store"
	"github.com/hostfold/hostfold/internal/suspend"
	"github.com/hostfold/hostfold/internal/websocket"
)

type CustomerHandler struct {
	customers *store.CustomerStore
	websites  *store.WebsiteStore
	activity  *store.ActivityStore
	suspender *suspend.Service
	billing   *billing.Service
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewCustomerHandler(
	cs *store.CustomerStore,
	ws *store.WebsiteStore,
	as *store.ActivityStore,
	suspender *suspend.Service,
	billingSvc *billing.Service,
	hub *websocket.Hub,
	logger *slog.Logger,
) *CustomerHandler {
	return &CustomerHandler{
		customers: cs,
		websites:  ws,
		activity:  as,
		suspender: suspender,
		billing:   billingSvc,
		hub:       hub,
		logger:    logger,
	}
}

// Get handles GET /api/customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	customer, err := h.customers.GetByID(id)
	if err != nil {
		h.logger.Error("get customer", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load customer")
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	websites, err := h.websites.ListByCustomer(id)
	if err != nil {
		h.logger.Error("list websites", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load websites")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customer": customer,
		"websites": websites,
	})
}

// Suspend handles POST /api/customers/{id}/suspend
func (h *CustomerHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	h.toggleSuspension(w, r, true)
}

// Unsuspend handles POST /api/customers/{id}/unsuspend
func (h *CustomerHandler) Unsuspend(w http.ResponseWriter, r *http.Request) {
	h.toggleSuspension(w, r, false)
}

func (h *CustomerHandler) toggleSuspension(w http.ResponseWriter, r *http.Request, suspending bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	actorID := actorFromContext(r)

	var result *suspend.Result
	if suspending {
		result, err = h.suspender.Suspend(r.Context(), id, actorID)
	} else {
		result, err = h.suspender.Unsuspend(r.Context(), id, actorID)
	}
	if err != nil {
		h.logger.Error("toggle suspension", "customer", id, "suspending", suspending, "error", err)
		writeServiceError(w, err)
		return
	}

	eventType := "customer_unsuspended"
	if suspending {
		eventType = "customer_suspended"
	}
	h.hub.Broadcast(websocket.NewEvent(eventType, "customer", id, map[string]any{
		"domains": len(result.Domains),
		"failed":  result.Failed(),
	}))

	status := http.StatusOK
	if result.Failed() > 0 {
		// Customer state changed but some domain steps failed.
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}

type extendRequest struct {
	Months int `json:"months"`
}

// Extend handles POST /api/customers/{id}/extend
func (h *CustomerHandler) Extend(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ext, err := h.billing.Extend(r.Context(), id, req.Months, actorFromContext(r))
	if err != nil {
		h.logger.Error("extend billing", "customer", id, "error", err)
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(websocket.NewEvent("customer_extended", "customer", id, map[string]any{
		"months":      req.Months,
		"reactivated": ext.Reactivated,
	}))
	writeJSON(w, http.StatusOK, ext)
}

// Activity handles GET /api/customers/{id}/activity
func (h *CustomerHandler) Activity(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.activity.ListByResource("customer", id)
	if err != nil {
		h.logger.Error("list activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load activity")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func actorFromContext(r *http.Request) *int64 {
	if id := auth.UserID(r.Context()); id != 0 {
		return &id
	}
	return nil
}
