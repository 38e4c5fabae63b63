package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v84"

	"github.com/hostfold/hostfold/internal/billing"
	stripeclient "github.com/hostfold/hostfold/internal/billing/stripe"
	"github.com/hostfold/hostfold/internal/store"
	"github.com/hostfold/hostfold/internal/websocket"
)

const maxWebhookBody = 1 << 16

type WebhookHandler struct {
	stripe    *stripeclient.Client
	customers *store.CustomerStore
	billing   *billing.Service
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewWebhookHandler(sc *stripeclient.Client, cs *store.CustomerStore, bs *billing.Service, hub *websocket.Hub, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{stripe: sc, customers: cs, billing: bs, hub: hub, logger: logger}
}

// Stripe handles POST /webhooks/stripe. Payment success extends the
// customer the same way a manual extension would, so reactivation of a
// suspended account rides on the same path.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if !h.stripe.Configured() {
		writeError(w, http.StatusServiceUnavailable, "billing webhooks not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}

	event, err := h.stripe.ConstructWebhookEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	switch event.Type {
	case "invoice.paid":
		h.invoicePaid(w, r, event)
	default:
		// Acknowledge everything else so Stripe stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	}
}

func (h *WebhookHandler) invoicePaid(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		h.logger.Error("unmarshal invoice", "error", err)
		writeError(w, http.StatusBadRequest, "malformed invoice")
		return
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		writeError(w, http.StatusBadRequest, "invoice has no customer")
		return
	}

	customer, err := h.customers.GetByStripeCustomerID(inv.Customer.ID)
	if err != nil {
		h.logger.Error("look up stripe customer", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if customer == nil {
		// Unknown mapping. Acknowledge so Stripe does not retry forever,
		// but log loudly for reconciliation.
		h.logger.Warn("webhook for unmapped stripe customer", "stripe_customer", inv.Customer.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "unmapped"})
		return
	}

	months := stripeclient.MonthsFromInvoice(&inv)
	ext, err := h.billing.Extend(r.Context(), customer.ID, months, nil)
	if err != nil {
		h.logger.Error("extend from webhook", "customer", customer.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "extension failed")
		return
	}

	h.hub.Broadcast(websocket.NewEvent("customer_extended", "customer", customer.ID, map[string]any{
		"months":      months,
		"reactivated": ext.Reactivated,
		"source":      "stripe",
	}))
	writeJSON(w, http.StatusOK, map[string]any{"status": "extended", "months": months})
}
