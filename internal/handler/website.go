package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostfold/hostfold/internal/provision"
	"github.com/hostfold/hostfold/internal/websocket"
)

type WebsiteHandler struct {
	svc    *provision.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewWebsiteHandler(svc *provision.Service, hub *websocket.Hub, logger *slog.Logger) *WebsiteHandler {
	return &WebsiteHandler{svc: svc, hub: hub, logger: logger}
}

type createWebsiteRequest struct {
	CustomerEmail string `json:"customer_email"`
	Name          string `json:"name"`
	PHPVersion    string `json:"php_version"`
	EnableSSL     bool   `json:"enable_ssl"`
}

// Create handles POST /api/websites
func (h *WebsiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createWebsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CustomerEmail == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "customer_email and name are required")
		return
	}

	website, err := h.svc.CreateWebsite(r.Context(), req.CustomerEmail, provision.CreateWebsiteRequest{
		Name:       req.Name,
		PHPVersion: req.PHPVersion,
		EnableSSL:  req.EnableSSL,
	}, actorFromContext(r))
	if err != nil {
		h.logger.Error("create website", "email", req.CustomerEmail, "error", err)
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(websocket.NewEvent("website_created", "website", website.ID, map[string]any{
		"subdomain": website.Subdomain,
		"status":    website.Status,
	}))
	writeJSON(w, http.StatusCreated, website)
}

type customDomainRequest struct {
	Domain string `json:"domain"`
}

// CustomDomain handles POST /api/websites/{id}/custom-domain
func (h *WebsiteHandler) CustomDomain(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req customDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Domain == "" {
		writeError(w, http.StatusBadRequest, "domain is required")
		return
	}

	website, err := h.svc.AttachCustomDomain(r.Context(), id, req.Domain, actorFromContext(r))
	if err != nil {
		h.logger.Error("attach custom domain", "website", id, "error", err)
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(websocket.NewEvent("domain_attached", "website", id, map[string]any{
		"domain": req.Domain,
	}))
	writeJSON(w, http.StatusOK, website)
}

// SSL handles POST /api/websites/{id}/ssl
func (h *WebsiteHandler) SSL(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	website, err := h.svc.EnableSSL(r.Context(), id, actorFromContext(r))
	if err != nil {
		h.logger.Error("enable ssl", "website", id, "error", err)
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(websocket.NewEvent("ssl_issued", "website", id, map[string]any{
		"domain": website.Domain(),
	}))
	writeJSON(w, http.StatusOK, website)
}
