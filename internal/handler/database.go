package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hostfold/hostfold/internal/provision"
)

type DatabaseHandler struct {
	svc    *provision.Service
	logger *slog.Logger
}

func NewDatabaseHandler(svc *provision.Service, logger *slog.Logger) *DatabaseHandler {
	return &DatabaseHandler{svc: svc, logger: logger}
}

type createDatabaseRequest struct {
	CustomerEmail string `json:"customer_email"`
	Name          string `json:"name"`
}

// Create handles POST /api/databases
func (h *DatabaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.CustomerEmail == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "customer_email and name are required")
		return
	}

	db, err := h.svc.CreateDatabase(r.Context(), req.CustomerEmail, req.Name, actorFromContext(r))
	if err != nil {
		h.logger.Error("create database", "email", req.CustomerEmail, "error", err)
		writeServiceError(w, err)
		return
	}

	// The generated password is returned exactly once, on creation.
	writeJSON(w, http.StatusCreated, map[string]any{
		"database": db,
		"password": db.Password,
	})
}
