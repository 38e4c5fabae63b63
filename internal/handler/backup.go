package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostfold/hostfold/internal/backup"
	"github.com/hostfold/hostfold/internal/store"
	"github.com/hostfold/hostfold/internal/websocket"
)

type BackupHandler struct {
	svc     *backup.Service
	backups *store.BackupStore
	dbPath  string
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewBackupHandler(svc *backup.Service, bs *store.BackupStore, dbPath string, hub *websocket.Hub, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{svc: svc, backups: bs, dbPath: dbPath, hub: hub, logger: logger}
}

// List handles GET /api/backups
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.backups.List()
	if err != nil {
		h.logger.Error("list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Now handles POST /api/backups/now
func (h *BackupHandler) Now(w http.ResponseWriter, r *http.Request) {
	record, err := h.svc.RunNow(r.Context())
	if errors.Is(err, backup.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "backups not configured")
		return
	}
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeError(w, http.StatusInternalServerError, "backup failed")
		return
	}

	h.hub.Broadcast(websocket.NewEvent("backup_completed", "backup", record.ID, map[string]any{
		"key":   record.ObjectKey,
		"bytes": record.SizeBytes,
	}))
	writeJSON(w, http.StatusCreated, record)
}

type restoreRequest struct {
	ObjectKey string `json:"object_key"`
}

// Restore handles POST /api/backups/restore. The snapshot is decrypted
// next to the live database, never over it; an operator swaps files
// after stopping the server.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ObjectKey == "" {
		writeError(w, http.StatusBadRequest, "object_key is required")
		return
	}

	dst := fmt.Sprintf("%s.restored-%s", h.dbPath, time.Now().UTC().Format("20060102T150405Z"))
	if err := h.svc.Restore(r.Context(), req.ObjectKey, dst); err != nil {
		if errors.Is(err, backup.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "backups not configured")
			return
		}
		h.logger.Error("restore backup", "key", req.ObjectKey, "error", err)
		writeError(w, http.StatusInternalServerError, "restore failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"restored_to": dst})
}
