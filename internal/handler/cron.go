package handler

import (
	"log/slog"
	"net/http"

	"github.com/hostfold/hostfold/internal/expire"
	"github.com/hostfold/hostfold/internal/websocket"
)

type CronHandler struct {
	scanner *expire.Scanner
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewCronHandler(scanner *expire.Scanner, hub *websocket.Hub, logger *slog.Logger) *CronHandler {
	return &CronHandler{scanner: scanner, hub: hub, logger: logger}
}

// Expire handles POST /internal/cron/expire
func (h *CronHandler) Expire(w http.ResponseWriter, r *http.Request) {
	report, err := h.scanner.Run(r.Context())
	if err != nil {
		h.logger.Error("expiration scan", "error", err)
		writeError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	if report.Suspended > 0 || report.Failed > 0 {
		h.hub.Broadcast(websocket.NewEvent("expiration_scan", "customer", 0, map[string]any{
			"processed": report.Processed,
			"suspended": report.Suspended,
			"failed":    report.Failed,
		}))
	}
	writeJSON(w, http.StatusOK, report)
}
