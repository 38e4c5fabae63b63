package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/hostfold/hostfold/internal/billing"
	"github.com/hostfold/hostfold/internal/hestia"
	"github.com/hostfold/hostfold/internal/provision"
	"github.com/hostfold/hostfold/internal/suspend"
)

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto HTTP status codes. Panel
// failures surface as 502 so callers can distinguish "we refused" from
// "the panel did".
func writeServiceError(w http.ResponseWriter, err error) {
	var quota *provision.QuotaError
	var cmdErr *hestia.CommandError

	switch {
	case errors.Is(err, suspend.ErrCustomerNotFound),
		errors.Is(err, billing.ErrCustomerNotFound),
		errors.Is(err, provision.ErrCustomerNotFound),
		errors.Is(err, provision.ErrWebsiteNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, billing.ErrMonthsOutOfRange),
		errors.Is(err, provision.ErrInvalidName),
		errors.Is(err, provision.ErrInvalidDomain):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, provision.ErrSubdomainTaken),
		errors.Is(err, provision.ErrDomainTaken),
		errors.Is(err, provision.ErrDatabaseExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &quota):
		writeError(w, http.StatusUnprocessableEntity, quota.Error())
	case errors.Is(err, hestia.ErrTransport):
		writeError(w, http.StatusBadGateway, "control panel unreachable")
	case errors.As(err, &cmdErr):
		if cmdErr.Forbidden() {
			writeError(w, http.StatusBadGateway,
				cmdErr.Error()+": verify the panel API credentials and whitelist this server's IP in the panel")
			return
		}
		writeError(w, http.StatusBadGateway, cmdErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
