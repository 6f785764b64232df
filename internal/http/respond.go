package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"capify/internal/core"
	"capify/internal/upstream"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError maps controller and upstream failures onto the
// gateway's status codes. Validation failures never reach here; they
// are rejected before any upstream call.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, upstream.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, upstream.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "upstream token rejected, re-provision the token")
	case errors.Is(err, upstream.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, upstream.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "upstream unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrEmptyCategory) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidPeriod)
}
