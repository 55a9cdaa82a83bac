package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pantryos/backend/internal/core"
)

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

// writeError maps a core error to its HTTP rendering. Household
// mismatches render as plain not-found so ids cannot be probed.
func writeError(w http.ResponseWriter, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
		return
	}
	switch ce.Kind {
	case core.ErrInvalidRequest:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "invalid_request",
			"issues": ce.Issues,
		})
	case core.ErrNotFound, core.ErrHouseholdMismatch:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	case core.ErrUnauthorized:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case core.ErrConflict:
		writeJSON(w, http.StatusConflict, map[string]string{
			"error":   "conflict",
			"message": ce.Message,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": string(ce.Kind)})
	}
}

// decode parses a JSON body, surfacing malformed payloads as
// invalid_request.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, core.Invalidf("body", "malformed JSON: %v", err))
		return false
	}
	return true
}
