// Package handler serves the JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/homebase/internal/apperr"
)

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err == nil && id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps an apperr kind to a status code. Storage and unknown
// failures are reported without detail.
func writeAppError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		writeError(w, http.StatusBadRequest, message(err))
	case apperr.NotFound:
		writeError(w, http.StatusNotFound, message(err))
	case apperr.Forbidden:
		writeError(w, http.StatusForbidden, message(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func message(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}
