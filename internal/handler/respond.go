// Package handler exposes the record store over HTTP.
package handler

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"recordstore/internal/database"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

// writeError maps store errors onto HTTP statuses and emits a JSON
// error body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrConstraint):
		status = http.StatusConflict
	case errors.Is(err, database.ErrInvalidColumn):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrSessionClosed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeBadRequest reports a malformed request without a store error.
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
