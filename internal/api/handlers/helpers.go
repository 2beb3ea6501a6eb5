package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/platform/obs"

	"github.com/rs/zerolog/log"
)

// Largest request body accepted.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().
			Str("req_id", obs.RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Err(err).
			Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

type validationBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeDomainError maps service errors onto status codes: bad input is a
// 400, weather or physics failures on valid input are a 422 and anything
// else is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, r, http.StatusBadRequest, validationBody{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, domain.ErrInsufficientWaypoints):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOutOfBounds),
		errors.Is(err, domain.ErrLandPoint),
		errors.Is(err, domain.ErrStalledLeg):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		log.Error().
			Str("req_id", obs.RequestID(r.Context())).
			Str("op", op).
			Err(err).
			Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

// parseTime reads an optional RFC 3339 query parameter.
func parseTime(r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	t = t.UTC()
	return &t, true
}
