package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"spinchart/internal/app/trending"
	"spinchart/internal/app/users"
	"spinchart/internal/store"
	"spinchart/shared/go/logging"
	"spinchart/shared/go/models"
)

var (
	errInvalidPayload = errors.New("invalid JSON payload")
	errInvalidParam   = errors.New("invalid query parameter")
	errRouteNotFound  = errors.New("route not found")
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func errorBody(msg, code string) models.ErrorResponse {
	return models.ErrorResponse{Success: false, Error: msg, Code: code}
}

// writeError maps err onto a status and machine-readable code. Messages of
// server-side failures are logged and not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody(msg, code))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, trending.ErrInvalidPeriod),
		errors.Is(err, trending.ErrInvalidDate),
		errors.Is(err, users.ErrMissingCredentials),
		errors.Is(err, errInvalidPayload),
		errors.Is(err, errInvalidParam):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, store.ErrUnauthorized),
		errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, store.ErrSongNotFound),
		errors.Is(err, store.ErrSnapshotNotFound),
		errors.Is(err, errRouteNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrUserExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, trending.ErrAggregation):
		return http.StatusInternalServerError, "aggregation_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
