package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-doorbell/internal/auth"
	"github.com/nerrad567/gray-logic-doorbell/internal/controller"
	"github.com/nerrad567/gray-logic-doorbell/internal/sensor"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeUnavailable    = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceUnavailable writes a 503 error response.
func writeServiceUnavailable(w http.ResponseWriter, message string) {
	writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// writeDomainError maps controller, sensor and auth errors to responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, controller.ErrBusy):
		writeError(w, http.StatusConflict, ErrCodeConflict, "doorbell is busy, try again")
	case errors.Is(err, controller.ErrMaintenanceTimeout):
		writeServiceUnavailable(w, "sensor not available, try again")
	case errors.Is(err, controller.ErrInvalidSlot), errors.Is(err, sensor.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, sensor.ErrSlotEmpty):
		writeNotFound(w, "fingerprint not found")
	case errors.Is(err, sensor.ErrNotConnected):
		writeServiceUnavailable(w, "sensor not connected")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenInvalid):
		writeUnauthorized(w, "invalid credentials")
	case errors.Is(err, auth.ErrLoginDisabled):
		writeServiceUnavailable(w, "admin login is disabled: set security.admin_password_hash")
	default:
		writeInternalError(w, "internal server error")
	}
}
