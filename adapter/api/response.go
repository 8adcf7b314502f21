package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	bookingDomain "github.com/felixgeelhaar/spabook/internal/booking/domain"
	calendarDomain "github.com/felixgeelhaar/spabook/internal/calendar/domain"
	catalogDomain "github.com/felixgeelhaar/spabook/internal/catalog/domain"
	"github.com/felixgeelhaar/spabook/internal/shared/infrastructure/database"
)

// Envelope is the body of every response.
type Envelope struct {
	Success   bool              `json:"success"`
	Data      any               `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Code      string            `json:"code,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	Details   map[string]string `json:"details,omitempty"`

	// Estado qualifies an availability response.
	Estado string `json:"estado,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`

	Details map[string]string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common API errors
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "solicitud inválida",
	}
	ErrUnauthorized = &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "unauthorized",
		Message: "no autorizado",
	}
	ErrRateLimited = &APIError{
		Status:  http.StatusTooManyRequests,
		Code:    "rate_limited",
		Message: "demasiadas solicitudes, intente más tarde",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "error interno del servidor",
	}
)

// badRequest builds a 400 with a specific message.
func badRequest(message string, details map[string]string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "validation_error",
		Message: message,
		Details: details,
	}
}

// errorMapping binds a sentinel error to its HTTP rendering.
type errorMapping struct {
	target    error
	status    int
	code      string
	message   string
	retryable bool
}

var errorMappings = []errorMapping{
	{bookingDomain.ErrSlotNoLongerAvailable, http.StatusConflict, "slot_no_longer_available", "el horario ya no está disponible, elija otro", true},
	{bookingDomain.ErrSlotBlocked, http.StatusConflict, "slot_blocked", "el horario está bloqueado", false},
	{bookingDomain.ErrSlotUnavailable, http.StatusUnprocessableEntity, "slot_unavailable", "el horario no se puede reservar", false},
	{bookingDomain.ErrIdempotencyKeyReused, http.StatusUnprocessableEntity, "idempotency_key_reused", "la clave de idempotencia pertenece a otra reserva", false},
	{bookingDomain.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "cambio de estado no permitido", false},
	{bookingDomain.ErrVersionConflict, http.StatusConflict, "version_conflict", "la reserva fue modificada, intente de nuevo", true},
	{bookingDomain.ErrBookingNotFound, http.StatusNotFound, "booking_not_found", "reserva no encontrada", false},
	{bookingDomain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status", "estado desconocido", false},
	{bookingDomain.ErrCustomerNameRequired, http.StatusBadRequest, "validation_error", "el nombre es obligatorio", false},
	{bookingDomain.ErrContactRequired, http.StatusBadRequest, "validation_error", "se requiere email o teléfono", false},
	{bookingDomain.ErrInvalidEmail, http.StatusBadRequest, "validation_error", "email inválido", false},
	{catalogDomain.ErrServiceNotFound, http.StatusNotFound, "service_not_found", "servicio no encontrado", false},
	{catalogDomain.ErrServiceInactive, http.StatusUnprocessableEntity, "service_inactive", "el servicio no está disponible", false},
	{calendarDomain.ErrAlreadyBlocked, http.StatusConflict, "already_blocked", "el día ya está bloqueado", false},
	{calendarDomain.ErrOverlap, http.StatusConflict, "overlap", "el rango se superpone con otro bloqueo", false},
	{calendarDomain.ErrInvalidRange, http.StatusBadRequest, "invalid_range", "rango horario inválido", false},
	{calendarDomain.ErrNotFound, http.StatusNotFound, "not_found", "bloqueo no encontrado", false},
	{database.ErrConnection, http.StatusServiceUnavailable, "unavailable", "servicio temporalmente no disponible", true},
}

// toAPIError maps application errors onto their HTTP rendering. Unknown
// errors become 500s.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return &APIError{Status: m.status, Code: m.code, Message: m.message, Retryable: m.retryable}
		}
	}
	return ErrInternalServer
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// writeError renders err and logs it when the server is at fault.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	if apiErr.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, apiErr.Status, Envelope{
		Error:     apiErr.Message,
		Code:      apiErr.Code,
		Retryable: apiErr.Retryable,
		Details:   apiErr.Details,
	})
}
