package websocket

import (
	"encoding/json"
	"errors"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
)

// Message types sent by the viewer.
const (
	MessageSetFilters   = "SET_FILTERS"
	MessageResetFilters = "RESET_FILTERS"
	MessageRefresh      = "REFRESH"
	MessagePing         = "PING"
)

// Message types sent to the viewer.
const (
	MessageReport  = "REPORT"
	MessageFilters = "FILTERS"
	MessageError   = "ERROR"
	MessagePong    = "PONG"
)

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the structure for messages sent to the client.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// FiltersPayload carries the session's filter state.
type FiltersPayload struct {
	SessionID string               `json:"sessionId"`
	Filters   domain.ReportFilters `json:"filters"`
	IsDefault bool                 `json:"isDefault"`
}

// ErrorPayload describes a failed request.
type ErrorPayload struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

func errorMessage(err error) ServerMessage {
	payload := ErrorPayload{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}

	var validationErrs *apperrors.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		payload = ErrorPayload{Code: "VALIDATION_ERROR", Message: "Validation failed", Fields: validationErrs.Errors}
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		payload = ErrorPayload{Code: "BACKEND_UNAVAILABLE", Message: "The ticket data backend is not configured"}
	case errors.Is(err, apperrors.ErrBackendRequest):
		payload = ErrorPayload{Code: "BACKEND_ERROR", Message: "The ticket data backend could not be reached"}
	case errors.Is(err, apperrors.ErrBadRequest):
		payload = ErrorPayload{Code: "BAD_REQUEST", Message: err.Error()}
	}

	return ServerMessage{Type: MessageError, Payload: payload}
}
