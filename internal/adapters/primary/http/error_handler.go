package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/lorrc/ticket-reports/internal/core/errors"
)

// ErrorResponse is the standard JSON error response format
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ValidationErrorResponse includes field-level validation errors
type ValidationErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler with the given logger
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle processes an error and writes the appropriate HTTP response
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	// Check for AppError first (our custom error type)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		h.logError(r, appErr.StatusCode, appErr.Err)
		h.writeErrorResponse(w, appErr.StatusCode, ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		})
		return
	}

	// Check for ValidationErrors
	var validationErrs *apperrors.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.logError(r, http.StatusUnprocessableEntity, err)
		h.writeValidationErrorResponse(w, validationErrs)
		return
	}

	// Map known domain errors to HTTP responses
	statusCode, response := h.mapDomainError(err)
	h.logError(r, statusCode, err)
	h.writeErrorResponse(w, statusCode, response)
}

// mapDomainError converts domain errors to HTTP status codes and responses
func (h *ErrorHandler) mapDomainError(err error) (int, ErrorResponse) {
	switch {
	// Data backend
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error: "The ticket data backend is not configured",
			Code:  "BACKEND_UNAVAILABLE",
		}
	case errors.Is(err, apperrors.ErrBackendRequest):
		return http.StatusBadGateway, ErrorResponse{
			Error: "The ticket data backend could not be reached",
			Code:  "BACKEND_ERROR",
		}

	// Request errors
	case errors.Is(err, apperrors.ErrSessionRequired):
		return http.StatusBadRequest, ErrorResponse{
			Error: "A report session is required",
			Code:  "SESSION_REQUIRED",
		}
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "BAD_REQUEST",
		}

	// Default to internal server error
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "An unexpected error occurred",
			Code:  "INTERNAL_ERROR",
		}
	}
}

// logError logs the error with appropriate context
func (h *ErrorHandler) logError(r *http.Request, statusCode int, err error) {
	logAttrs := []any{
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", statusCode,
		"error", err.Error(),
	}

	// Log at different levels based on status code
	switch {
	case statusCode >= 500:
		h.logger.ErrorContext(r.Context(), "server error", logAttrs...)
	case statusCode >= 400:
		h.logger.WarnContext(r.Context(), "client error", logAttrs...)
	default:
		h.logger.InfoContext(r.Context(), "request error", logAttrs...)
	}
}

// writeErrorResponse writes a JSON error response
func (h *ErrorHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// writeValidationErrorResponse writes a validation error response
func (h *ErrorHandler) writeValidationErrorResponse(w http.ResponseWriter, errs *apperrors.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_ERROR",
		Fields: errs.Errors,
	})
}

// HandleError Helper function to handle errors inline in handlers
// Usage: if HandleError(w, r, err, h.errorHandler) { return }
func HandleError(w http.ResponseWriter, r *http.Request, err error, handler *ErrorHandler) bool {
	if err != nil {
		handler.Handle(w, r, err)
		return true
	}
	return false
}
