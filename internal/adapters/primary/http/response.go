package http

import (
	"encoding/json"
	"net/http"
)

// SuccessResponse wraps a successful response
type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The header has already been sent, so an encoding error cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteAccepted writes an accepted response with a message
func WriteAccepted(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusAccepted, SuccessResponse{Message: message})
}
