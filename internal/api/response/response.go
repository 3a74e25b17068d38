// Package response provides helpers for writing the API's JSON responses,
// including the structured error body shared by every handler.
package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error body returned by every endpoint. Details is
// optional: handlers put validation field maps or wrapped storage errors
// there when the message alone is not enough.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON writes data as JSON with the given status code. A nil data
// writes only the status, which is how the delete endpoints send 204.
// Encoding failures are logged; by then the status line is already out.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

// RespondError writes a structured error response with the given status.
//
// Example:
//
//	response.RespondError(w, http.StatusNotFound, "position not found", nil)
//	response.RespondError(w, http.StatusBadRequest, "validation failed", validationErr.Fields)
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}
