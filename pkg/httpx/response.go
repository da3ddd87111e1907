package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape of every response. Success responses carry
// data; error responses carry a human-readable message, optionally a list
// of per-field validation errors, and a machine-readable code when clients
// need to branch on the cause (e.g. expired vs. malformed token).
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache marks a response as uncacheable. Required for responses carrying
// tokens or other credentials.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope with just a message.
func Error(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Envelope{Success: false, Message: message})
}

// ErrorCode writes a failure envelope with a machine-readable code.
func ErrorCode(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message, Code: code})
}

// ValidationFailed writes a 400 envelope enumerating per-field errors.
func ValidationFailed(w http.ResponseWriter, message string, fieldErrors []string) {
	WriteJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: message,
		Errors:  fieldErrors,
	})
}
