package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rowanhart/tasknest/internal/engine"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	sanitized := message
	if len(sanitized) > 200 {
		sanitized = sanitized[:200] + "..."
	}
	return sanitized
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	sanitizedMessage := sanitizeErrorMessage(message)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizedMessage,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondEngineError maps engine error types to HTTP statuses. Store-side
// failures surface as 502 so clients can distinguish "you sent garbage" from
// "the backend is down".
func respondEngineError(w http.ResponseWriter, err error) {
	var validationErr *engine.ValidationError
	var notFoundErr *engine.NotFoundError
	var persistenceErr *engine.PersistenceError
	var loadErr *engine.LoadError

	switch {
	case errors.As(err, &validationErr):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validationErr.Error())
	case errors.As(err, &notFoundErr):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
	case errors.As(err, &persistenceErr):
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to persist change")
	case errors.As(err, &loadErr):
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to load tasks")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Unexpected error")
	}
}
