package utils

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/username/finanzas/backend/src/logger"
)

// WriteJSON writes a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L.Error("encoding JSON response", "error", err)
	}
}

// SendJSONError sends a JSON formatted error response.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if logger.L != nil {
		logger.L.Warn("Sending JSON error to client", "message", message, "statusCode", statusCode)
	}
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// SendValidationError sends a 4xx body carrying the offending field.
func SendValidationError(w http.ResponseWriter, field, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": "validation_failed",
		"details": map[string]string{
			"field":   field,
			"message": message,
		},
	})
}

// SendServerError hides the internal error behind a correlation id that
// is also logged, so a report from a user can be matched to the log line.
func SendServerError(w http.ResponseWriter, err error) {
	correlationID := uuid.NewString()
	logger.L.Error("internal server error", "correlationID", correlationID, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"error":          "internal_server_error",
		"correlation_id": correlationID,
	})
}
