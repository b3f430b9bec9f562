package handler

import (
	"encoding/json"
	"net/http"

	"boxcounter/internal/dto"
	"boxcounter/internal/logger"
)

// respondJSON writes v as JSON with the given status code.
func respondJSON(w http.ResponseWriter, logger *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// respondError writes the standard failure body. message is shown to the
// client, so it never carries internal error text.
func respondError(w http.ResponseWriter, logger *logger.Logger, status int, errText, message string) {
	respondJSON(w, logger, status, dto.ErrorResponse{
		Success: false,
		Error:   errText,
		Message: message,
	})
}

// methodAllowed rejects requests not using method with 405.
func methodAllowed(w http.ResponseWriter, r *http.Request, logger *logger.Logger, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	respondError(w, logger, http.StatusMethodNotAllowed, "Method not allowed", "Use "+method)
	return false
}
