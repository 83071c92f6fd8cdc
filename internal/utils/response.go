package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/auth-gateway/internal/apperr"
	"github.com/brizzai/auth-gateway/internal/logger"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error the gateway produces itself
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, status int, message, details string) {
	WriteJSON(w, status, ErrorBody{Error: message, Details: details})
}

// WriteAppError renders err with the status of its kind; unknown errors become 500
func WriteAppError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	WriteError(w, appErr.Status, appErr.Message, appErr.Details)
}
