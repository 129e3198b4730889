package utils

import (
	"encoding/json"
	"net/http"

	"github.com/pulseai/pulseai/internal/pkg/errors"
)

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes err as {"error": message}, merged with its details.
// Internal and database errors never expose their message text.
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	message := err.Message
	if err.StatusCode >= http.StatusInternalServerError && err.Code != errors.ErrCodeGateway {
		message = "Internal server error"
	}

	body := map[string]interface{}{"error": message}
	for k, v := range err.Details {
		if k == "error" {
			continue
		}
		body[k] = v
	}
	return WriteJSON(w, err.StatusCode, body)
}
