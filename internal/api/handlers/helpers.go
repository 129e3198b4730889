package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pulseai/pulseai/internal/api/middleware"
	"github.com/pulseai/pulseai/internal/pkg/errors"
	"github.com/pulseai/pulseai/internal/pkg/logger"
	"github.com/pulseai/pulseai/internal/pkg/utils"
)

// Request bodies are small JSON documents; anything larger is rejected
const maxBodyBytes = 1 << 20

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, data)
}

// respondError writes err using its AppError status. Errors that are not
// AppErrors are logged and reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("Internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.With("request_id", middleware.GetRequestID(r)).ErrorWithErr(err, appErr.Message)
	}
	utils.WriteError(w, appErr)
}

// readBody reads a bounded request body
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Validation("Invalid request body")
	}
	return body, nil
}

// decodeJSON decodes a request body into dst
func decodeJSON(data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Validation("Invalid request body")
	}
	return nil
}

// resolveUserID prefers an explicit id and falls back to the bearer token
func resolveUserID(r *http.Request, explicit int64) int64 {
	if explicit > 0 {
		return explicit
	}
	if id, ok := middleware.GetUserID(r); ok {
		return id
	}
	return 0
}
