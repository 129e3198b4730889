package client

import "fmt"

// APIError represents an error returned by the API
type APIError struct {
	StatusCode       int    `json:"-"`
	Message          string `json:"error"`
	NeedSubscription bool   `json:"needSubscription,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsQuotaExceeded returns true when the user has no requests left and
// should buy a plan
func (e *APIError) IsQuotaExceeded() bool {
	return e.StatusCode == 403 && e.NeedSubscription
}

// IsValidationError returns true if the error is a 400 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == 400
}

// IsRateLimited returns true if the error is a 429
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
