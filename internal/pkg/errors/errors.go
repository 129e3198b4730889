package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is an error that knows how it should be presented to a client
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap returns the internal error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Error codes
const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeQuotaExceeded = "QUOTA_EXCEEDED"
	ErrCodeCodeExpired   = "CODE_EXPIRED"
	ErrCodeInvalidCode   = "INVALID_CODE"
	ErrCodeInvalidPlan   = "INVALID_PLAN"
	ErrCodeGateway       = "GATEWAY_ERROR"
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeMethod        = "METHOD_NOT_ALLOWED"
)

// New creates a new AppError
func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps err in an AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Internal:   err,
	}
}

// WithDetail attaches a key to the error's details
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// As returns the AppError in err's chain, if any
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

// Validation creates a 400 for a missing or malformed field
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

// QuotaExceeded is returned when neither the free tier nor a subscription
// can pay for a request
func QuotaExceeded() *AppError {
	return New(ErrCodeQuotaExceeded, "No requests left", http.StatusForbidden).
		WithDetail("needSubscription", true)
}

// CodeExpired creates an expired one-time code error
func CodeExpired() *AppError {
	return New(ErrCodeCodeExpired, "Code expired", http.StatusBadRequest)
}

// InvalidCode creates a mismatched one-time code error
func InvalidCode() *AppError {
	return New(ErrCodeInvalidCode, "Invalid code", http.StatusBadRequest)
}

// InvalidPlan creates an unknown plan type error
func InvalidPlan() *AppError {
	return New(ErrCodeInvalidPlan, "Invalid plan type", http.StatusBadRequest)
}

// Gateway wraps a failed call to an upstream provider
func Gateway(message string, err error) *AppError {
	return Wrap(err, ErrCodeGateway, message, http.StatusInternalServerError)
}

// DatabaseError wraps a store failure. The message stays generic on the wire.
func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// RateLimited creates a rate limited error
func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

// MethodNotAllowed is written for any verb a route does not serve
func MethodNotAllowed() *AppError {
	return New(ErrCodeMethod, "Method not allowed", http.StatusMethodNotAllowed)
}
