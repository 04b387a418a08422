// Package errors provides the standardized error taxonomy surfaced to the HTTP boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeMissingProfile   ErrorCode = "MISSING_PROFILE"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	ErrCodeInternalFailure    ErrorCode = "INTERNAL_FAILURE"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeMalformedRecord    ErrorCode = "MALFORMED_RECORD"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the error after attaching a metadata key.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError reports a profile that cannot be scored.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid user profile",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidBodyError reports a request body that could not be read as JSON.
func NewInvalidBodyError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingProfileError reports a request body without a userProfile.
func NewMissingProfileError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingProfile,
		Message:   "User profile is required",
		Timestamp: time.Now().UTC(),
	}
}

func NewMethodNotAllowedError(method string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMethodNotAllowed,
		Message:   "Method not allowed",
		Details:   fmt.Sprintf("method: %s", method),
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitedError reports a client over its request ceiling.
func NewRateLimitedError(clientKey string, retryAfter time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Too many requests",
		Details:   fmt.Sprintf("client: %s", clientKey),
		Metadata:  map[string]interface{}{"retryAfterSeconds": int(retryAfter.Round(time.Second).Seconds())},
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalFailureError wraps any unexpected fault.
func NewInternalFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalFailure,
		Message:   "Internal server error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCatalogUnavailableError reports a provider that could not return a catalog.
func NewCatalogUnavailableError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogUnavailable,
		Message:   "Scholarship catalog unavailable",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewMalformedRecordError reports a catalog record the matcher cannot score.
func NewMalformedRecordError(recordID, reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRecord,
		Message:   "Malformed scholarship record",
		Details:   fmt.Sprintf("scholarshipId: %s, reason: %s", recordID, reason),
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError. Unknown errors become
// INTERNAL_FAILURE.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalFailureError(err)
}

// CodeOf returns the code of err, or "" when err is nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// IsCode reports whether err normalizes to the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// GetErrorCategory returns the boundary category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeRateLimited:
		return "THROTTLING"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "MISSING") ||
		code == ErrCodeMethodNotAllowed:
		return "VALIDATION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "INTERNAL"
	}
}

// HTTPStatus maps a code to the status the boundary answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeMissingProfile:
		return http.StatusBadRequest
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
