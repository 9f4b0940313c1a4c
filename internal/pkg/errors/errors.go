package errors

import (
	"errors"
	"fmt"
	"time"
)

// AppError is the service-wide error shape: a stable code for callers,
// a human message, optional details and the HTTP status it maps to.
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.cause
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails returns a copy carrying the given details. The receiver is
// not mutated so the package-level sentinels stay safe to share.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// Wrap returns a copy carrying err as the cause.
func (e *AppError) Wrap(err error) *AppError {
	clone := *e
	clone.cause = err
	return &clone
}

// CodeOf returns the AppError code of err, or empty for foreign errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether another fetch attempt may succeed.
// Network failures, rate limits and 5xx statuses are transient; bad
// requests, other 4xx statuses and undecodable payloads are terminal.
func IsRetryable(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case CodeNetwork, CodeRateLimited:
		return true
	case CodeHTTPStatus:
		return appErr.StatusCode >= 500
	default:
		return false
	}
}

// RetryAfter extracts a server-provided retry delay from a rate-limit
// error, when the server sent one.
func RetryAfter(err error) (time.Duration, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeRateLimited {
		return 0, false
	}
	secs, ok := appErr.Details[DetailRetryAfterSeconds].(int)
	if !ok || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
