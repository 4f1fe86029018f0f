package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRangeIgnored is returned when a server answers a byte-range
// request with a full 200 response instead of 206 Partial Content.
var ErrRangeIgnored = errors.New("server ignored range request")

// StatusError represents a non-success HTTP response. The response
// body has already been drained and closed when this error is
// produced.
type StatusError struct {
	Code       int
	Status     string
	RetryAfter string // raw Retry-After header value, if any
}

// Error returns the error message
func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// NewStatusError creates a new status error
func NewStatusError(code int, status, retryAfter string) *StatusError {
	return &StatusError{Code: code, Status: status, RetryAfter: retryAfter}
}

// AsStatusError extracts a StatusError from an error chain
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRateLimited returns the Retry-After hint if the error is an HTTP
// 429 response. The hint may be empty.
func IsRateLimited(err error) (string, bool) {
	if se, ok := AsStatusError(err); ok && se.Code == 429 {
		return se.RetryAfter, true
	}
	return "", false
}

// ValidationError reports that a completed file failed document
// structure validation. The partial file must not survive it.
type ValidationError struct {
	Problems []string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid document"
	}
	return "invalid document: " + strings.Join(e.Problems, "; ")
}

// NewValidationError creates a new validation error
func NewValidationError(problems []string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// IsValidationError returns true if the error is a validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConfigError represents an invalid request or local environment
// problem (bad destination, permissions). It is surfaced immediately
// without entering the retry loop.
type ConfigError struct {
	Reason string
	Err    error
}

// Error returns the error message
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error
func NewConfigError(reason string, err error) *ConfigError {
	return &ConfigError{Reason: reason, Err: err}
}

// IsConfigError returns true if the error is a configuration error
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
