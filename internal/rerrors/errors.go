// Package rerrors provides the error taxonomy for the training orchestrator.
// All orchestration-layer errors are fatal and carry a machine-readable code;
// there is no partial-run recovery inside this layer.
package rerrors

import (
	"errors"
	"fmt"
)

// RunError is the unified orchestration error type.
type RunError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *RunError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *RunError) WithCause(cause error) *RunError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *RunError) WithDetail(key string, value any) *RunError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new RunError.
func New(code ErrorCode, message string) *RunError {
	return &RunError{Code: code, Message: message}
}

// --- Common Error Constructors ---

// Reproducibility creates an error for a dirty working tree.
func Reproducibility(message string) *RunError {
	return &RunError{Code: ErrCodeReproducibility, Message: message}
}

// Configuration creates an error for an invalid or incomplete configuration.
func Configuration(message string) *RunError {
	return &RunError{Code: ErrCodeConfiguration, Message: message}
}

// Configurationf creates a formatted configuration error.
func Configurationf(format string, args ...any) *RunError {
	return &RunError{Code: ErrCodeConfiguration, Message: fmt.Sprintf(format, args...)}
}

// MissingKey creates a configuration error for an absent required key.
func MissingKey(key string) *RunError {
	return &RunError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf("required configuration key %q is missing", key),
		Details: map[string]any{"key": key},
	}
}

// RunFailure wraps a failure raised by the fit loop or a collaborator.
func RunFailure(message string, cause error) *RunError {
	return &RunError{Code: ErrCodeRunFailure, Message: message, Cause: cause}
}

// Internal creates an error for an unexpected orchestration failure.
func Internal(message string, cause error) *RunError {
	return &RunError{Code: ErrCodeInternal, Message: message, Cause: cause}
}

// --- Inspection helpers ---

// CodeOf extracts the error code from err, or ErrCodeInternal if err is not a
// RunError.
func CodeOf(err error) ErrorCode {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
