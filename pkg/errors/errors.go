// Package errors provides structured error types for highwaype.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow the taxonomy of the layout tool:
//   - INVALID_*: Input validation failures (geometry, config, drawings)
//   - RULE_CONFLICT: A device rule produces out-of-bounds or overlapping placements
//   - CONSTRAINT_VIOLATION: An engineering limit (voltage drop, fiber cores) is exceeded
//   - NOT_FOUND / FILE_NOT_FOUND: Missing resources
//   - INTERNAL_ERROR: Unexpected internal errors
//
// Geometry and rule-bound errors abort a run. Constraint violations are
// collected as [Warning] values and reported, never returned as errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidAlignment, "centerline has %d vertices", n)
//	if errors.Is(err, errors.ErrCodeInvalidAlignment) {
//	    // Handle bad geometry
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidDrawing, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidAlignment Code = "INVALID_ALIGNMENT"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidDrawing   Code = "INVALID_DRAWING"
	ErrCodeInvalidStation   Code = "INVALID_STATION"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	// Design errors
	ErrCodeRuleConflict        Code = "RULE_CONFLICT"
	ErrCodeConstraintViolation Code = "CONSTRAINT_VIOLATION"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Warning is a non-fatal finding surfaced in reports and diagrams.
// Rule overlaps and engineering constraint violations are warnings so the
// engineer can adjust the design instead of losing the run.
type Warning struct {
	Code    Code   `json:"code" msgpack:"code"`
	Subject string `json:"subject" msgpack:"subject"` // device, circuit or rule the warning is about
	Message string `json:"message" msgpack:"message"`
}

// String formats the warning for logs.
func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Code, w.Subject, w.Message)
}

// Warnf creates a Warning with a formatted message.
func Warnf(code Code, subject, format string, args ...any) Warning {
	return Warning{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
