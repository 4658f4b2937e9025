// Package errors provides structured error types for linkroute.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (bad scenario files, bad flags)
//   - STRUCTURAL: A link tree, grid or remap argument references something that
//     does not exist. These are caller or data-model bugs, never retried.
//   - NUMERIC_NEAR_MISS: A coordinate match failed even after widening the tolerance.
//   - NOT_FOUND: Resource not found (snapshots, cache entries)
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeStructural, "unknown segment %d", id)
//	if errors.Is(err, errors.ErrCodeStructural) {
//	    // Refuse the edit, keep the original tree
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
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
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidScenario Code = "INVALID_SCENARIO"

	// Model errors
	ErrCodeStructural      Code = "STRUCTURAL"
	ErrCodeNumericNearMiss Code = "NUMERIC_NEAR_MISS"

	// Resource not found errors
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeSnapshotNotFound Code = "SNAPSHOT_NOT_FOUND"

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

// Structural is shorthand for New(ErrCodeStructural, ...).
// It is the error every link-tree and grid operation returns when handed an id
// that is not present.
func Structural(format string, args ...any) *Error {
	return New(ErrCodeStructural, format, args...)
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

// HTTPStatus maps an error code onto the status the HTTP API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidScenario:
		return 400
	case ErrCodeNotFound, ErrCodeSnapshotNotFound:
		return 404
	case ErrCodeStructural, ErrCodeNumericNearMiss:
		return 422
	case ErrCodeUnsupported:
		return 501
	default:
		return 500
	}
}
