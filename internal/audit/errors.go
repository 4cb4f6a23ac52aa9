package audit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes audit failures.
type ErrorCode string

const (
	// ErrCodeUsage indicates malformed command input. No state is touched.
	ErrCodeUsage ErrorCode = "USAGE_ERROR"

	// ErrCodeValidation indicates malformed or invariant-violating record
	// data, either on load or produced by a scoring operation. The whole
	// operation aborts with no partial mutation.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"

	// ErrCodeNotFound indicates a reference to an unknown rule id.
	ErrCodeNotFound ErrorCode = "RULE_NOT_FOUND"

	// ErrCodeAlreadyExists indicates an init over an existing store.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrCodeIO indicates an underlying file access failure, surfaced
	// verbatim via the wrapped error.
	ErrCodeIO ErrorCode = "IO_FAILURE"
)

// Error is the structured error type for the audit engine.
//
// Every failure carries a machine-readable code plus enough context to name
// the offending row and field. Errors are local to one invocation; there is
// no retry logic anywhere in the engine.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RuleID identifies the affected record, when applicable.
	RuleID string

	// Field identifies the offending column, for validation errors.
	Field string

	// Err is the underlying cause (for IO failures).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.RuleID != "" && e.Field != "":
		return fmt.Sprintf("%s: %s (rule=%s, field=%s)", e.Code, e.Message, e.RuleID, e.Field)
	case e.RuleID != "":
		return fmt.Sprintf("%s: %s (rule=%s)", e.Code, e.Message, e.RuleID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns the empty code if the chain contains no *Error.
func CodeOf(err error) ErrorCode {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsNotFound reports whether err is an unknown-rule failure.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsUsage reports whether err is a usage failure.
func IsUsage(err error) bool { return CodeOf(err) == ErrCodeUsage }

// IsAlreadyExists reports whether err is an init-over-existing failure.
func IsAlreadyExists(err error) bool { return CodeOf(err) == ErrCodeAlreadyExists }

// NewUsageError creates an Error for malformed command input.
func NewUsageError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeUsage, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError creates an Error naming the offending rule and field.
func NewValidationError(ruleID, field, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
		RuleID:  ruleID,
		Field:   field,
	}
}

// NewNotFoundError creates an Error listing the unknown rule ids.
func NewNotFoundError(ruleIDs []string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("unknown rule id(s): %s", strings.Join(ruleIDs, ", ")),
		RuleID:  ruleIDs[0],
	}
}

// NewAlreadyExistsError creates an Error for an init over an existing store.
func NewAlreadyExistsError(path string) *Error {
	return &Error{
		Code:    ErrCodeAlreadyExists,
		Message: fmt.Sprintf("audit store already exists: %s", path),
	}
}

// WrapIOError wraps a file access failure, preserving the cause.
func WrapIOError(err error, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeIO,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
