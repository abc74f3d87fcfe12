// Package errors provides explicit, human-readable error types for identlab.
// Every error carries a Code that decides the HTTP status of the response,
// plus a Reason and Suggestion for operators reading logs.
//
// Driver messages are surfaced to callers verbatim so that the effect of an
// injected identifier is observable. That is a demonstration choice: do not
// reuse PublicMessage in a service that faces untrusted users.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// LabError is the base error type for all identlab errors.
type LabError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for status and exit code mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeConnection ErrorCode = 2
	CodeExecution  ErrorCode = 3
	CodeInternal   ErrorCode = 4
)

// String returns the log name of the code.
func (c ErrorCode) String() string {
	switch c {
	case CodeValidation:
		return "validation"
	case CodeConnection:
		return "connection"
	case CodeExecution:
		return "execution"
	default:
		return "internal"
	}
}

func (e *LabError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *LabError) Unwrap() error {
	return e.Cause
}

// InvalidColumnMessage is the exact payload text for a rejected identifier.
const InvalidColumnMessage = "invalid column"

// ErrInvalidColumn is returned when a column is not a member of the allow-list.
type ErrInvalidColumn struct {
	LabError
	Column string
}

// NewInvalidColumn creates a new ErrInvalidColumn.
func NewInvalidColumn(column string) *ErrInvalidColumn {
	return &ErrInvalidColumn{
		LabError: LabError{
			Code:       CodeValidation,
			Message:    InvalidColumnMessage,
			Reason:     fmt.Sprintf("column %q is not in the allow-list", column),
			Suggestion: "use one of the allowed column names",
		},
		Column: column,
	}
}

// ErrConnectionFailed is returned when a store connection cannot be obtained.
type ErrConnectionFailed struct {
	LabError
	Store string
}

// NewConnectionFailed creates a new ErrConnectionFailed.
func NewConnectionFailed(store string, cause error) *ErrConnectionFailed {
	return &ErrConnectionFailed{
		LabError: LabError{
			Code:       CodeConnection,
			Message:    fmt.Sprintf("store %s unavailable", store),
			Reason:     "could not acquire a database connection",
			Suggestion: "check the store host and credentials with 'identlab doctor'",
			Cause:      cause,
		},
		Store: store,
	}
}

// ErrExecutionFailed is returned when the store rejects a statement.
type ErrExecutionFailed struct {
	LabError
	Query string
}

// NewExecutionFailed creates a new ErrExecutionFailed.
func NewExecutionFailed(query string, cause error) *ErrExecutionFailed {
	return &ErrExecutionFailed{
		LabError: LabError{
			Code:    CodeExecution,
			Message: "statement rejected by store",
			Reason:  "the driver returned an error while executing the query",
			Cause:   cause,
		},
		Query: query,
	}
}

// NewInternal wraps an unexpected failure.
func NewInternal(message string, cause error) *LabError {
	return &LabError{
		Code:    CodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidConfig is returned when a configuration value is not recognised.
func NewInvalidConfig(field, reason string) *LabError {
	return &LabError{
		Code:       CodeValidation,
		Message:    "invalid configuration",
		Reason:     fmt.Sprintf("field '%s': %s", field, reason),
		Suggestion: "check config.yaml or the IDENTLAB_* environment variables",
	}
}

// NewMigrationFailed is returned when a seed migration cannot be applied.
func NewMigrationFailed(name string, cause error) *LabError {
	return &LabError{
		Code:       CodeInternal,
		Message:    fmt.Sprintf("migration %s failed", name),
		Reason:     "the store rejected the migration script",
		Suggestion: "inspect the script under migrations/ for dialect issues",
		Cause:      cause,
	}
}

// asLab finds the LabError carried by err, looking through wrapping and the
// typed errors that embed it.
func asLab(err error) (*LabError, bool) {
	var ic *ErrInvalidColumn
	if errors.As(err, &ic) {
		return &ic.LabError, true
	}
	var cf *ErrConnectionFailed
	if errors.As(err, &cf) {
		return &cf.LabError, true
	}
	var ef *ErrExecutionFailed
	if errors.As(err, &ef) {
		return &ef.LabError, true
	}
	var le *LabError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// CodeOf extracts the ErrorCode of err, or CodeInternal if err is not a LabError.
func CodeOf(err error) ErrorCode {
	if le, ok := asLab(err); ok {
		return le.Code
	}
	return CodeInternal
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if CodeOf(err) == CodeValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text placed in the "error" field of a response.
// Validation failures yield their fixed message; everything else yields the
// raw text of the root cause, usually the driver message.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	le, ok := asLab(err)
	if !ok {
		return err.Error()
	}
	if le.Code == CodeValidation || le.Cause == nil {
		return le.Message
	}
	return le.Cause.Error()
}
