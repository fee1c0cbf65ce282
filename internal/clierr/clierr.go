// Package clierr defines structured error types for CLI commands.
// Errors carry a machine-readable code, a human-readable message,
// and optional details for scripted consumers.
package clierr

import (
	"fmt"
	"strconv"
)

// Error code constants. Uppercase and underscore-separated.
const (
	WorkbookNotFound      = "WORKBOOK_NOT_FOUND"
	WorkbookAlreadyExists = "WORKBOOK_ALREADY_EXISTS"
	ProjectNotFound       = "PROJECT_NOT_FOUND"
	ProjectAlreadyExists  = "PROJECT_ALREADY_EXISTS"
	RowNotFound           = "ROW_NOT_FOUND"
	ColumnNotFound        = "COLUMN_NOT_FOUND"
	ContactNotFound       = "CONTACT_NOT_FOUND"
	TemplateNotFound      = "TEMPLATE_NOT_FOUND"
	InvalidInput          = "INVALID_INPUT"
	InvalidStatus         = "INVALID_STATUS"
	InvalidDate           = "INVALID_DATE"
	InvalidDuration       = "INVALID_DURATION"
	InvalidRowID          = "INVALID_ROW_ID"
	WIPLimitExceeded      = "WIP_LIMIT_EXCEEDED"
	DependencyNotFound    = "DEPENDENCY_NOT_FOUND"
	SelfReference         = "SELF_REFERENCE"
	DuplicateID           = "DUPLICATE_ID"
	NoChanges             = "NO_CHANGES"
	BoundaryError         = "BOUNDARY_ERROR"
	Conflict              = "CONFLICT"
	ConfirmationReq       = "CONFIRMATION_REQUIRED"
	InvalidGroupBy        = "INVALID_GROUP_BY"
	NoRecipients          = "NO_RECIPIENTS"
	InternalError         = "INTERNAL_ERROR"
)

// Error represents a structured CLI error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2 //nolint:mnd // exit code 2 for internal errors
	}
	return 1
}

// SilentError signals an exit code without additional output.
// Used by batch operations where results are already written to stdout.
type SilentError struct {
	Code int
}

// Error implements the error interface.
func (e *SilentError) Error() string { return "exit " + strconv.Itoa(e.Code) }
