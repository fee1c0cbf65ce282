package workbook

import (
	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
)

// ValidateDate returns a CLIError for invalid date input.
func ValidateDate(column, input string, err error) *clierr.Error {
	return clierr.Newf(clierr.InvalidDate, "invalid %s date: %v", column, err).
		WithDetails(map[string]any{
			"column": column,
			"input":  input,
			"format": "dd-Mon-yy",
		})
}

// ValidateDuration returns a CLIError for a duration that is not a
// non-negative whole number of days.
func ValidateDuration(column, input string) *clierr.Error {
	return clierr.Newf(clierr.InvalidDuration, "invalid %s %q: expected whole days >= 0", column, input).
		WithDetails(map[string]any{
			"column": column,
			"input":  input,
		})
}

// ValidateSelfReference returns a CLIError for a task depending on itself.
func ValidateSelfReference(id string) *clierr.Error {
	return clierr.Newf(clierr.SelfReference, "task cannot depend on itself (ID %s)", id).
		WithDetails(map[string]any{"id": id})
}

// ValidateDependencyNotFound returns a CLIError for a missing dependency.
func ValidateDependencyNotFound(depID string) *clierr.Error {
	return clierr.Newf(clierr.DependencyNotFound, "dependency task %s not found", depID).
		WithDetails(map[string]any{"id": depID})
}

// ValidateDuplicateID returns a CLIError when a task ID is already used.
func ValidateDuplicateID(id string) *clierr.Error {
	return clierr.Newf(clierr.DuplicateID, "task ID %s is already used", id).
		WithDetails(map[string]any{"id": id})
}

// ValidateStatus returns a CLIError for a status not in the board.
func ValidateStatus(status string, allowed []string) *clierr.Error {
	return clierr.Newf(clierr.InvalidStatus, "invalid status %q", status).
		WithDetails(map[string]any{
			"status":  status,
			"allowed": allowed,
		})
}

// ValidateBoundaryError returns a CLIError for moves past the first or
// last status.
func ValidateBoundaryError(id, status, direction string) *clierr.Error {
	return clierr.Newf(clierr.BoundaryError,
		"task %s is already at the %s status (%s)", id, direction, status).
		WithDetails(map[string]any{
			"id":        id,
			"status":    status,
			"direction": direction,
		})
}

// RowNotFound returns a CLIError for an unknown task ID.
func RowNotFound(sheetName, id string) *clierr.Error {
	return clierr.Newf(clierr.RowNotFound, "task %s not found in %s", id, sheetName).
		WithDetails(map[string]any{"sheet": sheetName, "id": id})
}

// ColumnNotFound returns a CLIError for an unknown column header.
func ColumnNotFound(sheetName, column string, header []string) *clierr.Error {
	return clierr.Newf(clierr.ColumnNotFound, "column %q not found in %s", column, sheetName).
		WithDetails(map[string]any{"sheet": sheetName, "column": column, "columns": header})
}
