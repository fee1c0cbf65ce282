package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/twiced-technology-gmbh/plantrack/internal/clierr"
)

// JSON writes data as indented JSON to the given writer.
func JSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse is the JSON envelope for structured error output. The
// sheet, task and column an error refers to are lifted out of its details
// so scripts can address the failing cell without parsing the message.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Exit    int            `json:"exit_code"`
	Sheet   string         `json:"sheet,omitempty"`
	Task    string         `json:"task,omitempty"`
	Column  string         `json:"column,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the envelope for err. Errors that are not a
// *clierr.Error are reported as INTERNAL_ERROR.
func NewErrorResponse(err error) ErrorResponse {
	var ce *clierr.Error
	if !errors.As(err, &ce) {
		ce = clierr.New(clierr.InternalError, err.Error())
	}

	resp := ErrorResponse{Error: ce.Message, Code: ce.Code, Exit: ce.ExitCode()}
	rest := make(map[string]any, len(ce.Details))
	for k, v := range ce.Details {
		s, ok := v.(string)
		switch {
		case ok && (k == "project" || k == "sheet"):
			resp.Sheet = s
		case ok && k == "id":
			resp.Task = s
		case ok && k == "column":
			resp.Column = s
		default:
			rest[k] = v
		}
	}
	if len(rest) > 0 {
		resp.Details = rest
	}
	return resp
}

// JSONError writes err to w as an ErrorResponse and returns the exit code
// the process should end with.
func JSONError(w io.Writer, err error) int {
	resp := NewErrorResponse(err)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp) // best-effort; if writer fails, nothing we can do
	return resp.Exit
}

// BatchResult represents the outcome of a single task within a batch.
type BatchResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// NewBatchResult records the outcome of id; a nil err is a success.
func NewBatchResult(id string, err error) BatchResult {
	if err == nil {
		return BatchResult{ID: id, OK: true}
	}
	var ce *clierr.Error
	if errors.As(err, &ce) {
		return BatchResult{ID: id, Error: ce.Message, Code: ce.Code}
	}
	return BatchResult{ID: id, Error: err.Error()}
}
