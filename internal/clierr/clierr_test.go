package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewf(t *testing.T) {
	err := Newf(RowNotFound, "row %q not found in %s", "7", "alpha").
		WithDetails(map[string]any{"id": "7"})

	assert.Equal(t, RowNotFound, err.Code)
	assert.Equal(t, `row "7" not found in alpha`, err.Error())
	assert.Equal(t, "7", err.Details["id"])
	assert.Equal(t, 1, err.ExitCode())
}

func TestExitCode_Internal(t *testing.T) {
	assert.Equal(t, 2, New(InternalError, "boom").ExitCode())
}

func TestErrorsAs_ThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("editing cell: %w", New(InvalidDuration, "bad"))

	var cliErr *Error
	require.True(t, errors.As(wrapped, &cliErr))
	assert.Equal(t, InvalidDuration, cliErr.Code)
}

func TestSilentError(t *testing.T) {
	assert.Equal(t, "exit 1", (&SilentError{Code: 1}).Error())
}
