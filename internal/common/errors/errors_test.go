// internal/common/errors/errors_test.go
package errors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"testing"

	"admission-workers/internal/admission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError_ForwardsMetadata(t *testing.T) {
	cells := []admission.CellError{{Row: 4, Column: 3, Cell: "D5", Kind: "SCORE_OUT_OF_RANGE"}}
	stdErr := NewBusinessRuleError("bad sheet", "details").WithMetadata("cellErrors", cells)

	bpmnErr := ConvertToBPMNError(stdErr)
	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "BUSINESS_RULE_VIOLATION", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.Equal(t, cells, vars["cellErrors"])
	assert.Equal(t, "bad sheet", vars["errorMessage"])
}

func TestConvertToBPMNError_Retries(t *testing.T) {
	assert.Equal(t, 3, ConvertToBPMNError(NewQueryExecutionFailedError("load", fmt.Errorf("boom"))).Retries)
	assert.Equal(t, 2, ConvertToBPMNError(NewSelectionLockedError("lock")).Retries)
	assert.Equal(t, 0, ConvertToBPMNError(NewFormAlreadySubmittedError("user-1")).Retries)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{
			name: "wrapped standard error",
			err:  fmt.Errorf("submit: %w", NewOutOfApplicationPeriodError("closed")),
			code: ErrCodeOutOfApplicationPeriod,
		},
		{
			name: "engine sentinel",
			err:  fmt.Errorf("%w: application a", admission.ErrInsufficientData),
			code: ErrCodeInsufficientData,
		},
		{
			name: "row count",
			err:  fmt.Errorf("%w: 3 vs 4", admission.ErrRowCountMismatch),
			code: ErrCodeRowCountMismatch,
		},
		{
			name: "unknown",
			err:  fmt.Errorf("boom"),
			code: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Normalize(tt.err).Code)
		})
	}
}

func TestFromAdmission_SheetError(t *testing.T) {
	sheetErr := &admission.SheetError{Cells: []admission.CellError{
		{Cell: "D3", Kind: admission.ErrScoreOutOfRange.Error()},
		{Cell: "B2", Kind: admission.ErrInvalidCellType.Error()},
	}}

	stdErr := FromAdmission(fmt.Errorf("import: %w", sheetErr))
	require.NotNil(t, stdErr)

	assert.Equal(t, ErrCodeInvalidCellType, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Equal(t, sheetErr.Cells, stdErr.Metadata["cellErrors"])
	assert.Nil(t, FromAdmission(fmt.Errorf("unrelated")))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SCORE_SHEET", GetErrorCategory(ErrCodeScoreOutOfRange))
	assert.Equal(t, "SELECTION", GetErrorCategory(ErrCodeFirstPassAlreadySelected))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "APPLICATION", GetErrorCategory(ErrCodeFormAlreadySubmitted))
}

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    ErrorCode
		retries int
	}{
		{"deadline", fmt.Errorf("list: %w", context.DeadlineExceeded), ErrCodeQueryTimeout, 2},
		{"closed connection", fmt.Errorf("list: %w", sql.ErrConnDone), ErrCodeDatabaseConnectionFailed, 3},
		{"bad connection", driver.ErrBadConn, ErrCodeDatabaseConnectionFailed, 3},
		{"other", fmt.Errorf("syntax error"), ErrCodeQueryExecutionFailed, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromQuery("list", tt.err)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.True(t, stdErr.Retryable)
			assert.Equal(t, tt.retries, GetRetryCount(stdErr.Code))
		})
	}
}

func TestNewElasticsearchConnectionFailedError(t *testing.T) {
	stdErr := NewElasticsearchConnectionFailedError(fmt.Errorf("dial tcp: connection refused"))

	assert.Equal(t, ErrCodeElasticsearchConnectionFailed, stdErr.Code)
	assert.Equal(t, "SEARCH", GetErrorCategory(stdErr.Code))
	assert.Equal(t, 3, ConvertToBPMNError(stdErr).Retries)
}
