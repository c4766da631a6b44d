// internal/workers/admission/update-second-round-score/handler_test.go
package updatesecondroundscore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"admission-workers/internal/admission"
	"admission-workers/internal/common/database"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/repository"
	"admission-workers/internal/selection"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var columns = []string{
	"id", "user_id", "form_type", "category", "applicant_name", "phone_number", "email",
	"graduation_type", "school_name", "school_location", "other_region", "examination_number", "status", "grade",
	"subject_grade_score", "attendance_score", "volunteer_score", "bonus_score",
	"depth_interview_score", "ncs_score", "coding_test_score", "first_round_score", "total_score", "submitted_at",
}

func firstPassed(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows(columns)
	for i, id := range ids {
		rows.AddRow(
			id, "user-"+id, "REGULAR", "REGULAR", "홍길동", "010-1234-5678", "",
			"EXPECTED", "부산중학교", "부산광역시", false, int64(1001+i), "FIRST_PASSED",
			[]byte(`{"subjects":[],"attendance":[null,null,null],"volunteerHours":[null,null,null]}`),
			"150.000", "18.000", "18.000", "4.000",
			nil, nil, nil, "190.000", nil, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
		)
	}
	return rows
}

// The sheet arrives as job variables, so tests build it from JSON.
const sheetJSON = `{"sheet": [
	["수험번호", "이름", "전형", "심층면접", "NCS", "코딩테스트", "응시여부"],
	[1001, "홍길동", "일반전형", 100.5, 30, null, true],
	[null, null, null, null, null, null, null],
	[1002, "김철수", "일반전형", null, null, null, false]
]}`

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logger.NewTestLogger(t)
	service := selection.NewService(selection.Options{
		Repository: repository.NewApplications(db),
		Redis:      &database.RedisClient{Client: client},
		Quota:      admission.DefaultQuotaConfig(),
		Logger:     log,
	})
	return NewHandler(&Config{Timeout: 5 * time.Second}, service, log), mock
}

func decodeInput(t *testing.T, raw string) *Input {
	t.Helper()
	require.True(t, inputSchema.ValidateJSON(raw).Valid)
	var input Input
	require.NoError(t, json.Unmarshal([]byte(raw), &input))
	return &input
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ImportsSheet(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications .* FOR UPDATE`).
		WithArgs(pq.Array([]string{"FIRST_PASSED"})).
		WillReturnRows(firstPassed("a-1", "a-2"))
	mock.ExpectExec(`UPDATE applications\s+SET depth_interview_score`).
		WithArgs("100.5", "30", nil, "320.5", "FIRST_PASSED", "a-1", "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications\s+SET depth_interview_score`).
		WithArgs(nil, nil, nil, nil, "NO_SHOW", "a-2", "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), decodeInput(t, sheetJSON))

	require.NoError(t, err)
	assert.Equal(t, 2, output.Rows)
	assert.Equal(t, 1, output.Present)
	assert.Equal(t, 1, output.NoShow)
	assert.NotEmpty(t, output.ImportedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_CellErrorsBecomeBPMNVariables(t *testing.T) {
	h, mock := newTestHandler(t)

	raw := `{"sheet": [
		["수험번호", "이름", "전형", "심층면접", "NCS", "코딩테스트", "응시여부"],
		[1001, "홍길동", "일반전형", 130, 30, null, true],
		[1002, "김철수", "일반전형", "결시", null, null, true]
	]}`

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).WillReturnRows(firstPassed("a-1", "a-2"))
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), decodeInput(t, raw))
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeInvalidCellType, stdErr.Code)
	assert.False(t, stdErr.Retryable)

	cells, ok := stdErr.Metadata["cellErrors"].([]admission.CellError)
	require.True(t, ok)
	require.Len(t, cells, 3)
	assert.Equal(t, "D2", cells[0].Cell)
	assert.Equal(t, admission.ErrScoreOutOfRange.Error(), cells[0].Kind)

	bpmn := errors.ConvertToBPMNError(stdErr)
	assert.Equal(t, 0, bpmn.Retries)
	assert.Contains(t, bpmn.ErrorVariables, "cellErrors")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RowCountMismatch(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).WillReturnRows(firstPassed("a-1", "a-2", "a-3"))
	mock.ExpectRollback()

	_, err := h.Execute(context.Background(), decodeInput(t, sheetJSON))

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeRowCountMismatch, stdErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInputSchema_RejectsNestedObjects(t *testing.T) {
	result := inputSchema.ValidateJSON(`{"sheet": [[{"v": 1}]]}`)
	assert.False(t, result.Valid)
	assert.False(t, inputSchema.ValidateJSON(`{}`).Valid)
}
