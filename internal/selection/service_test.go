// internal/selection/service_test.go
package selection

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"admission-workers/internal/admission"
	"admission-workers/internal/common/database"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/models"
	"admission-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

var columns = []string{
	"id", "user_id", "form_type", "category", "applicant_name", "phone_number", "email",
	"graduation_type", "school_name", "school_location", "other_region", "examination_number", "status", "grade",
	"subject_grade_score", "attendance_score", "volunteer_score", "bonus_score",
	"depth_interview_score", "ncs_score", "coding_test_score", "first_round_score", "total_score", "submitted_at",
}

func addRow(rows *sqlmock.Rows, id string, examNo int64, status models.FormStatus, firstRound string, total interface{}) *sqlmock.Rows {
	return rows.AddRow(
		id, "user-"+id, "REGULAR", "REGULAR", "홍길동", "010-1234-5678", "",
		"EXPECTED", "부산중학교", "부산광역시", false, examNo, string(status),
		[]byte(`{"subjects":[],"attendance":[null,null,null],"volunteerHours":[null,null,null]}`),
		"150.000", "18.000", "18.000", "4.000",
		nil, nil, nil, firstRound, total, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	)
}

func testQuota() admission.QuotaConfig {
	q := admission.DefaultQuotaConfig()
	q.Seats = map[models.Category]int{models.CategoryRegular: 1}
	q.Multiplier = decimal.NewFromInt(1)
	return q
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(Options{
		Repository: repository.NewApplications(db),
		Redis:      &database.RedisClient{Client: client},
		Quota:      testQuota(),
		LockTTL:    time.Minute,
		Logger:     logger.NewTestLogger(t),
	})
	svc.now = func() time.Time { return time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC) }
	return svc, mock, mr
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) *errors.StandardError {
	t.Helper()
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// First Pass
// ==========================

func TestSelectFirstPass_CommitsAndMarks(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusReceived, "190.000", nil)
	addRow(rows, "a-2", 1002, models.StatusReceived, "150.000", nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications WHERE status = ANY\(\$1\).* FOR UPDATE`).
		WithArgs(pq.Array([]string{"RECEIVED"})).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications SET status = \$1`).
		WithArgs("FIRST_PASSED", pq.Array([]string{"a-1"}), "RECEIVED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := svc.SelectFirstPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, RoundFirst, summary.Round)
	assert.Equal(t, 2, summary.Candidates)
	assert.Equal(t, 1, summary.PassedCount)
	assert.Equal(t, 0, summary.FailedCount)
	assert.Equal(t, 1, summary.Unselected)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "2026-11-02T10:00:00Z", summary.CompletedAt)

	marker, err := mr.Get(FirstPassMarkerKey)
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, marker)
	assert.False(t, mr.Exists(FirstPassLockKey), "lock must be released")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectFirstPass_ZeroSeatCategoryStaysReceived(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	rows.AddRow(
		"nv-1", "user-nv-1", "NATIONAL_VETERANS_EDUCATION", "NATIONAL_VETERANS_EDUCATION", "김보훈", "010-2222-3333", "",
		"EXPECTED", "부산중학교", "부산광역시", false, int64(4001), "RECEIVED",
		[]byte(`{"subjects":[],"attendance":[null,null,null],"volunteerHours":[null,null,null]}`),
		"200.000", "18.000", "18.000", "4.000",
		nil, nil, nil, "250.000", nil, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	)

	// No seats for the category: nothing passes and no status is written.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications WHERE status = ANY\(\$1\).* FOR UPDATE`).
		WithArgs(pq.Array([]string{"RECEIVED"})).
		WillReturnRows(rows)
	mock.ExpectCommit()

	summary, err := svc.SelectFirstPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.PassedCount)
	assert.Equal(t, 0, summary.FailedCount)
	assert.Equal(t, 1, summary.Unselected)
	assert.True(t, mr.Exists(FirstPassMarkerKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectFirstPass_AlreadySelected(t *testing.T) {
	svc, mock, mr := newTestService(t)
	require.NoError(t, mr.Set(FirstPassMarkerKey, "earlier-run"))

	_, err := svc.SelectFirstPass(context.Background(), false)

	stdErr := assertCode(t, err, errors.ErrCodeFirstPassAlreadySelected)
	assert.Contains(t, stdErr.Details, "earlier-run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectFirstPass_LockHeld(t *testing.T) {
	svc, mock, mr := newTestService(t)
	require.NoError(t, mr.Set(FirstPassLockKey, "someone-else"))

	_, err := svc.SelectFirstPass(context.Background(), false)

	assertCode(t, err, errors.ErrCodeSelectionLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectFirstPass_RollsBackWithoutMarker(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusReceived, "190.000", nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications SET status = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.SelectFirstPass(context.Background(), false)

	assertCode(t, err, errors.ErrCodeQueryExecutionFailed)
	assert.False(t, mr.Exists(FirstPassMarkerKey))
	assert.False(t, mr.Exists(FirstPassLockKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectFirstPass_DryRunWritesNothing(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusReceived, "190.000", nil)
	addRow(rows, "a-2", 1002, models.StatusReceived, "195.000", nil)

	mock.ExpectQuery(`SELECT .* FROM applications WHERE status = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{"RECEIVED"})).
		WillReturnRows(rows)

	summary, err := svc.SelectFirstPass(context.Background(), true)
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Empty(t, summary.RunID)
	require.NotEmpty(t, summary.Categories)
	assert.Equal(t, []string{"a-2"}, summary.Categories[0].Passed)
	assert.False(t, mr.Exists(FirstPassMarkerKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Second Pass
// ==========================

func TestSelectSecondPass_MissingScoreIsRejected(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusFirstPassed, "190.000", nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).
		WithArgs(pq.Array([]string{"FIRST_PASSED"})).
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := svc.SelectSecondPass(context.Background(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, admission.ErrInsufficientData)
	assert.False(t, mr.Exists(SecondPassMarkerKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectSecondPass_Commits(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusFirstPassed, "190.000", "300.000")
	addRow(rows, "a-2", 1002, models.StatusFirstPassed, "190.000", "310.000")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications SET status = \$1`).
		WithArgs("SECOND_PASSED", pq.Array([]string{"a-2"}), "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications SET status = \$1`).
		WithArgs("SECOND_FAILED", pq.Array([]string{"a-1"}), "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := svc.SelectSecondPass(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, RoundSecond, summary.Round)
	assert.Equal(t, 1, summary.PassedCount)
	assert.Equal(t, 1, summary.FailedCount)
	assert.True(t, mr.Exists(SecondPassMarkerKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Score Sheet Import
// ==========================

func sheetHeader() []admission.Cell {
	return []admission.Cell{
		admission.TextCell("수험번호"), admission.TextCell("이름"), admission.TextCell("전형"),
		admission.TextCell("심층면접"), admission.TextCell("NCS"), admission.TextCell("코딩테스트"),
		admission.TextCell("응시여부"),
	}
}

func TestImportSecondRound_SavesEveryRow(t *testing.T) {
	svc, mock, mr := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusFirstPassed, "190.000", nil)
	addRow(rows, "a-2", 1002, models.StatusFirstPassed, "180.000", nil)

	label := models.CategoryRegular.Label()
	grid := admission.Grid{
		sheetHeader(),
		{
			admission.IntCell(1001), admission.TextCell("홍길동"), admission.TextCell(label),
			admission.IntCell(100), admission.IntCell(30), admission.BlankCell(), admission.BoolCell(true),
		},
		{
			admission.IntCell(1002), admission.TextCell("김철수"), admission.TextCell(label),
			admission.BlankCell(), admission.BlankCell(), admission.BlankCell(), admission.BoolCell(false),
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).
		WithArgs(pq.Array([]string{"FIRST_PASSED"})).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications\s+SET depth_interview_score`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "FIRST_PASSED", "a-1", "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications\s+SET depth_interview_score`).
		WithArgs(nil, nil, nil, nil, "NO_SHOW", "a-2", "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	summary, err := svc.ImportSecondRound(context.Background(), grid)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 1, summary.NoShow)
	assert.False(t, mr.Exists(ScoreImportLockKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportSecondRound_CellErrorsRollBack(t *testing.T) {
	svc, mock, _ := newTestService(t)

	rows := sqlmock.NewRows(columns)
	addRow(rows, "a-1", 1001, models.StatusFirstPassed, "190.000", nil)

	grid := admission.Grid{
		sheetHeader(),
		{
			admission.IntCell(1001), admission.TextCell("홍길동"), admission.TextCell(models.CategoryRegular.Label()),
			admission.TextCell("백"), admission.IntCell(30), admission.BlankCell(), admission.BoolCell(true),
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications`).WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := svc.ImportSecondRound(context.Background(), grid)

	var sheetErr *admission.SheetError
	require.True(t, stderrors.As(err, &sheetErr))
	require.Len(t, sheetErr.Cells, 1)
	assert.Equal(t, "D2", sheetErr.Cells[0].Cell)
	assert.NoError(t, mock.ExpectationsWereMet())
}
