// internal/workers/admission/select-second-pass/handler_test.go
package selectsecondpass

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
	"admission-workers/internal/selection"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
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

func addScored(rows *sqlmock.Rows, id string, examNo int64, total string) {
	rows.AddRow(
		id, "user-"+id, "REGULAR", "REGULAR", "홍길동", "010-1234-5678", "",
		"EXPECTED", "부산중학교", "부산광역시", false, examNo, "FIRST_PASSED",
		[]byte(`{"subjects":[],"attendance":[null,null,null],"volunteerHours":[null,null,null]}`),
		"150.000", "18.000", "18.000", "4.000",
		"80.000", "30.000", nil, "190.000", total, time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	)
}

func testQuota() admission.QuotaConfig {
	q := admission.DefaultQuotaConfig()
	q.Seats = map[models.Category]int{models.CategoryRegular: 1}
	return q
}

func newHandler(t *testing.T, rc *database.RedisClient) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	service := selection.NewService(selection.Options{
		Repository: repository.NewApplications(db),
		Redis:      rc,
		Quota:      testQuota(),
		LockTTL:    time.Minute,
		Logger:     log,
	})
	return NewHandler(&Config{Timeout: 5 * time.Second}, service, log), mock
}

func newMiniredis(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &database.RedisClient{Client: client}, mr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_TieBrokenByExaminationNumber(t *testing.T) {
	rc, mr := newMiniredis(t)
	h, mock := newHandler(t, rc)

	rows := sqlmock.NewRows(columns)
	addScored(rows, "a-2", 1002, "300.000")
	addScored(rows, "a-1", 1001, "300.000")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM applications .* FOR UPDATE`).
		WithArgs(pq.Array([]string{"FIRST_PASSED"})).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE applications SET status = \$1`).
		WithArgs("SECOND_PASSED", pq.Array([]string{"a-1"}), "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications SET status = \$1`).
		WithArgs("SECOND_FAILED", pq.Array([]string{"a-2"}), "FIRST_PASSED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 1, output.PassedCount)
	assert.Equal(t, 1, output.FailedCount)
	assert.Equal(t, 1, output.Categories[0].Failed)

	runID, err := mr.Get(selection.SecondPassMarkerKey)
	require.NoError(t, err)
	assert.Equal(t, output.RunID, runID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_DryRunTakesNoLock(t *testing.T) {
	rc, mr := newMiniredis(t)
	require.NoError(t, mr.Set(selection.SecondPassLockKey, "held"))
	h, mock := newHandler(t, rc)

	rows := sqlmock.NewRows(columns)
	addScored(rows, "a-1", 1001, "310.000")

	mock.ExpectQuery(`SELECT .* FROM applications WHERE status = ANY\(\$1\)`).
		WithArgs(pq.Array([]string{"FIRST_PASSED"})).
		WillReturnRows(rows)

	output, err := h.Execute(context.Background(), &Input{DryRun: true})

	require.NoError(t, err)
	assert.True(t, output.DryRun)
	assert.Equal(t, 1, output.PassedCount)
	assert.False(t, mr.Exists(selection.SecondPassMarkerKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_RedisUnavailable(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet(selection.SecondPassMarkerKey).SetErr(stderrors.New("connection refused"))
	h, mock := newHandler(t, &database.RedisClient{Client: client})

	_, err := h.Execute(context.Background(), &Input{})

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeLockFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.NoError(t, redisMock.ExpectationsWereMet())
	assert.NoError(t, mock.ExpectationsWereMet())
}
