// internal/repository/applications.go
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/models"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

var (
	ErrNotFound      = errors.New("APPLICATION_NOT_FOUND")
	ErrStaleStatus   = errors.New("STALE_STATUS")
	ErrBadTransition = errors.New("INVALID_STATUS_TRANSITION")
	ErrDuplicate     = errors.New("DUPLICATE_APPLICATION")
)

const applicationColumns = `id, user_id, form_type, category, applicant_name, phone_number, email,
	graduation_type, school_name, school_location, other_region, examination_number, status, grade,
	subject_grade_score, attendance_score, volunteer_score, bonus_score,
	depth_interview_score, ncs_score, coding_test_score, first_round_score, total_score, submitted_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Applications persists admission forms in Postgres.
type Applications struct {
	db *sql.DB
}

func NewApplications(db *sql.DB) *Applications {
	return &Applications{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (r *Applications) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// WithTx runs fn in one transaction. The transaction commits only if fn
// returns nil.
func (r *Applications) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// HasForm reports whether userID already submitted a form.
func (r *Applications) HasForm(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("form existence check: %w", err)
	}
	return exists, nil
}

// ListByStatus reads a point-in-time list without taking row locks.
func (r *Applications) ListByStatus(ctx context.Context, statuses ...models.FormStatus) ([]models.Application, error) {
	return listByStatus(ctx, r.db, "", statuses)
}

// RecordNotification stores the outcome of one result message.
func (r *Applications) RecordNotification(ctx context.Context, n models.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, application_id, status, channel, result, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.ApplicationID, string(n.Status), n.Channel, n.Result, n.SentAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// SentNotifications returns, per application id, the channels a message for
// status was already delivered on.
func (r *Applications) SentNotifications(ctx context.Context, status models.FormStatus) (map[string]map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT application_id, channel FROM notifications
		WHERE status = $1 AND result = 'sent'`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list sent notifications: %w", err)
	}
	defer rows.Close()

	sent := make(map[string]map[string]bool)
	for rows.Next() {
		var id, channel string
		if err := rows.Scan(&id, &channel); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if sent[id] == nil {
			sent[id] = make(map[string]bool)
		}
		sent[id][channel] = true
	}
	return sent, rows.Err()
}

// Tx is the transactional view of the repository.
type Tx struct {
	tx *sql.Tx
}

// LockCategory serializes examination number issuance for a category until
// the transaction ends.
func (t *Tx) LockCategory(ctx context.Context, c models.Category) error {
	if _, err := t.tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, "examination_number:"+string(c)); err != nil {
		return fmt.Errorf("advisory lock %s: %w", c, err)
	}
	return nil
}

// MaxExaminationNumber returns the highest number issued in a category, or
// zero when none was issued yet.
func (t *Tx) MaxExaminationNumber(ctx context.Context, c models.Category) (int64, error) {
	var current int64
	err := t.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(examination_number), 0) FROM applications WHERE category = $1`,
		string(c)).Scan(&current)
	if err != nil {
		return 0, fmt.Errorf("max examination number: %w", err)
	}
	return current, nil
}

// Insert stores a new form.
func (t *Tx) Insert(ctx context.Context, app *models.Application) error {
	grade, err := json.Marshal(app.Grade)
	if err != nil {
		return fmt.Errorf("marshal grade: %w", err)
	}

	var examNo sql.NullInt64
	if app.ExaminationNumber != nil {
		examNo = sql.NullInt64{Int64: *app.ExaminationNumber, Valid: true}
	}

	s := app.Score
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		app.ID, app.UserID, string(app.Type), string(app.Category),
		app.Applicant.Name, app.Applicant.PhoneNumber, app.Applicant.Email,
		string(app.Education.GraduationType), app.Education.SchoolName, app.Education.SchoolLocation,
		app.OtherRegion, examNo, string(app.Status), grade,
		s.SubjectGradeScore, s.AttendanceScore, s.VolunteerScore, s.BonusScore,
		s.DepthInterviewScore, s.NCSScore, s.CodingTestScore, s.FirstRoundScore, s.TotalScore,
		app.SubmittedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("insert application: %w on %s: %v", ErrDuplicate, pqErr.Constraint, err)
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// Get loads one form and locks its row.
func (t *Tx) Get(ctx context.Context, id string) (*models.Application, error) {
	row := t.tx.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// LockByStatus loads every form in the given statuses and locks the rows,
// so the caller works on a stable snapshot.
func (t *Tx) LockByStatus(ctx context.Context, statuses ...models.FormStatus) ([]models.Application, error) {
	return listByStatus(ctx, t.tx, " FOR UPDATE", statuses)
}

// UpdateStatus moves ids from one status to another. Every id must still be
// in from; otherwise nothing is written.
func (t *Tx) UpdateStatus(ctx context.Context, ids []string, from, to models.FormStatus) error {
	if len(ids) == 0 {
		return nil
	}
	if !models.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, to)
	}

	res, err := t.tx.ExecContext(ctx, `
		UPDATE applications SET status = $1, updated_at = now()
		WHERE id = ANY($2) AND status = $3`,
		string(to), pq.Array(ids), string(from))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if int(n) != len(ids) {
		return fmt.Errorf("%w: %d of %d applications were in %s", ErrStaleStatus, n, len(ids), from)
	}
	return nil
}

// Reject moves a form to REJECTED and keeps the reason.
func (t *Tx) Reject(ctx context.Context, id string, from models.FormStatus, reason string) error {
	if !models.CanTransition(from, models.StatusRejected) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, from, models.StatusRejected)
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE applications SET status = $1, rejection_reason = $2, updated_at = now()
		WHERE id = $3 AND status = $4`,
		string(models.StatusRejected), reason, id, string(from))
	if err != nil {
		return fmt.Errorf("reject application: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return fmt.Errorf("%w: application %s is no longer %s", ErrStaleStatus, id, from)
	}
	return nil
}

// SaveSecondRound writes second-round scores, total and status of an
// application coming out of the score sheet import.
func (t *Tx) SaveSecondRound(ctx context.Context, app models.Application) error {
	if app.Status != models.StatusFirstPassed && !models.CanTransition(models.StatusFirstPassed, app.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, models.StatusFirstPassed, app.Status)
	}
	s := app.Score
	res, err := t.tx.ExecContext(ctx, `
		UPDATE applications
		SET depth_interview_score = $1, ncs_score = $2, coding_test_score = $3,
			total_score = $4, status = $5, updated_at = now()
		WHERE id = $6 AND status = $7`,
		s.DepthInterviewScore, s.NCSScore, s.CodingTestScore, s.TotalScore,
		string(app.Status), app.ID, string(models.StatusFirstPassed))
	if err != nil {
		return fmt.Errorf("save second round: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return fmt.Errorf("%w: application %s is no longer %s", ErrStaleStatus, app.ID, models.StatusFirstPassed)
	}
	return nil
}

func listByStatus(ctx context.Context, q querier, suffix string, statuses []models.FormStatus) ([]models.Application, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE status = ANY($1)
		ORDER BY category, examination_number`+suffix,
		pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list applications by status %s: %w", strings.Join(names, ","), err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		app            models.Application
		formType       string
		category       string
		graduationType string
		status         string
		examNo         sql.NullInt64
		grade          []byte
		submittedAt    time.Time
	)
	s := &app.Score

	err := row.Scan(
		&app.ID, &app.UserID, &formType, &category,
		&app.Applicant.Name, &app.Applicant.PhoneNumber, &app.Applicant.Email,
		&graduationType, &app.Education.SchoolName, &app.Education.SchoolLocation,
		&app.OtherRegion, &examNo, &status, &grade,
		&s.SubjectGradeScore, &s.AttendanceScore, &s.VolunteerScore, &s.BonusScore,
		&s.DepthInterviewScore, &s.NCSScore, &s.CodingTestScore, &s.FirstRoundScore, &s.TotalScore,
		&submittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}

	if err := json.Unmarshal(grade, &app.Grade); err != nil {
		return nil, fmt.Errorf("decode grade of %s: %w", app.ID, err)
	}

	app.Type = models.FormType(formType)
	app.Category = models.Category(category)
	app.Education.GraduationType = models.GraduationType(graduationType)
	app.Status = models.FormStatus(status)
	app.SubmittedAt = submittedAt
	if examNo.Valid {
		n := examNo.Int64
		app.ExaminationNumber = &n
	}
	return &app, nil
}
