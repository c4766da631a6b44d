// internal/workers/admission/submit-application/handler.go
package submitapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/admission"
	"admission-workers/internal/common/camunda"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"
	"admission-workers/internal/models"
	"admission-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "submit-application"
)

type Handler struct {
	config   *Config
	repo     *repository.Applications
	assigner *admission.Assigner
	locks    *admission.CategoryLocks
	errors   *errors.ErrorHandler
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(cfg *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   cfg,
		repo:     repository.NewApplications(db),
		assigner: admission.NewAssigner(cfg.Bases),
		locks:    admission.NewCategoryLocks(),
		errors:   errors.NewErrorHandler(log),
		logger:   log,
		now:      time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		camunda.FailJob(ctx, client, job, errors.NewInvalidJobVariablesError(err.Error()), h.errors)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.errors)
		return
	}

	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if result := inputSchema.Validate(input); !result.Valid {
		return nil, errors.NewApplicationValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	now := h.now().UTC()
	open, err := h.config.Period.Contains(now)
	if err != nil {
		return nil, fmt.Errorf("application period: %w", err)
	}
	if !open {
		return nil, errors.NewOutOfApplicationPeriodError(
			fmt.Sprintf("submitted at %s, period %s to %s", now.Format(time.RFC3339), h.config.Period.Start, h.config.Period.End))
	}

	exists, err := h.repo.HasForm(ctx, input.UserID)
	if err != nil {
		return nil, errors.FromQuery("form existence check", err)
	}
	if exists {
		return nil, errors.NewFormAlreadySubmittedError(input.UserID)
	}

	app := &models.Application{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Type:        input.FormType,
		Category:    input.FormType.Category(),
		Applicant:   input.Applicant,
		Education:   input.Education,
		OtherRegion: h.config.Admission.IsOtherRegion(input.Education.SchoolLocation),
		Status:      models.StatusSubmitted,
		Grade:       input.Grade,
		SubmittedAt: now,
	}
	app.Score = admission.ComputeFirstRound(app)

	unlock := h.locks.Lock(app.Category)
	defer unlock()

	err = h.repo.WithTx(ctx, func(tx *repository.Tx) error {
		if err := tx.LockCategory(ctx, app.Category); err != nil {
			return err
		}
		current, err := tx.MaxExaminationNumber(ctx, app.Category)
		if err != nil {
			return err
		}
		number, err := h.assigner.Assign(app, current)
		if err != nil {
			return err
		}
		app.ExaminationNumber = &number
		return tx.Insert(ctx, app)
	})
	switch {
	case stderrors.Is(err, repository.ErrDuplicate):
		return nil, errors.NewFormAlreadySubmittedError(input.UserID)
	case err != nil && errors.FromAdmission(err) != nil:
		return nil, err
	case err != nil:
		return nil, errors.FromQuery("insert application", err)
	}

	metrics.ApplicationsSubmitted.WithLabelValues(strings.ToLower(string(app.Category))).Inc()
	h.logger.Info("application submitted", map[string]interface{}{
		"applicationId":     app.ID,
		"category":          app.Category,
		"examinationNumber": app.ExamNo(),
		"otherRegion":       app.OtherRegion,
	})

	return &Output{
		ApplicationID:     app.ID,
		ExaminationNumber: app.ExamNo(),
		Category:          string(app.Category),
		Status:            string(app.Status),
		FirstRoundScore:   admission.FormatScore(app.Score.FirstRoundScore.Decimal),
		SubmittedAt:       now.Format(time.RFC3339),
	}, nil
}

// Execute runs the submission without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
