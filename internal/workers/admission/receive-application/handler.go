// internal/workers/admission/receive-application/handler.go
package receiveapplication

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/common/camunda"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/models"
	"admission-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "receive-application"
)

var ErrReasonRequired = stderrors.New("REJECTION_REASON_REQUIRED")

type Handler struct {
	config *Config
	repo   *repository.Applications
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(cfg *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		repo:   repository.NewApplications(db),
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
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
		return nil, errors.NewInvalidJobVariablesError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if input.Decision == models.StatusRejected && strings.TrimSpace(input.Reason) == "" {
		return nil, errors.NewInvalidJobVariablesError(fmt.Sprintf("%v: application %s", ErrReasonRequired, input.ApplicationID))
	}

	output := &Output{ApplicationID: input.ApplicationID, Status: string(input.Decision)}

	err := h.repo.WithTx(ctx, func(tx *repository.Tx) error {
		app, err := tx.Get(ctx, input.ApplicationID)
		if err != nil {
			return err
		}
		output.PreviousStatus = string(app.Status)
		output.ExaminationNumber = app.ExamNo()

		if !models.CanTransition(app.Status, input.Decision) {
			return errors.NewInvalidStatusTransitionError(
				fmt.Sprintf("application %s: %s -> %s", app.ID, app.Status, input.Decision))
		}

		if input.Decision == models.StatusRejected {
			return tx.Reject(ctx, app.ID, app.Status, input.Reason)
		}
		return tx.UpdateStatus(ctx, []string{app.ID}, app.Status, input.Decision)
	})
	switch {
	case err == nil:
	case stderrors.Is(err, repository.ErrNotFound):
		return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
	case errors.Normalize(err).Code == errors.ErrCodeInvalidStatusTransition:
		return nil, err
	default:
		return nil, errors.FromQuery("review application", err)
	}

	output.ReviewedAt = h.now().UTC().Format(time.RFC3339)
	h.logger.Info("application reviewed", map[string]interface{}{
		"applicationId": input.ApplicationID,
		"from":          output.PreviousStatus,
		"to":            output.Status,
	})
	return output, nil
}

// Execute applies a review decision without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
