// internal/workers/admission/select-second-pass/handler.go
package selectsecondpass

import (
	"context"
	"encoding/json"
	"strings"

	"admission-workers/internal/common/camunda"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/selection"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "select-second-pass"
)

type Handler struct {
	config  *Config
	service *selection.Service
	errors  *errors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(cfg *Config, service *selection.Service, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  cfg,
		service: service,
		errors:  errors.NewErrorHandler(log),
		logger:  log,
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
	if job.Variables != "" {
		if result := inputSchema.ValidateJSON(job.Variables); !result.Valid {
			camunda.FailJob(ctx, client, job,
				errors.NewInvalidJobVariablesError(strings.Join(result.GetErrorMessages(), "; ")), h.errors)
			return
		}
		if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
			camunda.FailJob(ctx, client, job, errors.NewInvalidJobVariablesError(err.Error()), h.errors)
			return
		}
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.errors)
		return
	}

	camunda.CompleteJob(ctx, client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	summary, err := h.service.SelectSecondPass(ctx, input.DryRun)
	if err != nil {
		return nil, err
	}

	h.logger.Info("final pass selected", map[string]interface{}{
		"runId":  summary.RunID,
		"dryRun": summary.DryRun,
		"passed": summary.PassedCount,
		"failed": summary.FailedCount,
	})

	return &Output{
		RunID:       summary.RunID,
		DryRun:      summary.DryRun,
		Candidates:  summary.Candidates,
		PassedCount: summary.PassedCount,
		FailedCount: summary.FailedCount,
		Categories:  summary.Counts(),
		CompletedAt: summary.CompletedAt,
	}, nil
}

// Execute runs the final selection without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
