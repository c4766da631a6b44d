// internal/workers/admission/update-second-round-score/handler.go
package updatesecondroundscore

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
	TaskType = "update-second-round-score"
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

	if result := inputSchema.ValidateJSON(job.Variables); !result.Valid {
		camunda.FailJob(ctx, client, job,
			errors.NewInvalidJobVariablesError(strings.Join(result.GetErrorMessages(), "; ")), h.errors)
		return
	}

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

// execute imports the sheet. A sheet with bad cells surfaces as a business
// error carrying every cell problem, so the process can show them at once.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Sheet) == 0 {
		return nil, errors.NewInvalidJobVariablesError("sheet: header row is missing")
	}

	summary, err := h.service.ImportSecondRound(ctx, input.Sheet)
	if err != nil {
		if mapped := errors.FromAdmission(err); mapped != nil {
			h.logger.Warn("score sheet rejected", map[string]interface{}{
				"code":    mapped.Code,
				"details": mapped.Details,
			})
			return nil, mapped
		}
		return nil, err
	}

	return &Output{
		Rows:       summary.Rows,
		Present:    summary.Present,
		NoShow:     summary.NoShow,
		ImportedAt: summary.CompletedAt,
	}, nil
}

// Execute imports a sheet without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
