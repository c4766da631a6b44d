// internal/workers/admission/index-admission-results/handler.go
package indexadmissionresults

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"admission-workers/internal/common/camunda"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/repository"
	"admission-workers/internal/search"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "index-admission-results"
)

type Handler struct {
	config *Config
	repo   *repository.Applications
	index  *search.ResultsIndex
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(cfg *Config, db *sql.DB, es *elasticsearch.Client, log logger.Logger) (*Handler, error) {
	index, err := search.NewResultsIndex(es, cfg.Index)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: cfg,
		repo:   repository.NewApplications(db),
		index:  index,
		errors: errors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}, nil
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if len(input.Statuses) == 0 {
		return nil, errors.NewInvalidJobVariablesError("statuses: at least one status is required")
	}

	apps, err := h.repo.ListByStatus(ctx, input.Statuses...)
	if err != nil {
		return nil, errors.FromQuery("list results", err)
	}

	if err := h.index.EnsureIndex(ctx); err != nil {
		return nil, h.indexError(err)
	}

	now := h.now()
	docs := make([]search.ResultDocument, 0, len(apps))
	for _, app := range apps {
		docs = append(docs, search.NewResultDocument(app, now))
	}

	indexed, err := h.index.BulkIndex(ctx, docs)
	if err != nil {
		h.logger.Warn("bulk index incomplete", map[string]interface{}{
			"index":     h.index.Name(),
			"documents": len(docs),
			"indexed":   indexed,
		})
		return nil, h.indexError(err)
	}

	h.logger.Info("admission results indexed", map[string]interface{}{
		"index":    h.index.Name(),
		"statuses": input.Statuses,
		"indexed":  indexed,
	})

	return &Output{
		Index:     h.index.Name(),
		Indexed:   indexed,
		IndexedAt: now.UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) indexError(err error) *errors.StandardError {
	if stderrors.Is(err, search.ErrUnavailable) {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	return errors.NewIndexingFailedError(h.index.Name(), err)
}

// Execute indexes results without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
