// internal/workers/admission/send-result-notification/handler.go
package sendresultnotification

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"admission-workers/internal/common/aws"
	"admission-workers/internal/common/camunda"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/metrics"
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
	"admission-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-result-notification"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	resultSent    = "sent"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

// EmailSender is satisfied by aws.Mailer.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by aws.Texter.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config *Config
	repo   *repository.Applications
	email  EmailSender
	sms    SMSSender
	errors *errors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

// NewHandler wires the senders. A nil sender or a disabled channel skips
// that channel.
func NewHandler(cfg *Config, db *sql.DB, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if !cfg.EmailEnabled {
		email = nil
	}
	if !cfg.SMSEnabled {
		sms = nil
	}
	return &Handler{
		config: cfg,
		repo:   repository.NewApplications(db),
		email:  email,
		sms:    sms,
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
	tmpl := defaultTemplates[input.Status]

	recipients, err := h.repo.ListByStatus(ctx, input.Status)
	if err != nil {
		return nil, errors.FromQuery("list recipients", err)
	}
	already, err := h.repo.SentNotifications(ctx, input.Status)
	if err != nil {
		return nil, errors.FromQuery("list sent notifications", err)
	}

	output := &Output{Status: string(input.Status), Recipients: len(recipients)}
	var lastErr error
	lastChannel := ""

	for _, app := range recipients {
		values := h.templateValues(app)
		subject := renderTemplate(tmpl.Subject, values)
		body := renderTemplate(tmpl.Body, values)

		for _, channel := range []string{ChannelSMS, ChannelEmail} {
			if already[app.ID][channel] {
				output.Skipped++
				continue
			}

			result, err := h.deliver(ctx, channel, app, subject, body)
			metrics.NotificationsSent.WithLabelValues(channel, result).Inc()
			switch result {
			case resultSent:
				output.Sent++
			case resultFailed:
				output.Failed++
				lastErr, lastChannel = err, channel
				h.logger.Warn("notification failed", map[string]interface{}{
					"applicationId": app.ID,
					"channel":       channel,
					"error":         err.Error(),
				})
			default:
				output.Skipped++
				continue
			}

			h.record(ctx, app.ID, input.Status, channel, result)
		}
	}

	if output.Sent == 0 && output.Failed > 0 {
		return nil, errors.NewNotificationSendFailedError(lastChannel, lastErr)
	}

	h.logger.Info("result notifications sent", map[string]interface{}{
		"status":     input.Status,
		"recipients": output.Recipients,
		"sent":       output.Sent,
		"failed":     output.Failed,
		"skipped":    output.Skipped,
	})
	return output, nil
}

// deliver sends one message and reports sent, failed or skipped.
func (h *Handler) deliver(ctx context.Context, channel string, app models.Application, subject, body string) (string, error) {
	switch channel {
	case ChannelSMS:
		if h.sms == nil || !validation.ValidateMobile(app.Applicant.PhoneNumber) {
			return resultSkipped, nil
		}
		if _, err := h.sms.Send(ctx, aws.ToE164(app.Applicant.PhoneNumber), body); err != nil {
			return resultFailed, err
		}
	case ChannelEmail:
		if h.email == nil || app.Applicant.Email == "" {
			return resultSkipped, nil
		}
		if _, err := h.email.Send(ctx, app.Applicant.Email, subject, body); err != nil {
			return resultFailed, err
		}
	default:
		return resultSkipped, nil
	}
	return resultSent, nil
}

func (h *Handler) record(ctx context.Context, applicationID string, status models.FormStatus, channel, result string) {
	err := h.repo.RecordNotification(ctx, models.Notification{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		Status:        status,
		Channel:       channel,
		Result:        result,
		SentAt:        h.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("failed to record notification", map[string]interface{}{
			"applicationId": applicationID,
			"channel":       channel,
			"error":         err.Error(),
		})
	}
}

func (h *Handler) templateValues(app models.Application) map[string]string {
	return map[string]string{
		"schoolName":        h.config.SchoolName,
		"name":              app.Applicant.Name,
		"examinationNumber": strconv.FormatInt(app.ExamNo(), 10),
		"category":          app.Category.Label(),
	}
}

// renderTemplate replaces {{key}} placeholders. Unknown placeholders stay.
func renderTemplate(tmpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Execute sends notifications without a job client.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
