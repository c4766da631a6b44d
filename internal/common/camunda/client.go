// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/common/config"
	"admission-workers/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client is the Zeebe gateway connection shared by the job workers and the
// admin CLI.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress string
	Plaintext      bool
	ConnectTimeout time.Duration
	CommandTimeout time.Duration
	// CommandRetries is how often a transient command failure is retried.
	// The delay doubles from RetryDelay on every attempt.
	CommandRetries int
	RetryDelay     time.Duration
}

// ConfigFrom builds the client settings for the configured broker.
func ConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	commandTimeout := config.GetDuration(cfg.RequestTimeout)
	if commandTimeout <= 0 {
		commandTimeout = 30 * time.Second
	}
	return &ClientConfig{
		GatewayAddress: cfg.BrokerAddress,
		Plaintext:      true,
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: commandTimeout,
		CommandRetries: 3,
		RetryDelay:     time.Second,
	}
}

// NewClient connects to the gateway and checks the broker topology once.
func NewClient(cfg *ClientConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.Plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: cfg}
	if err := c.HealthCheck(context.Background()); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.GatewayAddress, err)
	}
	return c, nil
}

// GetClient returns the raw Zeebe client used to open job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// StartProcess creates an instance of the latest deployed version of
// processID and returns its key.
func (c *Client) StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error) {
	return sendWithRetry(ctx, c.config, "create-instance:"+processID, func(ctx context.Context) (int64, error) {
		cmd, err := c.client.NewCreateInstanceCommand().
			BPMNProcessId(processID).
			LatestVersion().
			VariablesFromMap(variables)
		if err != nil {
			return 0, err
		}
		resp, err := cmd.Send(ctx)
		if err != nil {
			return 0, err
		}
		return resp.GetProcessInstanceKey(), nil
	})
}

// HealthCheck asks the broker for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// sendWithRetry runs one gateway command, retrying only transient failures.
// The final failure is returned as a StandardError.
func sendWithRetry[T any](ctx context.Context, cfg *ClientConfig, operation string, send func(context.Context) (T, error)) (T, error) {
	var zero T
	delay := cfg.RetryDelay

	for attempt := 0; ; attempt++ {
		cmdCtx, cancel := commandContext(ctx, cfg.CommandTimeout)
		result, err := send(cmdCtx)
		cancel()
		if err == nil {
			return result, nil
		}

		failure := classify(err)
		if !failure.transient || attempt == cfg.CommandRetries {
			return zero, failure.wrap(operation, attempt, err)
		}

		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return zero, errors.NewTimeoutError("zeebe",
				fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err()))
		}
	}
}

func commandContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

type gatewayFailure struct {
	phrases   []string
	transient bool
	build     func(detail string) *errors.StandardError
}

// gatewayFailures is matched in order against the lower-cased gRPC message.
var gatewayFailures = []gatewayFailure{
	{
		phrases:   []string{"connection refused", "connection reset", "unavailable", "unreachable", "broken pipe"},
		transient: true,
		build: func(detail string) *errors.StandardError {
			return errors.NewExternalServiceError("zeebe", fmt.Errorf("%s", detail))
		},
	},
	{
		phrases:   []string{"timeout", "deadline exceeded"},
		transient: true,
		build: func(detail string) *errors.StandardError {
			return errors.NewTimeoutError("zeebe", fmt.Errorf("%s", detail))
		},
	},
	{
		phrases: []string{"not found"},
		build: func(detail string) *errors.StandardError {
			return errors.NewResourceNotFoundError("zeebe", detail)
		},
	},
	{
		phrases: []string{"already exists"},
		build: func(detail string) *errors.StandardError {
			return errors.NewBusinessRuleError(detail, "Resource already exists")
		},
	},
	{
		phrases: []string{"permission denied", "unauthorized"},
		build: func(detail string) *errors.StandardError {
			return errors.NewAuthenticationError(detail)
		},
	},
}

var unknownFailure = gatewayFailure{
	build: func(detail string) *errors.StandardError {
		return errors.NewExternalServiceError("zeebe", fmt.Errorf("%s", detail))
	},
}

func classify(err error) gatewayFailure {
	msg := strings.ToLower(err.Error())
	for _, f := range gatewayFailures {
		for _, phrase := range f.phrases {
			if strings.Contains(msg, phrase) {
				return f
			}
		}
	}
	return unknownFailure
}

func (f gatewayFailure) wrap(operation string, attempt int, err error) *errors.StandardError {
	detail := fmt.Sprintf("Zeebe operation '%s' failed", operation)
	if attempt > 0 {
		detail += fmt.Sprintf(" after %d attempts", attempt+1)
	}
	return f.build(detail + ": " + err.Error())
}
