// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"admission-workers/internal/common/config"
	"admission-workers/internal/common/errors"
	"admission-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClientConfig(retries int) *ClientConfig {
	return &ClientConfig{
		ConnectTimeout: time.Second,
		CommandTimeout: time.Second,
		CommandRetries: retries,
		RetryDelay:     time.Millisecond,
	}
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 5000})

	assert.Equal(t, "zeebe:26500", cfg.GatewayAddress)
	assert.True(t, cfg.Plaintext)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.Equal(t, 3, cfg.CommandRetries)

	assert.Equal(t, 30*time.Second, ConfigFrom(config.CamundaConfig{}).CommandTimeout)
}

func TestClassify_Transient(t *testing.T) {
	tests := []struct {
		msg       string
		transient bool
	}{
		{"rpc error: code = Unavailable desc = connection refused", true},
		{"context deadline exceeded", true},
		{"write: broken pipe", true},
		{"NOT_FOUND: process 'admission' not found", false},
		{"INVALID_ARGUMENT: bad variables", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			assert.Equal(t, tt.transient, classify(stderrors.New(tt.msg)).transient)
		})
	}
}

func TestClassify_ErrorCodes(t *testing.T) {
	tests := []struct {
		msg  string
		code errors.ErrorCode
	}{
		{"connection refused", "EXTERNAL_SERVICE_ERROR"},
		{"deadline exceeded", "TIMEOUT_ERROR"},
		{"process not found", "RESOURCE_NOT_FOUND"},
		{"instance already exists", "BUSINESS_RULE_VIOLATION"},
		{"permission denied", "AUTHENTICATION_ERROR"},
		{"something odd", "EXTERNAL_SERVICE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := stderrors.New(tt.msg)
			stdErr := classify(err).wrap("create-instance", 0, err)
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}

func TestSendWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0

	key, err := sendWithRetry(context.Background(), testClientConfig(3), "create-instance", func(context.Context) (int64, error) {
		calls++
		if calls < 3 {
			return 0, stderrors.New("unavailable")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), key)
	assert.Equal(t, 3, calls)
}

func TestSendWithRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0

	_, err := sendWithRetry(context.Background(), testClientConfig(3), "create-instance", func(context.Context) (int64, error) {
		calls++
		return 0, stderrors.New("process not found")
	})

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrorCode("RESOURCE_NOT_FOUND"), stdErr.Code)
	assert.Equal(t, 1, calls)
}

func TestSendWithRetry_GivesUpAfterRetries(t *testing.T) {
	calls := 0

	_, err := sendWithRetry(context.Background(), testClientConfig(2), "create-instance", func(context.Context) (int64, error) {
		calls++
		return 0, stderrors.New("connection reset")
	})

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 3, calls)
	assert.Contains(t, stdErr.Details, "after 3 attempts")
}

func TestSendWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testClientConfig(5)
	cfg.RetryDelay = time.Hour

	_, err := sendWithRetry(ctx, cfg, "create-instance", func(context.Context) (int64, error) {
		cancel()
		return 0, stderrors.New("unavailable")
	})

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrorCode("TIMEOUT_ERROR"), stdErr.Code)
}

// ==========================
// Worker instrumentation
// ==========================

type nopJobClient struct {
	worker.JobClient
}

func TestInstrument_CallsHandlerAndReleasesGauge(t *testing.T) {
	const taskType = "instrument-test"
	called := false

	wrapped := Instrument(taskType, func(client worker.JobClient, job entities.Job) {
		called = true
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	}, nil)

	wrapped(nopJobClient{}, entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1}})

	assert.True(t, called)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
}
