// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"admission-workers/internal/common/aws"
	"admission-workers/internal/common/camunda"
	"admission-workers/internal/common/config"
	"admission-workers/internal/common/database"
	"admission-workers/internal/common/logger"
	"admission-workers/internal/common/observability"
	"admission-workers/internal/repository"
	"admission-workers/internal/selection"

	iar "admission-workers/internal/workers/admission/index-admission-results"
	ra "admission-workers/internal/workers/admission/receive-application"
	sfp "admission-workers/internal/workers/admission/select-first-pass"
	ssp "admission-workers/internal/workers/admission/select-second-pass"
	srn "admission-workers/internal/workers/admission/send-result-notification"
	sa "admission-workers/internal/workers/admission/submit-application"
	usr "admission-workers/internal/workers/admission/update-second-round-score"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel meter unavailable, job metrics limited to prometheus collectors", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- AWS senders ---
	var mailer srn.EmailSender
	var texter srn.SMSSender
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := aws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Integrations.AWS.SES.Enabled {
			mailer = aws.NewSESMailer(awsCfg, cfg.Integrations.AWS.SES.FromEmail)
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			texter = aws.NewSNSTexter(awsCfg, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		}
	}

	// --- Selection service ---
	quota, err := cfg.Admission.QuotaConfig()
	if err != nil {
		zapLog.Fatal("invalid admission quota", zap.Error(err))
	}
	service := selection.NewService(selection.Options{
		Repository: repository.NewApplications(pg.DB),
		Redis:      redis,
		Quota:      quota,
		LockTTL:    config.GetDuration(cfg.Admission.LockTTL),
		Logger:     log,
	})

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	register := func(taskType string, handle camunda.HandleFunc) {
		if w := camunda.NewWorker(zeebe.GetClient(), taskType, cfg.Workers[taskType], handle, log, obs); w != nil {
			workers = append(workers, w)
		}
	}

	saCfg, err := sa.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("submit-application config", zap.Error(err))
	}
	register(sa.TaskType, sa.NewHandler(saCfg, pg.DB, log).Handle)

	raCfg, err := ra.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("receive-application config", zap.Error(err))
	}
	register(ra.TaskType, ra.NewHandler(raCfg, pg.DB, log).Handle)

	sfpCfg, err := sfp.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("select-first-pass config", zap.Error(err))
	}
	register(sfp.TaskType, sfp.NewHandler(sfpCfg, service, log).Handle)

	usrCfg, err := usr.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("update-second-round-score config", zap.Error(err))
	}
	register(usr.TaskType, usr.NewHandler(usrCfg, service, log).Handle)

	sspCfg, err := ssp.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("select-second-pass config", zap.Error(err))
	}
	register(ssp.TaskType, ssp.NewHandler(sspCfg, service, log).Handle)

	srnCfg, err := srn.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("send-result-notification config", zap.Error(err))
	}
	register(srn.TaskType, srn.NewHandler(srnCfg, pg.DB, mailer, texter, log).Handle)

	iarCfg, err := iar.LoadConfig(cfg)
	if err != nil {
		zapLog.Fatal("index-admission-results config", zap.Error(err))
	}
	indexer, err := iar.NewHandler(iarCfg, pg.DB, esClient.Client, log)
	if err != nil {
		zapLog.Fatal("failed to create index-admission-results handler", zap.Error(err))
	}
	register(iar.TaskType, indexer.Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		for name, ping := range map[string]func(context.Context) error{
			"postgres":      pg.Ping,
			"redis":         redis.Ping,
			"elasticsearch": esClient.Ping,
			"zeebe":         zeebe.HealthCheck,
		} {
			if err := ping(checkCtx); err != nil {
				checks[name] = err.Error()
				ready = false
				continue
			}
			checks[name] = "ok"
		}

		if !ready {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", checks)
			return
		}
		writeStatus(w, http.StatusOK, "ready", checks)
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := cfg.App.HTTPPort
	if port == 0 {
		port = 8080
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
		zapLog.Info("Worker stopped", zap.String("taskType", w.TaskType()))
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
