// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hrflow-workers/internal/common/config"
	"hrflow-workers/internal/common/database"
	"hrflow-workers/internal/common/logger"
	"hrflow-workers/internal/common/observability"

	// Application Workers (4)
	ce "hrflow-workers/internal/workers/application/check-eligibility"
	sa "hrflow-workers/internal/workers/application/submit-application"
	ts "hrflow-workers/internal/workers/application/transition-application-status"
	wa "hrflow-workers/internal/workers/application/withdraw-application"

	// Interview Workers (4)
	cev "hrflow-workers/internal/workers/interview/create-evaluation"
	iqa "hrflow-workers/internal/workers/interview/interview-quick-action"
	riw "hrflow-workers/internal/workers/interview/record-interview-writeup"
	si "hrflow-workers/internal/workers/interview/schedule-interview"

	// Notification Workers (1)
	sin "hrflow-workers/internal/workers/notification/send-internal-note"

	// Reporting Workers (2)
	irs "hrflow-workers/internal/workers/reporting/index-reporting-snapshot"
	qp "hrflow-workers/internal/workers/reporting/query-postgresql"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	// A disabled collector URL yields a no-op tracer, so the job wrapper
	// in startWorker can open spans unconditionally.
	collectorURL := ""
	if cfg.Tracing.Enabled {
		collectorURL = cfg.Tracing.JaegerURL
	}
	tracing, err := observability.NewTracing(cfg.App.Name, collectorURL, cfg.Tracing.SampleRatio)
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer tracing.Shutdown()
	if cfg.Tracing.Enabled {
		zapLog.Info("Tracing enabled", zap.String("collector", cfg.Tracing.JaegerURL))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- START: Register ALL 11 Workers ---

	// --- 1. Application Workers (4) ---
	if cfg.Workers[sa.TaskType].Enabled {
		handler := sa.NewHandler(
			&sa.Config{
				Timeout: time.Duration(cfg.Workers[sa.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, sa.TaskType, cfg.Workers[sa.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[ts.TaskType].Enabled {
		handler := ts.NewHandler(
			&ts.Config{
				Timeout: time.Duration(cfg.Workers[ts.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, ts.TaskType, cfg.Workers[ts.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[wa.TaskType].Enabled {
		handler := wa.NewHandler(
			&wa.Config{
				Timeout: time.Duration(cfg.Workers[wa.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, wa.TaskType, cfg.Workers[wa.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[ce.TaskType].Enabled {
		handler := ce.NewHandler(
			&ce.Config{
				Timeout:  time.Duration(cfg.Workers[ce.TaskType].Timeout) * time.Millisecond,
				CacheTTL: 5 * time.Minute,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(zeebeClient, ce.TaskType, cfg.Workers[ce.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 2. Interview Workers (4) ---
	if cfg.Workers[si.TaskType].Enabled {
		handler := si.NewHandler(
			&si.Config{
				Timeout: time.Duration(cfg.Workers[si.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, si.TaskType, cfg.Workers[si.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[iqa.TaskType].Enabled {
		handler := iqa.NewHandler(
			&iqa.Config{
				Timeout: time.Duration(cfg.Workers[iqa.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, iqa.TaskType, cfg.Workers[iqa.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[riw.TaskType].Enabled {
		handler := riw.NewHandler(
			&riw.Config{
				Timeout: time.Duration(cfg.Workers[riw.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, riw.TaskType, cfg.Workers[riw.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[cev.TaskType].Enabled {
		handler := cev.NewHandler(
			&cev.Config{
				Timeout: time.Duration(cfg.Workers[cev.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, cev.TaskType, cfg.Workers[cev.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 3. Notification Workers (1) ---
	if cfg.Workers[sin.TaskType].Enabled {
		handler, err := sin.NewHandler(
			&sin.Config{
				RecipientRoles: cfg.Notifications.RecipientRoles,
				EmailEnabled:   cfg.Notifications.Email.Enabled,
				SMSEnabled:     cfg.Notifications.SMS.Enabled,
				FromEmail:      cfg.Notifications.Email.FromEmail,
				AWSRegion:      cfg.Notifications.AWS.Region,
				Timeout:        time.Duration(cfg.Workers[sin.TaskType].Timeout) * time.Millisecond,
			},
			pg.DB, redis.Client, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-internal-note handler", zap.Error(err))
		}
		startWorker(zeebeClient, sin.TaskType, cfg.Workers[sin.TaskType], handler.Handle, tracing, zapLog)
	}

	// --- 4. Reporting Workers (2) ---
	if cfg.Workers[qp.TaskType].Enabled {
		handler := qp.NewHandler(
			&qp.Config{
				Timeout: time.Duration(cfg.Reporting.QueryTimeout) * time.Millisecond,
				MaxRows: cfg.Reporting.MaxRows,
			},
			pg.DB, log,
		)
		startWorker(zeebeClient, qp.TaskType, cfg.Workers[qp.TaskType], handler.Handle, tracing, zapLog)
	}

	if cfg.Workers[irs.TaskType].Enabled {
		handler := irs.NewHandler(
			&irs.Config{
				Timeout:       time.Duration(cfg.Workers[irs.TaskType].Timeout) * time.Millisecond,
				SnapshotIndex: cfg.Reporting.SnapshotIndex,
			},
			pg.DB, esClient.Client, log,
		)
		startWorker(zeebeClient, irs.TaskType, cfg.Workers[irs.TaskType], handler.Handle, tracing, zapLog)
	}

	zapLog.Info("All 11 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
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

	_ = shutdownCtx

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), tracing *observability.Tracing, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(tracing.WrapJobHandler(taskType, handlerFunc)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
