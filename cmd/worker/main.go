package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/docline/consult-api/internal/config"
	"github.com/docline/consult-api/internal/repository/postgres"
	internalworker "github.com/docline/consult-api/internal/worker"
	"github.com/docline/consult-api/pkg/logger"
	redisbroker "github.com/docline/consult-api/pkg/messaging/redis"
	"github.com/docline/consult-api/pkg/metrics"
	"github.com/docline/consult-api/pkg/worker"
)

// WorkerConfig tunes the outbox workers. All knobs come from the
// environment so the worker can be redeployed without a config file.
type WorkerConfig struct {
	BatchSize       int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval    time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts   int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay      time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	RetentionDays   int           `envconfig:"OUTBOX_RETENTION_DAYS" default:"7"`
	CleanupInterval time.Duration `envconfig:"OUTBOX_CLEANUP_INTERVAL" default:"1h"`
	MetricsAddr     string        `envconfig:"WORKER_METRICS_ADDR" default:":8081"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var workerCfg WorkerConfig
	if err := envconfig.Process("", &workerCfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: time.Second,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     workerCfg.BatchSize,
			PollInterval:  workerCfg.PollInterval,
			RetryAttempts: workerCfg.RetryAttempts,
			RetryDelay:    workerCfg.RetryDelay,
		},
		appLogger,
		metrics.NewMetrics(cfg.Metrics.Prefix, "worker"),
	)

	cleanup := internalworker.NewOutboxCleanupWorker(
		outboxRepo,
		workerCfg.RetentionDays,
		workerCfg.CleanupInterval,
		appLogger,
	)

	startMetricsServer(workerCfg.MetricsAddr, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down worker...")
		cancel()
	}()

	go cleanup.Start(ctx)
	processor.Start(ctx)
}

func startMetricsServer(addr string, logger *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(err, "metrics server failed")
			os.Exit(1)
		}
	}()
}
