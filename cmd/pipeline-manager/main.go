// cmd/pipeline-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"recruiting-pipeline/internal/api"
	"recruiting-pipeline/internal/common/aws"
	"recruiting-pipeline/internal/common/camunda"
	"recruiting-pipeline/internal/common/config"
	"recruiting-pipeline/internal/common/database"
	"recruiting-pipeline/internal/common/logger"
	"recruiting-pipeline/internal/common/observability"
	"recruiting-pipeline/internal/common/validation"
	"recruiting-pipeline/internal/store"
	"recruiting-pipeline/internal/store/memory"
	"recruiting-pipeline/internal/store/postgres"
	"recruiting-pipeline/internal/store/redisstore"
	"recruiting-pipeline/internal/store/search"
	"recruiting-pipeline/internal/workers"
	"recruiting-pipeline/pkg/registry"
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

	zapLog, err := logger.Build(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting pipeline manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Pipeline.Store),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics exporter unavailable", zap.Error(err))
	}

	ctx := context.Background()
	ready := map[string]api.Pinger{}

	// --- Store ---
	var st store.Store
	switch cfg.Pipeline.Store {
	case "memory":
		st = memory.New()
		zapLog.Warn("Using the in-process store; data is lost on restart")
	default:
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

		pgStore := postgres.New(pg.DB)
		if cfg.Database.Postgres.EnsureSchema {
			if err := pgStore.EnsureSchema(ctx); err != nil {
				zapLog.Fatal("schema setup failed", zap.Error(err))
			}
		}
		st = pgStore
		ready["postgres"] = pg
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Redis: dead letters and hook guard ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		rdb = database.NewRedis(cfg.Database.Redis)
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	ready["redis"] = rdb
	zapLog.Info("Redis connected successfully")

	b := backends{
		Store:      st,
		DeadLetter: redisstore.NewDeadLetterQueue(rdb.Client, cfg.Pipeline.DeadLetterKey),
		Guard:      redisstore.NewGuard(rdb.Client, "pipeline:hooks:", time.Duration(cfg.Pipeline.HookGuardTTL)*time.Second),
	}

	// --- Elasticsearch timeline mirror (optional) ---
	if cfg.Database.Elasticsearch.Enabled() {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch client failed", zap.Error(err))
		}
		if err := esClient.Ping(ctx); err != nil {
			zapLog.Warn("Elasticsearch not reachable yet; mirroring is best-effort", zap.Error(err))
		}
		b.Mirrors = append(b.Mirrors, search.NewTimelineIndex(esClient.Client, cfg.Pipeline.TimelineIndex))
		ready["elasticsearch"] = esClient
	}

	// --- Notifications (optional) ---
	if n := cfg.Notifications; n.Enabled() {
		clients, err := aws.NewClients(ctx, n.AWS.Region, n.Email.Enabled, n.SMS.Enabled)
		if err != nil {
			zapLog.Fatal("aws clients failed", zap.Error(err))
		}
		if clients.SES != nil {
			b.Email = clients.SES
		}
		if clients.SNS != nil {
			b.SMS = clients.SNS
		}
	}

	// --- Zeebe (optional) ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      10 * time.Second,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		b.Processes = zeebe
		ready["zeebe"] = zeebe
		zapLog.Info("Zeebe client connected successfully")
	}

	c, err := buildCore(cfg, b, obs, log)
	if err != nil {
		zapLog.Fatal("pipeline core setup failed", zap.Error(err))
	}

	// --- Job workers ---
	var opened []worker.JobWorker
	if zeebe != nil {
		reg := registry.Default()
		if cfg.Registry.Path != "" {
			if reg, err = registry.LoadRegistry(cfg.Registry.Path); err != nil {
				zapLog.Fatal("activity registry load failed", zap.Error(err))
			}
		}
		validator, err := validation.NewValidator(reg)
		if err != nil {
			zapLog.Fatal("activity registry schemas invalid", zap.Error(err))
		}
		handlers := workers.Handlers(cfg, workers.Deps{
			Engine:     c.Engine,
			Offers:     c.Offers,
			Status:     c.Status,
			Intake:     c.Intake,
			Candidates: st,
			Validator:  validator,
		}, obs, log)
		opened = workers.Start(zeebe.GetClient(), cfg, reg, handlers, log)
		zapLog.Info("Job workers registered", zap.Int("count", len(opened)))
	}

	// --- HTTP API, health and metrics ---
	srv := &http.Server{
		Addr: cfg.HTTP.Address,
		Handler: api.NewRouter(api.Deps{
			Engine: c.Engine,
			Offers: c.Offers,
			Status: c.Status,
			Intake: c.Intake,
			Ready:  ready,
			Logger: log,
		}),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownTimeout := config.GetDuration(cfg.HTTP.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, w := range opened {
		w.Close()
		w.AwaitClose()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if !c.drain(shutdownTimeout) {
		zapLog.Warn("Automation hooks still running at shutdown")
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("Pipeline manager stopped")
}

