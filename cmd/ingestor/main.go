// cmd/ingestor/main.go
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stac-ingestor/internal/common/aws"
	"stac-ingestor/internal/common/config"
	"stac-ingestor/internal/common/database"
	httpclient "stac-ingestor/internal/common/http"
	"stac-ingestor/internal/common/logger"
	"stac-ingestor/internal/common/observability"
	"stac-ingestor/internal/ingest/accumulator"
	"stac-ingestor/internal/ingest/assetcheck"
	"stac-ingestor/internal/ingest/collectioncheck"
	"stac-ingestor/internal/ingest/coordinator"
	"stac-ingestor/internal/ingest/deadletter"
	"stac-ingestor/internal/ingest/pipeline"
	"stac-ingestor/internal/ingest/specvalidator"
	"stac-ingestor/internal/ingest/writer"
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

	zapLog.Info("Starting ingestor...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
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

	// --- Init Redis with retry ---
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

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init AWS clients ---
	s3Client, err := aws.NewS3Client(ctx, cfg.AWS.Region)
	if err != nil {
		zapLog.Fatal("s3 client failed", zap.Error(err))
	}

	var notifier *deadletter.Notifier
	if cfg.Alerts.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notifier = deadletter.NewNotifier(snsClient, cfg.Alerts.SNS.TopicARN, log)
	}

	// --- Build the validation pipeline ---
	specChecker, err := specvalidator.New(log)
	if err != nil {
		zapLog.Fatal("spec validator failed", zap.Error(err))
	}

	probeTimeout := config.GetDuration(cfg.Ingest.ProbeTimeoutMs)
	headClient := httpclient.NewClient(probeTimeout)
	httpProber := assetcheck.NewHTTPProber(headClient)
	assetChecker := assetcheck.NewChecker(
		&assetcheck.Config{ProbeTimeout: probeTimeout},
		map[string]assetcheck.Prober{
			"http":  httpProber,
			"https": httpProber,
			"s3":    assetcheck.NewS3Prober(s3Client),
		},
		log,
	)

	registry := collectioncheck.NewCachedRegistry(
		collectioncheck.NewPostgresRegistry(pg.DB),
		redis.Client,
		config.GetDuration(cfg.Ingest.CollectionCacheTTLMs),
		log,
	)
	collectionChecker := collectioncheck.NewChecker(registry, log)

	validationPipeline := pipeline.New(specChecker, assetChecker, collectionChecker, log)

	// --- Build batching and commit ---
	batcher := accumulator.New(&accumulator.Config{
		MaxBatchSize: cfg.Ingest.MaxBatchSize,
		MaxWait:      config.GetDuration(cfg.Ingest.MaxBatchWaitMs),
	}, log)

	catalogWriter := writer.New(writer.Config{
		MaxCommitRetries: cfg.Ingest.MaxCommitRetries,
		RetryBackoff:     config.GetDuration(cfg.Ingest.RetryBackoffMs),
		RetryBackoffMax:  config.GetDuration(cfg.Ingest.RetryBackoffMaxMs),
	}, writer.NewPostgresStore(pg.DB), log)

	deadLetterStore := deadletter.NewStore(esClient.Client, cfg.Database.Elasticsearch.DeadLetterIndex, log)

	coord := coordinator.New(
		coordinator.Config{
			ValidationWorkers:   cfg.Ingest.ValidationWorkers,
			SubmissionQueueSize: cfg.Ingest.SubmissionQueueSize,
			DeadLetterIndex:     cfg.Database.Elasticsearch.DeadLetterIndex,
			SubmissionRetention: config.GetDuration(cfg.Ingest.SubmissionRetentionMs),
		},
		validationPipeline,
		batcher,
		catalogWriter,
		deadLetterStore,
		notifierOrNil(notifier),
		obs,
		log,
	)
	coord.Start(ctx)
	zapLog.Info("Ingest coordinator started")

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
		zapLog.Info("Health/Metrics server listening on " + cfg.Metrics.ListenAddress)
		if err := http.ListenAndServe(cfg.Metrics.ListenAddress, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining pipeline...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := coord.Stop(shutdownCtx); err != nil {
		zapLog.Error("Shutdown drain incomplete", zap.Error(err))
	}

	zapLog.Info("Ingestor stopped gracefully")
}

// notifierOrNil avoids handing the coordinator a typed nil Alerter when
// SNS alerting is disabled.
func notifierOrNil(n *deadletter.Notifier) coordinator.Alerter {
	if n == nil {
		return nil
	}
	return n
}
