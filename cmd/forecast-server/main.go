// cmd/forecast-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sales-forecast/internal/batch"
	"sales-forecast/internal/catalog"
	"sales-forecast/internal/charts"
	"sales-forecast/internal/common/camunda"
	"sales-forecast/internal/common/config"
	"sales-forecast/internal/common/database"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/observability"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/forecast/model"
	"sales-forecast/internal/forecast/outlets"
	"sales-forecast/internal/notify"
	"sales-forecast/internal/server"
	"sales-forecast/internal/store"

	pb "sales-forecast/internal/workers/forecast/predict-batch"
	ps "sales-forecast/internal/workers/forecast/predict-single"
)

const shutdownTimeout = 30 * time.Second

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

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// connectWithRetry opens a client and pings it under retryWithBackoff. A client
// whose ping failed is closed before the next attempt.
func connectWithRetry[C pingCloser](ctx context.Context, open func() (C, error), maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) (C, error) {
	var client C
	err := retryWithBackoff(func() error {
		c, err := open()
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	}, maxRetries, initialDelay, log, operationName)
	return client, err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting forecast server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	if err := run(cfg, zapLog, log); err != nil {
		zapLog.Fatal("forecast server stopped", zap.Error(err))
	}
	zapLog.Info("Forecast server stopped gracefully")
}

func run(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Error("observability shutdown failed", zap.Error(err))
		}
	}()

	var readiness []server.ReadinessCheck

	// --- PostgreSQL, only when the outlet table lives there ---
	var outletDB outlets.Querier
	if cfg.Outlets.Source == config.OutletSourcePostgres {
		pg, err := connectWithRetry(ctx, func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return err
		}
		defer pg.Close()
		outletDB = pg.DB
		readiness = append(readiness, server.ReadinessCheck{Name: "postgres", Check: pg.Ping})
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Elasticsearch, only for the item catalog ---
	var esClient *database.ElasticsearchClient
	if cfg.Catalog.Source == config.CatalogSourceElasticsearch {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			return err
		}
		readiness = append(readiness, server.ReadinessCheck{Name: "elasticsearch", Check: esClient.Ping})
		zapLog.Info("Elasticsearch connected successfully", zap.String("url", cfg.Database.Elasticsearch.GetURL()))
	}

	// --- Redis, only for the batch result store ---
	var redisClient *database.RedisClient
	if cfg.Store.Backend == config.StoreBackendRedis {
		redisClient, err = connectWithRetry(ctx, func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis), nil
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return err
		}
		defer redisClient.Close()
		readiness = append(readiness, server.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
		zapLog.Info("Redis connected successfully")
	}

	// --- Forecast pipeline ---
	table, err := outlets.Load(ctx, cfg.Outlets, outletDB, log)
	if err != nil {
		return err
	}
	provider := model.NewProvider(cfg.Model, log)
	pipeline := forecast.NewPipeline(table, provider, log,
		forecast.WithBatchConfig(cfg.Batch),
		forecast.WithObservability(obs),
	)

	var rdb *redis.Client
	if redisClient != nil {
		rdb = redisClient.Client
	}
	results, err := store.New(cfg.Store, config.GetDuration(cfg.Batch.ResultTTL), rdb)
	if err != nil {
		return err
	}
	notifier, err := notify.New(ctx, cfg.Notifications, log)
	if err != nil {
		return err
	}
	batchService := batch.NewService(pipeline, results, notifier, cfg.Batch, log, obs)

	var es *elasticsearch.Client
	if esClient != nil {
		es = esClient.Client
	}
	items, err := catalog.New(cfg.Catalog, es, log)
	if err != nil {
		return err
	}

	palette, err := charts.NewPalette(cfg.Charts.Palette)
	if err != nil {
		return err
	}
	chartBuilder := charts.NewBuilder(palette, cfg.Charts.TopN, log)

	// --- Job workers ---
	var workers []*camunda.Worker
	if cfg.Camunda.Enabled {
		client, err := camunda.NewClient(camunda.ConfigFrom(cfg.Camunda))
		if err != nil {
			return err
		}
		defer client.Close()
		readiness = append(readiness, server.ReadinessCheck{Name: "zeebe", Check: client.HealthCheck})
		zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

		if singleCfg := ps.ConfigFromApp(cfg); singleCfg.Enabled {
			if err := singleCfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", ps.TaskType, err)
			}
			handler := ps.NewHandler(singleCfg, pipeline, log).WithObservability(obs)
			workers = append(workers, camunda.OpenWorker(client.Zeebe(), handler, camunda.WorkerOptions{
				MaxJobsActive: singleCfg.MaxJobsActive,
				Timeout:       singleCfg.Timeout,
			}, log))
		}
		if batchCfg := pb.ConfigFromApp(cfg); batchCfg.Enabled {
			if err := batchCfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", pb.TaskType, err)
			}
			handler := pb.NewHandler(batchCfg, batchService, log).WithObservability(obs)
			workers = append(workers, camunda.OpenWorker(client.Zeebe(), handler, camunda.WorkerOptions{
				MaxJobsActive: batchCfg.MaxJobsActive,
				Timeout:       batchCfg.Timeout,
			}, log))
		}
		zapLog.Info("Workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	srv := server.New(cfg.Server, server.Dependencies{
		Pipeline:  pipeline,
		Batch:     batchService,
		Catalog:   items,
		Charts:    chartBuilder,
		Readiness: readiness,
	}, log)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Server.Enabled {
		g.Go(srv.Start)
	}
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping...")

		for _, w := range workers {
			w.Close()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if !cfg.Server.Enabled {
			return nil
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
