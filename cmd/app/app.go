// Package main is the entry point for the exchange rate harvester service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rateharvester/internal/config"
	"rateharvester/internal/events"
	"rateharvester/internal/metrics"
	"rateharvester/internal/provider"
	"rateharvester/internal/repository"
	"rateharvester/internal/service"
	"rateharvester/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg            *config.Config
	logger         *zap.SugaredLogger
	db             *sql.DB
	rdbCache       *redis.Client
	rdbAsynq       *redis.Client
	asynqServer    *asynq.Server
	asynqMux       *asynq.ServeMux
	asynqScheduler *asynq.Scheduler
	publisher      events.Publisher
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	httpServer     *http.Server
	closers        []func() error
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:    cfg,
		logger: logger,
	}

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database, Redis and broker connections
func (app *App) close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	db, err := repository.NewPostgresDB(context.Background(), &app.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db

	if err := repository.RunMigrations(app.db, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	app.rdbCache = redis.NewClient(&redis.Options{
		Addr: app.cfg.Redis.CacheAddr,
	})
	if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
	}
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)

	return nil
}

func (app *App) initServices() error {
	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:              app.cfg.Worker.Concurrency,
			DelayedTaskCheckInterval: time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
			TaskCheckInterval:        time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second,
			Logger:                   app.logger,
		},
	)
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	app.publisher = events.NopPublisher{}
	if app.cfg.Kafka.Enabled() {
		app.publisher = events.NewKafkaPublisher(app.cfg.Kafka.Brokers, app.cfg.Kafka.Topic)
		app.logger.Infow("Publishing refresh events to Kafka", "brokers", app.cfg.Kafka.Brokers, "topic", app.cfg.Kafka.Topic)
	}

	rateProvider := newRateProvider(app.cfg, app.rdbCache)
	if app.cfg.KoreaExim.APIKey == "" {
		app.logger.Warnw("koreaexim.api_key is not set; fetch requests will fail until it is configured")
	}

	rateRepo := repository.NewPostgresRateRepository(app.db)
	rateService := service.NewRateService(
		rateRepo,
		rateProvider,
		service.NewValidator(),
		app.rdbCache,
		app.logger,
		app.cfg.Cache,
		app.cfg.Pagination,
		service.WithPublisher(app.publisher),
		service.WithMetrics(app.metrics),
	)

	app.asynqMux = asynq.NewServeMux()
	app.asynqMux.HandleFunc(worker.TaskTypeFetchRates, worker.NewFetchRatesHandler(rateService, app.logger))

	if app.cfg.Worker.ScheduleCron != "" {
		scheduler, err := worker.NewScheduler(redisOpt, worker.ScheduleOptions{
			Cron:     app.cfg.Worker.ScheduleCron,
			Timezone: app.cfg.Worker.Timezone,
			MaxRetry: app.cfg.Worker.MaxRetry,
			Timeout:  time.Duration(app.cfg.Worker.TimeoutSec) * time.Second,
		}, app.logger)
		if err != nil {
			return fmt.Errorf("configure refresh schedule: %w", err)
		}
		app.asynqScheduler = scheduler
	}

	return app.initHTTP(rateService, redisOpt)
}

func newRateProvider(cfg *config.Config, cache *redis.Client) provider.RatesProvider {
	ttl := time.Duration(cfg.Cache.ProviderTTLSec) * time.Second
	p := provider.NewKoreaEximProvider(cfg.KoreaExim)
	return provider.NewCachedRatesProvider(p, cache, ttl, "koreaexim")
}

// Run starts the HTTP server, Asynq worker and scheduler, blocking until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		<-ctx.Done()
		return nil
	})

	if app.asynqScheduler != nil {
		g.Go(func() error {
			app.logger.Infow("Starting refresh scheduler", "cron", app.cfg.Worker.ScheduleCron)
			if err := app.asynqScheduler.Start(); err != nil {
				return fmt.Errorf("asynq scheduler failed to start: %w", err)
			}

			<-ctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> scheduler -> Asynq worker -> connections.
// In-flight refreshes finish before the DB and Redis connections close.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Stop enqueuing scheduled refreshes
	if app.asynqScheduler != nil {
		app.asynqScheduler.Shutdown()
	}

	// 3. Drain in-flight Asynq tasks
	app.asynqServer.Shutdown()

	// 4. Close connections (monitoring UI, broker, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
