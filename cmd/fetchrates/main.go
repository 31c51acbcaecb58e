// Command fetchrates runs one fetch-and-store cycle from the command line,
// or hands it to the background worker with --enqueue.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"rateharvester/internal/config"
	"rateharvester/internal/provider"
	"rateharvester/internal/repository"
	"rateharvester/internal/service"
	"rateharvester/internal/worker"
)

func main() {
	date := pflag.StringP("date", "d", "", "quotation date to fetch (YYYY-MM-DD); defaults to today")
	enqueue := pflag.Bool("enqueue", false, "enqueue the fetch for the background worker instead of running it here")
	verbose := pflag.BoolP("verbose", "v", false, "log at debug level")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	sugar := zapLogger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		err = enqueueFetch(ctx, cfg, *date, sugar)
	} else {
		err = runFetch(ctx, cfg, *date, sugar)
	}
	if err != nil {
		sugar.Errorw("Fetch failed", "date", *date, "error", err)
		os.Exit(1)
	}
}

func enqueueFetch(ctx context.Context, cfg *config.Config, date string, logger *zap.SugaredLogger) error {
	if date != "" {
		if _, err := service.ParseDate(date); err != nil {
			return err
		}
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.AsynqAddr})
	defer func() { _ = client.Close() }()

	enq := worker.NewAsynqEnqueuer(client, cfg.Worker.MaxRetry, time.Duration(cfg.Worker.TimeoutSec)*time.Second)
	id, err := enq.EnqueueFetchTask(ctx, date)
	if err != nil {
		return fmt.Errorf("enqueue fetch task: %w", err)
	}
	logger.Infow("Fetch task enqueued", "task_id", id, "date", date)
	return nil
}

func runFetch(ctx context.Context, cfg *config.Config, date string, logger *zap.SugaredLogger) error {
	db, err := repository.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := repository.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	// The API caches point lookups, so write through when the cache is reachable.
	var cache *redis.Client
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.CacheAddr})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnw("Redis cache unavailable, continuing without it", "addr", cfg.Redis.CacheAddr, "error", err)
	} else {
		cache = rdb
	}

	svc := service.NewRateService(
		repository.NewPostgresRateRepository(db),
		provider.NewKoreaEximProvider(cfg.KoreaExim),
		service.NewValidator(),
		cache,
		logger,
		cfg.Cache,
		cfg.Pagination,
	)

	var res *service.RefreshResult
	if date == "" {
		res, err = svc.FetchToday(ctx)
	} else {
		res, err = svc.FetchByDate(ctx, date)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"date":    res.Date,
		"count":   res.Count,
		"message": res.Message,
	})
}
