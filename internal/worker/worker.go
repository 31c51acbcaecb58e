// Package worker implements the background refresh task and its scheduling.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"rateharvester/internal/provider"
	"rateharvester/internal/service"
)

// TaskTypeFetchRates is the asynq task type for one fetch-and-store cycle.
const TaskTypeFetchRates = "rates:fetch"

// FetchRatesPayload selects the date to refresh. An empty Date means today.
type FetchRatesPayload struct {
	Date string `json:"date,omitempty"`
}

// Refresher is the part of the rate service the worker drives.
type Refresher interface {
	FetchToday(ctx context.Context) (*service.RefreshResult, error)
	FetchByDate(ctx context.Context, date string) (*service.RefreshResult, error)
}

// NewFetchRatesHandler returns a function to handle rate refresh tasks.
func NewFetchRatesHandler(svc Refresher, logger *zap.SugaredLogger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload FetchRatesPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				logger.Errorw("Invalid task payload", "type", t.Type(), "error", err)
				return nil
			}
		}

		var (
			res *service.RefreshResult
			err error
		)
		if payload.Date == "" {
			res, err = svc.FetchToday(ctx)
		} else {
			res, err = svc.FetchByDate(ctx, payload.Date)
		}

		if err != nil {
			logger.Errorw("Rate refresh failed", "date", payload.Date, "error", err)
			// Retrying cannot fix bad input or a missing credential.
			if service.IsValidationError(err) || provider.IsConfigurationError(err) {
				return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
			}
			return err
		}

		logger.Infow("Rate refresh completed", "date", res.Date, "count", res.Count)
		return nil
	}
}

// NewFetchRatesTask builds a refresh task for date ("" for today).
func NewFetchRatesTask(date string, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(FetchRatesPayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeFetchRates, data, opts...), nil
}

// AsynqEnqueuer is responsible for enqueuing refresh tasks with the configured retries and timeout.
type AsynqEnqueuer struct {
	client   *asynq.Client
	maxRetry int
	timeout  time.Duration
}

// NewAsynqEnqueuer creates a new AsynqEnqueuer with the given client, retry limit, and task timeout duration.
func NewAsynqEnqueuer(client *asynq.Client, maxRetry int, timeout time.Duration) *AsynqEnqueuer {
	return &AsynqEnqueuer{
		client:   client,
		maxRetry: maxRetry,
		timeout:  timeout,
	}
}

// EnqueueFetchTask enqueues a refresh of date and returns the task ID.
func (e *AsynqEnqueuer) EnqueueFetchTask(ctx context.Context, date string) (string, error) {
	task, err := NewFetchRatesTask(date,
		asynq.MaxRetry(e.maxRetry),
		asynq.Timeout(e.timeout),
	)
	if err != nil {
		return "", err
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// ScheduleOptions configures the periodic refresh.
type ScheduleOptions struct {
	Cron     string
	Timezone string
	MaxRetry int
	Timeout  time.Duration
}

// ErrNoSchedule is returned by NewScheduler when no cron expression is configured.
var ErrNoSchedule = errors.New("no refresh schedule configured")

// NewScheduler registers a periodic "fetch today" task on an asynq scheduler.
func NewScheduler(redisOpt asynq.RedisConnOpt, opts ScheduleOptions, logger *zap.SugaredLogger) (*asynq.Scheduler, error) {
	if opts.Cron == "" {
		return nil, ErrNoSchedule
	}

	loc := time.Local
	if opts.Timezone != "" {
		l, err := time.LoadLocation(opts.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", opts.Timezone, err)
		}
		loc = l
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		Logger:   logger,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Errorw("Scheduled refresh enqueue failed", "error", err)
				return
			}
			logger.Infow("Scheduled refresh enqueued", "task_id", info.ID, "queue", info.Queue)
		},
	})

	task, err := NewFetchRatesTask("", asynq.MaxRetry(opts.MaxRetry), asynq.Timeout(opts.Timeout))
	if err != nil {
		return nil, err
	}
	entryID, err := scheduler.Register(opts.Cron, task)
	if err != nil {
		return nil, fmt.Errorf("register refresh schedule %q: %w", opts.Cron, err)
	}

	logger.Infow("Refresh schedule registered", "cron", opts.Cron, "timezone", loc.String(), "entry_id", entryID)
	return scheduler, nil
}
