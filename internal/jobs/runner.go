package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Runner runs the service's periodic background jobs
type Runner struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a runner; jobs do not run until Start
func New(logger *slog.Logger) (*Runner, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		scheduler: sched,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Every schedules fn to run at a fixed interval. Overlapping runs of the same job are skipped.
func (r *Runner) Every(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := fn(r.ctx); err != nil {
				r.logger.Error("job failed",
					slog.String("job", name),
					slog.String("error", err.Error()),
				)
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start begins running scheduled jobs
func (r *Runner) Start() {
	r.scheduler.Start()
}

// Shutdown cancels running jobs and waits for them to return
func (r *Runner) Shutdown() error {
	r.cancel()
	return r.scheduler.Shutdown()
}
