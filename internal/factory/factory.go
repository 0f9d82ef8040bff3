package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/mcoot/tourneygate/internal/api/sse"
	"github.com/mcoot/tourneygate/internal/dependencies/clock"
	"github.com/mcoot/tourneygate/internal/dependencies/random"
	"github.com/mcoot/tourneygate/internal/jobs"
	"github.com/mcoot/tourneygate/internal/model"
	"github.com/mcoot/tourneygate/internal/services/auth"
	"github.com/mcoot/tourneygate/internal/services/ledger"
	"github.com/mcoot/tourneygate/internal/services/lottery"
	"github.com/mcoot/tourneygate/internal/services/monitor"
	"github.com/mcoot/tourneygate/internal/services/priority"
	"github.com/mcoot/tourneygate/internal/services/queue"
	"github.com/mcoot/tourneygate/internal/services/ratelimit"
	"github.com/mcoot/tourneygate/internal/services/registration"
	"github.com/mcoot/tourneygate/internal/storage"
	"github.com/mcoot/tourneygate/internal/storage/memory"
	"github.com/mcoot/tourneygate/internal/storage/postgres"
	redisstorage "github.com/mcoot/tourneygate/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Limiter                ratelimit.Limiter
	Ledger                 *ledger.Service
	Lottery                *lottery.Engine
	Queue                  *queue.Manager
	Profiles               *priority.StaticProfiles
	Predicate              priority.Predicate
	Monitor                *monitor.Service
	RegistrationController *registration.Controller
	AuthService            *auth.Service
	HubManager             *sse.HubManager

	logger  *slog.Logger
	closers []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger. If nil, a no-op logger is used.
	Logger *slog.Logger
	// StorageType selects the admission state backend ("memory" or "redis").
	// If empty, defaults to "memory". Admission decisions are serialised by
	// in-process tournament locks, so only one server may share a Redis
	// backend; the rate limit counters are the only state safe to share.
	StorageType string
	// RedisConfig is required when StorageType is "redis"
	RedisConfig *redisstorage.Config
	// PostgresDSN, when set, moves the tournament catalog into Postgres
	PostgresDSN string
	// AuthConfig configures operator sessions. Zero value means auth.DefaultConfig().
	AuthConfig auth.Config
	// MonitorConfig configures the health monitor. Zero value means monitor.DefaultConfig().
	MonitorConfig monitor.Config
	// Options are passed through to the registration controller
	Options []registration.Option
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	var (
		store   storage.Storage
		limiter ratelimit.Limiter
		closers []func() error
	)

	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
		limiter = ratelimit.NewMemory(clk)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
		limiter = ratelimit.NewRedis(redisStore.Client())
		logger.Warn("redis admission state supports a single server instance",
			slog.String("redis_url", redactURL(cfg.RedisConfig.URL)),
		)
		closers = append(closers, redisStore.Close)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	if cfg.PostgresDSN != "" {
		catalog, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			_ = closeAll(closers)
			return nil, fmt.Errorf("open tournament catalog: %w", err)
		}
		store = storage.WithTournaments(store, catalog)
		closers = append(closers, catalog.Close)
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}
	monCfg := cfg.MonitorConfig
	if monCfg == (monitor.Config{}) {
		monCfg = monitor.DefaultConfig()
	}

	app := newWithDependencies(store, limiter, clk, random.New(), authCfg, monCfg, logger, cfg.Options...)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	limiter ratelimit.Limiter,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	monCfg monitor.Config,
	logger *slog.Logger,
	opts ...registration.Option,
) *App {
	profiles := priority.NewStaticProfiles()
	predicate := priority.NewCriteriaEvaluator(profiles)

	ledgerService := ledger.New(store, clk)
	lotteryEngine := lottery.NewEngine(store, predicate, rnd, clk, logger)
	queueManager := queue.NewManager(store, clk, logger)

	monitorService := monitor.New(monCfg, store, clk, logger)
	hubManager := sse.NewHubManager(logger)
	monitorService.SetPublisher(hubManager)

	opts = append([]registration.Option{registration.WithRecorder(monitorService)}, opts...)
	controller := registration.NewController(
		store, limiter, ledgerService, lotteryEngine, queueManager, predicate, clk, logger, opts...,
	)

	return &App{
		Storage:                store,
		Clock:                  clk,
		Random:                 rnd,
		Limiter:                limiter,
		Ledger:                 ledgerService,
		Lottery:                lotteryEngine,
		Queue:                  queueManager,
		Profiles:               profiles,
		Predicate:              predicate,
		Monitor:                monitorService,
		RegistrationController: controller,
		AuthService:            auth.New(clk, authCfg),
		HubManager:             hubManager,
		logger:                 logger,
	}
}

// JobsConfig sets the intervals of the background jobs
type JobsConfig struct {
	MonitorInterval     time.Duration
	QueueExpireInterval time.Duration
	// QueueDrainInterval enables automatic draining when positive
	QueueDrainInterval time.Duration
	// Registration supplies the batch size used by automatic draining
	Registration model.RegistrationConfig
}

type job struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context) error
}

// Jobs schedules the background jobs on a new runner. The caller starts and shuts it down.
// Jobs with a non-positive interval are not scheduled.
func (a *App) Jobs(cfg JobsConfig) (*jobs.Runner, error) {
	runner, err := jobs.New(a.logger)
	if err != nil {
		return nil, err
	}

	for _, j := range a.jobs(cfg) {
		if j.interval <= 0 {
			continue
		}
		if err := runner.Every(j.name, j.interval, j.fn); err != nil {
			return nil, err
		}
	}
	return runner, nil
}

func (a *App) jobs(cfg JobsConfig) []job {
	list := []job{
		{"monitor-refresh", cfg.MonitorInterval, func(ctx context.Context) error {
			a.Monitor.Refresh(ctx)
			return nil
		}},
		{"queue-expiry", cfg.QueueExpireInterval, func(ctx context.Context) error {
			n, err := a.RegistrationController.ExpireQueues(ctx)
			if n > 0 {
				a.logger.Info("expired queue entries", slog.Int("count", n))
			}
			return err
		}},
		{"queue-drain", cfg.QueueDrainInterval, func(ctx context.Context) error {
			_, err := a.RegistrationController.DrainQueues(ctx, cfg.Registration)
			return err
		}},
		{"session-cleanup", time.Hour, func(context.Context) error {
			a.AuthService.CleanExpiredSessions()
			return nil
		}},
		{"stream-cleanup", time.Minute, func(context.Context) error {
			a.HubManager.CleanupEmptyHubs()
			return nil
		}},
	}
	if limiter, ok := a.Limiter.(*ratelimit.MemoryLimiter); ok {
		list = append(list, job{"ratelimit-sweep", ratelimit.Window, func(context.Context) error {
			limiter.Sweep()
			return nil
		}})
	}
	return list
}

// Close releases backend connections and stops stats streams
func (a *App) Close() error {
	a.HubManager.Close()
	return closeAll(a.closers)
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// redactURL drops credentials from a connection URL before it is logged
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid"
	}
	return u.Redacted()
}
