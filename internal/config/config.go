package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mcoot/tourneygate/internal/model"
)

// Config is the server configuration read from the environment
type Config struct {
	Host     string `env:"TOURNEYGATE_HOST"`
	Port     int    `env:"TOURNEYGATE_PORT" envDefault:"8080"`
	LogLevel string `env:"TOURNEYGATE_LOG_LEVEL" envDefault:"info"`

	// Storage selects the admission state backend: memory or redis
	Storage     string `env:"TOURNEYGATE_STORAGE" envDefault:"memory"`
	RedisURL    string `env:"TOURNEYGATE_REDIS_URL" envDefault:"redis://localhost:6379"`
	PostgresDSN string `env:"TOURNEYGATE_POSTGRES_DSN"`

	// Operators is a comma separated list of name:bcrypt-hash pairs
	Operators       string        `env:"TOURNEYGATE_OPERATORS"`
	SessionDuration time.Duration `env:"TOURNEYGATE_SESSION_DURATION" envDefault:"12h"`

	MonitorInterval     time.Duration `env:"TOURNEYGATE_MONITOR_INTERVAL" envDefault:"5s"`
	MonitorWindow       time.Duration `env:"TOURNEYGATE_MONITOR_WINDOW" envDefault:"1m"`
	QueueExpireInterval time.Duration `env:"TOURNEYGATE_QUEUE_EXPIRE_INTERVAL" envDefault:"30s"`
	// QueueDrainInterval enables automatic queue draining when positive
	QueueDrainInterval time.Duration `env:"TOURNEYGATE_QUEUE_DRAIN_INTERVAL" envDefault:"0s"`

	RateLimitPerMinute  int     `env:"TOURNEYGATE_RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	MaxQueueSize        int     `env:"TOURNEYGATE_MAX_QUEUE_SIZE" envDefault:"1000"`
	QueueTimeoutMinutes int     `env:"TOURNEYGATE_QUEUE_TIMEOUT_MINUTES" envDefault:"15"`
	QueueBatchSize      int     `env:"TOURNEYGATE_QUEUE_BATCH_SIZE" envDefault:"10"`
	MaxRetries          int     `env:"TOURNEYGATE_MAX_RETRIES" envDefault:"3"`
	AlertErrorRate      float64 `env:"TOURNEYGATE_ALERT_ERROR_RATE" envDefault:"0.05"`
	AlertResponseTimeMs float64 `env:"TOURNEYGATE_ALERT_RESPONSE_TIME_MS" envDefault:"1000"`
	AlertQueueLength    int     `env:"TOURNEYGATE_ALERT_QUEUE_LENGTH" envDefault:"500"`
	FallbackMode        string  `env:"TOURNEYGATE_FALLBACK_MODE" envDefault:"graceful_degradation"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the given dotenv files, when present, and then the environment.
// Variables already set in the environment win over dotenv values.
func Load(dotenvFiles ...string) (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values that the environment parser cannot
func (c Config) Validate() error {
	switch c.Storage {
	case "memory", "redis":
	default:
		return fmt.Errorf("TOURNEYGATE_STORAGE must be memory or redis, got %q", c.Storage)
	}
	switch model.FallbackMode(c.FallbackMode) {
	case model.FallbackGracefulDegradation, model.FallbackMaintenance, model.FallbackEmergencyShutdown:
	default:
		return fmt.Errorf("unknown TOURNEYGATE_FALLBACK_MODE %q", c.FallbackMode)
	}
	if c.MonitorInterval <= 0 || c.QueueExpireInterval <= 0 {
		return errors.New("monitor and queue expiry intervals must be positive")
	}
	return nil
}

// Registration returns the default per-call registration config
func (c Config) Registration() model.RegistrationConfig {
	return model.RegistrationConfig{
		RateLimitPerMinute:  c.RateLimitPerMinute,
		MaxQueueSize:        c.MaxQueueSize,
		QueueTimeoutMinutes: c.QueueTimeoutMinutes,
		QueueBatchSize:      c.QueueBatchSize,
		MaxRetries:          c.MaxRetries,
		AlertThresholds: model.AlertThresholds{
			ErrorRate:      c.AlertErrorRate,
			ResponseTimeMs: c.AlertResponseTimeMs,
			QueueLength:    c.AlertQueueLength,
		},
		FallbackMode: model.FallbackMode(c.FallbackMode),
	}.WithDefaults()
}

// Level returns the slog level named by LogLevel, defaulting to info
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
