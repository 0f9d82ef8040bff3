package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/tourneygate/internal/api"
	"github.com/mcoot/tourneygate/internal/config"
	"github.com/mcoot/tourneygate/internal/factory"
	"github.com/mcoot/tourneygate/internal/services/auth"
	"github.com/mcoot/tourneygate/internal/services/monitor"
	redisstorage "github.com/mcoot/tourneygate/internal/storage/redis"
	"github.com/mcoot/tourneygate/internal/telemetry"
)

const serviceName = "tourneygate"

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	operators, err := auth.ParseOperators(cfg.Operators)
	if err != nil {
		return err
	}
	if len(operators) == 0 {
		logger.Warn("no operators configured, administrative routes are unreachable")
	}

	registration := cfg.Registration()
	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		PostgresDSN: cfg.PostgresDSN,
		AuthConfig: auth.Config{
			SessionDuration: cfg.SessionDuration,
			Operators:       operators,
		},
		MonitorConfig: monitor.Config{
			RefreshInterval: cfg.MonitorInterval,
			Window:          cfg.MonitorWindow,
			Thresholds:      registration.AlertThresholds,
		},
	}
	if cfg.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}()

	runner, err := app.Jobs(factory.JobsConfig{
		MonitorInterval:     cfg.MonitorInterval,
		QueueExpireInterval: cfg.QueueExpireInterval,
		QueueDrainInterval:  cfg.QueueDrainInterval,
		Registration:        registration,
	})
	if err != nil {
		return err
	}
	runner.Start()
	defer func() {
		if err := runner.Shutdown(); err != nil {
			logger.Warn("jobs shutdown failed", slog.String("error", err.Error()))
		}
	}()

	router := api.NewRouter(api.RouterConfig{
		Logger:                 logger,
		AuthService:            app.AuthService,
		RegistrationController: app.RegistrationController,
		Monitor:                app.Monitor,
		HubManager:             app.HubManager,
		Profiles:               app.Profiles,
		Defaults:               registration,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
		slog.Int("operators", len(operators)),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
