package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/bootstrap"
	"github.com/felixgeelhaar/parley/internal/config"
	"github.com/felixgeelhaar/parley/internal/conversation"
	"github.com/felixgeelhaar/parley/internal/daemon"
	"github.com/felixgeelhaar/parley/internal/queue"
	"github.com/felixgeelhaar/parley/internal/scheduler"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFileName = "parleyd.pid"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	parleyDir, err := config.EnsureParleyDir()
	if err != nil {
		return fmt.Errorf("ensure parley dir: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := bootstrap.NewLogger(bootstrap.LogOptions{
		Level:   bootstrap.ParseLogLevel(cfg.Daemon.LogLevel),
		File:    filepath.Join(parleyDir, "logs", "parleyd.log"),
		Console: os.Stderr,
	})
	defer logCloser.Close()
	slog.SetDefault(logger)

	pidPath := filepath.Join(parleyDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sqlitePath, err := cfg.SQLitePath()
	if err != nil {
		return err
	}
	stores, err := bootstrap.OpenStores(ctx, bootstrap.StorageOptions{
		Driver:      cfg.Storage.Driver,
		SQLitePath:  sqlitePath,
		PostgresURL: cfg.Storage.PostgresURL,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stores.Close()

	var events adaptive.EventPublisher
	if cfg.Queue.Enabled {
		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()
		events = queue.NewProducer(conn)
	}

	svc, err := bootstrap.NewService(stores, bootstrap.EngineOptions{
		WindowSize:    cfg.Engine.WindowSize,
		MetricsPolicy: cfg.Engine.MetricsPolicy,
		StartLevel:    cfg.Engine.StartLevel,
		Thresholds:    cfg.Engine.Thresholds,
	}, events, logger)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	var gen conversation.Generator
	if cfg.Generator.URL != "" {
		resilient := conversation.NewResilientGenerator(
			conversation.NewHTTPGenerator(cfg.Generator.URL, cfg.Generator.Timeout),
			conversation.ResilientConfig{
				MaxConcurrent: cfg.Generator.MaxConcurrent,
				RatePerSecond: cfg.Generator.RatePerSecond,
				Logger:        logger,
			})
		defer resilient.Close()
		gen = resilient
	}

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(svc, cfg.Scheduler.Interval, logger)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	server, err := daemon.NewServer(daemon.ServerConfig{
		Config:  cfg,
		Service: svc,
		Starter: conversation.NewStarter(svc.Catalog(), gen),
		Version: Version,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}

	logger.Info("daemon stopped")
	return nil
}

// loadConfig reads PARLEY_CONFIG when set, ~/.parley/config.yaml otherwise.
func loadConfig() (*config.LocalConfig, error) {
	if path := os.Getenv("PARLEY_CONFIG"); path != "" {
		return config.LoadLocalConfigFrom(path)
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(errors.New("invalid default config"), err)
	}
	return cfg, nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}
