package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/bootstrap"
	"github.com/felixgeelhaar/parley/internal/config"
	"github.com/felixgeelhaar/parley/internal/queue"
	"github.com/felixgeelhaar/parley/internal/scheduler"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued sessions and run the recommendation sweep",
	Long: `Worker is configured from the environment (STORAGE_DRIVER, DATABASE_URL,
RABBITMQ_URL, QUEUE_WORKERS, LOG_FILE, ...), optionally seeded from a .env file.
Logs rotate under ~/.parley/logs unless LOG_FILE points elsewhere.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFile, err := workerLogFile(cfg)
		if err != nil {
			return err
		}
		logger, logCloser := bootstrap.NewLogger(bootstrap.LogOptions{
			Level:   bootstrap.ParseLogLevel(cfg.LogLevel),
			File:    logFile,
			Console: cmd.ErrOrStderr(),
		})
		defer logCloser.Close()
		slog.SetDefault(logger)
		ctx := cmd.Context()

		stores, err := bootstrap.OpenStores(ctx, bootstrap.StorageOptions{
			Driver:      cfg.StorageDriver,
			SQLitePath:  cfg.SQLitePath,
			PostgresURL: cfg.DatabaseURL,
		})
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer stores.Close()

		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		defer conn.Close()

		svc, err := bootstrap.NewService(stores, bootstrap.EngineOptions{
			WindowSize:    cfg.WindowSize,
			MetricsPolicy: cfg.MetricsPolicy,
		}, queue.NewProducer(conn), logger)
		if err != nil {
			return err
		}

		consumer := queue.NewConsumer(conn, svc, queue.ConsumerConfig{
			Workers:  cfg.QueueWorkers,
			Prefetch: cfg.QueuePrefetch,
		})
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		defer consumer.Stop()

		if cfg.SweepInterval > 0 {
			sched := scheduler.New(svc, cfg.SweepInterval, logger)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		logger.Info("worker running", "storage", cfg.StorageDriver, "workers", cfg.QueueWorkers)
		<-ctx.Done()
		logger.Info("worker stopping")
		return nil
	},
}

func init() {
	workerCmd.Flags().String("env-file", ".env", "Environment file to load if present")
}

// workerLogFile is LOG_FILE, or worker.log next to the daemon's log.
func workerLogFile(cfg *config.Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	dir, err := config.EnsureParleyDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "worker.log"), nil
}
