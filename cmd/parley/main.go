package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/bootstrap"
	"github.com/felixgeelhaar/parley/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Adaptive difficulty for language conversations",
	Long: `Parley tracks how learners perform in practice conversations and
recommends whether the next one should be harder, easier or the same.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database (default ~/.parley/parley.db)")
	rootCmd.PersistentFlags().String("config", "", "Path to config.yaml (default ~/.parley/config.yaml)")
	rootCmd.PersistentFlags().Bool("json", false, "Print JSON instead of text")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		levelsCmd,
		profileCmd,
		recordCmd,
		recommendCmd,
		applyCmd,
		progressionCmd,
		historyCmd,
		statsCmd,
		exportCmd,
		workerCmd,
		mcpCmd,
		startCmd,
		stopCmd,
		statusCmd,
		versionCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "parley", Version)
	},
}

// app is the local wiring shared by most commands.
type app struct {
	cfg     *config.LocalConfig
	stores  *bootstrap.Stores
	service *adaptive.Service
	logger  *slog.Logger
}

func (a *app) Close() error {
	return a.stores.Close()
}

func loadConfig(cmd *cobra.Command) (*config.LocalConfig, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadLocalConfigFrom(path)
	}
	return config.LoadLocalConfig()
}

// openApp loads config and opens local storage. --db forces SQLite.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	opts := bootstrap.StorageOptions{
		Driver:      cfg.Storage.Driver,
		PostgresURL: cfg.Storage.PostgresURL,
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		opts.Driver = bootstrap.DriverSQLite
		opts.SQLitePath = db
	} else if opts.Driver == bootstrap.DriverSQLite {
		if _, err := config.EnsureParleyDir(); err != nil {
			return nil, err
		}
		if opts.SQLitePath, err = cfg.SQLitePath(); err != nil {
			return nil, err
		}
	}

	logger := cliLogger(cmd)
	stores, err := bootstrap.OpenStores(cmd.Context(), opts)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	svc, err := bootstrap.NewService(stores, bootstrap.EngineOptions{
		WindowSize:    cfg.Engine.WindowSize,
		MetricsPolicy: cfg.Engine.MetricsPolicy,
		StartLevel:    cfg.Engine.StartLevel,
		Thresholds:    cfg.Engine.Thresholds,
	}, nil, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	return &app{cfg: cfg, stores: stores, service: svc, logger: logger}, nil
}

func cliLogger(cmd *cobra.Command) *slog.Logger {
	var w io.Writer = io.Discard
	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		w, level = cmd.ErrOrStderr(), slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderBar draws a 0-100 score as a fixed-width bar.
func renderBar(score float64, width int) string {
	filled := min(max(int(score/100*float64(width)), 0), width)
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func withApp(run func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd.Context(), cmd, a, args)
	}
}
