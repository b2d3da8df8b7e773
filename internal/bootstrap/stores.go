// Package bootstrap wires storage, the engine and logging for the binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/parley/internal/adaptive"
	"github.com/felixgeelhaar/parley/internal/difficulty"
	"github.com/felixgeelhaar/parley/internal/repository"
	"github.com/felixgeelhaar/parley/internal/storage/sqlite"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageOptions selects a backend.
type StorageOptions struct {
	Driver      string
	SQLitePath  string
	PostgresURL string
}

// Stores holds the adaptive ports backed by one database.
type Stores struct {
	Profiles        adaptive.ProfileStore
	Metrics         adaptive.MetricsStore
	Recommendations adaptive.RecommendationStore

	closers []func() error
}

// OpenStores connects to the configured backend and brings its schema up to date.
func OpenStores(ctx context.Context, opts StorageOptions) (*Stores, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.SQLitePath == "" {
			return nil, errors.New("sqlite path is required")
		}
		db, err := sqlite.Open(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &Stores{
			Profiles:        sqlite.NewProfileStore(db),
			Metrics:         sqlite.NewMetricsStore(db),
			Recommendations: sqlite.NewRecommendationStore(db),
			closers:         []func() error{db.Close},
		}, nil

	case DriverPostgres:
		if opts.PostgresURL == "" {
			return nil, errors.New("postgres url is required")
		}
		pg, err := repository.Open(ctx, opts.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return &Stores{
			Profiles:        repository.NewProfileRepository(pg.Pool),
			Metrics:         repository.NewMetricsRepository(pg.DB),
			Recommendations: repository.NewRecommendationRepository(pg.DB),
			closers:         []func() error{pg.Close},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}

// Close releases the database handles.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// EngineOptions tunes the recommendation service.
type EngineOptions struct {
	WindowSize    int
	MetricsPolicy string
	StartLevel    string
	Thresholds    difficulty.Thresholds
}

// NewService builds the adaptive service over stores. events may be nil.
func NewService(stores *Stores, opts EngineOptions, events adaptive.EventPublisher, logger *slog.Logger) (*adaptive.Service, error) {
	catalog, err := difficulty.NewDefaultCatalog()
	if err != nil {
		return nil, err
	}

	thresholds := opts.Thresholds
	if thresholds == (difficulty.Thresholds{}) {
		thresholds = difficulty.DefaultThresholds()
	}
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}

	var policy adaptive.MetricsPolicy
	if opts.MetricsPolicy != "" {
		if policy, err = adaptive.ParseMetricsPolicy(opts.MetricsPolicy); err != nil {
			return nil, err
		}
	}
	if opts.StartLevel != "" {
		if _, err := catalog.GetLevel(opts.StartLevel); err != nil {
			return nil, fmt.Errorf("start level: %w", err)
		}
	}

	return adaptive.NewService(adaptive.Dependencies{
		Engine:          difficulty.NewEngine(catalog, thresholds),
		Profiles:        stores.Profiles,
		Metrics:         stores.Metrics,
		Recommendations: stores.Recommendations,
		Events:          events,
		Logger:          logger,
	}, adaptive.Config{
		WindowSize: opts.WindowSize,
		Policy:     policy,
		StartLevel: opts.StartLevel,
	}), nil
}
