package cmd

import (
	"context"
	"fmt"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/file"
	"github.com/facegate/facegate/internal/database/postgres"
	"github.com/facegate/facegate/internal/encoder"
	"github.com/facegate/facegate/internal/match"
)

// backend bundles the storage pair selected by configuration. close is a
// no-op for the file backend.
type backend struct {
	store database.IdentityStore
	log   database.AttendanceLog
	close func() error
}

// openBackend selects PostgreSQL when DATABASE_URL is set, the file backend
// otherwise.
func openBackend(cfg *config.Config) (*backend, error) {
	if cfg.Database.URL != "" {
		pool, err := postgres.NewPool(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		if err := pool.Migrate(context.Background()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return &backend{
			store: postgres.NewStore(pool),
			log:   postgres.NewLog(pool),
			close: pool.Close,
		}, nil
	}

	store, err := file.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening face store: %w", err)
	}
	log, err := file.NewLog(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening attendance log: %w", err)
	}
	return &backend{
		store: store,
		log:   log,
		close: func() error { return nil },
	}, nil
}

// buildEncoder returns the probe encoder matching the configured strategy.
func buildEncoder(cfg *config.Config) encoder.Encoder {
	if cfg.Match.Strategy == config.StrategySample {
		return encoder.NewSampleEncoder(cfg.Match.SampleSize)
	}
	return encoder.NewHTTPEncoder(cfg.Encoder.URL, cfg.Encoder.Model)
}

// buildMatcher wires the configured metric, threshold and worker count, and
// builds the in-memory index when enabled.
func buildMatcher(ctx context.Context, cfg *config.Config, store database.IdentityStore) (*match.Matcher, error) {
	metric, err := match.NewMetric(cfg.Match.Metric)
	if err != nil {
		return nil, err
	}
	matcher := match.New(store, metric, cfg.Match.Threshold, match.WithWorkers(cfg.Match.Workers))
	if cfg.Match.HNSW {
		if err := matcher.EnableIndex(ctx); err != nil {
			return nil, fmt.Errorf("building match index: %w", err)
		}
	}
	return matcher, nil
}
