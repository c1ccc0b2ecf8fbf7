// Package bootstrap wires the process-wide runtime: database, Redis,
// tracing and optional seeding.
package bootstrap

import (
	"context"
	"fmt"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/observability"
	"warbler/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset, when set, applies the named seed preset after connecting.
	SeedPreset string
	// Version is reported on traces.
	Version string
}

// Runtime holds the initialized process dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// Shutdown flushes tracing. Call it after the server stops.
	Shutdown func(context.Context) error
}

// InitRuntime connects to the database and Redis, starts tracing and
// optionally seeds. Redis is optional: a nil client means uncached.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "warbler",
		ServiceVersion: opts.Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rt := &Runtime{DB: db, Redis: cache.GetClient(), Shutdown: shutdown}

	preset := opts.SeedPreset
	if preset == "" {
		preset = cfg.SeedPreset
	}
	if preset != "" {
		if cfg.IsProduction() {
			middleware.Logger.Warn("seed preset ignored in production", "preset", preset)
			return rt, nil
		}
		if err := applyPreset(ctx, db, preset); err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
	}
	return rt, nil
}

func applyPreset(ctx context.Context, db *gorm.DB, name string) error {
	opts, err := seed.Preset(name)
	if err != nil {
		return err
	}
	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	if _, err := s.Run(ctx); err != nil {
		return fmt.Errorf("seed preset %s: %w", name, err)
	}
	return nil
}
