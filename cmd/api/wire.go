package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bryanwahyu/reelscript/internal/config"
	domain "github.com/bryanwahyu/reelscript/internal/domain/analysis"
	"github.com/bryanwahyu/reelscript/internal/domain/scripts"
	"github.com/bryanwahyu/reelscript/internal/infra/ai/gemini"
	"github.com/bryanwahyu/reelscript/internal/infra/ai/openai"
	"github.com/bryanwahyu/reelscript/internal/infra/ai/pacing"
	mysqlp "github.com/bryanwahyu/reelscript/internal/infra/db/mysql"
	"github.com/bryanwahyu/reelscript/internal/infra/db/postgres"
	"github.com/bryanwahyu/reelscript/internal/infra/db/sqlite"
	"github.com/bryanwahyu/reelscript/internal/infra/kv"
	"github.com/bryanwahyu/reelscript/internal/infra/probe"
	minioStore "github.com/bryanwahyu/reelscript/internal/infra/storage"
	"github.com/bryanwahyu/reelscript/internal/middleware"
	"github.com/bryanwahyu/reelscript/internal/ratelimit"
)

func openRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger, checkers map[string]middleware.HealthChecker) (scripts.Repository, func(), error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case "mysql":
		if db, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return mysqlp.NewScriptRepository(db), func() { db.Close() }, nil

	case "postgres":
		if db, err = postgres.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return postgres.NewScriptRepository(db), func() { db.Close() }, nil

	default:
		lite, err := sqlite.Open(cfg.Database.Path, log)
		if err != nil {
			return nil, nil, err
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: lite.Conn()}
		return sqlite.NewScriptRepository(lite), func() { lite.Close() }, nil
	}
}

// openLimitStore never fails: without redis the limits are per process.
func openLimitStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, checkers map[string]middleware.HealthChecker) (ratelimit.Store, func()) {
	if cfg.Redis.URL == "" {
		return ratelimit.NewMemoryStore(), func() {}
	}
	ttl := max(cfg.Limits.AnalysisWindow, cfg.Limits.SaveWindow)
	rs, err := kv.Connect(ctx, cfg.Redis.URL, cfg.Redis.Prefix, ttl, log)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limits")
		checkers["redis"] = middleware.Optional{
			HealthChecker: middleware.CheckFunc(func(context.Context) error { return err }),
			Impact:        "rate limits are per process",
		}
		return ratelimit.NewMemoryStore(), func() {}
	}
	checkers["redis"] = middleware.Optional{HealthChecker: middleware.CheckFunc(rs.Ping), Impact: "rate limit logs unreachable"}
	return rs, func() { rs.Close() }
}

func openVideoStore(ctx context.Context, cfg *config.Config, checkers map[string]middleware.HealthChecker) (*minioStore.Store, error) {
	if !cfg.Minio.Enabled {
		return nil, nil
	}
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		return nil, err
	}
	checkers["minio"] = store
	return store, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (domain.Generator, error) {
	if cfg.AI.Provider == "openai" {
		cli := openai.NewClient(cfg.APIKey(), cfg.AI.Model, cfg.AI.Language)
		return pacing.Wrap(cli, cfg.AI.RequestsPerMin, 1), nil
	}
	cli, err := gemini.NewClient(ctx, cfg.APIKey(), gemini.Options{
		Model:           cfg.AI.Model,
		Temperature:     cfg.AI.Temperature,
		MaxOutputTokens: cfg.AI.MaxOutputTokens,
		Language:        cfg.AI.Language,
	})
	if err != nil {
		return nil, err
	}
	return pacing.Wrap(cli, cfg.AI.RequestsPerMin, 1), nil
}

func newProber(cfg *config.Config) domain.DurationProber {
	if cfg.Upload.FFProbe == "" && cfg.Upload.FFProbeImg == "" {
		return nil
	}
	return probe.New(cfg.Upload.FFProbe, cfg.Upload.FFProbeImg)
}
