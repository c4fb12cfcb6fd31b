// Package bootstrap wires the configured student store, cache, metrics and
// dashboard query into an App shared by the CLI and the HTTP server.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/studyhub/study-dashboard/config"
	"github.com/studyhub/study-dashboard/internal/application/query"
	"github.com/studyhub/study-dashboard/internal/domain/student"
	"github.com/studyhub/study-dashboard/internal/infrastructure/metrics"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/cached"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/memory"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/postgres"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/redis"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/seed"
	"github.com/studyhub/study-dashboard/internal/infrastructure/persistence/sqlite"
	"github.com/studyhub/study-dashboard/internal/interface/http/handlers"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APP
// ══════════════════════════════════════════════════════════════════════════════

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Registry backs /metrics; Metrics records into it.
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Repository is the store, wrapped by the cache when Redis is enabled.
	Repository student.Repository

	// Backend names the store for logs and metrics ("sqlite", "postgres+redis").
	Backend string

	// Dashboards runs the dashboard query against Repository.
	Dashboards *query.GetDashboardHandler

	// Health aggregates store (critical) and cache (optional) checks.
	Health *handlers.CompositeHealthChecker

	closers []closer
}

type closer struct {
	name string
	fn   func() error
}

// New builds an App from cfg. On error everything opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	log = logger.OrDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &App{
		Config:   cfg,
		Logger:   log,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Health:   handlers.NewCompositeHealthChecker(cfg.App.Version),
	}

	if err := app.openStore(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.attachCache(ctx)

	app.Dashboards = query.NewGetDashboardHandler(app.Repository, app.Backend, app.Metrics, log)

	log.Info("dashboard ready",
		logger.Backend(app.Backend),
		slog.Int("target_semester", cfg.Dashboard.TargetSemester),
		slog.Int("target_credits", cfg.Dashboard.TargetCredits),
	)

	return app, nil
}

// Close releases every opened resource and joins their errors.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// sqlStore is what the SQL backends share beyond student.Repository.
type sqlStore interface {
	student.Repository
	student.Writer
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		students, err := seed.LoadFile(cfg.Storage.SeedFile)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		a.Repository = memory.NewStudentRepository(students...)
		a.Backend = string(config.DriverMemory)
		a.Metrics.SetSeeded(len(students))
		a.Logger.Info("in-memory store loaded", slog.Int("students", len(students)))
		return nil

	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		a.onClose("sqlite", store.Close)
		a.Health.AddCheck("database", handlers.NewPingCheck(store))
		a.Logger.Info("sqlite store opened", slog.String("path", store.Path()))
		return a.useSQL(ctx, store, string(config.DriverSQLite))

	case config.DriverPostgres:
		opts := postgres.DefaultPoolOptions()
		opts.MaxConns = int32(cfg.Database.MaxConns)
		opts.MinConns = int32(cfg.Database.MinConns)
		opts.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		opts.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

		conn, err := postgres.Connect(ctx, cfg.Database.URL, opts, a.Logger)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.onClose("postgres", func() error {
			conn.Close()
			return nil
		})
		a.Health.AddCheck("database", handlers.NewPingCheck(conn))

		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.Logger.Info("postgres store ready")
		return a.useSQL(ctx, postgres.NewStudentRepository(conn), string(config.DriverPostgres))
	}

	return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func (a *App) useSQL(ctx context.Context, store sqlStore, backend string) error {
	a.Repository = store
	a.Backend = backend

	if !a.Config.Storage.SeedOnStart {
		return nil
	}

	students, err := seed.LoadFile(a.Config.Storage.SeedFile)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	n, err := seed.Seed(ctx, store, students)
	if err != nil {
		return err
	}
	a.Metrics.SetSeeded(n)
	a.Logger.Info("dataset seeded", logger.Backend(backend), slog.Int("students", n))

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE
// ══════════════════════════════════════════════════════════════════════════════

// attachCache puts the Redis cache in front of the store. An unreachable
// Redis only disables caching.
func (a *App) attachCache(ctx context.Context) {
	rc := a.Config.Redis
	if !rc.Enabled {
		return
	}

	cacheCfg := redis.DefaultConfig()
	cacheCfg.Addr = rc.Addr
	cacheCfg.Password = rc.Password
	cacheCfg.DB = rc.DB
	cacheCfg.PoolSize = rc.PoolSize
	cacheCfg.DialTimeout = rc.DialTimeout
	cacheCfg.ReadTimeout = rc.ReadTimeout
	cacheCfg.WriteTimeout = rc.WriteTimeout

	c, err := redis.NewCache(ctx, cacheCfg)
	if err != nil {
		a.Logger.Warn("failed to connect to Redis, caching disabled",
			slog.String("addr", rc.Addr),
			logger.Err(err),
		)
		return
	}
	a.onClose("redis", c.Close)
	a.Health.AddOptionalCheck("cache", handlers.NewPingCheck(c))

	repo := cached.NewRepository(a.Repository, redis.NewStudentCache(c), cached.Config{
		TTL:     rc.TTL,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})
	a.Health.AddOptionalCheck("cache_breaker", handlers.NewBreakerCheck(repo.Breaker()))
	a.Repository = repo
	a.Backend += "+redis"
	a.Logger.Info("Redis cache enabled", slog.String("addr", rc.Addr), slog.Duration("ttl", rc.TTL))
}
