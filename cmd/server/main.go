// Package main - HTTP API дашборда учебного прогресса.
//
// Отдаёт дашборд студента в JSON или текстом, health checks и метрики
// Prometheus. Хранилище (memory, sqlite, postgres) и кеш Redis выбираются
// конфигурацией.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/studyhub/study-dashboard/config"
	"github.com/studyhub/study-dashboard/internal/bootstrap"
	httpserver "github.com/studyhub/study-dashboard/internal/interface/http"
	"github.com/studyhub/study-dashboard/internal/interface/http/handlers"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting study dashboard API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"storage", cfg.Storage.Driver,
		"redis", cfg.Redis.Enabled,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ, КЕШ, МЕТРИКИ, ЗАПРОС ДАШБОРДА
	// ─────────────────────────────────────────────────────────────────────────
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		log.Info("closing storage...")
		if err := app.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Dashboards: app.Dashboards,
		Dashboard: handlers.DashboardConfig{
			TargetSemester: cfg.Dashboard.TargetSemester,
			TargetCredits:  cfg.Dashboard.TargetCredits,
		},
		HealthChecker: app.Health,
		Metrics:       app.Metrics,
		Gatherer:      app.Registry,
		Logger:        log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ЗАПУСК
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()

	log.Info("study dashboard API is running", "http_address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error("http server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := logger.OptionsForEnv(string(cfg.App.Environment), cfg.App.Debug)
	if !cfg.App.Debug {
		opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	}
	// JSON формат лучше для агрегаторов логов
	opts.JSON = cfg.Observability.LogFormat == "json"

	log := logger.New(opts)
	slog.SetDefault(log)

	return log
}
