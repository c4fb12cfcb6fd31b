// Package main - интерактивный терминальный дашборд учебного прогресса.
//
// Запрашивает матрикульный номер, ищет студента в настроенном хранилище
// и печатает отчёт: семестры, ECTS, средний балл, оценки, текущие модули
// и предстоящие события. Номер можно передать флагом -id.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/studyhub/study-dashboard/config"
	"github.com/studyhub/study-dashboard/internal/bootstrap"
	"github.com/studyhub/study-dashboard/internal/interface/cli"
	"github.com/studyhub/study-dashboard/pkg/logger"
)

func main() {
	id := flag.String("id", "", "matriculation number; prompts when empty")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *id); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, id string) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// Логи идут в stderr, чтобы не смешиваться с отчётом.
	// ─────────────────────────────────────────────────────────────────────────
	opts := logger.OptionsForEnv(string(cfg.App.Environment), cfg.App.Debug)
	opts.Output = os.Stderr
	if !cfg.App.Debug {
		// Терминалу нужен только отчёт
		opts.Level = max(logger.ParseLevel(cfg.Observability.LogLevel), slog.LevelWarn)
	}
	opts.JSON = cfg.Observability.LogFormat == "json"
	log := logger.New(opts)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ХРАНИЛИЩЕ И ЗАПРОС ДАШБОРДА
	// ─────────────────────────────────────────────────────────────────────────
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close failed", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. СЕССИЯ
	// ─────────────────────────────────────────────────────────────────────────
	session := cli.NewSession(app.Dashboards, os.Stdin, os.Stdout, cli.Config{
		TargetSemester: cfg.Dashboard.TargetSemester,
		TargetCredits:  cfg.Dashboard.TargetCredits,
		Metrics:        app.Metrics,
		Logger:         log,
	})

	if id != "" {
		_, err = session.Show(ctx, id)
	} else {
		_, err = session.Run(ctx)
	}
	return err
}
