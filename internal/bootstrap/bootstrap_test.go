package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhub/study-dashboard/config"
	"github.com/studyhub/study-dashboard/internal/application/query"
	"github.com/studyhub/study-dashboard/pkg/logger"
	"github.com/studyhub/study-dashboard/pkg/timeutil"
)

func testConfig(driver config.StorageDriver) *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "study-dashboard", Environment: config.EnvDevelopment, Version: "test"},
		Storage:   config.StorageConfig{Driver: driver, SeedOnStart: true},
		Dashboard: config.DashboardConfig{TargetSemester: 6, TargetCredits: 180},
		HTTP:      config.HTTPConfig{Port: 8080},
		Redis: config.RedisConfig{
			Addr:         "127.0.0.1:1",
			TTL:          time.Minute,
			DialTimeout:  200 * time.Millisecond,
			ReadTimeout:  200 * time.Millisecond,
			WriteTimeout: 200 * time.Millisecond,
		},
		Observability: config.ObservabilityConfig{LogFormat: "text"},
	}
}

func lookup(t *testing.T, app *App, id string) *query.GetDashboardResult {
	t.Helper()
	res, err := app.Dashboards.Handle(context.Background(), query.GetDashboardQuery{
		MatriculationNumber: id,
		ReferenceDate:       timeutil.Date(2025, 6, 1),
	})
	require.NoError(t, err)
	return res
}

func TestNew_Memory(t *testing.T) {
	app, err := New(context.Background(), testConfig(config.DriverMemory), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Equal(t, "memory", app.Backend)
	assert.Equal(t, 1.0, testutil.ToFloat64(app.Metrics.SeededStudents))

	res := lookup(t, app, "IU14102835")
	require.True(t, res.Found)
	assert.Equal(t, "Julian Hinze", res.Dashboard.StudentName)
	assert.Len(t, res.Dashboard.Appointments, 3)

	assert.False(t, lookup(t, app, "IU00000000").Found)

	status := app.Health.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Checks)
}

func TestNew_SQLiteSeedsAndReopens(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "dashboard.db")

	app, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", app.Backend)
	assert.True(t, lookup(t, app, "IU14102835").Found)

	status := app.Health.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.Contains(t, status.Checks, "database")
	require.NoError(t, app.Close())

	cfg.Storage.SeedOnStart = false
	reopened, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	assert.Equal(t, 0.0, testutil.ToFloat64(reopened.Metrics.SeededStudents))
	assert.True(t, lookup(t, reopened, "IU14102835").Found)
}

func TestNew_UnreachableRedisDisablesCache(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.Redis.Enabled = true

	app, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Equal(t, "memory", app.Backend)
	assert.NotContains(t, app.Health.Check(context.Background()).Checks, "cache")
	assert.True(t, lookup(t, app, "IU14102835").Found)
}

func TestNew_BadSeedFile(t *testing.T) {
	cfg := testConfig(config.DriverMemory)
	cfg.Storage.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load dataset")
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig("mongo"), logger.Discard())
	require.Error(t, err)
}

func TestClose_Idempotent(t *testing.T) {
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "dashboard.db")

	app, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}
