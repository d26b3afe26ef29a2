package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/config"
)

var envKeys = []string{
	"APP_PORT", "APP_ENV", "LOG_LEVEL", "CORS_ORIGINS", "DB_PATH",
	"REFRESH_TIMEOUT", "REFRESH_ATTEMPTS", "REFRESH_BACKOFF", "REFRESH_INTERVAL", "BATCH_WORKERS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "payroll.db", cfg.DB.Path)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.App.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Refresh.Timeout)
	assert.Equal(t, 3, cfg.Refresh.Attempts)
	assert.Equal(t, time.Hour, cfg.Refresh.Interval)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", " https://a.example , https://b.example,")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("REFRESH_TIMEOUT", "2s")
	t.Setenv("REFRESH_ATTEMPTS", "5")
	t.Setenv("REFRESH_BACKOFF", "5s")
	t.Setenv("REFRESH_INTERVAL", "0")
	t.Setenv("BATCH_WORKERS", "8")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
	assert.Equal(t, ":memory:", cfg.DB.Path)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Zero(t, cfg.Refresh.Interval, "zero disables the scheduler")

	p := cfg.RetryPolicy()
	assert.Equal(t, 5, p.Attempts)
	assert.Equal(t, 2*time.Second, p.Timeout)
	assert.Equal(t, 5*time.Second, p.Backoff)
	assert.Equal(t, 5*time.Second, p.MaxBackoff, "max backoff never below the first backoff")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"APP_PORT", "http"},
		{"APP_PORT", "70000"},
		{"REFRESH_TIMEOUT", "soon"},
		{"REFRESH_ATTEMPTS", "0"},
		{"REFRESH_INTERVAL", "-1m"},
		{"BATCH_WORKERS", "-1"},
		{"LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := config.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = config.ParseLevel("ERROR")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}
