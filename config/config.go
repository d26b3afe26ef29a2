// Package config loads server configuration from the environment, with an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/payroll-engine/generic"
)

type Config struct {
	App     AppConfig
	DB      DatabaseConfig
	Refresh RefreshConfig
	Batch   BatchConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Path string
}

// RefreshConfig bounds calls to the schedule feed.
type RefreshConfig struct {
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
	// Interval between scheduled refresh passes. Zero disables the scheduler.
	Interval time.Duration
}

type BatchConfig struct {
	Workers int
}

// Load reads .env when present, then the environment. A missing .env file
// is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080"),
	}

	config.DB = DatabaseConfig{
		Path: getEnv("DB_PATH", "payroll.db"),
	}

	timeout, err := time.ParseDuration(getEnv("REFRESH_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_TIMEOUT: %w", err)
	}
	backoff, err := time.ParseDuration(getEnv("REFRESH_BACKOFF", "200ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_BACKOFF: %w", err)
	}
	attempts, err := strconv.Atoi(getEnv("REFRESH_ATTEMPTS", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_ATTEMPTS: %w", err)
	}
	interval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	config.Refresh = RefreshConfig{
		Timeout:  timeout,
		Attempts: attempts,
		Backoff:  backoff,
		Interval: interval,
	}

	workers, err := strconv.Atoi(getEnv("BATCH_WORKERS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid BATCH_WORKERS: %w", err)
	}
	config.Batch = BatchConfig{Workers: workers}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.App.Port)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Refresh.Attempts <= 0 {
		return fmt.Errorf("REFRESH_ATTEMPTS must be positive")
	}
	if c.Refresh.Timeout <= 0 {
		return fmt.Errorf("REFRESH_TIMEOUT must be positive")
	}
	if c.Refresh.Backoff < 0 {
		return fmt.Errorf("REFRESH_BACKOFF must not be negative")
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	if _, err := ParseLevel(c.App.LogLevel); err != nil {
		return err
	}
	return nil
}

// RetryPolicy turns the refresh settings into a generic.RetryPolicy.
func (c *Config) RetryPolicy() generic.RetryPolicy {
	p := generic.DefaultRetryPolicy
	p.Attempts = c.Refresh.Attempts
	p.Timeout = c.Refresh.Timeout
	p.Backoff = c.Refresh.Backoff
	if p.MaxBackoff < p.Backoff {
		p.MaxBackoff = p.Backoff
	}
	return p
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
