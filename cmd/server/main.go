/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), apply flag overrides
  2. Build the JSON slog logger
  3. Initialize SQLite store
  4. Wrap the schedule feeds with timeout + retry
  5. Create services, API handler and router
  6. Start the refresh scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides APP_PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  APP_PORT, APP_ENV, LOG_LEVEL, DB_PATH, CORS_ORIGINS,
  REFRESH_TIMEOUT, REFRESH_ATTEMPTS, REFRESH_BACKOFF, REFRESH_INTERVAL,
  BATCH_WORKERS
  See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the refresh scheduler
  4. Close database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/warp/payroll-engine/acupuncture"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 0, "HTTP server port (overrides APP_PORT)")
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.App.Port = *port
	}
	if *dbPath != "" {
		cfg.DB.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.App.LogLevel)
	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	policy := cfg.RetryPolicy()
	periods := payroll.NewPeriodService(
		store,
		store,
		&payroll.RetryingSource{Port: store, Policy: policy, Logger: logger},
		store,
		logger,
	)
	periods.Workers = cfg.Batch.Workers
	reports := acupuncture.NewReportService(
		store,
		&acupuncture.RetryingSource{Source: store, Policy: policy, Logger: logger},
		logger,
	)

	scheduler := payroll.NewRefreshScheduler(periods, logger)
	scheduler.Interval = cfg.Refresh.Interval
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(store, periods, reports, logger)
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         logger,
		LogLevel:       level,
		AllowedOrigins: cfg.App.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + policy.Timeout*time.Duration(policy.Attempts),
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DB.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
