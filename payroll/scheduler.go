/*
scheduler.go - Automated period refresh

PURPOSE:
  Periodically re-pulls the records of every open payroll period so that
  late corrections in the schedule feed reach the breakdowns without a
  manual refresh.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Open periods are those of the current month and the month before
  - Each refresh goes through PeriodService.Refresh, so it takes the same
    per-period lock as edits and never touches settings
  - A failed refresh keeps the last-known records and is retried on the
    next tick

CONFIGURATION:
  - Interval: how often to check (default: 1 hour)
  - Enabled:  whether the scheduler is active (default: true)

USAGE:
  scheduler := NewRefreshScheduler(periods, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package payroll

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RefreshScheduler refreshes open periods on a ticker.
type RefreshScheduler struct {
	Service  *PeriodService
	Interval time.Duration
	Enabled  bool
	// Now defaults to the service clock.
	Now      func() time.Time

	logger *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// RefreshRun summarizes one pass.
type RefreshRun struct {
	Refreshed int
	Failed    int
}

// NewRefreshScheduler creates a scheduler. A nil logger uses slog.Default().
func NewRefreshScheduler(service *PeriodService, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		Service:  service,
		Interval: time.Hour,
		Enabled:  true,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler. It runs one pass immediately.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.Interval <= 0 {
		rs.logger.Info("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)
	go rs.run(rs.ticker, rs.stop)

	rs.logger.Info("scheduler started", "interval", rs.Interval.String())
}

// Stop stops the scheduler and waits for an in-flight pass.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.logger.Info("scheduler stopped")
}

func (rs *RefreshScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	rs.RunNow(ctx)
	for {
		select {
		case <-ticker.C:
			rs.RunNow(ctx)
		case <-stop:
			return
		}
	}
}

// RunNow refreshes every open period once.
func (rs *RefreshScheduler) RunNow(ctx context.Context) RefreshRun {
	now := rs.now()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var run RefreshRun
	for _, first := range []time.Time{current.AddDate(0, -1, 0), current} {
		periods, err := rs.Service.store.ListPeriods(ctx, first.Year(), first.Month())
		if err != nil {
			rs.logger.Error("listing periods failed", "year", first.Year(), "month", int(first.Month()), "error", err)
			continue
		}
		for _, p := range periods {
			if ctx.Err() != nil {
				return run
			}
			if _, err := rs.Service.Refresh(ctx, p.Key); err != nil {
				run.Failed++
				continue
			}
			run.Refreshed++
		}
	}

	if run.Refreshed > 0 || run.Failed > 0 {
		rs.logger.Info("refresh pass completed", "refreshed", run.Refreshed, "failed", run.Failed)
	}
	return run
}

func (rs *RefreshScheduler) now() time.Time {
	if rs.Now != nil {
		return rs.Now()
	}
	return rs.Service.Now()
}
