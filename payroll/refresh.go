package payroll

import (
	"context"
	"log/slog"

	"github.com/warp/payroll-engine/generic"
)

// RefreshPort is the seam to the scheduling subsystem. Implementations return
// every record for the window; a missing day means no activity. I/O failures
// must wrap generic.ErrRefreshSourceUnavailable so they are retried.
type RefreshPort interface {
	FetchDailyRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]DailyRecord, error)
}

// RefreshPortFunc adapts a function to RefreshPort.
type RefreshPortFunc func(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]DailyRecord, error)

func (f RefreshPortFunc) FetchDailyRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]DailyRecord, error) {
	return f(ctx, employeeID, window)
}

// RetryingSource wraps a RefreshPort with a timeout and retry policy.
// Fetches are idempotent, so retrying is always safe.
type RetryingSource struct {
	Port   RefreshPort
	Policy generic.RetryPolicy
	Logger *slog.Logger
}

func (s *RetryingSource) FetchDailyRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]DailyRecord, error) {
	records, attempts, err := generic.Retry(ctx, s.Policy, s.Logger, func(ctx context.Context) ([]DailyRecord, error) {
		return s.Port.FetchDailyRecords(ctx, employeeID, window)
	})
	if err != nil {
		return nil, generic.AsRefreshError(employeeID, window, attempts, err)
	}
	return records, nil
}

