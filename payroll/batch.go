package payroll

import (
	"context"

	"github.com/warp/payroll-engine/generic"
	"golang.org/x/sync/errgroup"
)

// BatchItem is one period to compute in a batch.
type BatchItem struct {
	Period   *PayrollPeriod
	RateCard RateCard
}

// BatchResult pairs a period key with its breakdown or error.
type BatchResult struct {
	Key       generic.PeriodKey
	Breakdown PayBreakdown
	Err       error
}

// BatchCompute computes independent periods in parallel on at most workers
// goroutines. Results keep the input order. A failing item does not stop the
// batch; only context cancellation does.
func BatchCompute(ctx context.Context, items []BatchItem, calendar generic.HolidayCalendar, workers int) ([]BatchResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := Compute(item.Period, item.RateCard, calendar)
			results[i] = BatchResult{Key: item.Period.Key, Breakdown: b, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
