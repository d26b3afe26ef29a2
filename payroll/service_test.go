package payroll_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(t *testing.T) (*payroll.PeriodService, *memory.Memory) {
	t.Helper()
	mem := memory.New()
	ctx := context.Background()

	require.NoError(t, mem.SaveEmployee(ctx, payroll.Employee{
		ID: "emp-1", Name: "Kim Lee", Role: payroll.RoleStoreEmployee, RateCard: storeRates,
	}))
	require.NoError(t, mem.SaveEmployee(ctx, payroll.Employee{
		ID: "rec-1", Name: "Rosa Diaz", Role: payroll.RoleReceptionist,
		RateCard: payroll.RateCard{BodyRate: ptr("10"), PerHour: ptr("15")},
	}))
	require.NoError(t, mem.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: day(3), Name: "Holiday"}))

	svc := payroll.NewPeriodService(mem, mem, mem, mem, quiet)
	return svc, mem
}

func feed(mem *memory.Memory, employee generic.EmployeeID, days ...int) {
	for _, n := range days {
		mem.PutDailyRecord(payroll.DailyRecord{
			EmployeeID:   employee,
			Date:         day(n),
			BodySessions: d("1"),
			FeetSessions: d("1"),
		})
	}
}

// =============================================================================
// GENERATE
// =============================================================================

func TestPeriodService_Generate_PullsRecordsAndDefaultsVariant(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 1, 2, 16)

	p, err := svc.Generate(ctx, march(generic.FirstHalf), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, payroll.VariantStoreEmployee, p.Option)
	assert.Len(t, p.Records, 2, "day 16 belongs to the second half")

	b, err := svc.Compute(ctx, march(generic.FirstHalf))
	require.NoError(t, err)
	assertDecimal(t, "70", b.Totals.Total, "total")
}

func TestPeriodService_Generate_Duplicate_LeavesExistingUntouched(t *testing.T) {
	// GIVEN: A generated period
	// WHEN: Generating the same identity again after the feed changed
	// THEN: ErrDuplicatePeriod, and the stored records are the original ones

	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 1)
	key := march(generic.FirstHalf)

	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	feed(mem, "emp-1", 2, 3)
	_, err = svc.Generate(ctx, key, nil)
	assert.ErrorIs(t, err, generic.ErrDuplicatePeriod)

	stored, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Len(t, stored.Records, 1)
}

func TestPeriodService_Generate_VariantNotAllowedForRole(t *testing.T) {
	svc, _ := newTestService(t)
	tipsAndCash := payroll.VariantStoreEmployeeTipsAndCash
	key := generic.PeriodKey{EmployeeID: "rec-1", Year: 2025, Month: time.March, Part: generic.FirstHalf}

	_, err := svc.Generate(context.Background(), key, &tipsAndCash)
	assert.ErrorIs(t, err, generic.ErrVariantNotAllowed)

	_, err = svc.Get(context.Background(), key)
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)
}

func TestPeriodService_Generate_UnknownEmployee(t *testing.T) {
	svc, _ := newTestService(t)
	key := generic.PeriodKey{EmployeeID: "nobody", Year: 2025, Month: time.March, Part: generic.FirstHalf}

	_, err := svc.Generate(context.Background(), key, nil)
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
}

func TestPeriodService_Generate_SourceDown_CreatesNothing(t *testing.T) {
	svc, mem := newTestService(t)
	mem.FailFetches(1, generic.ErrRefreshSourceUnavailable)

	_, err := svc.Generate(context.Background(), march(generic.FirstHalf), nil)
	require.Error(t, err)
	assert.True(t, generic.IsRetryable(err))

	var re *generic.RefreshError
	assert.ErrorAs(t, err, &re)

	_, err = svc.Get(context.Background(), march(generic.FirstHalf))
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)
}

func TestPeriodService_Generate_InconsistentRecord_Rejected(t *testing.T) {
	// GIVEN: A source that returns a record dated outside the window
	// WHEN: Generating the first half
	// THEN: InconsistentRecord, no period

	mem := memory.New()
	require.NoError(t, mem.SaveEmployee(context.Background(), payroll.Employee{
		ID: "emp-1", Role: payroll.RoleStoreEmployee, RateCard: storeRates,
	}))
	source := payroll.RefreshPortFunc(func(context.Context, generic.EmployeeID, generic.Period) ([]payroll.DailyRecord, error) {
		return []payroll.DailyRecord{{EmployeeID: "emp-1", Date: day(20)}}, nil
	})
	svc := payroll.NewPeriodService(mem, mem, source, mem, quiet)

	_, err := svc.Generate(context.Background(), march(generic.FirstHalf), nil)
	assert.ErrorIs(t, err, generic.ErrInconsistentRecord)

	_, err = svc.Get(context.Background(), march(generic.FirstHalf))
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)
}

// =============================================================================
// EDIT
// =============================================================================

func TestPeriodService_Edit_ChangesSettingsNeverRecords(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 1, 3, 5)
	key := march(generic.FirstHalf)

	generated, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	tipsAndCash := payroll.VariantStoreEmployeeTipsAndCash
	edited, changes, err := svc.Edit(ctx, key, payroll.Edit{Option: &tipsAndCash, ChequeAmount: ptr("50")})
	require.NoError(t, err)

	assert.True(t, changes.OptionChanged)
	assert.True(t, changes.ChequeAmountChanged)
	assert.Equal(t, tipsAndCash, edited.Option)

	stored, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, generated.Records, stored.Records)
	assertDecimal(t, "50", *stored.ChequeAmount, "cheque amount")

	b, err := svc.Compute(ctx, key)
	require.NoError(t, err)
	assertDecimal(t, "50", b.Cheque, "cheque")
	assert.True(t, b.Cheque.Add(b.Remainder).Equal(b.Totals.Total))
}

func TestPeriodService_Edit_NoChange_NotPersisted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := march(generic.FirstHalf)
	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	same := payroll.VariantStoreEmployee
	_, changes, err := svc.Edit(ctx, key, payroll.Edit{Option: &same})
	require.NoError(t, err)
	assert.True(t, changes.Empty())
}

func TestPeriodService_Edit_Rejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	recKey := generic.PeriodKey{EmployeeID: "rec-1", Year: 2025, Month: time.March, Part: generic.FirstHalf}
	_, err := svc.Generate(ctx, recKey, nil)
	require.NoError(t, err)

	tipsAndCash := payroll.VariantStoreEmployeeTipsAndCash
	_, _, err = svc.Edit(ctx, recKey, payroll.Edit{Option: &tipsAndCash})
	assert.ErrorIs(t, err, generic.ErrVariantNotAllowed)

	_, _, err = svc.Edit(ctx, recKey, payroll.Edit{ChequeAmount: ptr("-5")})
	assert.ErrorIs(t, err, generic.ErrInvalidOverride)

	_, _, err = svc.Edit(ctx, march(generic.SecondHalf), payroll.Edit{ChequeAmount: ptr("5")})
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)

	stored, err := svc.Get(ctx, recKey)
	require.NoError(t, err)
	assert.Equal(t, payroll.VariantReceptionist, stored.Option)
	assert.Nil(t, stored.ChequeAmount)
}

// =============================================================================
// REFRESH
// =============================================================================

func TestPeriodService_Refresh_ReplacesRecordsKeepsSettings(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 1)
	key := march(generic.FirstHalf)

	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)
	tipsAndCash := payroll.VariantStoreEmployeeTipsAndCash
	_, _, err = svc.Edit(ctx, key, payroll.Edit{Option: &tipsAndCash, ChequeAmount: ptr("20")})
	require.NoError(t, err)

	feed(mem, "emp-1", 2, 4)
	refreshed, err := svc.Refresh(ctx, key)
	require.NoError(t, err)

	assert.Len(t, refreshed.Records, 3)
	assert.Equal(t, tipsAndCash, refreshed.Option)
	assertDecimal(t, "20", *refreshed.ChequeAmount, "cheque amount")
}

func TestPeriodService_Refresh_Idempotent(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 2, 3, 9)
	key := march(generic.FirstHalf)
	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	first, err := svc.Refresh(ctx, key)
	require.NoError(t, err)
	firstTotals, err := svc.Compute(ctx, key)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, key)
	require.NoError(t, err)
	secondTotals, err := svc.Compute(ctx, key)
	require.NoError(t, err)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, firstTotals.Totals, secondTotals.Totals)
}

func TestPeriodService_Refresh_SourceDown_KeepsLastKnownRecords(t *testing.T) {
	// GIVEN: A generated period with 2 records
	// WHEN: The source fails during refresh
	// THEN: A retryable error, and the period still has its 2 records

	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 1, 2)
	key := march(generic.FirstHalf)
	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	feed(mem, "emp-1", 3)
	mem.FailFetches(1, errors.Join(generic.ErrRefreshSourceUnavailable, errors.New("timeout")))

	_, err = svc.Refresh(ctx, key)
	assert.True(t, generic.IsRetryable(err))

	stored, err := svc.Get(ctx, key)
	require.NoError(t, err)
	assert.Len(t, stored.Records, 2)
}

func TestPeriodService_Refresh_RetryingSourceRecovers(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	require.NoError(t, mem.SaveEmployee(ctx, payroll.Employee{ID: "emp-1", Role: payroll.RoleStoreEmployee, RateCard: storeRates}))
	feed(mem, "emp-1", 1)

	source := &payroll.RetryingSource{
		Port:   mem,
		Policy: generic.RetryPolicy{Attempts: 3, Backoff: time.Millisecond},
		Logger: quiet,
	}
	svc := payroll.NewPeriodService(mem, mem, source, mem, quiet)

	mem.FailFetches(2, generic.ErrRefreshSourceUnavailable)
	p, err := svc.Generate(ctx, march(generic.FirstHalf), nil)
	require.NoError(t, err)

	assert.Len(t, p.Records, 1)
	assert.Equal(t, 3, mem.Fetches())
}

func TestPeriodService_Refresh_Missing(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Refresh(context.Background(), march(generic.FirstHalf))
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)
}

func TestPeriodService_ConcurrentEditAndRefresh_LoseNothing(t *testing.T) {
	// GIVEN: A generated period and a feed that gains a day every round
	// WHEN: Edit and Refresh race on the same key, several at a time
	// THEN: After each round the period has the edited settings and every
	//       record the feed held when the round started

	svc, mem := newTestService(t)
	ctx := context.Background()
	key := march(generic.FirstHalf)
	feed(mem, "emp-1", 1)
	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	option := payroll.VariantStoreEmployeeTipsAndCash
	for round := 1; round <= 5; round++ {
		feed(mem, "emp-1", 1+round)
		cheque := decimal.NewFromInt(int64(10 * round))

		start := make(chan struct{})
		errs := make(chan error, 8)
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				_, _, err := svc.Edit(ctx, key, payroll.Edit{Option: &option, ChequeAmount: &cheque})
				errs <- err
			}()
			go func() {
				defer wg.Done()
				<-start
				_, err := svc.Refresh(ctx, key)
				errs <- err
			}()
		}
		close(start)
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		p, err := svc.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, option, p.Option)
		require.NotNil(t, p.ChequeAmount)
		assertDecimal(t, cheque.String(), *p.ChequeAmount, "cheque amount")
		assert.Len(t, p.Records, 1+round)
	}
}

// =============================================================================
// DELETE, VIEWS AND MONTH BATCH
// =============================================================================

func TestPeriodService_Delete_ThenRegenerate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	key := march(generic.FirstHalf)

	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, key))

	_, err = svc.Compute(ctx, key)
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, key), generic.ErrPeriodNotFound)

	_, err = svc.Generate(ctx, key, nil)
	assert.NoError(t, err)
}

func TestPeriodService_CashOut_UsesStoredCalendar(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 3)
	key := march(generic.FirstHalf)
	_, err := svc.Generate(ctx, key, nil)
	require.NoError(t, err)

	c, err := svc.CashOut(ctx, key)
	require.NoError(t, err)
	assert.True(t, c.Days[2].Holiday)
	assertDecimal(t, "4", c.Days[2].HolidayPay, "holiday pay")
}

func TestPeriodService_ComputeMonth(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	feed(mem, "emp-1", 1, 20)
	start, end := shift(4, 9, 13)
	mem.PutDailyRecord(payroll.DailyRecord{EmployeeID: "rec-1", Date: day(4), Start: start, End: end})

	for _, key := range []generic.PeriodKey{
		march(generic.FirstHalf),
		march(generic.SecondHalf),
		{EmployeeID: "rec-1", Year: 2025, Month: time.March, Part: generic.FirstHalf},
	} {
		_, err := svc.Generate(ctx, key, nil)
		require.NoError(t, err)
	}

	results, err := svc.ComputeMonth(ctx, 2025, time.March)
	require.NoError(t, err)
	require.Len(t, results, 3)

	totals := map[string]string{}
	for _, r := range results {
		require.NoError(t, r.Err)
		totals[r.Key.String()] = r.Breakdown.Totals.Total.String()
	}
	assert.Equal(t, map[string]string{
		"emp-1/2025-03/first":  "35",
		"emp-1/2025-03/second": "35",
		"rec-1/2025-03/first":  "60",
	}, totals)
}
