package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/memory"
)

var key = generic.PeriodKey{EmployeeID: "emp-1", Year: 2025, Month: time.March, Part: generic.FirstHalf}

func day(n int) generic.TimePoint { return generic.NewTimePoint(2025, time.March, n) }

func TestMemory_Period_IsolatedFromCaller(t *testing.T) {
	// GIVEN: A stored period
	// WHEN: The caller mutates the value it passed in and the value it read
	// THEN: The stored copy is unchanged

	m := memory.New()
	ctx := context.Background()
	cheque := decimal.NewFromInt(10)
	p := &payroll.PayrollPeriod{
		ID:       "p-1",
		Key:      key,
		Settings: payroll.Settings{Option: payroll.VariantStoreEmployeeTipsAndCash, ChequeAmount: &cheque},
		Records:  []payroll.DailyRecord{{Date: day(1), BodySessions: decimal.NewFromInt(2)}},
	}
	require.NoError(t, m.CreatePeriod(ctx, p))

	p.Records[0].BodySessions = decimal.NewFromInt(99)
	got, err := m.GetPeriod(ctx, key)
	require.NoError(t, err)
	got.Records = nil
	*got.ChequeAmount = decimal.NewFromInt(1)

	again, err := m.GetPeriod(ctx, key)
	require.NoError(t, err)
	require.Len(t, again.Records, 1)
	assert.True(t, again.Records[0].BodySessions.Equal(decimal.NewFromInt(2)))
	assert.True(t, again.ChequeAmount.Equal(decimal.NewFromInt(10)))

	assert.ErrorIs(t, m.CreatePeriod(ctx, p), generic.ErrDuplicatePeriod)
}

func TestMemory_MissingPeriod(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	_, err := m.GetPeriod(ctx, key)
	assert.ErrorIs(t, err, generic.ErrPeriodNotFound)
	assert.ErrorIs(t, m.UpdateSettings(ctx, key, payroll.Settings{}, time.Now()), generic.ErrPeriodNotFound)
	assert.ErrorIs(t, m.ReplaceRecords(ctx, key, nil, time.Now()), generic.ErrPeriodNotFound)
	assert.ErrorIs(t, m.DeletePeriod(ctx, key), generic.ErrPeriodNotFound)
}

func TestMemory_Feed_WindowAndFailures(t *testing.T) {
	m := memory.New()
	ctx := context.Background()
	for _, n := range []int{3, 1, 16} {
		m.PutDailyRecord(payroll.DailyRecord{EmployeeID: "emp-1", Date: day(n)})
	}

	records, err := m.FetchDailyRecords(ctx, "emp-1", key.Window())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2025-03-01", records[0].Date.String())

	down := errors.New("down")
	m.FailFetches(1, down)
	_, err = m.FetchDailyRecords(ctx, "emp-1", key.Window())
	assert.ErrorIs(t, err, down)

	_, err = m.FetchDailyRecords(ctx, "emp-1", key.Window())
	assert.NoError(t, err)
	assert.Equal(t, 3, m.Fetches())
}
