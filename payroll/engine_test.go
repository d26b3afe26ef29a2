package payroll_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, what string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: expected %s, got %s", what, want, got.String())
}

func march(part generic.Part) generic.PeriodKey {
	return generic.PeriodKey{EmployeeID: "emp-1", Year: 2025, Month: time.March, Part: part}
}

func day(n int) generic.TimePoint { return generic.NewTimePoint(2025, time.March, n) }

func shift(n int, from, to int) (*time.Time, *time.Time) {
	start := time.Date(2025, time.March, n, from, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, n, to, 0, 0, 0, time.UTC)
	return &start, &end
}

func period(key generic.PeriodKey, option payroll.CompensationVariant, records ...payroll.DailyRecord) *payroll.PayrollPeriod {
	return &payroll.PayrollPeriod{
		ID:       "p-1",
		Key:      key,
		Settings: payroll.Settings{Option: option},
		Records:  records,
	}
}

func holidays(days ...generic.TimePoint) generic.HolidayCalendar {
	cal := generic.NewStaticHolidayCalendar(nil)
	for _, h := range days {
		cal.Add(h)
	}
	return cal
}

var storeRates = payroll.RateCard{BodyRate: ptr("20"), FeetRate: ptr("15")}

// =============================================================================
// RECEPTIONIST
// =============================================================================

func TestCompute_Receptionist_HolidayMultipliesCountedHoursOnly(t *testing.T) {
	// GIVEN: An 8h shift with 2 body sessions on a holiday
	// WHEN: Computing the receptionist breakdown
	// THEN: counted_hours = 8 - 2 = 6 and total_hours = 6 * 1.5 = 9

	start, end := shift(3, 9, 17)
	p := period(march(generic.FirstHalf), payroll.VariantReceptionist, payroll.DailyRecord{
		EmployeeID:   "emp-1",
		Date:         day(3),
		Start:        start,
		End:          end,
		BodySessions: d("2"),
	})
	rc := payroll.RateCard{BodyRate: ptr("10"), PerHour: ptr("15")}

	b, err := payroll.Compute(p, rc, holidays(day(3)))
	require.NoError(t, err)
	require.Len(t, b.Days, 15)

	third := b.Days[2]
	assert.True(t, third.Holiday)
	assertDecimal(t, "8", third.Hours, "hours")
	assertDecimal(t, "6", third.CountedHours, "counted_hours")
	assertDecimal(t, "9", third.TotalHours, "total_hours")
	assertDecimal(t, "135", third.HourlyPay, "hourly pay")
	assertDecimal(t, "20", third.BodyPay, "body pay")
	assertDecimal(t, "155", b.Totals.Total, "total")
	assertDecimal(t, "9", b.Totals.TotalHours, "total hours")
}

func TestCompute_Receptionist_RegularDay(t *testing.T) {
	start, end := shift(4, 9, 17)
	p := period(march(generic.FirstHalf), payroll.VariantReceptionist, payroll.DailyRecord{
		Date:                day(4),
		Start:               start,
		End:                 end,
		BodySessions:        d("1"),
		FeetSessions:        d("1.5"),
		AcupunctureSessions: d("0.5"),
	})
	rc := payroll.RateCard{BodyRate: ptr("10"), FeetRate: ptr("8"), PerHour: ptr("15")}

	b, err := payroll.Compute(p, rc, holidays(day(3)))
	require.NoError(t, err)

	fourth := b.Days[3]
	assert.False(t, fourth.Holiday)
	assertDecimal(t, "3", fourth.SessionHours, "session hours")
	assertDecimal(t, "5", fourth.CountedHours, "counted_hours")
	assertDecimal(t, "5", fourth.TotalHours, "total_hours")
	// 10 + 12 + 75, acupuncture sessions earn nothing for a receptionist
	assertDecimal(t, "97", b.Totals.Total, "total")
	assertDecimal(t, "0", b.Totals.AcupunctureMoney, "acupuncture money")
}

func TestCompute_Receptionist_SessionsExceedShift_ClampedAtZero(t *testing.T) {
	start, end := shift(5, 9, 10)
	p := period(march(generic.FirstHalf), payroll.VariantReceptionist, payroll.DailyRecord{
		Date:         day(5),
		Start:        start,
		End:          end,
		BodySessions: d("3"),
	})
	rc := payroll.RateCard{BodyRate: ptr("10"), PerHour: ptr("15")}

	b, err := payroll.Compute(p, rc, nil)
	require.NoError(t, err)

	assertDecimal(t, "0", b.Days[4].CountedHours, "counted_hours")
	assertDecimal(t, "0", b.Days[4].HourlyPay, "hourly pay")
	assertDecimal(t, "30", b.Totals.Total, "total")
}

// =============================================================================
// ACUPUNCTURIST AND STORE EMPLOYEE
// =============================================================================

func TestCompute_Acupuncturist_PaysEverySessionType(t *testing.T) {
	p := period(march(generic.SecondHalf), payroll.VariantAcupuncturist, payroll.DailyRecord{
		Date:                day(20),
		BodySessions:        d("2"),
		FeetSessions:        d("1"),
		AcupunctureSessions: d("3"),
	})
	rc := payroll.RateCard{BodyRate: ptr("20"), FeetRate: ptr("15"), AcupunctureRate: ptr("60")}

	b, err := payroll.Compute(p, rc, holidays(day(20)))
	require.NoError(t, err)

	require.Len(t, b.Days, 16)
	assertDecimal(t, "40", b.Totals.BodyMoney, "body money")
	assertDecimal(t, "15", b.Totals.FeetMoney, "feet money")
	assertDecimal(t, "180", b.Totals.AcupunctureMoney, "acupuncture money")
	assertDecimal(t, "235", b.Totals.Total, "total")
}

func TestCompute_StoreEmployee_AcupunctureFoldsIntoBody(t *testing.T) {
	p := period(march(generic.FirstHalf), payroll.VariantStoreEmployee, payroll.DailyRecord{
		Date:                day(2),
		BodySessions:        d("2"),
		FeetSessions:        d("1"),
		AcupunctureSessions: d("0.5"),
		Tips:                d("40"),
	})

	b, err := payroll.Compute(p, storeRates, nil)
	require.NoError(t, err)

	assertDecimal(t, "50", b.Totals.BodyMoney, "body money")
	assertDecimal(t, "15", b.Totals.FeetMoney, "feet money")
	assertDecimal(t, "65", b.Totals.Total, "total excludes tips")
	assertDecimal(t, "65", b.Cheque, "cheque")
	assertDecimal(t, "0", b.Remainder, "remainder")
}

func TestCompute_NilRates_CountAsZero(t *testing.T) {
	p := period(march(generic.FirstHalf), payroll.VariantAcupuncturist, payroll.DailyRecord{
		Date:                day(1),
		BodySessions:        d("4"),
		AcupunctureSessions: d("2"),
	})

	b, err := payroll.Compute(p, payroll.RateCard{AcupunctureRate: ptr("50")}, nil)
	require.NoError(t, err)
	assertDecimal(t, "100", b.Totals.Total, "total")
}

// =============================================================================
// TIPS AND CASH
// =============================================================================

func tipsAndCashPeriod(cheque *decimal.Decimal) *payroll.PayrollPeriod {
	p := period(march(generic.FirstHalf), payroll.VariantStoreEmployeeTipsAndCash, payroll.DailyRecord{
		Date:                  day(3),
		BodySessions:          d("2"),
		FeetSessions:          d("1"),
		RequestedBodySessions: d("1"),
		VIPAmount:             d("10"),
		Tips:                  d("25"),
	})
	p.ChequeAmount = cheque
	return p
}

func TestCompute_TipsAndCash_HolidayPayAndCash(t *testing.T) {
	// GIVEN: 3 sessions on a holiday, 1 requested, VIP 10 and tips 25
	// WHEN: Computing the tips-and-cash breakdown
	// THEN: holiday pay = 2 * 3, cash = 1 + 6 + 10, total = 55 + 25 + 17

	b, err := payroll.Compute(tipsAndCashPeriod(nil), storeRates, holidays(day(3)))
	require.NoError(t, err)

	third := b.Days[2]
	assertDecimal(t, "6", third.HolidayPay, "holiday pay")
	assertDecimal(t, "17", third.Cash, "cash")
	assertDecimal(t, "25", third.Tips, "tips")
	assertDecimal(t, "97", b.Totals.Total, "total")
	assertDecimal(t, "97", b.Cheque, "cheque")
	assertDecimal(t, "0", b.Remainder, "remainder")
	assert.False(t, b.OverrideOutOfRange)
}

func TestCompute_TipsAndCash_ChequeOverride(t *testing.T) {
	tests := []struct {
		name       string
		cheque     string
		remainder  string
		outOfRange bool
	}{
		{"partial cheque", "50", "47", false},
		{"full cheque", "97", "0", false},
		{"zero cheque", "0", "97", false},
		{"cheque above total", "120", "-23", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := payroll.Compute(tipsAndCashPeriod(ptr(tt.cheque)), storeRates, holidays(day(3)))
			require.NoError(t, err)

			assertDecimal(t, tt.cheque, b.Cheque, "cheque")
			assertDecimal(t, tt.remainder, b.Remainder, "remainder")
			assert.Equal(t, tt.outOfRange, b.OverrideOutOfRange)
			assert.True(t, b.Cheque.Add(b.Remainder).Equal(b.Totals.Total), "cheque + remainder must equal total")
		})
	}
}

func TestCompute_ChequeAmount_IgnoredOutsideTipsAndCash(t *testing.T) {
	p := tipsAndCashPeriod(ptr("10"))
	p.Option = payroll.VariantStoreEmployee

	b, err := payroll.Compute(p, storeRates, nil)
	require.NoError(t, err)

	assertDecimal(t, "55", b.Cheque, "cheque")
	assertDecimal(t, "0", b.Remainder, "remainder")
}

// =============================================================================
// ZERO-FILL AND TOTALS
// =============================================================================

func TestCompute_NoRecords_ZeroFilledDays(t *testing.T) {
	key := generic.PeriodKey{EmployeeID: "emp-1", Year: 2024, Month: time.February, Part: generic.SecondHalf}

	b, err := payroll.Compute(period(key, payroll.VariantStoreEmployee), storeRates, nil)
	require.NoError(t, err)

	require.Len(t, b.Days, 14)
	assert.Equal(t, "2024-02-16", b.Days[0].Date.String())
	assert.Equal(t, "2024-02-29", b.Days[13].Date.String())
	assert.True(t, b.Totals.Total.IsZero())
}

func TestCompute_DaysSumToTotal(t *testing.T) {
	p := period(march(generic.SecondHalf), payroll.VariantStoreEmployeeTipsAndCash,
		payroll.DailyRecord{Date: day(16), BodySessions: d("1.5"), Tips: d("12.35")},
		payroll.DailyRecord{Date: day(22), FeetSessions: d("2"), RequestedFeetSessions: d("2"), VIPAmount: d("3.10")},
		payroll.DailyRecord{Date: day(31), AcupunctureSessions: d("0.5"), Tips: d("7")},
	)

	b, err := payroll.Compute(p, storeRates, holidays(day(22)))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, dd := range b.Days {
		sum = sum.Add(dd.Pay)
	}
	assert.True(t, sum.Equal(b.Totals.Total), "sum of days %s != total %s", sum, b.Totals.Total)
}

func TestCompute_InconsistentRecords_Rejected(t *testing.T) {
	// GIVEN: A first-half period holding a record it does not own
	// WHEN: Computing it directly
	// THEN: ErrInconsistentRecord, the record is neither dropped nor paid

	tests := []struct {
		name   string
		record payroll.DailyRecord
	}{
		{"outside window", payroll.DailyRecord{EmployeeID: "emp-1", Date: day(20), BodySessions: d("3")}},
		{"other employee", payroll.DailyRecord{EmployeeID: "other", Date: day(2), BodySessions: d("5")}},
		{"duplicate day", payroll.DailyRecord{EmployeeID: "emp-1", Date: day(1), BodySessions: d("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := period(march(generic.FirstHalf), payroll.VariantStoreEmployee,
				payroll.DailyRecord{EmployeeID: "emp-1", Date: day(1), BodySessions: d("2")},
				tt.record,
			)

			_, err := payroll.Compute(p, storeRates, nil)
			assert.ErrorIs(t, err, generic.ErrInconsistentRecord)

			_, err = payroll.ComputeCashOut(p, nil)
			assert.ErrorIs(t, err, generic.ErrInconsistentRecord)
		})
	}
}

func TestCompute_ZeroFilledDayEqualsAllZeroRecord(t *testing.T) {
	// GIVEN: Two periods that differ only on day 3, a holiday: one has no
	//        record, the other a record whose every quantity is 0
	// WHEN: Computing both under each variant
	// THEN: Totals and per-day rows are identical

	start, end := shift(2, 9, 17)
	active := payroll.DailyRecord{
		EmployeeID: "emp-1", Date: day(2), Start: start, End: end,
		BodySessions: d("2"), FeetSessions: d("1"), AcupunctureSessions: d("0.5"),
		RequestedBodySessions: d("1"), VIPAmount: d("4"), Tips: d("6"),
	}
	zeroed := payroll.DailyRecord{
		EmployeeID:                   "emp-1",
		Date:                         day(3),
		BodySessions:                 decimal.Zero,
		FeetSessions:                 decimal.Zero,
		AcupunctureSessions:          decimal.Zero,
		RequestedBodySessions:        decimal.Zero,
		RequestedFeetSessions:        decimal.Zero,
		RequestedAcupunctureSessions: decimal.Zero,
		TotalCash:                    decimal.Zero,
		TotalMachine:                 decimal.Zero,
		TotalVIP:                     decimal.Zero,
		TotalGiftCard:                decimal.Zero,
		TotalInsurance:               decimal.Zero,
		TotalCashOut:                 decimal.Zero,
		Tips:                         decimal.Zero,
		VIPAmount:                    decimal.Zero,
		AwardAmount:                  decimal.Zero,
	}
	rc := payroll.RateCard{BodyRate: ptr("20"), FeetRate: ptr("15"), AcupunctureRate: ptr("25"), PerHour: ptr("12")}
	cal := holidays(day(3))

	for _, v := range []payroll.CompensationVariant{
		payroll.VariantReceptionist,
		payroll.VariantAcupuncturist,
		payroll.VariantStoreEmployee,
		payroll.VariantStoreEmployeeTipsAndCash,
	} {
		t.Run(string(v), func(t *testing.T) {
			missing, err := payroll.Compute(period(march(generic.FirstHalf), v, active), rc, cal)
			require.NoError(t, err)
			filled, err := payroll.Compute(period(march(generic.FirstHalf), v, active, zeroed), rc, cal)
			require.NoError(t, err)

			assertDecimal(t, missing.Totals.Total.String(), filled.Totals.Total, "total")
			assertDecimal(t, missing.Cheque.String(), filled.Cheque, "cheque")
			assertDecimal(t, missing.Totals.Cash.String(), filled.Totals.Cash, "cash")
			assertDecimal(t, missing.Totals.HourlyMoney.String(), filled.Totals.HourlyMoney, "hourly money")

			require.Len(t, filled.Days, len(missing.Days))
			for i := range missing.Days {
				want, got := missing.Days[i], filled.Days[i]
				assert.Equal(t, want.Date, got.Date)
				assert.Equal(t, want.Holiday, got.Holiday)
				assertDecimal(t, want.Pay.String(), got.Pay, want.Date.String()+" pay")
				assertDecimal(t, want.TotalHours.String(), got.TotalHours, want.Date.String()+" total hours")
				assertDecimal(t, want.HolidayPay.String(), got.HolidayPay, want.Date.String()+" holiday pay")
				assertDecimal(t, want.Cash.String(), got.Cash, want.Date.String()+" cash")
			}

			var a, b bytes.Buffer
			require.NoError(t, payroll.WriteBreakdownCSV(&a, missing))
			require.NoError(t, payroll.WriteBreakdownCSV(&b, filled))
			assert.Equal(t, a.String(), b.String())
		})
	}

	key := march(generic.FirstHalf)
	sparse := payroll.NewPeriodAggregator(key, []payroll.DailyRecord{active}).Sums()
	dense := payroll.NewPeriodAggregator(key, []payroll.DailyRecord{active, zeroed}).Sums()
	assertDecimal(t, sparse.BodySessions.String(), dense.BodySessions, "body sessions sum")
	assertDecimal(t, sparse.WorkedHours.String(), dense.WorkedHours, "worked hours sum")
	assertDecimal(t, sparse.Tips.String(), dense.Tips, "tips sum")
	assertDecimal(t, sparse.VIPAmount.String(), dense.VIPAmount, "vip sum")
}

func TestCompute_UnknownVariant(t *testing.T) {
	_, err := payroll.Compute(period(march(generic.FirstHalf), "manager"), storeRates, nil)
	assert.ErrorIs(t, err, generic.ErrVariantNotAllowed)
}

// =============================================================================
// VARIANT RULES
// =============================================================================

func TestDefaultVariant(t *testing.T) {
	assert.Equal(t, payroll.VariantReceptionist, payroll.DefaultVariant(payroll.RoleReceptionist))
	assert.Equal(t, payroll.VariantAcupuncturist, payroll.DefaultVariant(payroll.RoleAcupuncturist))
	assert.Equal(t, payroll.VariantStoreEmployee, payroll.DefaultVariant(payroll.RoleStoreEmployee))
	assert.Equal(t, payroll.VariantStoreEmployee, payroll.DefaultVariant(payroll.RoleManager))
}

func TestVariantAllowed(t *testing.T) {
	assert.True(t, payroll.VariantAllowed(payroll.RoleStoreEmployee, payroll.VariantStoreEmployeeTipsAndCash))
	assert.True(t, payroll.VariantAllowed(payroll.RoleManager, payroll.VariantStoreEmployeeTipsAndCash))
	assert.False(t, payroll.VariantAllowed(payroll.RoleReceptionist, payroll.VariantStoreEmployeeTipsAndCash))
	assert.False(t, payroll.VariantAllowed(payroll.RoleAcupuncturist, payroll.VariantStoreEmployeeTipsAndCash))
	assert.False(t, payroll.VariantAllowed(payroll.RoleStoreEmployee, "bonus"))
}
