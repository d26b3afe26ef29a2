package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
)

func TestParseDay(t *testing.T) {
	tp, err := generic.ParseDay("2025-07-04")
	require.NoError(t, err)
	assert.Equal(t, 2025, tp.Year())
	assert.Equal(t, time.July, tp.Month())
	assert.Equal(t, 4, tp.Day())

	_, err = generic.ParseDay("07/04/2025")
	assert.Error(t, err)
}

func TestStaticHolidayCalendar_OnlyConfiguredYears(t *testing.T) {
	// GIVEN: July 4th configured for 2025 only
	// WHEN: Asking about July 4th in 2025 and 2026
	// THEN: Only 2025 is a holiday; nothing recurs into unconfigured years

	cal := generic.NewStaticHolidayCalendar([]generic.Holiday{
		{ID: "h1", Date: generic.NewTimePoint(2025, time.July, 4), Name: "Independence Day"},
	})

	assert.True(t, cal.IsHoliday(generic.NewTimePoint(2025, time.July, 4)))
	assert.False(t, cal.IsHoliday(generic.NewTimePoint(2025, time.July, 5)))
	assert.False(t, cal.IsHoliday(generic.NewTimePoint(2026, time.July, 4)))
	assert.Equal(t, []int{2025}, cal.Years())
}

func TestStaticHolidayCalendar_NilAndEmpty(t *testing.T) {
	var nilCal *generic.StaticHolidayCalendar
	assert.False(t, nilCal.IsHoliday(generic.NewTimePoint(2025, time.January, 1)))

	assert.False(t, generic.NoHolidays{}.IsHoliday(generic.NewTimePoint(2025, time.January, 1)))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, generic.DaysInMonth(2025, time.January))
	assert.Equal(t, 29, generic.DaysInMonth(2024, time.February))
	assert.Equal(t, 28, generic.DaysInMonth(2025, time.February))
	assert.Equal(t, 30, generic.DaysInMonth(2025, time.November))
}
