package generic

import (
	"sort"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day (payroll never looks below day granularity)
// =============================================================================

// TimePoint is a calendar day in UTC. Payroll records are keyed by day, so the
// clock part of the wrapped time is always midnight.
type TimePoint struct {
	Time time.Time
}

// NewTimePoint returns the given calendar day at midnight UTC.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates any instant to its calendar day (in the instant's own location).
func DayOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

// ParseDay parses an ISO date (2006-01-02).
func ParseDay(s string) (TimePoint, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return TimePoint{}, err
	}
	return DayOf(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format(time.DateOnly) }

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a single configured holiday date.
type Holiday struct {
	ID   string
	Date TimePoint
	Name string
}

// HolidayCalendar answers whether a day is a paid holiday.
type HolidayCalendar interface {
	IsHoliday(date TimePoint) bool
}

// MonthDay is a (month, day) pair within a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// StaticHolidayCalendar is a per-year lookup of holiday dates.
//
// A date is a holiday iff its year is configured AND that year's set contains
// the date's (month, day). Years absent from the map have no holidays at all;
// nothing recurs implicitly into unconfigured years.
type StaticHolidayCalendar struct {
	years map[int]map[MonthDay]struct{}
}

// NewStaticHolidayCalendar builds a calendar from a list of holidays.
func NewStaticHolidayCalendar(holidays []Holiday) *StaticHolidayCalendar {
	c := &StaticHolidayCalendar{years: make(map[int]map[MonthDay]struct{})}
	for _, h := range holidays {
		c.Add(h.Date)
	}
	return c
}

// Add registers date as a holiday in its year.
func (c *StaticHolidayCalendar) Add(date TimePoint) {
	if c.years == nil {
		c.years = make(map[int]map[MonthDay]struct{})
	}
	set, ok := c.years[date.Year()]
	if !ok {
		set = make(map[MonthDay]struct{})
		c.years[date.Year()] = set
	}
	set[MonthDay{Month: date.Month(), Day: date.Day()}] = struct{}{}
}

// IsHoliday implements HolidayCalendar.
func (c *StaticHolidayCalendar) IsHoliday(date TimePoint) bool {
	if c == nil {
		return false
	}
	set, ok := c.years[date.Year()]
	if !ok {
		return false
	}
	_, ok = set[MonthDay{Month: date.Month(), Day: date.Day()}]
	return ok
}

// Years returns the configured years in ascending order.
func (c *StaticHolidayCalendar) Years() []int {
	years := make([]int, 0, len(c.years))
	for y := range c.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// NoHolidays is a calendar without any holiday.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(TimePoint) bool { return false }

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }

func EndOfMonth(year int, month time.Month) TimePoint {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return TimePoint{Time: t}
}

// DaysInMonth returns the number of calendar days in the month.
func DaysInMonth(year int, month time.Month) int { return EndOfMonth(year, month).Day() }
