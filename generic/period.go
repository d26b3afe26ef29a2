package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// PERIOD - Inclusive day range
// =============================================================================

// Period is an inclusive range of calendar days [Start, End].
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the day is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Validate rejects periods whose end precedes their start.
func (p Period) Validate() error {
	if p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MonthPeriod covers a whole calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// =============================================================================
// PART - Half-month payroll sub-period
// =============================================================================

// Part selects one half of a calendar month.
type Part int

const (
	FirstHalf  Part = 1 // days 1-15
	SecondHalf Part = 2 // day 16 through the last day of the month
)

// lastDayOfFirstHalf is the final day covered by FirstHalf.
const lastDayOfFirstHalf = 15

func (p Part) Valid() bool { return p == FirstHalf || p == SecondHalf }

func (p Part) String() string {
	switch p {
	case FirstHalf:
		return "first"
	case SecondHalf:
		return "second"
	default:
		return fmt.Sprintf("part(%d)", int(p))
	}
}

// ParsePart accepts "first"/"second" as well as "1"/"2".
func ParsePart(s string) (Part, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "1", "first_half":
		return FirstHalf, nil
	case "second", "2", "second_half":
		return SecondHalf, nil
	}
	return 0, fmt.Errorf("%w: unknown part %q", ErrInvalidPeriod, s)
}

// PartOf returns the half-month a day falls into.
func PartOf(day TimePoint) Part {
	if day.Day() <= lastDayOfFirstHalf {
		return FirstHalf
	}
	return SecondHalf
}

// HalfMonth returns the day window of a payroll part.
func HalfMonth(year int, month time.Month, part Part) Period {
	if part == FirstHalf {
		return Period{
			Start: NewTimePoint(year, month, 1),
			End:   NewTimePoint(year, month, lastDayOfFirstHalf),
		}
	}
	return Period{
		Start: NewTimePoint(year, month, lastDayOfFirstHalf+1),
		End:   EndOfMonth(year, month),
	}
}

// DaysInPart lists the day-of-month numbers of a part: 1..15 or 16..last.
func DaysInPart(year int, month time.Month, part Part) []int {
	window := HalfMonth(year, month, part)
	days := make([]int, 0, window.End.Day()-window.Start.Day()+1)
	for d := window.Start.Day(); d <= window.End.Day(); d++ {
		days = append(days, d)
	}
	return days
}

// ValidateDays checks n dated items against an employee and a window. at
// returns the i-th item's employee (empty means "unspecified") and day.
// Each day may appear at most once.
func ValidateDays(employeeID EmployeeID, window Period, n int, at func(int) (EmployeeID, TimePoint)) error {
	seen := make(map[TimePoint]bool, n)
	for i := 0; i < n; i++ {
		emp, date := at(i)
		reject := func(reason string) error {
			return &InconsistentRecordError{
				EmployeeID: string(employeeID),
				Date:       date,
				Window:     window,
				Reason:     reason,
			}
		}
		if emp != "" && emp != employeeID {
			return reject(fmt.Sprintf("record belongs to employee %s", emp))
		}
		if !window.Contains(date) {
			return reject("date outside period window")
		}
		if seen[date] {
			return reject("more than one record for the day")
		}
		seen[date] = true
	}
	return nil
}
