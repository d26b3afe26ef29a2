/*
Package generic provides the domain-agnostic primitives of the payroll engine.

PURPOSE:
  Payroll (hourly, per-session and tips-and-cash pay) and acupuncture
  commission reports share the same building blocks: calendar days, half-month
  periods, a holiday calendar, exact decimal arithmetic and a common set of
  error kinds. They live here so neither domain package re-derives them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Decimal helpers: exact money / session / hour arithmetic
  - Identity keys for half-month periods and monthly reports

DESIGN PRINCIPLES:
  1. Precision: every quantity is a decimal.Decimal, never a float
  2. Determinism: same inputs always give bit-identical outputs
  3. No ambient state: every computation takes its period as an argument

SEE ALSO:
  - time.go: TimePoint and the holiday calendar
  - period.go: Period and half-month Part
  - errors.go: error kinds
*/
package generic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	One      = decimal.NewFromInt(1)
	Two      = decimal.NewFromInt(2)
	OneHalf  = decimal.RequireFromString("1.5")
	secsHour = decimal.NewFromInt(3600)
)

// MustParseDecimal parses s, returning zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// OrZero dereferences an optional value; nil counts as zero.
func OrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Sum adds values left to right.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MaxZero clamps negative values to zero.
func MaxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Hours converts a duration to decimal hours.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secsHour)
}

// InUnitInterval reports whether 0 <= d <= 1.
func InUnitInterval(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(One)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// PeriodKey identifies a half-month payroll period.
type PeriodKey struct {
	EmployeeID EmployeeID
	Year       int
	Month      time.Month
	Part       Part
}

// Window returns the day range the key covers.
func (k PeriodKey) Window() Period { return HalfMonth(k.Year, k.Month, k.Part) }

// Validate rejects keys with an empty employee, unknown month or unknown part.
func (k PeriodKey) Validate() error {
	if k.EmployeeID == "" {
		return fmt.Errorf("%w: employee id is required", ErrInvalidPeriod)
	}
	if k.Month < time.January || k.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, k.Month)
	}
	if !k.Part.Valid() {
		return fmt.Errorf("%w: part %d", ErrInvalidPeriod, k.Part)
	}
	return nil
}

func (k PeriodKey) String() string {
	return fmt.Sprintf("%s/%04d-%02d/%s", k.EmployeeID, k.Year, k.Month, k.Part)
}

// ReportKey identifies a monthly report.
type ReportKey struct {
	EmployeeID EmployeeID
	Year       int
	Month      time.Month
}

func (k ReportKey) Window() Period { return MonthPeriod(k.Year, k.Month) }

func (k ReportKey) Validate() error {
	if k.EmployeeID == "" {
		return fmt.Errorf("%w: employee id is required", ErrInvalidPeriod)
	}
	if k.Month < time.January || k.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, k.Month)
	}
	return nil
}

func (k ReportKey) String() string {
	return fmt.Sprintf("%s/%04d-%02d", k.EmployeeID, k.Year, k.Month)
}
