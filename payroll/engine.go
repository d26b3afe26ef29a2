/*
engine.go - Compensation engine (variant dispatch over one day loop)

PURPOSE:
  Turns a half-month of DailyRecords into a PayBreakdown under exactly one
  CompensationVariant. All four formulas live side by side below and share
  the same zero-filled day iteration (PeriodAggregator) and the same totals
  accumulation, so zero-fill and holiday lookup cannot drift per variant.

VARIANTS:
  ACUPUNCTURIST  body × body_rate, feet × feet_rate, acupuncture × acupuncture_rate
  RECEPTIONIST   sessions as above (no acupuncture pay) plus hourly pay for
                 shift hours not spent in sessions; holiday ⇒ counted hours × 1.5
  STORE_EMPLOYEE (body + acupuncture) × body_rate, feet × feet_rate; no holiday bonus
  STORE_EMPLOYEE_WITH_TIPS_AND_CASH
                 store pay plus tips plus cash, where
                 cash = requested sessions + holiday pay (2 × sessions) + vip amount

PRECISION:
  Nothing is rounded here. Money is rounded at presentation time only, so
  the per-day Pay column always sums exactly to Totals.Total.

SEE ALSO:
  - aggregator.go: zero-filled day iteration
  - cashout.go: alternate store-employee disbursement view
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// DayBreakdown is the audit row of one day. Columns a variant does not use
// stay zero.
type DayBreakdown struct {
	Date    generic.TimePoint
	Holiday bool

	BodySessions        decimal.Decimal
	FeetSessions        decimal.Decimal
	AcupunctureSessions decimal.Decimal

	BodyPay        decimal.Decimal
	FeetPay        decimal.Decimal
	AcupuncturePay decimal.Decimal

	// Receptionist
	Hours        decimal.Decimal
	SessionHours decimal.Decimal
	CountedHours decimal.Decimal
	TotalHours   decimal.Decimal
	HourlyPay    decimal.Decimal

	// Tips and cash
	RequestedTotal decimal.Decimal
	HolidayPay     decimal.Decimal
	VIPAmount      decimal.Decimal
	Cash           decimal.Decimal
	Tips           decimal.Decimal

	// Pay is the day's contribution to Totals.Total.
	Pay decimal.Decimal
}

// Totals are the period sums of the per-day columns.
type Totals struct {
	BodySessions        decimal.Decimal
	FeetSessions        decimal.Decimal
	AcupunctureSessions decimal.Decimal

	BodyMoney        decimal.Decimal
	FeetMoney        decimal.Decimal
	AcupunctureMoney decimal.Decimal

	TotalHours  decimal.Decimal
	HourlyMoney decimal.Decimal

	RequestedTotal decimal.Decimal
	HolidayPay     decimal.Decimal
	Cash           decimal.Decimal
	Tips           decimal.Decimal

	// Total is the gross pay of the period.
	Total decimal.Decimal
}

// PayBreakdown is the result of Compute.
//
// INVARIANT: Cheque + Remainder == Totals.Total for every variant.
type PayBreakdown struct {
	Key     generic.PeriodKey
	Variant CompensationVariant
	Days    []DayBreakdown
	Totals  Totals

	// Cheque is the amount disbursed by cheque. It equals Totals.Total unless a
	// manual cheque amount is set on a tips-and-cash period.
	Cheque decimal.Decimal

	// Remainder is what is still owed in cash after the cheque. It may be
	// negative when the manual cheque exceeds the computed total.
	Remainder decimal.Decimal

	// OverrideOutOfRange flags a manual cheque amount that is negative or
	// above Totals.Total. The remainder is still computed.
	OverrideOutOfRange bool
}

// =============================================================================
// ENGINE
// =============================================================================

// rates are the resolved (nil => 0) values of a RateCard.
type rates struct {
	body, feet, acupuncture, perHour decimal.Decimal
}

func resolve(rc RateCard) rates {
	return rates{
		body:        generic.OrZero(rc.BodyRate),
		feet:        generic.OrZero(rc.FeetRate),
		acupuncture: generic.OrZero(rc.AcupunctureRate),
		perHour:     generic.OrZero(rc.PerHour),
	}
}

// dayFormula computes one day's row for a variant.
type dayFormula func(r DailyRecord, holiday bool, rt rates) DayBreakdown

func formulaFor(v CompensationVariant) (dayFormula, error) {
	switch v {
	case VariantAcupuncturist:
		return acupuncturistDay, nil
	case VariantReceptionist:
		return receptionistDay, nil
	case VariantStoreEmployee:
		return storeEmployeeDay, nil
	case VariantStoreEmployeeTipsAndCash:
		return tipsAndCashDay, nil
	}
	return nil, fmt.Errorf("%w: %q", generic.ErrVariantNotAllowed, v)
}

// Compute produces the pay breakdown of a period under its current option.
// It is pure: no I/O and no shared state. It fails on an unknown variant or
// on records that do not belong to the period (ErrInconsistentRecord).
func Compute(period *PayrollPeriod, rc RateCard, calendar generic.HolidayCalendar) (PayBreakdown, error) {
	formula, err := formulaFor(period.Option)
	if err != nil {
		return PayBreakdown{}, err
	}
	if err := ValidateRecords(period.Key, period.Records); err != nil {
		return PayBreakdown{}, err
	}
	if calendar == nil {
		calendar = generic.NoHolidays{}
	}

	rt := resolve(rc)
	agg := NewPeriodAggregator(period.Key, period.Records)
	out := PayBreakdown{Key: period.Key, Variant: period.Option}

	for _, r := range agg.Records() {
		day := formula(r, calendar.IsHoliday(r.Date), rt)
		day.Date = r.Date
		out.Days = append(out.Days, day)
		out.Totals.add(day)
	}

	out.Cheque = out.Totals.Total
	if period.Option == VariantStoreEmployeeTipsAndCash && period.ChequeAmount != nil {
		out.Cheque = *period.ChequeAmount
		out.OverrideOutOfRange = out.Cheque.IsNegative() || out.Cheque.GreaterThan(out.Totals.Total)
	}
	out.Remainder = out.Totals.Total.Sub(out.Cheque)
	return out, nil
}

func (t *Totals) add(d DayBreakdown) {
	t.BodySessions = t.BodySessions.Add(d.BodySessions)
	t.FeetSessions = t.FeetSessions.Add(d.FeetSessions)
	t.AcupunctureSessions = t.AcupunctureSessions.Add(d.AcupunctureSessions)
	t.BodyMoney = t.BodyMoney.Add(d.BodyPay)
	t.FeetMoney = t.FeetMoney.Add(d.FeetPay)
	t.AcupunctureMoney = t.AcupunctureMoney.Add(d.AcupuncturePay)
	t.TotalHours = t.TotalHours.Add(d.TotalHours)
	t.HourlyMoney = t.HourlyMoney.Add(d.HourlyPay)
	t.RequestedTotal = t.RequestedTotal.Add(d.RequestedTotal)
	t.HolidayPay = t.HolidayPay.Add(d.HolidayPay)
	t.Cash = t.Cash.Add(d.Cash)
	t.Tips = t.Tips.Add(d.Tips)
	t.Total = t.Total.Add(d.Pay)
}

// =============================================================================
// VARIANT FORMULAS
// =============================================================================

func acupuncturistDay(r DailyRecord, _ bool, rt rates) DayBreakdown {
	d := DayBreakdown{
		BodySessions:        r.BodySessions,
		FeetSessions:        r.FeetSessions,
		AcupunctureSessions: r.AcupunctureSessions,
		BodyPay:             r.BodySessions.Mul(rt.body),
		FeetPay:             r.FeetSessions.Mul(rt.feet),
		AcupuncturePay:      r.AcupunctureSessions.Mul(rt.acupuncture),
	}
	d.Pay = generic.Sum(d.BodyPay, d.FeetPay, d.AcupuncturePay)
	return d
}

// receptionistDay pays shift hours net of session time. The holiday
// multiplier applies to counted hours, never to the raw shift length.
func receptionistDay(r DailyRecord, holiday bool, rt rates) DayBreakdown {
	d := DayBreakdown{
		Holiday:             holiday,
		BodySessions:        r.BodySessions,
		FeetSessions:        r.FeetSessions,
		AcupunctureSessions: r.AcupunctureSessions,
		BodyPay:             r.BodySessions.Mul(rt.body),
		FeetPay:             r.FeetSessions.Mul(rt.feet),
		Hours:               r.WorkedHours(),
		// body and acupuncture form one bucket, feet the other
		SessionHours: r.BodySessions.Add(r.AcupunctureSessions).Add(r.FeetSessions),
	}
	d.CountedHours = generic.MaxZero(d.Hours.Sub(d.SessionHours))
	multiplier := generic.One
	if holiday {
		multiplier = generic.OneHalf
	}
	d.TotalHours = generic.MaxZero(d.CountedHours.Mul(multiplier))
	d.HourlyPay = d.TotalHours.Mul(rt.perHour)
	d.Pay = generic.Sum(d.BodyPay, d.FeetPay, d.HourlyPay)
	return d
}

// storeEmployeeDay folds acupuncture sessions into the body bucket.
func storeEmployeeDay(r DailyRecord, _ bool, rt rates) DayBreakdown {
	d := DayBreakdown{
		BodySessions:        r.BodySessions,
		FeetSessions:        r.FeetSessions,
		AcupunctureSessions: r.AcupunctureSessions,
		BodyPay:             r.BodySessions.Add(r.AcupunctureSessions).Mul(rt.body),
		FeetPay:             r.FeetSessions.Mul(rt.feet),
	}
	d.Pay = d.BodyPay.Add(d.FeetPay)
	return d
}

// tipsAndCashDay is the store formula plus full tips and a cash component.
// Holiday pay is 2 per session performed on a holiday.
func tipsAndCashDay(r DailyRecord, holiday bool, rt rates) DayBreakdown {
	d := storeEmployeeDay(r, holiday, rt)
	d.Holiday = holiday
	if holiday {
		d.HolidayPay = generic.Two.Mul(r.Sessions())
	}
	d.RequestedTotal = r.RequestedSessions()
	d.VIPAmount = r.VIPAmount
	d.Cash = generic.Sum(d.RequestedTotal, d.HolidayPay, r.VIPAmount)
	d.Tips = r.Tips
	d.Pay = generic.Sum(d.BodyPay, d.FeetPay, d.Tips, d.Cash)
	return d
}
