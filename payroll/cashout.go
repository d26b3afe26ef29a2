package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// CASH-OUT VIEW - Store employee disbursement by method
// =============================================================================

// TipsPayableRate is the share of tips paid out; the house retains 10%.
var TipsPayableRate = decimal.RequireFromString("0.9")

// CashOutDay is one day of the cash-out view.
type CashOutDay struct {
	Date    generic.TimePoint
	Holiday bool

	TotalSessions  decimal.Decimal
	RequestedTotal decimal.Decimal
	HolidayPay     decimal.Decimal
	AwardAmount    decimal.Decimal
	VIPAmount      decimal.Decimal
	TotalCashOut   decimal.Decimal
	Cash           decimal.Decimal

	Tips        decimal.Decimal
	TipsPayable decimal.Decimal

	// Payable is Cash + TipsPayable.
	Payable decimal.Decimal
}

// CashOutBreakdown is the cash/tips view of a store-employee period.
type CashOutBreakdown struct {
	Key  generic.PeriodKey
	Days []CashOutDay

	CashTotal        decimal.Decimal
	TipsTotal        decimal.Decimal
	TipsPayableTotal decimal.Decimal

	// Total is Σcash + Σtips_payable.
	Total decimal.Decimal
}

// ComputeCashOut re-renders a STORE_EMPLOYEE period's records as a cash-out
// view. The period is not modified. Other variants return ErrVariantMismatch:
// tips-and-cash already reports cash inline. Records that do not belong to
// the period are rejected with ErrInconsistentRecord.
func ComputeCashOut(period *PayrollPeriod, calendar generic.HolidayCalendar) (CashOutBreakdown, error) {
	if period.Option != VariantStoreEmployee {
		return CashOutBreakdown{}, fmt.Errorf("%w: cash-out requires %s, period is %s",
			generic.ErrVariantMismatch, VariantStoreEmployee, period.Option)
	}
	if err := ValidateRecords(period.Key, period.Records); err != nil {
		return CashOutBreakdown{}, err
	}
	if calendar == nil {
		calendar = generic.NoHolidays{}
	}

	out := CashOutBreakdown{Key: period.Key}
	agg := NewPeriodAggregator(period.Key, period.Records)
	for _, r := range agg.Records() {
		d := CashOutDay{
			Date:           r.Date,
			Holiday:        calendar.IsHoliday(r.Date),
			TotalSessions:  r.Sessions(),
			RequestedTotal: r.RequestedSessions(),
			AwardAmount:    r.AwardAmount,
			VIPAmount:      r.VIPAmount,
			TotalCashOut:   r.TotalCashOut,
			Tips:           r.Tips,
			TipsPayable:    r.Tips.Mul(TipsPayableRate),
		}
		if d.Holiday {
			d.HolidayPay = generic.Two.Mul(d.TotalSessions)
		}
		d.Cash = generic.Sum(d.RequestedTotal, d.HolidayPay, d.AwardAmount, d.VIPAmount, d.TotalCashOut)
		d.Payable = d.Cash.Add(d.TipsPayable)

		out.Days = append(out.Days, d)
		out.CashTotal = out.CashTotal.Add(d.Cash)
		out.TipsTotal = out.TipsTotal.Add(d.Tips)
		out.TipsPayableTotal = out.TipsPayableTotal.Add(d.TipsPayable)
	}
	out.Total = out.CashTotal.Add(out.TipsPayableTotal)
	return out, nil
}
