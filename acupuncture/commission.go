// Package acupuncture computes an acupuncturist's monthly commission from
// daily clinical billing totals.
package acupuncture

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// TYPES
// =============================================================================

// Percentages are the four independent splits, each within [0, 1].
type Percentages struct {
	Acupuncture               decimal.Decimal
	Massage                   decimal.Decimal
	Insurance                 decimal.Decimal
	NonAcupuncturistInsurance decimal.Decimal
}

// Validate rejects values outside [0, 1].
func (p Percentages) Validate() error {
	checks := []struct {
		name  string
		value decimal.Decimal
	}{
		{"acupuncture", p.Acupuncture},
		{"massage", p.Massage},
		{"insurance", p.Insurance},
		{"non_acupuncturist_insurance", p.NonAcupuncturistInsurance},
	}
	for _, c := range checks {
		if !generic.InUnitInterval(c.value) {
			return fmt.Errorf("%w: %s_percentage = %s", generic.ErrInvalidPercentage, c.name, c.value)
		}
	}
	return nil
}

// ClinicalDailyRecord holds one day's billed amounts (money, not sessions).
type ClinicalDailyRecord struct {
	EmployeeID                generic.EmployeeID
	Date                      generic.TimePoint
	Acupuncture               decimal.Decimal
	Massage                   decimal.Decimal
	Insurance                 decimal.Decimal
	NonAcupuncturistInsurance decimal.Decimal
}

// AcupunctureReport is one employee's monthly commission report.
type AcupunctureReport struct {
	ID  string
	Key generic.ReportKey
	Percentages
	Data      []ClinicalDailyRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy.
func (r *AcupunctureReport) Clone() *AcupunctureReport {
	c := *r
	if r.Data != nil {
		c.Data = append([]ClinicalDailyRecord(nil), r.Data...)
	}
	return &c
}

// ValidateData rejects rows of another employee, outside the month, or
// duplicated days.
func ValidateData(key generic.ReportKey, data []ClinicalDailyRecord) error {
	return generic.ValidateDays(key.EmployeeID, key.Window(), len(data), func(i int) (generic.EmployeeID, generic.TimePoint) {
		return data[i].EmployeeID, data[i].Date
	})
}

// =============================================================================
// COMMISSION
// =============================================================================

// CommissionDay is the display row of one day.
type CommissionDay struct {
	ClinicalDailyRecord
	Total decimal.Decimal
}

// CommissionBreakdown carries both independently computed figures.
//
// Cheque applies the percentages once to the month sums and is authoritative.
// DayTotalsSum adds the per-day display totals. They are kept apart on
// purpose: with display rounding they need not reconcile to the cent.
type CommissionBreakdown struct {
	Key  generic.ReportKey
	Days []CommissionDay

	AcupunctureSum               decimal.Decimal
	MassageSum                   decimal.Decimal
	InsuranceSum                 decimal.Decimal
	NonAcupuncturistInsuranceSum decimal.Decimal

	AcupunctureMoney               decimal.Decimal
	MassageMoney                   decimal.Decimal
	InsuranceMoney                 decimal.Decimal
	NonAcupuncturistInsuranceMoney decimal.Decimal

	Cheque       decimal.Decimal
	DayTotalsSum decimal.Decimal
}

// DayTotal applies the percentages to a single day.
func (p Percentages) DayTotal(r ClinicalDailyRecord) decimal.Decimal {
	return r.Acupuncture.Mul(p.Acupuncture).
		Add(r.Massage.Mul(p.Massage)).
		Sub(r.Insurance.Mul(p.Insurance)).
		Sub(r.NonAcupuncturistInsurance.Mul(p.NonAcupuncturistInsurance))
}

// ComputeCommission walks every day of the report's month (zero-filling
// missing days) and computes both the per-day totals and the cheque. Rows
// that do not belong to the report are rejected with ErrInconsistentRecord.
func ComputeCommission(report *AcupunctureReport) (CommissionBreakdown, error) {
	key := report.Key
	if err := ValidateData(key, report.Data); err != nil {
		return CommissionBreakdown{}, err
	}
	byDay := make(map[int]ClinicalDailyRecord, len(report.Data))
	for _, r := range report.Data {
		byDay[r.Date.Day()] = r
	}

	out := CommissionBreakdown{Key: key}
	for day := 1; day <= generic.DaysInMonth(key.Year, key.Month); day++ {
		r, ok := byDay[day]
		if !ok {
			r = ClinicalDailyRecord{EmployeeID: key.EmployeeID, Date: generic.NewTimePoint(key.Year, key.Month, day)}
		}
		d := CommissionDay{ClinicalDailyRecord: r, Total: report.DayTotal(r)}
		out.Days = append(out.Days, d)
		out.DayTotalsSum = out.DayTotalsSum.Add(d.Total)

		out.AcupunctureSum = out.AcupunctureSum.Add(r.Acupuncture)
		out.MassageSum = out.MassageSum.Add(r.Massage)
		out.InsuranceSum = out.InsuranceSum.Add(r.Insurance)
		out.NonAcupuncturistInsuranceSum = out.NonAcupuncturistInsuranceSum.Add(r.NonAcupuncturistInsurance)
	}

	out.AcupunctureMoney = out.AcupunctureSum.Mul(report.Acupuncture)
	out.MassageMoney = out.MassageSum.Mul(report.Massage)
	out.InsuranceMoney = out.InsuranceSum.Mul(report.Insurance)
	out.NonAcupuncturistInsuranceMoney = out.NonAcupuncturistInsuranceSum.Mul(report.NonAcupuncturistInsurance)
	out.Cheque = out.AcupunctureMoney.
		Add(out.MassageMoney).
		Sub(out.InsuranceMoney).
		Sub(out.NonAcupuncturistInsuranceMoney)
	return out, nil
}
