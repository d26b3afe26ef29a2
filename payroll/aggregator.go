package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// PERIOD AGGREGATOR - Zero-filled day iteration over one half-month
// =============================================================================

// PeriodAggregator indexes a period's records by day of month.
//
// INVARIANT: iteration always covers every day of the part. Days without a
// record yield a zero-filled record, so sums are total over the half-month.
type PeriodAggregator struct {
	key   generic.PeriodKey
	byDay map[int]DailyRecord
}

// NewPeriodAggregator indexes records for key. Callers validate the records
// with ValidateRecords first.
func NewPeriodAggregator(key generic.PeriodKey, records []DailyRecord) *PeriodAggregator {
	a := &PeriodAggregator{key: key, byDay: make(map[int]DailyRecord, len(records))}
	for _, r := range records {
		a.byDay[r.Date.Day()] = r
	}
	return a
}

// Days returns the day numbers of the part.
func (a *PeriodAggregator) Days() []int {
	return generic.DaysInPart(a.key.Year, a.key.Month, a.key.Part)
}

// RecordFor returns the day's record or a zero-filled one.
func (a *PeriodAggregator) RecordFor(day int) DailyRecord {
	if r, ok := a.byDay[day]; ok {
		return r
	}
	return ZeroRecord(a.key.EmployeeID, generic.NewTimePoint(a.key.Year, a.key.Month, day))
}

// Records returns one record per day of the part, in day order.
func (a *PeriodAggregator) Records() []DailyRecord {
	days := a.Days()
	out := make([]DailyRecord, 0, len(days))
	for _, d := range days {
		out = append(out, a.RecordFor(d))
	}
	return out
}

// Sums are period-level totals of the raw daily quantities.
type Sums struct {
	BodySessions                 decimal.Decimal
	FeetSessions                 decimal.Decimal
	AcupunctureSessions          decimal.Decimal
	RequestedBodySessions        decimal.Decimal
	RequestedFeetSessions        decimal.Decimal
	RequestedAcupunctureSessions decimal.Decimal
	WorkedHours                  decimal.Decimal
	TotalCash                    decimal.Decimal
	TotalMachine                 decimal.Decimal
	TotalVIP                     decimal.Decimal
	TotalGiftCard                decimal.Decimal
	TotalInsurance               decimal.Decimal
	TotalCashOut                 decimal.Decimal
	Tips                         decimal.Decimal
	VIPAmount                    decimal.Decimal
	AwardAmount                  decimal.Decimal
}

// Sums adds up every day of the part.
func (a *PeriodAggregator) Sums() Sums {
	var s Sums
	for _, r := range a.Records() {
		s.BodySessions = s.BodySessions.Add(r.BodySessions)
		s.FeetSessions = s.FeetSessions.Add(r.FeetSessions)
		s.AcupunctureSessions = s.AcupunctureSessions.Add(r.AcupunctureSessions)
		s.RequestedBodySessions = s.RequestedBodySessions.Add(r.RequestedBodySessions)
		s.RequestedFeetSessions = s.RequestedFeetSessions.Add(r.RequestedFeetSessions)
		s.RequestedAcupunctureSessions = s.RequestedAcupunctureSessions.Add(r.RequestedAcupunctureSessions)
		s.WorkedHours = s.WorkedHours.Add(r.WorkedHours())
		s.TotalCash = s.TotalCash.Add(r.TotalCash)
		s.TotalMachine = s.TotalMachine.Add(r.TotalMachine)
		s.TotalVIP = s.TotalVIP.Add(r.TotalVIP)
		s.TotalGiftCard = s.TotalGiftCard.Add(r.TotalGiftCard)
		s.TotalInsurance = s.TotalInsurance.Add(r.TotalInsurance)
		s.TotalCashOut = s.TotalCashOut.Add(r.TotalCashOut)
		s.Tips = s.Tips.Add(r.Tips)
		s.VIPAmount = s.VIPAmount.Add(r.VIPAmount)
		s.AwardAmount = s.AwardAmount.Add(r.AwardAmount)
	}
	return s
}

// =============================================================================
// RECORD VALIDATION
// =============================================================================

// ValidateRecords rejects records that do not belong to the period: another
// employee, a date outside the half-month window, or a second record for a day.
func ValidateRecords(key generic.PeriodKey, records []DailyRecord) error {
	return generic.ValidateDays(key.EmployeeID, key.Window(), len(records), func(i int) (generic.EmployeeID, generic.TimePoint) {
		return records[i].EmployeeID, records[i].Date
	})
}
