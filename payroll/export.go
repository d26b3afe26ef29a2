package payroll

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimals money is rendered with.
const MoneyPlaces = 2

// Money renders an amount for display and export.
func Money(d decimal.Decimal) string { return d.StringFixed(MoneyPlaces) }

// breakdownRow is one CSV line of a PayBreakdown export.
type breakdownRow struct {
	Date                string `csv:"date"`
	Holiday             bool   `csv:"holiday"`
	BodySessions        string `csv:"body_sessions"`
	FeetSessions        string `csv:"feet_sessions"`
	AcupunctureSessions string `csv:"acupuncture_sessions"`
	BodyPay             string `csv:"body_pay"`
	FeetPay             string `csv:"feet_pay"`
	AcupuncturePay      string `csv:"acupuncture_pay"`
	Hours               string `csv:"hours"`
	CountedHours        string `csv:"counted_hours"`
	TotalHours          string `csv:"total_hours"`
	HourlyPay           string `csv:"hourly_pay"`
	RequestedTotal      string `csv:"requested_total"`
	HolidayPay          string `csv:"holiday_pay"`
	Cash                string `csv:"cash"`
	Tips                string `csv:"tips"`
	Pay                 string `csv:"pay"`
}

// WriteBreakdownCSV writes the per-day audit rows of b followed by a
// "total" row. Session and hour columns keep full precision.
func WriteBreakdownCSV(w io.Writer, b PayBreakdown) error {
	rows := make([]breakdownRow, 0, len(b.Days)+1)
	for _, d := range b.Days {
		rows = append(rows, breakdownRow{
			Date:                d.Date.String(),
			Holiday:             d.Holiday,
			BodySessions:        d.BodySessions.String(),
			FeetSessions:        d.FeetSessions.String(),
			AcupunctureSessions: d.AcupunctureSessions.String(),
			BodyPay:             Money(d.BodyPay),
			FeetPay:             Money(d.FeetPay),
			AcupuncturePay:      Money(d.AcupuncturePay),
			Hours:               d.Hours.String(),
			CountedHours:        d.CountedHours.String(),
			TotalHours:          d.TotalHours.String(),
			HourlyPay:           Money(d.HourlyPay),
			RequestedTotal:      Money(d.RequestedTotal),
			HolidayPay:          Money(d.HolidayPay),
			Cash:                Money(d.Cash),
			Tips:                Money(d.Tips),
			Pay:                 Money(d.Pay),
		})
	}
	t := b.Totals
	rows = append(rows, breakdownRow{
		Date:                "total",
		BodySessions:        t.BodySessions.String(),
		FeetSessions:        t.FeetSessions.String(),
		AcupunctureSessions: t.AcupunctureSessions.String(),
		BodyPay:             Money(t.BodyMoney),
		FeetPay:             Money(t.FeetMoney),
		AcupuncturePay:      Money(t.AcupunctureMoney),
		TotalHours:          t.TotalHours.String(),
		HourlyPay:           Money(t.HourlyMoney),
		RequestedTotal:      Money(t.RequestedTotal),
		HolidayPay:          Money(t.HolidayPay),
		Cash:                Money(t.Cash),
		Tips:                Money(t.Tips),
		Pay:                 Money(t.Total),
	})
	return gocsv.Marshal(rows, w)
}

type cashOutRow struct {
	Date           string `csv:"date"`
	Holiday        bool   `csv:"holiday"`
	TotalSessions  string `csv:"total_sessions"`
	RequestedTotal string `csv:"requested_total"`
	HolidayPay     string `csv:"holiday_pay"`
	AwardAmount    string `csv:"award_amount"`
	VIPAmount      string `csv:"vip_amount"`
	TotalCashOut   string `csv:"total_cash_out"`
	Cash           string `csv:"cash"`
	Tips           string `csv:"tips"`
	TipsPayable    string `csv:"tips_payable"`
	Payable        string `csv:"payable"`
}

// WriteCashOutCSV writes the cash-out view followed by a "total" row.
func WriteCashOutCSV(w io.Writer, c CashOutBreakdown) error {
	rows := make([]cashOutRow, 0, len(c.Days)+1)
	for _, d := range c.Days {
		rows = append(rows, cashOutRow{
			Date:           d.Date.String(),
			Holiday:        d.Holiday,
			TotalSessions:  d.TotalSessions.String(),
			RequestedTotal: Money(d.RequestedTotal),
			HolidayPay:     Money(d.HolidayPay),
			AwardAmount:    Money(d.AwardAmount),
			VIPAmount:      Money(d.VIPAmount),
			TotalCashOut:   Money(d.TotalCashOut),
			Cash:           Money(d.Cash),
			Tips:           Money(d.Tips),
			TipsPayable:    Money(d.TipsPayable),
			Payable:        Money(d.Payable),
		})
	}
	rows = append(rows, cashOutRow{
		Date:        "total",
		Cash:        Money(c.CashTotal),
		Tips:        Money(c.TipsTotal),
		TipsPayable: Money(c.TipsPayableTotal),
		Payable:     Money(c.Total),
	})
	return gocsv.Marshal(rows, w)
}
