package acupuncture

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type commissionRow struct {
	Date                      string `csv:"date"`
	Acupuncture               string `csv:"acupuncture"`
	Massage                   string `csv:"massage"`
	Insurance                 string `csv:"insurance"`
	NonAcupuncturistInsurance string `csv:"non_acupuncturist_insurance"`
	Total                     string `csv:"total"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// WriteCommissionCSV writes one row per day, a "sum" row with the raw month
// sums and the sum of day totals, and a "cheque" row with the percentage
// amounts and the authoritative cheque.
func WriteCommissionCSV(w io.Writer, c CommissionBreakdown) error {
	rows := make([]commissionRow, 0, len(c.Days)+2)
	for _, d := range c.Days {
		rows = append(rows, commissionRow{
			Date:                      d.Date.String(),
			Acupuncture:               money(d.Acupuncture),
			Massage:                   money(d.Massage),
			Insurance:                 money(d.Insurance),
			NonAcupuncturistInsurance: money(d.NonAcupuncturistInsurance),
			Total:                     money(d.Total),
		})
	}
	rows = append(rows,
		commissionRow{
			Date:                      "sum",
			Acupuncture:               money(c.AcupunctureSum),
			Massage:                   money(c.MassageSum),
			Insurance:                 money(c.InsuranceSum),
			NonAcupuncturistInsurance: money(c.NonAcupuncturistInsuranceSum),
			Total:                     money(c.DayTotalsSum),
		},
		commissionRow{
			Date:                      "cheque",
			Acupuncture:               money(c.AcupunctureMoney),
			Massage:                   money(c.MassageMoney),
			Insurance:                 money(c.InsuranceMoney),
			NonAcupuncturistInsurance: money(c.NonAcupuncturistInsuranceMoney),
			Total:                     money(c.Cheque),
		},
	)
	return gocsv.Marshal(rows, w)
}
