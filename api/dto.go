/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model (payroll, acupuncture) from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  The engine keeps full decimal precision. Computed money is rendered here,
  with two decimals (payroll.Money). Inputs (rates, sessions, amounts) are
  echoed as exact decimal strings.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/acupuncture"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// DIRECTORY
// =============================================================================

// EmployeeDTO represents an employee in requests and responses.
type EmployeeDTO struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Role            string           `json:"role"`
	BodyRate        *decimal.Decimal `json:"body_rate,omitempty"`
	FeetRate        *decimal.Decimal `json:"feet_rate,omitempty"`
	AcupunctureRate *decimal.Decimal `json:"acupuncture_rate,omitempty"`
	PerHour         *decimal.Decimal `json:"per_hour,omitempty"`
}

// HolidayDTO represents a holiday.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

// =============================================================================
// SCHEDULE FEED
// =============================================================================

// DailyRecordDTO is one day of work, used by ingest and period responses.
type DailyRecordDTO struct {
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	Start      *time.Time `json:"start,omitempty"`
	End        *time.Time `json:"end,omitempty"`

	BodySessions        decimal.Decimal `json:"body_sessions"`
	FeetSessions        decimal.Decimal `json:"feet_sessions"`
	AcupunctureSessions decimal.Decimal `json:"acupuncture_sessions"`

	RequestedBodySessions        decimal.Decimal `json:"requested_body_sessions"`
	RequestedFeetSessions        decimal.Decimal `json:"requested_feet_sessions"`
	RequestedAcupunctureSessions decimal.Decimal `json:"requested_acupuncture_sessions"`

	TotalCash      decimal.Decimal `json:"total_cash"`
	TotalMachine   decimal.Decimal `json:"total_machine"`
	TotalVIP       decimal.Decimal `json:"total_vip"`
	TotalGiftCard  decimal.Decimal `json:"total_gift_card"`
	TotalInsurance decimal.Decimal `json:"total_insurance"`
	TotalCashOut   decimal.Decimal `json:"total_cash_out"`
	Tips           decimal.Decimal `json:"tips"`
	VIPAmount      decimal.Decimal `json:"vip_amount"`
	AwardAmount    decimal.Decimal `json:"award_amount"`
}

// ClinicalRecordDTO is one day of clinical billing.
type ClinicalRecordDTO struct {
	EmployeeID                string          `json:"employee_id"`
	Date                      string          `json:"date"`
	Acupuncture               decimal.Decimal `json:"acupuncture"`
	Massage                   decimal.Decimal `json:"massage"`
	Insurance                 decimal.Decimal `json:"insurance"`
	NonAcupuncturistInsurance decimal.Decimal `json:"non_acupuncturist_insurance"`
}

// =============================================================================
// PAYROLL PERIODS
// =============================================================================

// GeneratePeriodRequest creates a period. Option defaults from the role.
type GeneratePeriodRequest struct {
	EmployeeID string  `json:"employee_id"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
	Part       string  `json:"part"` // "first" | "second"
	Option     *string `json:"option,omitempty"`
}

// EditPeriodRequest is a partial settings update.
type EditPeriodRequest struct {
	Option            *string          `json:"option,omitempty"`
	ChequeAmount      *decimal.Decimal `json:"cheque_amount,omitempty"`
	ClearChequeAmount bool             `json:"clear_cheque_amount,omitempty"`
}

// PeriodDTO represents a stored period.
type PeriodDTO struct {
	ID           string           `json:"id"`
	EmployeeID   string           `json:"employee_id"`
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	Part         string           `json:"part"`
	Start        string           `json:"start"`
	End          string           `json:"end"`
	Option       string           `json:"option"`
	ChequeAmount *decimal.Decimal `json:"cheque_amount,omitempty"`
	Records      []DailyRecordDTO `json:"records"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// EditPeriodResponse returns the period and the names of changed settings.
type EditPeriodResponse struct {
	Period  PeriodDTO `json:"period"`
	Changed []string  `json:"changed"`
}

// DayBreakdownDTO is one row of a pay breakdown.
type DayBreakdownDTO struct {
	Date                string `json:"date"`
	Holiday             bool   `json:"holiday"`
	BodySessions        string `json:"body_sessions"`
	FeetSessions        string `json:"feet_sessions"`
	AcupunctureSessions string `json:"acupuncture_sessions"`
	BodyPay             string `json:"body_pay"`
	FeetPay             string `json:"feet_pay"`
	AcupuncturePay      string `json:"acupuncture_pay"`
	Hours               string `json:"hours"`
	SessionHours        string `json:"session_hours"`
	CountedHours        string `json:"counted_hours"`
	TotalHours          string `json:"total_hours"`
	HourlyPay           string `json:"hourly_pay"`
	RequestedTotal      string `json:"requested_total"`
	HolidayPay          string `json:"holiday_pay"`
	VIPAmount           string `json:"vip_amount"`
	Cash                string `json:"cash"`
	Tips                string `json:"tips"`
	Pay                 string `json:"pay"`
}

// TotalsDTO are the period sums.
type TotalsDTO struct {
	BodySessions        string `json:"body_sessions"`
	FeetSessions        string `json:"feet_sessions"`
	AcupunctureSessions string `json:"acupuncture_sessions"`
	BodyMoney           string `json:"body_money"`
	FeetMoney           string `json:"feet_money"`
	AcupunctureMoney    string `json:"acupuncture_money"`
	TotalHours          string `json:"total_hours"`
	HourlyMoney         string `json:"hourly_money"`
	RequestedTotal      string `json:"requested_total"`
	HolidayPay          string `json:"holiday_pay"`
	Cash                string `json:"cash"`
	Tips                string `json:"tips"`
	Total               string `json:"total"`
}

// BreakdownDTO is the computed pay of a period.
type BreakdownDTO struct {
	EmployeeID         string            `json:"employee_id"`
	Year               int               `json:"year"`
	Month              int               `json:"month"`
	Part               string            `json:"part"`
	Option             string            `json:"option"`
	Days               []DayBreakdownDTO `json:"days"`
	Totals             TotalsDTO         `json:"totals"`
	Cheque             string            `json:"cheque"`
	Remainder          string            `json:"remainder"`
	OverrideOutOfRange bool              `json:"override_out_of_range,omitempty"`
}

// CashOutDayDTO is one row of the cash-out view.
type CashOutDayDTO struct {
	Date           string `json:"date"`
	Holiday        bool   `json:"holiday"`
	TotalSessions  string `json:"total_sessions"`
	RequestedTotal string `json:"requested_total"`
	HolidayPay     string `json:"holiday_pay"`
	AwardAmount    string `json:"award_amount"`
	VIPAmount      string `json:"vip_amount"`
	TotalCashOut   string `json:"total_cash_out"`
	Cash           string `json:"cash"`
	Tips           string `json:"tips"`
	TipsPayable    string `json:"tips_payable"`
	Payable        string `json:"payable"`
}

// CashOutDTO is the cash-out view of a store-employee period.
type CashOutDTO struct {
	EmployeeID       string          `json:"employee_id"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Part             string          `json:"part"`
	Days             []CashOutDayDTO `json:"days"`
	CashTotal        string          `json:"cash_total"`
	TipsTotal        string          `json:"tips_total"`
	TipsPayableTotal string          `json:"tips_payable_total"`
	Total            string          `json:"total"`
}

// BatchItemDTO is one period of a month batch.
type BatchItemDTO struct {
	EmployeeID string        `json:"employee_id"`
	Part       string        `json:"part"`
	Breakdown  *BreakdownDTO `json:"breakdown,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// =============================================================================
// ACUPUNCTURE REPORTS
// =============================================================================

// PercentagesDTO carries the four percentages, each in [0, 1].
type PercentagesDTO struct {
	Acupuncture               decimal.Decimal `json:"acupuncture_percentage"`
	Massage                   decimal.Decimal `json:"massage_percentage"`
	Insurance                 decimal.Decimal `json:"insurance_percentage"`
	NonAcupuncturistInsurance decimal.Decimal `json:"non_acupuncturist_insurance_percentage"`
}

// GenerateReportRequest creates a monthly report.
type GenerateReportRequest struct {
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	PercentagesDTO
}

// EditReportRequest is a partial percentages update.
type EditReportRequest struct {
	Acupuncture               *decimal.Decimal `json:"acupuncture_percentage,omitempty"`
	Massage                   *decimal.Decimal `json:"massage_percentage,omitempty"`
	Insurance                 *decimal.Decimal `json:"insurance_percentage,omitempty"`
	NonAcupuncturistInsurance *decimal.Decimal `json:"non_acupuncturist_insurance_percentage,omitempty"`
}

// ReportDTO represents a stored report.
type ReportDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	PercentagesDTO
	Data      []ClinicalRecordDTO `json:"data"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

// EditReportResponse returns the report and the names of changed percentages.
type EditReportResponse struct {
	Report  ReportDTO `json:"report"`
	Changed []string  `json:"changed"`
}

// CommissionDayDTO is one row of the commission table.
type CommissionDayDTO struct {
	Date                      string `json:"date"`
	Acupuncture               string `json:"acupuncture"`
	Massage                   string `json:"massage"`
	Insurance                 string `json:"insurance"`
	NonAcupuncturistInsurance string `json:"non_acupuncturist_insurance"`
	Total                     string `json:"total"`
}

// CommissionDTO is the computed commission of a report.
type CommissionDTO struct {
	EmployeeID                     string             `json:"employee_id"`
	Year                           int                `json:"year"`
	Month                          int                `json:"month"`
	Days                           []CommissionDayDTO `json:"days"`
	AcupunctureSum                 string             `json:"acupuncture_sum"`
	MassageSum                     string             `json:"massage_sum"`
	InsuranceSum                   string             `json:"insurance_sum"`
	NonAcupuncturistInsuranceSum   string             `json:"non_acupuncturist_insurance_sum"`
	AcupunctureMoney               string             `json:"acupuncture_money"`
	MassageMoney                   string             `json:"massage_money"`
	InsuranceMoney                 string             `json:"insurance_money"`
	NonAcupuncturistInsuranceMoney string             `json:"non_acupuncturist_insurance_money"`
	Cheque                         string             `json:"cheque"`
	DayTotalsSum                   string             `json:"day_totals_sum"`
}

// =============================================================================
// MISC
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

var money = payroll.Money

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:              string(e.ID),
		Name:            e.Name,
		Role:            string(e.Role),
		BodyRate:        e.RateCard.BodyRate,
		FeetRate:        e.RateCard.FeetRate,
		AcupunctureRate: e.RateCard.AcupunctureRate,
		PerHour:         e.RateCard.PerHour,
	}
}

func (d EmployeeDTO) toEmployee() payroll.Employee {
	return payroll.Employee{
		ID:   generic.EmployeeID(d.ID),
		Name: d.Name,
		Role: payroll.Role(d.Role),
		RateCard: payroll.RateCard{
			BodyRate:        d.BodyRate,
			FeetRate:        d.FeetRate,
			AcupunctureRate: d.AcupunctureRate,
			PerHour:         d.PerHour,
		},
	}
}

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name}
}

func toDailyRecordDTO(r payroll.DailyRecord) DailyRecordDTO {
	return DailyRecordDTO{
		EmployeeID:                   string(r.EmployeeID),
		Date:                         r.Date.String(),
		Start:                        r.Start,
		End:                          r.End,
		BodySessions:                 r.BodySessions,
		FeetSessions:                 r.FeetSessions,
		AcupunctureSessions:          r.AcupunctureSessions,
		RequestedBodySessions:        r.RequestedBodySessions,
		RequestedFeetSessions:        r.RequestedFeetSessions,
		RequestedAcupunctureSessions: r.RequestedAcupunctureSessions,
		TotalCash:                    r.TotalCash,
		TotalMachine:                 r.TotalMachine,
		TotalVIP:                     r.TotalVIP,
		TotalGiftCard:                r.TotalGiftCard,
		TotalInsurance:               r.TotalInsurance,
		TotalCashOut:                 r.TotalCashOut,
		Tips:                         r.Tips,
		VIPAmount:                    r.VIPAmount,
		AwardAmount:                  r.AwardAmount,
	}
}

func (d DailyRecordDTO) toRecord() (payroll.DailyRecord, error) {
	date, err := generic.ParseDay(d.Date)
	if err != nil {
		return payroll.DailyRecord{}, err
	}
	return payroll.DailyRecord{
		EmployeeID:                   generic.EmployeeID(d.EmployeeID),
		Date:                         date,
		Start:                        d.Start,
		End:                          d.End,
		BodySessions:                 d.BodySessions,
		FeetSessions:                 d.FeetSessions,
		AcupunctureSessions:          d.AcupunctureSessions,
		RequestedBodySessions:        d.RequestedBodySessions,
		RequestedFeetSessions:        d.RequestedFeetSessions,
		RequestedAcupunctureSessions: d.RequestedAcupunctureSessions,
		TotalCash:                    d.TotalCash,
		TotalMachine:                 d.TotalMachine,
		TotalVIP:                     d.TotalVIP,
		TotalGiftCard:                d.TotalGiftCard,
		TotalInsurance:               d.TotalInsurance,
		TotalCashOut:                 d.TotalCashOut,
		Tips:                         d.Tips,
		VIPAmount:                    d.VIPAmount,
		AwardAmount:                  d.AwardAmount,
	}, nil
}

func toClinicalDTO(c acupuncture.ClinicalDailyRecord) ClinicalRecordDTO {
	return ClinicalRecordDTO{
		EmployeeID:                string(c.EmployeeID),
		Date:                      c.Date.String(),
		Acupuncture:               c.Acupuncture,
		Massage:                   c.Massage,
		Insurance:                 c.Insurance,
		NonAcupuncturistInsurance: c.NonAcupuncturistInsurance,
	}
}

func (d ClinicalRecordDTO) toRecord() (acupuncture.ClinicalDailyRecord, error) {
	date, err := generic.ParseDay(d.Date)
	if err != nil {
		return acupuncture.ClinicalDailyRecord{}, err
	}
	return acupuncture.ClinicalDailyRecord{
		EmployeeID:                generic.EmployeeID(d.EmployeeID),
		Date:                      date,
		Acupuncture:               d.Acupuncture,
		Massage:                   d.Massage,
		Insurance:                 d.Insurance,
		NonAcupuncturistInsurance: d.NonAcupuncturistInsurance,
	}, nil
}

func toPeriodDTO(p *payroll.PayrollPeriod) PeriodDTO {
	window := p.Window()
	records := make([]DailyRecordDTO, len(p.Records))
	for i, r := range p.Records {
		records[i] = toDailyRecordDTO(r)
	}
	return PeriodDTO{
		ID:           p.ID,
		EmployeeID:   string(p.Key.EmployeeID),
		Year:         p.Key.Year,
		Month:        int(p.Key.Month),
		Part:         p.Key.Part.String(),
		Start:        window.Start.String(),
		End:          window.End.String(),
		Option:       string(p.Option),
		ChequeAmount: p.ChequeAmount,
		Records:      records,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func changedSettings(c payroll.ChangeSet) []string {
	changed := []string{}
	if c.OptionChanged {
		changed = append(changed, "option")
	}
	if c.ChequeAmountChanged {
		changed = append(changed, "cheque_amount")
	}
	return changed
}

func toBreakdownDTO(b payroll.PayBreakdown) BreakdownDTO {
	days := make([]DayBreakdownDTO, len(b.Days))
	for i, d := range b.Days {
		days[i] = DayBreakdownDTO{
			Date:                d.Date.String(),
			Holiday:             d.Holiday,
			BodySessions:        d.BodySessions.String(),
			FeetSessions:        d.FeetSessions.String(),
			AcupunctureSessions: d.AcupunctureSessions.String(),
			BodyPay:             money(d.BodyPay),
			FeetPay:             money(d.FeetPay),
			AcupuncturePay:      money(d.AcupuncturePay),
			Hours:               d.Hours.String(),
			SessionHours:        d.SessionHours.String(),
			CountedHours:        d.CountedHours.String(),
			TotalHours:          d.TotalHours.String(),
			HourlyPay:           money(d.HourlyPay),
			RequestedTotal:      d.RequestedTotal.String(),
			HolidayPay:          money(d.HolidayPay),
			VIPAmount:           money(d.VIPAmount),
			Cash:                money(d.Cash),
			Tips:                money(d.Tips),
			Pay:                 money(d.Pay),
		}
	}
	t := b.Totals
	return BreakdownDTO{
		EmployeeID: string(b.Key.EmployeeID),
		Year:       b.Key.Year,
		Month:      int(b.Key.Month),
		Part:       b.Key.Part.String(),
		Option:     string(b.Variant),
		Days:       days,
		Totals: TotalsDTO{
			BodySessions:        t.BodySessions.String(),
			FeetSessions:        t.FeetSessions.String(),
			AcupunctureSessions: t.AcupunctureSessions.String(),
			BodyMoney:           money(t.BodyMoney),
			FeetMoney:           money(t.FeetMoney),
			AcupunctureMoney:    money(t.AcupunctureMoney),
			TotalHours:          t.TotalHours.String(),
			HourlyMoney:         money(t.HourlyMoney),
			RequestedTotal:      t.RequestedTotal.String(),
			HolidayPay:          money(t.HolidayPay),
			Cash:                money(t.Cash),
			Tips:                money(t.Tips),
			Total:               money(t.Total),
		},
		Cheque:             money(b.Cheque),
		Remainder:          money(b.Remainder),
		OverrideOutOfRange: b.OverrideOutOfRange,
	}
}

func toCashOutDTO(c payroll.CashOutBreakdown) CashOutDTO {
	days := make([]CashOutDayDTO, len(c.Days))
	for i, d := range c.Days {
		days[i] = CashOutDayDTO{
			Date:           d.Date.String(),
			Holiday:        d.Holiday,
			TotalSessions:  d.TotalSessions.String(),
			RequestedTotal: d.RequestedTotal.String(),
			HolidayPay:     money(d.HolidayPay),
			AwardAmount:    money(d.AwardAmount),
			VIPAmount:      money(d.VIPAmount),
			TotalCashOut:   money(d.TotalCashOut),
			Cash:           money(d.Cash),
			Tips:           money(d.Tips),
			TipsPayable:    money(d.TipsPayable),
			Payable:        money(d.Payable),
		}
	}
	return CashOutDTO{
		EmployeeID:       string(c.Key.EmployeeID),
		Year:             c.Key.Year,
		Month:            int(c.Key.Month),
		Part:             c.Key.Part.String(),
		Days:             days,
		CashTotal:        money(c.CashTotal),
		TipsTotal:        money(c.TipsTotal),
		TipsPayableTotal: money(c.TipsPayableTotal),
		Total:            money(c.Total),
	}
}

func toPercentagesDTO(p acupuncture.Percentages) PercentagesDTO {
	return PercentagesDTO{
		Acupuncture:               p.Acupuncture,
		Massage:                   p.Massage,
		Insurance:                 p.Insurance,
		NonAcupuncturistInsurance: p.NonAcupuncturistInsurance,
	}
}

func (d PercentagesDTO) toPercentages() acupuncture.Percentages {
	return acupuncture.Percentages{
		Acupuncture:               d.Acupuncture,
		Massage:                   d.Massage,
		Insurance:                 d.Insurance,
		NonAcupuncturistInsurance: d.NonAcupuncturistInsurance,
	}
}

func toReportDTO(r *acupuncture.AcupunctureReport) ReportDTO {
	data := make([]ClinicalRecordDTO, len(r.Data))
	for i, c := range r.Data {
		data[i] = toClinicalDTO(c)
	}
	return ReportDTO{
		ID:             r.ID,
		EmployeeID:     string(r.Key.EmployeeID),
		Year:           r.Key.Year,
		Month:          int(r.Key.Month),
		PercentagesDTO: toPercentagesDTO(r.Percentages),
		Data:           data,
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      r.UpdatedAt.Format(time.RFC3339),
	}
}

func toCommissionDTO(c acupuncture.CommissionBreakdown) CommissionDTO {
	days := make([]CommissionDayDTO, len(c.Days))
	for i, d := range c.Days {
		days[i] = CommissionDayDTO{
			Date:                      d.Date.String(),
			Acupuncture:               money(d.Acupuncture),
			Massage:                   money(d.Massage),
			Insurance:                 money(d.Insurance),
			NonAcupuncturistInsurance: money(d.NonAcupuncturistInsurance),
			Total:                     money(d.Total),
		}
	}
	return CommissionDTO{
		EmployeeID:                     string(c.Key.EmployeeID),
		Year:                           c.Key.Year,
		Month:                          int(c.Key.Month),
		Days:                           days,
		AcupunctureSum:                 money(c.AcupunctureSum),
		MassageSum:                     money(c.MassageSum),
		InsuranceSum:                   money(c.InsuranceSum),
		NonAcupuncturistInsuranceSum:   money(c.NonAcupuncturistInsuranceSum),
		AcupunctureMoney:               money(c.AcupunctureMoney),
		MassageMoney:                   money(c.MassageMoney),
		InsuranceMoney:                 money(c.InsuranceMoney),
		NonAcupuncturistInsuranceMoney: money(c.NonAcupuncturistInsuranceMoney),
		Cheque:                         money(c.Cheque),
		DayTotalsSum:                   money(c.DayTotalsSum),
	}
}
