// Package payroll turns daily work records into half-month pay breakdowns.
// It builds on the generic primitives with the four compensation variants,
// the store-employee cash-out view and the period lifecycle.
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// ROLES AND VARIANTS
// =============================================================================

// Role is the employee's job role from the employee directory.
type Role string

const (
	RoleReceptionist  Role = "receptionist"
	RoleAcupuncturist Role = "acupuncturist"
	RoleStoreEmployee Role = "store_employee"
	RoleManager       Role = "manager"
)

// CompensationVariant selects the pay formula of a period.
type CompensationVariant string

const (
	VariantAcupuncturist            CompensationVariant = "acupuncturist"
	VariantReceptionist             CompensationVariant = "receptionist"
	VariantStoreEmployee            CompensationVariant = "store_employee"
	VariantStoreEmployeeTipsAndCash CompensationVariant = "store_employee_with_tips_and_cash"
)

// Valid reports whether v is one of the four known variants.
func (v CompensationVariant) Valid() bool {
	switch v {
	case VariantAcupuncturist, VariantReceptionist, VariantStoreEmployee, VariantStoreEmployeeTipsAndCash:
		return true
	}
	return false
}

// DefaultVariant picks the variant a new period starts with.
func DefaultVariant(role Role) CompensationVariant {
	switch role {
	case RoleReceptionist:
		return VariantReceptionist
	case RoleAcupuncturist:
		return VariantAcupuncturist
	default:
		return VariantStoreEmployee
	}
}

// VariantAllowed reports whether a variant may be set for a role.
// Tips-and-cash is a manual override reserved for store roles.
func VariantAllowed(role Role, v CompensationVariant) bool {
	if !v.Valid() {
		return false
	}
	if v == VariantStoreEmployeeTipsAndCash {
		return role != RoleReceptionist && role != RoleAcupuncturist
	}
	return true
}

// =============================================================================
// EMPLOYEE DIRECTORY DATA
// =============================================================================

// RateCard holds per-unit rates. A nil rate counts as zero.
type RateCard struct {
	BodyRate        *decimal.Decimal
	FeetRate        *decimal.Decimal
	AcupunctureRate *decimal.Decimal
	PerHour         *decimal.Decimal
}

type Employee struct {
	ID       generic.EmployeeID
	Name     string
	Role     Role
	RateCard RateCard
}

// =============================================================================
// DAILY RECORD - Atomic input, produced by the schedule source
// =============================================================================

// DailyRecord is one employee's activity on one calendar day.
// Session counts use 0.5 granularity; amounts are money.
type DailyRecord struct {
	EmployeeID generic.EmployeeID
	Date       generic.TimePoint

	// Shift bounds, receptionists only.
	Start *time.Time
	End   *time.Time

	BodySessions        decimal.Decimal
	FeetSessions        decimal.Decimal
	AcupunctureSessions decimal.Decimal

	RequestedBodySessions        decimal.Decimal
	RequestedFeetSessions        decimal.Decimal
	RequestedAcupunctureSessions decimal.Decimal

	TotalCash      decimal.Decimal
	TotalMachine   decimal.Decimal
	TotalVIP       decimal.Decimal
	TotalGiftCard  decimal.Decimal
	TotalInsurance decimal.Decimal
	TotalCashOut   decimal.Decimal
	Tips           decimal.Decimal
	VIPAmount      decimal.Decimal
	AwardAmount    decimal.Decimal
}

// ZeroRecord is the record used for a day without activity.
func ZeroRecord(employeeID generic.EmployeeID, date generic.TimePoint) DailyRecord {
	return DailyRecord{EmployeeID: employeeID, Date: date}
}

// Sessions is the sum of performed body, feet and acupuncture sessions.
func (r DailyRecord) Sessions() decimal.Decimal {
	return generic.Sum(r.BodySessions, r.AcupunctureSessions, r.FeetSessions)
}

// RequestedSessions is the sum of customer-requested sessions.
func (r DailyRecord) RequestedSessions() decimal.Decimal {
	return generic.Sum(r.RequestedBodySessions, r.RequestedFeetSessions, r.RequestedAcupunctureSessions)
}

// WorkedHours is the shift length in decimal hours, zero without both bounds.
func (r DailyRecord) WorkedHours() decimal.Decimal {
	if r.Start == nil || r.End == nil {
		return decimal.Zero
	}
	return generic.Hours(r.End.Sub(*r.Start))
}

// =============================================================================
// PAYROLL PERIOD
// =============================================================================

// Settings are the editable parts of a period.
type Settings struct {
	Option       CompensationVariant
	ChequeAmount *decimal.Decimal
}

// PayrollPeriod is one employee's half-month payroll.
type PayrollPeriod struct {
	ID  string
	Key generic.PeriodKey
	Settings
	Records   []DailyRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window returns the half-month the period covers.
func (p *PayrollPeriod) Window() generic.Period { return p.Key.Window() }

// Clone returns a deep copy safe to hand out of a store.
func (p *PayrollPeriod) Clone() *PayrollPeriod {
	c := *p
	c.ChequeAmount = cloneDecimal(p.ChequeAmount)
	c.Records = CloneRecords(p.Records)
	return &c
}

// CloneRecords copies records including their shift bounds.
func CloneRecords(records []DailyRecord) []DailyRecord {
	if records == nil {
		return nil
	}
	out := make([]DailyRecord, len(records))
	for i, r := range records {
		out[i] = r
		out[i].Start = cloneTime(r.Start)
		out[i].End = cloneTime(r.End)
	}
	return out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
