// Package memory provides in-memory implementations of the payroll and
// acupuncture stores, the employee directory, the holiday calendar and the
// schedule feed. Used by tests and the in-process demo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-engine/acupuncture"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	periods   map[generic.PeriodKey]*payroll.PayrollPeriod
	reports   map[generic.ReportKey]*acupuncture.AcupunctureReport
	employees map[generic.EmployeeID]payroll.Employee
	holidays  []generic.Holiday

	// schedule feed, keyed by employee then day
	daily    map[generic.EmployeeID]map[generic.TimePoint]payroll.DailyRecord
	clinical map[generic.EmployeeID]map[generic.TimePoint]acupuncture.ClinicalDailyRecord

	failN   int
	failErr error
	fetches int
}

func New() *Memory {
	return &Memory{
		periods:   make(map[generic.PeriodKey]*payroll.PayrollPeriod),
		reports:   make(map[generic.ReportKey]*acupuncture.AcupunctureReport),
		employees: make(map[generic.EmployeeID]payroll.Employee),
		daily:     make(map[generic.EmployeeID]map[generic.TimePoint]payroll.DailyRecord),
		clinical:  make(map[generic.EmployeeID]map[generic.TimePoint]acupuncture.ClinicalDailyRecord),
	}
}

var (
	_ payroll.PeriodStore        = (*Memory)(nil)
	_ payroll.Directory          = (*Memory)(nil)
	_ payroll.CalendarSource     = (*Memory)(nil)
	_ payroll.RefreshPort        = (*Memory)(nil)
	_ acupuncture.ReportStore    = (*Memory)(nil)
	_ acupuncture.ClinicalSource = (*Memory)(nil)
)

// =============================================================================
// PERIODS
// =============================================================================

func (m *Memory) CreatePeriod(_ context.Context, p *payroll.PayrollPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[p.Key]; ok {
		return fmt.Errorf("%w: %s", generic.ErrDuplicatePeriod, p.Key)
	}
	m.periods[p.Key] = p.Clone()
	return nil
}

func (m *Memory) GetPeriod(_ context.Context, key generic.PeriodKey) (*payroll.PayrollPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.periods[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key)
	}
	return p.Clone(), nil
}

func (m *Memory) ListPeriods(_ context.Context, year int, month time.Month) ([]*payroll.PayrollPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*payroll.PayrollPeriod
	for k, p := range m.periods {
		if k.Year == year && k.Month == month {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.EmployeeID != out[j].Key.EmployeeID {
			return out[i].Key.EmployeeID < out[j].Key.EmployeeID
		}
		return out[i].Key.Part < out[j].Key.Part
	})
	return out, nil
}

func (m *Memory) UpdateSettings(_ context.Context, key generic.PeriodKey, s payroll.Settings, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[key]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key)
	}
	p.Option = s.Option
	p.ChequeAmount = nil
	if s.ChequeAmount != nil {
		v := *s.ChequeAmount
		p.ChequeAmount = &v
	}
	p.UpdatedAt = at
	return nil
}

func (m *Memory) ReplaceRecords(_ context.Context, key generic.PeriodKey, records []payroll.DailyRecord, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[key]
	if !ok {
		return fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key)
	}
	p.Records = payroll.CloneRecords(records)
	p.UpdatedAt = at
	return nil
}

func (m *Memory) DeletePeriod(_ context.Context, key generic.PeriodKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.periods[key]; !ok {
		return fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key)
	}
	delete(m.periods, key)
	return nil
}

// =============================================================================
// REPORTS
// =============================================================================

func (m *Memory) CreateReport(_ context.Context, r *acupuncture.AcupunctureReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.Key]; ok {
		return fmt.Errorf("%w: report %s", generic.ErrDuplicatePeriod, r.Key)
	}
	m.reports[r.Key] = r.Clone()
	return nil
}

func (m *Memory) GetReport(_ context.Context, key generic.ReportKey) (*acupuncture.AcupunctureReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[key]
	if !ok {
		return nil, fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key)
	}
	return r.Clone(), nil
}

func (m *Memory) UpdatePercentages(_ context.Context, key generic.ReportKey, p acupuncture.Percentages, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[key]
	if !ok {
		return fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key)
	}
	r.Percentages = p
	r.UpdatedAt = at
	return nil
}

func (m *Memory) ReplaceData(_ context.Context, key generic.ReportKey, data []acupuncture.ClinicalDailyRecord, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[key]
	if !ok {
		return fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key)
	}
	r.Data = append([]acupuncture.ClinicalDailyRecord(nil), data...)
	r.UpdatedAt = at
	return nil
}

func (m *Memory) DeleteReport(_ context.Context, key generic.ReportKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[key]; !ok {
		return fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key)
	}
	delete(m.reports, key)
	return nil
}

// =============================================================================
// DIRECTORY AND CALENDAR
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	return &e, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays = append(m.holidays, h)
	return nil
}

func (m *Memory) HolidayCalendar(context.Context) (generic.HolidayCalendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return generic.NewStaticHolidayCalendar(m.holidays), nil
}

// =============================================================================
// SCHEDULE FEED
// =============================================================================

// PutDailyRecord upserts a record into the schedule feed.
func (m *Memory) PutDailyRecord(r payroll.DailyRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.daily[r.EmployeeID]
	if !ok {
		days = make(map[generic.TimePoint]payroll.DailyRecord)
		m.daily[r.EmployeeID] = days
	}
	days[r.Date] = payroll.CloneRecords([]payroll.DailyRecord{r})[0]
}

// PutClinicalRecord upserts a clinical row into the schedule feed.
func (m *Memory) PutClinicalRecord(r acupuncture.ClinicalDailyRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.clinical[r.EmployeeID]
	if !ok {
		days = make(map[generic.TimePoint]acupuncture.ClinicalDailyRecord)
		m.clinical[r.EmployeeID] = days
	}
	days[r.Date] = r
}

// FailFetches makes the next n feed fetches return err.
func (m *Memory) FailFetches(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failN, m.failErr = n, err
}

// Fetches counts feed fetches, failed ones included.
func (m *Memory) Fetches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fetches
}

func (m *Memory) injectedFailure() error {
	m.fetches++
	if m.failN == 0 {
		return nil
	}
	m.failN--
	return m.failErr
}

// FetchDailyRecords implements payroll.RefreshPort, ordered by date.
func (m *Memory) FetchDailyRecords(_ context.Context, employeeID generic.EmployeeID, window generic.Period) ([]payroll.DailyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injectedFailure(); err != nil {
		return nil, err
	}
	var out []payroll.DailyRecord
	for _, day := range window.Days() {
		if r, ok := m.daily[employeeID][day]; ok {
			out = append(out, r)
		}
	}
	return payroll.CloneRecords(out), nil
}

// FetchClinicalRecords implements acupuncture.ClinicalSource, ordered by date.
func (m *Memory) FetchClinicalRecords(_ context.Context, employeeID generic.EmployeeID, window generic.Period) ([]acupuncture.ClinicalDailyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injectedFailure(); err != nil {
		return nil, err
	}
	var out []acupuncture.ClinicalDailyRecord
	for _, day := range window.Days() {
		if r, ok := m.clinical[employeeID][day]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
