package acupuncture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// PORTS
// =============================================================================

// ReportStore persists reports. Percentages and data are written separately.
type ReportStore interface {
	// CreateReport returns generic.ErrDuplicatePeriod if the key exists.
	CreateReport(ctx context.Context, r *AcupunctureReport) error
	// GetReport returns generic.ErrPeriodNotFound for unknown keys.
	GetReport(ctx context.Context, key generic.ReportKey) (*AcupunctureReport, error)
	UpdatePercentages(ctx context.Context, key generic.ReportKey, p Percentages, at time.Time) error
	// ReplaceData swaps the full data set atomically.
	ReplaceData(ctx context.Context, key generic.ReportKey, data []ClinicalDailyRecord, at time.Time) error
	DeleteReport(ctx context.Context, key generic.ReportKey) error
}

// ClinicalSource supplies daily clinical totals for a window. I/O failures
// must wrap generic.ErrRefreshSourceUnavailable.
type ClinicalSource interface {
	FetchClinicalRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]ClinicalDailyRecord, error)
}

// RetryingSource wraps a ClinicalSource with a timeout and retry policy.
type RetryingSource struct {
	Source ClinicalSource
	Policy generic.RetryPolicy
	Logger *slog.Logger
}

func (s *RetryingSource) FetchClinicalRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]ClinicalDailyRecord, error) {
	data, attempts, err := generic.Retry(ctx, s.Policy, s.Logger, func(ctx context.Context) ([]ClinicalDailyRecord, error) {
		return s.Source.FetchClinicalRecords(ctx, employeeID, window)
	})
	if err != nil {
		return nil, generic.AsRefreshError(employeeID, window, attempts, err)
	}
	return data, nil
}

// =============================================================================
// CHANGE SET
// =============================================================================

// PercentageEdit is a partial update; nil fields are unchanged.
type PercentageEdit struct {
	Acupuncture               *decimal.Decimal
	Massage                   *decimal.Decimal
	Insurance                 *decimal.Decimal
	NonAcupuncturistInsurance *decimal.Decimal
}

// ChangeSet lists the percentages that differ between two values.
type ChangeSet struct {
	Changed []string
	Before  Percentages
	After   Percentages
}

func (c ChangeSet) Empty() bool { return len(c.Changed) == 0 }

// Apply returns the draft produced by the edit.
func (e PercentageEdit) Apply(p Percentages) Percentages {
	if e.Acupuncture != nil {
		p.Acupuncture = *e.Acupuncture
	}
	if e.Massage != nil {
		p.Massage = *e.Massage
	}
	if e.Insurance != nil {
		p.Insurance = *e.Insurance
	}
	if e.NonAcupuncturistInsurance != nil {
		p.NonAcupuncturistInsurance = *e.NonAcupuncturistInsurance
	}
	return p
}

// Diff compares percentages by value.
func Diff(original, draft Percentages) ChangeSet {
	c := ChangeSet{Before: original, After: draft}
	if !original.Acupuncture.Equal(draft.Acupuncture) {
		c.Changed = append(c.Changed, "acupuncture_percentage")
	}
	if !original.Massage.Equal(draft.Massage) {
		c.Changed = append(c.Changed, "massage_percentage")
	}
	if !original.Insurance.Equal(draft.Insurance) {
		c.Changed = append(c.Changed, "insurance_percentage")
	}
	if !original.NonAcupuncturistInsurance.Equal(draft.NonAcupuncturistInsurance) {
		c.Changed = append(c.Changed, "non_acupuncturist_insurance_percentage")
	}
	return c
}

// =============================================================================
// REPORT SERVICE
// =============================================================================

// ReportService owns the report lifecycle, mirroring payroll.PeriodService.
type ReportService struct {
	store  ReportStore
	source ClinicalSource
	logger *slog.Logger
	locks  generic.KeyedMutex[generic.ReportKey]

	Now func() time.Time
}

func NewReportService(store ReportStore, source ClinicalSource, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		store:  store,
		source: source,
		logger: logger.With("component", "acupuncture"),
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) log(key generic.ReportKey) *slog.Logger {
	return s.logger.With("employee_id", key.EmployeeID, "year", key.Year, "month", int(key.Month))
}

// Generate creates the report and pulls the month's clinical data.
func (s *ReportService) Generate(ctx context.Context, key generic.ReportKey, p Percentages) (*AcupunctureReport, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	if _, err := s.store.GetReport(ctx, key); err == nil {
		return nil, fmt.Errorf("%w: report %s", generic.ErrDuplicatePeriod, key)
	} else if !generic.IsNotFound(err) {
		return nil, err
	}

	data, err := s.fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	r := &AcupunctureReport{
		ID:          uuid.New().String(),
		Key:         key,
		Percentages: p,
		Data:        data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	s.log(key).Info("report generated", "days", len(data))
	return r, nil
}

func (s *ReportService) Get(ctx context.Context, key generic.ReportKey) (*AcupunctureReport, error) {
	return s.store.GetReport(ctx, key)
}

// Edit updates percentages only.
func (s *ReportService) Edit(ctx context.Context, key generic.ReportKey, edit PercentageEdit) (*AcupunctureReport, ChangeSet, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	r, err := s.store.GetReport(ctx, key)
	if err != nil {
		return nil, ChangeSet{}, err
	}
	draft := edit.Apply(r.Percentages)
	if err := draft.Validate(); err != nil {
		return nil, ChangeSet{}, err
	}
	changes := Diff(r.Percentages, draft)
	if changes.Empty() {
		return r, changes, nil
	}
	now := s.Now()
	if err := s.store.UpdatePercentages(ctx, key, draft, now); err != nil {
		return nil, ChangeSet{}, err
	}
	r.Percentages = draft
	r.UpdatedAt = now
	s.log(key).Info("report edited", "changed", changes.Changed)
	return r, changes, nil
}

// Refresh re-pulls clinical data; percentages are preserved.
func (s *ReportService) Refresh(ctx context.Context, key generic.ReportKey) (*AcupunctureReport, error) {
	if _, err := s.store.GetReport(ctx, key); err != nil {
		return nil, err
	}
	data, err := s.fetch(ctx, key)
	if err != nil {
		s.log(key).Warn("refresh failed, keeping last-known data", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.store.ReplaceData(ctx, key, data, s.Now()); err != nil {
		return nil, err
	}
	s.log(key).Info("report refreshed", "days", len(data))
	return s.store.GetReport(ctx, key)
}

func (s *ReportService) Delete(ctx context.Context, key generic.ReportKey) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.store.DeleteReport(ctx, key); err != nil {
		return err
	}
	s.log(key).Info("report deleted")
	return nil
}

// Commission computes the stored report's commission.
func (s *ReportService) Commission(ctx context.Context, key generic.ReportKey) (CommissionBreakdown, error) {
	r, err := s.store.GetReport(ctx, key)
	if err != nil {
		return CommissionBreakdown{}, err
	}
	return ComputeCommission(r)
}

func (s *ReportService) fetch(ctx context.Context, key generic.ReportKey) ([]ClinicalDailyRecord, error) {
	window := key.Window()
	data, err := s.source.FetchClinicalRecords(ctx, key.EmployeeID, window)
	if err != nil {
		return nil, generic.AsRefreshError(key.EmployeeID, window, 1, err)
	}
	if err := ValidateData(key, data); err != nil {
		return nil, err
	}
	for i := range data {
		data[i].EmployeeID = key.EmployeeID
	}
	return data, nil
}
