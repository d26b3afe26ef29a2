/*
service.go - Payroll period lifecycle

PURPOSE:
  Owns the lifecycle of PayrollPeriods and hands stored periods to the pure
  engine. States: UNCREATED -> GENERATED -> (EDITED | REFRESHED)* -> DELETED.

RULES:
  generate  fails with ErrDuplicatePeriod when the identity exists; the
            existing period is untouched. Pulls the initial records.
  edit      replaces option / cheque_amount only. Never touches records.
  refresh   replaces records only, all-or-nothing. A failed or cancelled
            fetch leaves the last-known records in place.
  delete    terminal.

CONCURRENCY:
  Edit and the write half of refresh take the same per-identity lock, and
  the store writes settings and records through separate operations, so
  neither can overwrite the other's change. The refresh fetch itself runs
  outside the lock; it is I/O and idempotent.

SEE ALSO:
  - engine.go: Compute
  - refresh.go: RefreshPort and retries
  - store/sqlite, store/memory: PeriodStore implementations
*/
package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// PeriodStore persists periods. Settings and records are written separately.
type PeriodStore interface {
	// CreatePeriod returns generic.ErrDuplicatePeriod if the key exists.
	CreatePeriod(ctx context.Context, p *PayrollPeriod) error

	// GetPeriod returns generic.ErrPeriodNotFound for unknown keys.
	GetPeriod(ctx context.Context, key generic.PeriodKey) (*PayrollPeriod, error)

	// ListPeriods returns every period of a month, both halves.
	ListPeriods(ctx context.Context, year int, month time.Month) ([]*PayrollPeriod, error)

	UpdateSettings(ctx context.Context, key generic.PeriodKey, s Settings, at time.Time) error

	// ReplaceRecords swaps the full record set atomically.
	ReplaceRecords(ctx context.Context, key generic.PeriodKey, records []DailyRecord, at time.Time) error

	DeletePeriod(ctx context.Context, key generic.PeriodKey) error
}

// Directory is the employee directory.
type Directory interface {
	// GetEmployee returns generic.ErrEmployeeNotFound for unknown employees.
	GetEmployee(ctx context.Context, id generic.EmployeeID) (*Employee, error)
}

// CalendarSource provides the holiday calendar in force.
type CalendarSource interface {
	HolidayCalendar(ctx context.Context) (generic.HolidayCalendar, error)
}

// StaticCalendar serves a fixed calendar.
type StaticCalendar struct{ Calendar generic.HolidayCalendar }

func (s StaticCalendar) HolidayCalendar(context.Context) (generic.HolidayCalendar, error) {
	return s.Calendar, nil
}

// =============================================================================
// PERIOD SERVICE
// =============================================================================

type PeriodService struct {
	store     PeriodStore
	directory Directory
	source    RefreshPort
	calendars CalendarSource
	logger    *slog.Logger
	locks     generic.KeyedMutex[generic.PeriodKey]

	// Now is the clock used for audit timestamps.
	Now func() time.Time
	// Workers bounds ComputeMonth parallelism.
	Workers int
}

// NewPeriodService wires a service. A nil logger uses slog.Default().
func NewPeriodService(store PeriodStore, directory Directory, source RefreshPort, calendars CalendarSource, logger *slog.Logger) *PeriodService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeriodService{
		store:     store,
		directory: directory,
		source:    source,
		calendars: calendars,
		logger:    logger.With("component", "payroll"),
		Now:       func() time.Time { return time.Now().UTC() },
		Workers:   4,
	}
}

func (s *PeriodService) log(key generic.PeriodKey) *slog.Logger {
	return s.logger.With("employee_id", key.EmployeeID, "year", key.Year, "month", int(key.Month), "part", key.Part.String())
}

// Generate creates the period for key. option overrides the role default
// when non-nil.
func (s *PeriodService) Generate(ctx context.Context, key generic.PeriodKey, option *CompensationVariant) (*PayrollPeriod, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	emp, err := s.directory.GetEmployee(ctx, key.EmployeeID)
	if err != nil {
		return nil, err
	}
	variant := DefaultVariant(emp.Role)
	if option != nil {
		variant = *option
	}
	if !VariantAllowed(emp.Role, variant) {
		return nil, fmt.Errorf("%w: %s for role %s", generic.ErrVariantNotAllowed, variant, emp.Role)
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	if _, err := s.store.GetPeriod(ctx, key); err == nil {
		return nil, fmt.Errorf("%w: %s", generic.ErrDuplicatePeriod, key)
	} else if !generic.IsNotFound(err) {
		return nil, err
	}

	records, err := s.fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	p := &PayrollPeriod{
		ID:        uuid.New().String(),
		Key:       key,
		Settings:  Settings{Option: variant},
		Records:   records,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreatePeriod(ctx, p); err != nil {
		return nil, err
	}
	s.log(key).Info("period generated", "option", variant, "records", len(records))
	return p, nil
}

// Get returns the stored period.
func (s *PeriodService) Get(ctx context.Context, key generic.PeriodKey) (*PayrollPeriod, error) {
	return s.store.GetPeriod(ctx, key)
}

// Edit applies a partial settings update. An edit that changes nothing is
// not persisted.
func (s *PeriodService) Edit(ctx context.Context, key generic.PeriodKey, edit Edit) (*PayrollPeriod, ChangeSet, error) {
	unlock := s.locks.Lock(key)
	defer unlock()

	p, err := s.store.GetPeriod(ctx, key)
	if err != nil {
		return nil, ChangeSet{}, err
	}
	draft := edit.Apply(p.Settings)
	if err := draft.Validate(); err != nil {
		return nil, ChangeSet{}, err
	}
	changes := Diff(p.Settings, draft)
	if changes.Empty() {
		return p, changes, nil
	}
	if changes.OptionChanged {
		emp, err := s.directory.GetEmployee(ctx, key.EmployeeID)
		if err != nil {
			return nil, ChangeSet{}, err
		}
		if !VariantAllowed(emp.Role, draft.Option) {
			return nil, ChangeSet{}, fmt.Errorf("%w: %s for role %s", generic.ErrVariantNotAllowed, draft.Option, emp.Role)
		}
	}

	now := s.Now()
	if err := s.store.UpdateSettings(ctx, key, draft, now); err != nil {
		return nil, ChangeSet{}, err
	}
	p.Settings = draft
	p.UpdatedAt = now
	s.log(key).Info("period edited",
		"option_changed", changes.OptionChanged, "cheque_amount_changed", changes.ChequeAmountChanged)
	return p, changes, nil
}

// Refresh re-pulls the period's records. Settings are preserved.
func (s *PeriodService) Refresh(ctx context.Context, key generic.PeriodKey) (*PayrollPeriod, error) {
	if _, err := s.store.GetPeriod(ctx, key); err != nil {
		return nil, err
	}
	records, err := s.fetch(ctx, key)
	if err != nil {
		s.log(key).Warn("refresh failed, keeping last-known records", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.store.ReplaceRecords(ctx, key, records, s.Now()); err != nil {
		return nil, err
	}
	p, err := s.store.GetPeriod(ctx, key)
	if err != nil {
		return nil, err
	}
	s.log(key).Info("period refreshed", "records", len(records))
	return p, nil
}

// Delete removes the period for good.
func (s *PeriodService) Delete(ctx context.Context, key generic.PeriodKey) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.store.DeletePeriod(ctx, key); err != nil {
		return err
	}
	s.log(key).Info("period deleted")
	return nil
}

// Compute loads the period, the employee's rate card and the calendar, then
// runs the engine.
func (s *PeriodService) Compute(ctx context.Context, key generic.PeriodKey) (PayBreakdown, error) {
	p, err := s.store.GetPeriod(ctx, key)
	if err != nil {
		return PayBreakdown{}, err
	}
	emp, err := s.directory.GetEmployee(ctx, key.EmployeeID)
	if err != nil {
		return PayBreakdown{}, err
	}
	cal, err := s.calendars.HolidayCalendar(ctx)
	if err != nil {
		return PayBreakdown{}, err
	}
	return Compute(p, emp.RateCard, cal)
}

// CashOut renders the cash-out view of a store-employee period.
func (s *PeriodService) CashOut(ctx context.Context, key generic.PeriodKey) (CashOutBreakdown, error) {
	p, err := s.store.GetPeriod(ctx, key)
	if err != nil {
		return CashOutBreakdown{}, err
	}
	cal, err := s.calendars.HolidayCalendar(ctx)
	if err != nil {
		return CashOutBreakdown{}, err
	}
	return ComputeCashOut(p, cal)
}

// ComputeMonth computes every stored period of a month in parallel.
func (s *PeriodService) ComputeMonth(ctx context.Context, year int, month time.Month) ([]BatchResult, error) {
	periods, err := s.store.ListPeriods(ctx, year, month)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendars.HolidayCalendar(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]BatchItem, 0, len(periods))
	cards := make(map[generic.EmployeeID]RateCard)
	for _, p := range periods {
		rc, ok := cards[p.Key.EmployeeID]
		if !ok {
			emp, err := s.directory.GetEmployee(ctx, p.Key.EmployeeID)
			if err != nil {
				return nil, err
			}
			rc = emp.RateCard
			cards[p.Key.EmployeeID] = rc
		}
		items = append(items, BatchItem{Period: p, RateCard: rc})
	}
	return BatchCompute(ctx, items, cal, s.Workers)
}

// fetch pulls and validates the records of key's window.
func (s *PeriodService) fetch(ctx context.Context, key generic.PeriodKey) ([]DailyRecord, error) {
	window := key.Window()
	records, err := s.source.FetchDailyRecords(ctx, key.EmployeeID, window)
	if err != nil {
		return nil, generic.AsRefreshError(key.EmployeeID, window, 1, err)
	}
	if err := ValidateRecords(key, records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].EmployeeID = key.EmployeeID
	}
	return records, nil
}
