/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements every persistence port of the engine with one database:

  payroll.PeriodStore:        Half-month payroll periods and their records
  payroll.Directory:          Employees with role and rate card
  payroll.CalendarSource:     Configured holidays
  payroll.RefreshPort:        Schedule feed of daily work records
  acupuncture.ReportStore:    Monthly acupuncture reports and their data
  acupuncture.ClinicalSource: Clinical billing feed

KEY TABLES:
  employees:           Directory entries, rates nullable
  holidays:            One row per configured holiday date
  payroll_periods:     Settings of a period, UNIQUE(employee, year, month, part)
  period_records:      Snapshot of daily records owned by a period
  acupuncture_reports: Percentages of a report, UNIQUE(employee, year, month)
  report_data:         Snapshot of clinical rows owned by a report
  daily_records:       Schedule feed (source of generate / refresh)
  clinical_records:    Clinical feed (source of generate / refresh)

SETTINGS VS RECORDS:
  Settings live on the parent row and records in a child table. Edits only
  UPDATE the parent; refreshes only replace the child rows, inside one
  transaction. Neither write can clobber the other.

MONEY:
  Decimals are stored as TEXT and parsed back with shopspring/decimal, never
  through REAL.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on.

SEE ALSO:
  - payroll/service.go, acupuncture/service.go: port definitions
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/acupuncture"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ payroll.PeriodStore        = (*Store)(nil)
	_ payroll.Directory          = (*Store)(nil)
	_ payroll.CalendarSource     = (*Store)(nil)
	_ payroll.RefreshPort        = (*Store)(nil)
	_ acupuncture.ReportStore    = (*Store)(nil)
	_ acupuncture.ClinicalSource = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// recordColumns is shared by period_records and daily_records.
const recordColumns = `
	start_at, end_at,
	body_sessions, feet_sessions, acupuncture_sessions,
	requested_body_sessions, requested_feet_sessions, requested_acupuncture_sessions,
	total_cash, total_machine, total_vip, total_gift_card, total_insurance, total_cash_out,
	tips, vip_amount, award_amount`

const recordPlaceholders = `?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?`

const clinicalColumns = `acupuncture, massage, insurance, non_acupuncturist_insurance`

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		body_rate TEXT,
		feet_rate TEXT,
		acupuncture_rate TEXT,
		per_hour TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(date, name);

	-- One period per (employee, year, month, part)
	CREATE TABLE IF NOT EXISTS payroll_periods (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		part INTEGER NOT NULL,
		option TEXT NOT NULL,
		cheque_amount TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, year, month, part)
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_periods_month
		ON payroll_periods(year, month);

	CREATE TABLE IF NOT EXISTS period_records (
		period_id TEXT NOT NULL REFERENCES payroll_periods(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		start_at TEXT,
		end_at TEXT,
		body_sessions TEXT NOT NULL,
		feet_sessions TEXT NOT NULL,
		acupuncture_sessions TEXT NOT NULL,
		requested_body_sessions TEXT NOT NULL,
		requested_feet_sessions TEXT NOT NULL,
		requested_acupuncture_sessions TEXT NOT NULL,
		total_cash TEXT NOT NULL,
		total_machine TEXT NOT NULL,
		total_vip TEXT NOT NULL,
		total_gift_card TEXT NOT NULL,
		total_insurance TEXT NOT NULL,
		total_cash_out TEXT NOT NULL,
		tips TEXT NOT NULL,
		vip_amount TEXT NOT NULL,
		award_amount TEXT NOT NULL,
		PRIMARY KEY (period_id, date)
	);

	-- One report per (employee, year, month)
	CREATE TABLE IF NOT EXISTS acupuncture_reports (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		acupuncture_percentage TEXT NOT NULL,
		massage_percentage TEXT NOT NULL,
		insurance_percentage TEXT NOT NULL,
		non_acupuncturist_insurance_percentage TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS report_data (
		report_id TEXT NOT NULL REFERENCES acupuncture_reports(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		acupuncture TEXT NOT NULL,
		massage TEXT NOT NULL,
		insurance TEXT NOT NULL,
		non_acupuncturist_insurance TEXT NOT NULL,
		PRIMARY KEY (report_id, date)
	);

	-- Schedule feed
	CREATE TABLE IF NOT EXISTS daily_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_at TEXT,
		end_at TEXT,
		body_sessions TEXT NOT NULL,
		feet_sessions TEXT NOT NULL,
		acupuncture_sessions TEXT NOT NULL,
		requested_body_sessions TEXT NOT NULL,
		requested_feet_sessions TEXT NOT NULL,
		requested_acupuncture_sessions TEXT NOT NULL,
		total_cash TEXT NOT NULL,
		total_machine TEXT NOT NULL,
		total_vip TEXT NOT NULL,
		total_gift_card TEXT NOT NULL,
		total_insurance TEXT NOT NULL,
		total_cash_out TEXT NOT NULL,
		tips TEXT NOT NULL,
		vip_amount TEXT NOT NULL,
		award_amount TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS clinical_records (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		acupuncture TEXT NOT NULL,
		massage TEXT NOT NULL,
		insurance TEXT NOT NULL,
		non_acupuncturist_insurance TEXT NOT NULL,
		PRIMARY KEY (employee_id, date)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// PAYROLL PERIODS (payroll.PeriodStore)
// =============================================================================

// CreatePeriod inserts the period and its records atomically.
func (s *Store) CreatePeriod(ctx context.Context, p *payroll.PayrollPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_periods
		(id, employee_id, year, month, part, option, cheque_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Key.EmployeeID), p.Key.Year, int(p.Key.Month), int(p.Key.Part),
		string(p.Option), nullDecimal(p.ChequeAmount),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", generic.ErrDuplicatePeriod, p.Key)
		}
		return fmt.Errorf("failed to insert period: %w", err)
	}
	if err := insertRecords(ctx, tx, "period_records", "period_id", p.ID, p.Records); err != nil {
		return err
	}
	return tx.Commit()
}

// GetPeriod loads a period with its records ordered by date.
func (s *Store) GetPeriod(ctx context.Context, key generic.PeriodKey) (*payroll.PayrollPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, year, month, part, option, cheque_amount, created_at, updated_at
		FROM payroll_periods
		WHERE employee_id = ? AND year = ? AND month = ? AND part = ?`,
		string(key.EmployeeID), key.Year, int(key.Month), int(key.Part),
	)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadRecords(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPeriods returns every period of a month ordered by employee and part.
func (s *Store) ListPeriods(ctx context.Context, year int, month time.Month) ([]*payroll.PayrollPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, year, month, part, option, cheque_amount, created_at, updated_at
		FROM payroll_periods
		WHERE year = ? AND month = ?
		ORDER BY employee_id, part`,
		year, int(month),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	var periods []*payroll.PayrollPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, p := range periods {
		if err := s.loadRecords(ctx, p); err != nil {
			return nil, err
		}
	}
	return periods, nil
}

// UpdateSettings writes option and cheque_amount only.
func (s *Store) UpdateSettings(ctx context.Context, key generic.PeriodKey, set payroll.Settings, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payroll_periods SET option = ?, cheque_amount = ?, updated_at = ?
		WHERE employee_id = ? AND year = ? AND month = ? AND part = ?`,
		string(set.Option), nullDecimal(set.ChequeAmount), formatTime(at),
		string(key.EmployeeID), key.Year, int(key.Month), int(key.Part),
	)
	if err != nil {
		return fmt.Errorf("failed to update period: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key))
}

// ReplaceRecords swaps the record set in one transaction. Settings are not
// touched.
func (s *Store) ReplaceRecords(ctx context.Context, key generic.PeriodKey, records []payroll.DailyRecord, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM payroll_periods
		WHERE employee_id = ? AND year = ? AND month = ? AND part = ?`,
		string(key.EmployeeID), key.Year, int(key.Month), int(key.Part),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM period_records WHERE period_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	if err := insertRecords(ctx, tx, "period_records", "period_id", id, records); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE payroll_periods SET updated_at = ? WHERE id = ?", formatTime(at), id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePeriod removes a period; its records cascade.
func (s *Store) DeletePeriod(ctx context.Context, key generic.PeriodKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM payroll_periods
		WHERE employee_id = ? AND year = ? AND month = ? AND part = ?`,
		string(key.EmployeeID), key.Year, int(key.Month), int(key.Part),
	)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: %s", generic.ErrPeriodNotFound, key))
}

func scanPeriod(row scanner) (*payroll.PayrollPeriod, error) {
	var (
		p                    payroll.PayrollPeriod
		employeeID, option   string
		month, part          int
		cheque               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &employeeID, &p.Key.Year, &month, &part, &option, &cheque, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Key.EmployeeID = generic.EmployeeID(employeeID)
	p.Key.Month = time.Month(month)
	p.Key.Part = generic.Part(part)
	p.Option = payroll.CompensationVariant(option)
	p.ChequeAmount = parseNullDecimal(cheque)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func (s *Store) loadRecords(ctx context.Context, p *payroll.PayrollPeriod) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT date, "+recordColumns+" FROM period_records WHERE period_id = ? ORDER BY date",
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return err
		}
		r.EmployeeID = p.Key.EmployeeID
		p.Records = append(p.Records, r)
	}
	return rows.Err()
}

func insertRecords(ctx context.Context, db execer, table, ownerColumn, owner string, records []payroll.DailyRecord) error {
	query := "INSERT INTO " + table + " (" + ownerColumn + ", date, " + recordColumns + ") VALUES (?, ?, " + recordPlaceholders + ")"
	for _, r := range records {
		args := append([]any{owner, r.Date.String()}, recordArgs(r)...)
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: duplicate day %s", generic.ErrInconsistentRecord, r.Date)
			}
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}
	return nil
}

func recordArgs(r payroll.DailyRecord) []any {
	return []any{
		nullTime(r.Start), nullTime(r.End),
		r.BodySessions.String(), r.FeetSessions.String(), r.AcupunctureSessions.String(),
		r.RequestedBodySessions.String(), r.RequestedFeetSessions.String(), r.RequestedAcupunctureSessions.String(),
		r.TotalCash.String(), r.TotalMachine.String(), r.TotalVIP.String(),
		r.TotalGiftCard.String(), r.TotalInsurance.String(), r.TotalCashOut.String(),
		r.Tips.String(), r.VIPAmount.String(), r.AwardAmount.String(),
	}
}

// scanRecord reads "date, "+recordColumns.
func scanRecord(row scanner) (payroll.DailyRecord, error) {
	var (
		r          payroll.DailyRecord
		date       string
		start, end sql.NullString
		v          [15]string
	)
	dest := []any{&date, &start, &end}
	for i := range v {
		dest = append(dest, &v[i])
	}
	if err := row.Scan(dest...); err != nil {
		return r, fmt.Errorf("failed to scan record: %w", err)
	}

	day, err := generic.ParseDay(date)
	if err != nil {
		return r, err
	}
	r.Date = day
	r.Start = parseNullTime(start)
	r.End = parseNullTime(end)

	fields := []*decimal.Decimal{
		&r.BodySessions, &r.FeetSessions, &r.AcupunctureSessions,
		&r.RequestedBodySessions, &r.RequestedFeetSessions, &r.RequestedAcupunctureSessions,
		&r.TotalCash, &r.TotalMachine, &r.TotalVIP,
		&r.TotalGiftCard, &r.TotalInsurance, &r.TotalCashOut,
		&r.Tips, &r.VIPAmount, &r.AwardAmount,
	}
	for i, f := range fields {
		*f = generic.MustParseDecimal(v[i])
	}
	return r, nil
}

// =============================================================================
// ACUPUNCTURE REPORTS (acupuncture.ReportStore)
// =============================================================================

// CreateReport inserts the report and its data atomically.
func (s *Store) CreateReport(ctx context.Context, r *acupuncture.AcupunctureReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO acupuncture_reports
		(id, employee_id, year, month, acupuncture_percentage, massage_percentage,
		 insurance_percentage, non_acupuncturist_insurance_percentage, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Key.EmployeeID), r.Key.Year, int(r.Key.Month),
		r.Acupuncture.String(), r.Massage.String(), r.Insurance.String(), r.NonAcupuncturistInsurance.String(),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: report %s", generic.ErrDuplicatePeriod, r.Key)
		}
		return fmt.Errorf("failed to insert report: %w", err)
	}
	if err := insertClinical(ctx, tx, "report_data", "report_id", r.ID, r.Data); err != nil {
		return err
	}
	return tx.Commit()
}

// GetReport loads a report with its data ordered by date.
func (s *Store) GetReport(ctx context.Context, key generic.ReportKey) (*acupuncture.AcupunctureReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r                    acupuncture.AcupunctureReport
		employeeID           string
		month                int
		pa, pm, pi, pn       string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, year, month, acupuncture_percentage, massage_percentage,
		       insurance_percentage, non_acupuncturist_insurance_percentage, created_at, updated_at
		FROM acupuncture_reports
		WHERE employee_id = ? AND year = ? AND month = ?`,
		string(key.EmployeeID), key.Year, int(key.Month),
	).Scan(&r.ID, &employeeID, &r.Key.Year, &month, &pa, &pm, &pi, &pn, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	r.Key.EmployeeID = generic.EmployeeID(employeeID)
	r.Key.Month = time.Month(month)
	r.Percentages = acupuncture.Percentages{
		Acupuncture:               generic.MustParseDecimal(pa),
		Massage:                   generic.MustParseDecimal(pm),
		Insurance:                 generic.MustParseDecimal(pi),
		NonAcupuncturistInsurance: generic.MustParseDecimal(pn),
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, "+clinicalColumns+" FROM report_data WHERE report_id = ? ORDER BY date",
		r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query report data: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanClinical(rows)
		if err != nil {
			return nil, err
		}
		c.EmployeeID = r.Key.EmployeeID
		r.Data = append(r.Data, c)
	}
	return &r, rows.Err()
}

// UpdatePercentages writes the four percentages only.
func (s *Store) UpdatePercentages(ctx context.Context, key generic.ReportKey, p acupuncture.Percentages, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE acupuncture_reports SET
			acupuncture_percentage = ?,
			massage_percentage = ?,
			insurance_percentage = ?,
			non_acupuncturist_insurance_percentage = ?,
			updated_at = ?
		WHERE employee_id = ? AND year = ? AND month = ?`,
		p.Acupuncture.String(), p.Massage.String(), p.Insurance.String(), p.NonAcupuncturistInsurance.String(),
		formatTime(at),
		string(key.EmployeeID), key.Year, int(key.Month),
	)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key))
}

// ReplaceData swaps the clinical rows in one transaction.
func (s *Store) ReplaceData(ctx context.Context, key generic.ReportKey, data []acupuncture.ClinicalDailyRecord, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM acupuncture_reports WHERE employee_id = ? AND year = ? AND month = ?",
		string(key.EmployeeID), key.Year, int(key.Month),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM report_data WHERE report_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear report data: %w", err)
	}
	if err := insertClinical(ctx, tx, "report_data", "report_id", id, data); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE acupuncture_reports SET updated_at = ? WHERE id = ?", formatTime(at), id); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteReport removes a report; its data cascades.
func (s *Store) DeleteReport(ctx context.Context, key generic.ReportKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM acupuncture_reports WHERE employee_id = ? AND year = ? AND month = ?",
		string(key.EmployeeID), key.Year, int(key.Month),
	)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return expectOne(res, fmt.Errorf("%w: report %s", generic.ErrPeriodNotFound, key))
}

func insertClinical(ctx context.Context, db execer, table, ownerColumn, owner string, data []acupuncture.ClinicalDailyRecord) error {
	query := "INSERT INTO " + table + " (" + ownerColumn + ", date, " + clinicalColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	for _, c := range data {
		_, err := db.ExecContext(ctx, query,
			owner, c.Date.String(),
			c.Acupuncture.String(), c.Massage.String(), c.Insurance.String(), c.NonAcupuncturistInsurance.String(),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: duplicate day %s", generic.ErrInconsistentRecord, c.Date)
			}
			return fmt.Errorf("failed to insert clinical row: %w", err)
		}
	}
	return nil
}

// scanClinical reads "date, "+clinicalColumns.
func scanClinical(row scanner) (acupuncture.ClinicalDailyRecord, error) {
	var (
		c              acupuncture.ClinicalDailyRecord
		date           string
		ac, ma, in, na string
	)
	if err := row.Scan(&date, &ac, &ma, &in, &na); err != nil {
		return c, fmt.Errorf("failed to scan clinical row: %w", err)
	}
	day, err := generic.ParseDay(date)
	if err != nil {
		return c, err
	}
	c.Date = day
	c.Acupuncture = generic.MustParseDecimal(ac)
	c.Massage = generic.MustParseDecimal(ma)
	c.Insurance = generic.MustParseDecimal(in)
	c.NonAcupuncturistInsurance = generic.MustParseDecimal(na)
	return c, nil
}

// =============================================================================
// EMPLOYEE DIRECTORY (payroll.Directory)
// =============================================================================

// SaveEmployee upserts an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, role, body_rate, feet_rate, acupuncture_rate, per_hour, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			body_rate = excluded.body_rate,
			feet_rate = excluded.feet_rate,
			acupuncture_rate = excluded.acupuncture_rate,
			per_hour = excluded.per_hour
	`

	rc := emp.RateCard
	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), emp.Name, string(emp.Role),
		nullDecimal(rc.BodyRate), nullDecimal(rc.FeetRate), nullDecimal(rc.AcupunctureRate), nullDecimal(rc.PerHour),
		formatTime(time.Now().UTC()),
	)
	return err
}

// GetEmployee implements payroll.Directory.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (*payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, role, body_rate, feet_rate, acupuncture_rate, per_hour FROM employees WHERE id = ?",
		string(id),
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, role, body_rate, feet_rate, acupuncture_rate, per_hour FROM employees ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var (
		emp             payroll.Employee
		id, role        string
		body, feet, acu sql.NullString
		perHour         sql.NullString
	)
	if err := row.Scan(&id, &emp.Name, &role, &body, &feet, &acu, &perHour); err != nil {
		return emp, err
	}
	emp.ID = generic.EmployeeID(id)
	emp.Role = payroll.Role(role)
	emp.RateCard = payroll.RateCard{
		BodyRate:        parseNullDecimal(body),
		FeetRate:        parseNullDecimal(feet),
		AcupunctureRate: parseNullDecimal(acu),
		PerHour:         parseNullDecimal(perHour),
	}
	return emp, nil
}

// =============================================================================
// HOLIDAY CALENDAR (payroll.CalendarSource)
// =============================================================================

// SaveHoliday saves a holiday to the database.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date, name) DO NOTHING`,
		h.ID, h.Date.String(), h.Name, formatTime(time.Now().UTC()),
	)
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	return err
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDay(date); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// HolidayCalendar snapshots the configured holidays into a calendar.
func (s *Store) HolidayCalendar(ctx context.Context) (generic.HolidayCalendar, error) {
	holidays, err := s.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	return generic.NewStaticHolidayCalendar(holidays), nil
}

// =============================================================================
// SCHEDULE FEED (payroll.RefreshPort, acupuncture.ClinicalSource)
// =============================================================================

// PutDailyRecord upserts one day of the schedule feed.
func (s *Store) PutDailyRecord(ctx context.Context, r payroll.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "INSERT OR REPLACE INTO daily_records (employee_id, date, " + recordColumns + ") VALUES (?, ?, " + recordPlaceholders + ")"
	args := append([]any{string(r.EmployeeID), r.Date.String()}, recordArgs(r)...)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// FetchDailyRecords implements payroll.RefreshPort. Database errors are
// reported as an unavailable source so the caller may retry.
func (s *Store) FetchDailyRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]payroll.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, "+recordColumns+" FROM daily_records WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date",
		string(employeeID), window.Start.String(), window.End.String(),
	)
	if err != nil {
		return nil, sourceError(ctx, err)
	}
	defer rows.Close()

	var records []payroll.DailyRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		r.EmployeeID = employeeID
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceError(ctx, err)
	}
	return records, nil
}

// PutClinicalRecord upserts one day of the clinical feed.
func (s *Store) PutClinicalRecord(ctx context.Context, c acupuncture.ClinicalDailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO clinical_records (employee_id, date, "+clinicalColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		string(c.EmployeeID), c.Date.String(),
		c.Acupuncture.String(), c.Massage.String(), c.Insurance.String(), c.NonAcupuncturistInsurance.String(),
	)
	return err
}

// FetchClinicalRecords implements acupuncture.ClinicalSource.
func (s *Store) FetchClinicalRecords(ctx context.Context, employeeID generic.EmployeeID, window generic.Period) ([]acupuncture.ClinicalDailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT date, "+clinicalColumns+" FROM clinical_records WHERE employee_id = ? AND date >= ? AND date <= ? ORDER BY date",
		string(employeeID), window.Start.String(), window.End.String(),
	)
	if err != nil {
		return nil, sourceError(ctx, err)
	}
	defer rows.Close()

	var data []acupuncture.ClinicalDailyRecord
	for rows.Next() {
		c, err := scanClinical(rows)
		if err != nil {
			return nil, err
		}
		c.EmployeeID = employeeID
		data = append(data, c)
	}
	if err := rows.Err(); err != nil {
		return nil, sourceError(ctx, err)
	}
	return data, nil
}

// sourceError marks feed I/O failures retryable unless the caller gave up.
func sourceError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return errors.Join(generic.ErrRefreshSourceUnavailable, err)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"period_records", "payroll_periods", "report_data", "acupuncture_reports",
		"daily_records", "clinical_records", "holidays", "employees",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid {
		return nil
	}
	d := generic.MustParseDecimal(s.String)
	return &d
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
