/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Domain packages (payroll, acupuncture) return these sentinels directly or
  wrapped in a structured error that carries the offending identity.

ERROR CATEGORIES:
  1. Lifecycle errors   - duplicate / missing periods and reports
  2. Validation errors  - bad overrides, percentages, variants, records
  3. Source errors      - refresh port failures (the only retryable kind)

USAGE:
  if errors.Is(err, generic.ErrDuplicatePeriod) { ... }

  var rec *generic.InconsistentRecordError
  if errors.As(err, &rec) { log.Printf("bad day %s", rec.Date) }

SEE ALSO:
  - payroll/service.go: period lifecycle
  - acupuncture/service.go: report lifecycle
  - api/handlers.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicatePeriod is returned by generate when the identity already exists.
	// The existing period or report is left untouched.
	ErrDuplicatePeriod = errors.New("period already exists")

	// ErrPeriodNotFound is returned by edit/refresh/delete/compute on a missing identity.
	ErrPeriodNotFound = errors.New("period not found")

	// ErrInvalidOverride is returned when a manual cheque amount is negative.
	ErrInvalidOverride = errors.New("invalid cheque override")

	// ErrRefreshSourceUnavailable is returned when the schedule source cannot be
	// reached. Retryable; the period keeps its last-known records.
	ErrRefreshSourceUnavailable = errors.New("refresh source unavailable")

	// ErrInconsistentRecord is returned when a record's date falls outside the
	// window of the period it is delivered for, or belongs to another employee.
	ErrInconsistentRecord = errors.New("inconsistent record")

	// ErrInvalidPercentage is returned when a commission percentage is outside [0, 1].
	ErrInvalidPercentage = errors.New("percentage must be within [0, 1]")

	// ErrVariantNotAllowed is returned when a compensation variant is not
	// available for the employee's role, or is unknown.
	ErrVariantNotAllowed = errors.New("compensation variant not allowed")

	// ErrVariantMismatch is returned when a view is requested for a period whose
	// variant does not support it (e.g. cash-out on a receptionist period).
	ErrVariantMismatch = errors.New("view not available for compensation variant")

	// ErrEmployeeNotFound is returned when the employee directory has no entry.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidPeriod is returned for malformed periods or unknown parts.
	ErrInvalidPeriod = errors.New("invalid period")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InconsistentRecordError identifies the record rejected by a generate or refresh.
type InconsistentRecordError struct {
	EmployeeID string
	Date       TimePoint
	Window     Period
	Reason     string
}

func (e *InconsistentRecordError) Error() string {
	return fmt.Sprintf("inconsistent record for %s on %s (window %s): %s",
		e.EmployeeID, e.Date, e.Window, e.Reason)
}

func (e *InconsistentRecordError) Unwrap() error { return ErrInconsistentRecord }

// InvalidOverrideError carries the rejected cheque amount.
type InvalidOverrideError struct {
	Amount decimal.Decimal
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("invalid cheque override %s: must not be negative", e.Amount)
}

func (e *InvalidOverrideError) Unwrap() error { return ErrInvalidOverride }

// RefreshError wraps a failure of the external schedule source.
type RefreshError struct {
	EmployeeID string
	Window     Period
	Attempts   int
	Err        error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh %s %s failed after %d attempt(s): %v",
		e.EmployeeID, e.Window, e.Attempts, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *RefreshError) Unwrap() []error {
	return []error{ErrRefreshSourceUnavailable, e.Err}
}

// AsRefreshError wraps a retryable source failure in a RefreshError. Errors
// that are already a RefreshError, or are not retryable, pass through.
func AsRefreshError(employeeID EmployeeID, window Period, attempts int, err error) error {
	var re *RefreshError
	if errors.As(err, &re) || !IsRetryable(err) {
		return err
	}
	return &RefreshError{EmployeeID: string(employeeID), Window: window, Attempts: attempts, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
// Only refresh source failures are retryable by policy.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRefreshSourceUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrInvalidOverride) ||
		errors.Is(err, ErrInconsistentRecord) ||
		errors.Is(err, ErrInvalidPercentage) ||
		errors.Is(err, ErrVariantNotAllowed) ||
		errors.Is(err, ErrVariantMismatch) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPeriodNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}
