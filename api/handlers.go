/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll and acupuncture services via REST API. Handles HTTP
  request/response and JSON serialization, and delegates to the services.

ENDPOINTS:
  Directory:
    GET    /api/employees                         List employees
    POST   /api/employees                         Create or update employee
    GET    /api/employees/{id}                    Get employee
    GET    /api/holidays                          List holidays
    POST   /api/holidays                          Create holiday
    DELETE /api/holidays/{id}                     Delete holiday

  Schedule feed:
    POST   /api/schedule/daily                    Upsert daily work records
    POST   /api/schedule/clinical                 Upsert clinical billing rows

  Payroll periods ({key} = {employee}/{year}/{month}/{part}):
    POST   /api/periods                           Generate
    GET    /api/periods/{key}                     Fetch
    PATCH  /api/periods/{key}                     Edit option / cheque_amount
    POST   /api/periods/{key}/refresh             Re-pull records
    DELETE /api/periods/{key}                     Delete
    GET    /api/periods/{key}/breakdown           Computed pay
    GET    /api/periods/{key}/cashout             Cash-out view
    GET    /api/periods/{key}/export.csv          CSV audit export
    GET    /api/payroll/{year}/{month}/batch      Compute a whole month

  Acupuncture reports ({key} = {employee}/{year}/{month}):
    POST   /api/reports                           Generate
    GET    /api/reports/{key}                     Fetch
    PATCH  /api/reports/{key}                     Edit percentages
    POST   /api/reports/{key}/refresh             Re-pull clinical data
    DELETE /api/reports/{key}                     Delete
    GET    /api/reports/{key}/commission          Computed commission
    GET    /api/reports/{key}/commission.csv      CSV audit export

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Period, report or employee not found
  - 409: Duplicate generate
  - 422: Source delivered inconsistent records
  - 503: Schedule source unavailable (retry later)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/payroll-engine/acupuncture"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Periods *payroll.PeriodService
	Reports *acupuncture.ReportService

	logger *slog.Logger

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler. A nil logger uses slog.Default().
func NewHandler(store *sqlite.Store, periods *payroll.PeriodService, reports *acupuncture.ReportService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:   store,
		Periods: periods,
		Reports: reports,
		logger:  logger.With("component", "api"),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "ID and name are required", nil)
		return
	}
	switch payroll.Role(req.Role) {
	case payroll.RoleReceptionist, payroll.RoleAcupuncturist, payroll.RoleStoreEmployee, payroll.RoleManager:
	default:
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	emp := req.toEmployee()
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all configured holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday adds a holiday date.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, err := generic.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := generic.Holiday{ID: uuid.New().String(), Date: date, Name: req.Name}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a holiday.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// SCHEDULE FEED HANDLERS
// =============================================================================

// IngestDailyRecords upserts rows into the schedule feed.
func (h *Handler) IngestDailyRecords(w http.ResponseWriter, r *http.Request) {
	var req []DailyRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	records := make([]payroll.DailyRecord, 0, len(req))
	for _, d := range req {
		rec, err := d.toRecord()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		if rec.EmployeeID == "" {
			writeError(w, http.StatusBadRequest, "employee_id is required", nil)
			return
		}
		records = append(records, rec)
	}
	for _, rec := range records {
		if err := h.Store.PutDailyRecord(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store record", err)
			return
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": len(records)})
}

// IngestClinicalRecords upserts rows into the clinical feed.
func (h *Handler) IngestClinicalRecords(w http.ResponseWriter, r *http.Request) {
	var req []ClinicalRecordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rows := make([]acupuncture.ClinicalDailyRecord, 0, len(req))
	for _, d := range req {
		rec, err := d.toRecord()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		if rec.EmployeeID == "" {
			writeError(w, http.StatusBadRequest, "employee_id is required", nil)
			return
		}
		rows = append(rows, rec)
	}
	for _, rec := range rows {
		if err := h.Store.PutClinicalRecord(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to store clinical row", err)
			return
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": len(rows)})
}

// =============================================================================
// PAYROLL PERIOD HANDLERS
// =============================================================================

// GeneratePeriod creates a period and pulls its records.
func (h *Handler) GeneratePeriod(w http.ResponseWriter, r *http.Request) {
	var req GeneratePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	part, err := generic.ParsePart(req.Part)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid part (use first or second)", err)
		return
	}
	key := generic.PeriodKey{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Year:       req.Year,
		Month:      time.Month(req.Month),
		Part:       part,
	}
	var option *payroll.CompensationVariant
	if req.Option != nil {
		v := payroll.CompensationVariant(*req.Option)
		option = &v
	}

	p, err := h.Periods.Generate(r.Context(), key, option)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(p))
}

// GetPeriod returns a stored period.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	p, err := h.Periods.Get(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

// EditPeriod updates option and/or cheque_amount.
func (h *Handler) EditPeriod(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	var req EditPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	edit := payroll.Edit{ChequeAmount: req.ChequeAmount, ClearChequeAmount: req.ClearChequeAmount}
	if req.Option != nil {
		v := payroll.CompensationVariant(*req.Option)
		edit.Option = &v
	}

	p, changes, err := h.Periods.Edit(r.Context(), key, edit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EditPeriodResponse{Period: toPeriodDTO(p), Changed: changedSettings(changes)})
}

// RefreshPeriod re-pulls the period's records from the schedule feed.
func (h *Handler) RefreshPeriod(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	p, err := h.Periods.Refresh(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

// DeletePeriod removes a period.
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	if err := h.Periods.Delete(r.Context(), key); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetBreakdown returns the computed pay of a period.
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	b, err := h.Periods.Compute(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(b))
}

// GetCashOut returns the cash-out view of a store-employee period.
func (h *Handler) GetCashOut(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	c, err := h.Periods.CashOut(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCashOutDTO(c))
}

// ExportPeriodCSV streams the breakdown, or the cash-out view with
// ?view=cashout, as CSV.
func (h *Handler) ExportPeriodCSV(w http.ResponseWriter, r *http.Request) {
	key, ok := periodKey(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	filename := "payroll-" + string(key.EmployeeID) + "-" + strconv.Itoa(key.Year) + "-" + strconv.Itoa(int(key.Month)) + "-" + key.Part.String()

	switch r.URL.Query().Get("view") {
	case "", "breakdown":
		b, err := h.Periods.Compute(ctx, key)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeCSVHeader(w, filename)
		if err := payroll.WriteBreakdownCSV(w, b); err != nil {
			h.logger.Error("csv export failed", "key", key.String(), "error", err)
		}
	case "cashout":
		c, err := h.Periods.CashOut(ctx, key)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		writeCSVHeader(w, filename+"-cashout")
		if err := payroll.WriteCashOutCSV(w, c); err != nil {
			h.logger.Error("csv export failed", "key", key.String(), "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "Unknown view (use breakdown or cashout)", nil)
	}
}

// MonthBatch computes every stored period of a month.
func (h *Handler) MonthBatch(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	results, err := h.Periods.ComputeMonth(r.Context(), year, time.Month(month))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	items := make([]BatchItemDTO, len(results))
	for i, res := range results {
		items[i] = BatchItemDTO{EmployeeID: string(res.Key.EmployeeID), Part: res.Key.Part.String()}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
			continue
		}
		b := toBreakdownDTO(res.Breakdown)
		items[i].Breakdown = &b
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "month": month, "periods": items})
}

// =============================================================================
// ACUPUNCTURE REPORT HANDLERS
// =============================================================================

// GenerateReport creates a monthly report and pulls its clinical data.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req GenerateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key := generic.ReportKey{
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Year:       req.Year,
		Month:      time.Month(req.Month),
	}
	rep, err := h.Reports.Generate(r.Context(), key, req.PercentagesDTO.toPercentages())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportDTO(rep))
}

// GetReport returns a stored report.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	key, ok := reportKey(w, r)
	if !ok {
		return
	}
	rep, err := h.Reports.Get(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// EditReport updates one or more percentages.
func (h *Handler) EditReport(w http.ResponseWriter, r *http.Request) {
	key, ok := reportKey(w, r)
	if !ok {
		return
	}
	var req EditReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	edit := acupuncture.PercentageEdit{
		Acupuncture:               req.Acupuncture,
		Massage:                   req.Massage,
		Insurance:                 req.Insurance,
		NonAcupuncturistInsurance: req.NonAcupuncturistInsurance,
	}

	rep, changes, err := h.Reports.Edit(r.Context(), key, edit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	changed := changes.Changed
	if changed == nil {
		changed = []string{}
	}
	writeJSON(w, http.StatusOK, EditReportResponse{Report: toReportDTO(rep), Changed: changed})
}

// RefreshReport re-pulls the report's clinical data.
func (h *Handler) RefreshReport(w http.ResponseWriter, r *http.Request) {
	key, ok := reportKey(w, r)
	if !ok {
		return
	}
	rep, err := h.Reports.Refresh(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(rep))
}

// DeleteReport removes a report.
func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	key, ok := reportKey(w, r)
	if !ok {
		return
	}
	if err := h.Reports.Delete(r.Context(), key); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetCommission returns the computed commission of a report.
func (h *Handler) GetCommission(w http.ResponseWriter, r *http.Request) {
	key, ok := reportKey(w, r)
	if !ok {
		return
	}
	c, err := h.Reports.Commission(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCommissionDTO(c))
}

// ExportCommissionCSV streams the commission table as CSV.
func (h *Handler) ExportCommissionCSV(w http.ResponseWriter, r *http.Request) {
	key, ok := reportKey(w, r)
	if !ok {
		return
	}
	c, err := h.Reports.Commission(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeCSVHeader(w, "commission-"+string(key.EmployeeID)+"-"+strconv.Itoa(key.Year)+"-"+strconv.Itoa(int(key.Month)))
	if err := acupuncture.WriteCommissionCSV(w, c); err != nil {
		h.logger.Error("csv export failed", "key", key.String(), "error", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func periodKey(w http.ResponseWriter, r *http.Request) (generic.PeriodKey, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return generic.PeriodKey{}, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return generic.PeriodKey{}, false
	}
	part, err := generic.ParsePart(chi.URLParam(r, "part"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid part (use first or second)", err)
		return generic.PeriodKey{}, false
	}
	key := generic.PeriodKey{
		EmployeeID: generic.EmployeeID(chi.URLParam(r, "employee")),
		Year:       year,
		Month:      time.Month(month),
		Part:       part,
	}
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return generic.PeriodKey{}, false
	}
	return key, true
}

func reportKey(w http.ResponseWriter, r *http.Request) (generic.ReportKey, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return generic.ReportKey{}, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return generic.ReportKey{}, false
	}
	key := generic.ReportKey{
		EmployeeID: generic.EmployeeID(chi.URLParam(r, "employee")),
		Year:       year,
		Month:      time.Month(month),
	}
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report", err)
		return generic.ReportKey{}, false
	}
	return key, true
}

// writeDomainError maps service errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case generic.IsNotFound(err):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, generic.ErrDuplicatePeriod):
		status, code = http.StatusConflict, "duplicate"
	case errors.Is(err, generic.ErrInconsistentRecord):
		status, code = http.StatusUnprocessableEntity, "inconsistent_record"
	case generic.IsClientError(err):
		status, code = http.StatusBadRequest, "invalid"
	case generic.IsRetryable(err):
		status, code = http.StatusServiceUnavailable, "source_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeCSVHeader(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
	w.WriteHeader(http.StatusOK)
}
