/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates employees, holidays and schedule
	feed rows, then generates periods / reports through the services so the
	breakdown endpoints have something to show.

AVAILABLE SCENARIOS:

	front-desk:         Receptionist with shifts and a holiday (1.5x hours)
	store-floor:        Store employee, both halves, cash-out view and a
	                    tips-and-cash half with a cheque override
	acupuncture-clinic: Acupuncturist pay plus the monthly commission report

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Save employees and holidays
 3. Upsert schedule / clinical feed rows
 4. Generate periods and reports (pulls from the feed)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "store-floor"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.
	All scenarios use the month before the current one (ScenarioMonth).

SEE ALSO:
  - handlers.go: handler wiring
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/acupuncture"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "front-desk",
		Name:        "Front Desk",
		Description: "Receptionist paid per session plus hourly, with a holiday at 1.5x",
	},
	{
		ID:          "store-floor",
		Name:        "Store Floor",
		Description: "Store employee: per-session pay, cash-out view, tips-and-cash with cheque override",
	},
	{
		ID:          "acupuncture-clinic",
		Name:        "Acupuncture Clinic",
		Description: "Acupuncturist session pay and monthly commission report",
	},
}

// ScenarioMonth is the month demo data is generated for: the month before now.
func ScenarioMonth(now time.Time) (int, time.Month) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return first.Year(), first.Month()
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var loader func(context.Context, int, time.Month) error
	switch req.ScenarioID {
	case "front-desk":
		loader = h.loadFrontDeskScenario
	case "store-floor":
		loader = h.loadStoreFloorScenario
	case "acupuncture-clinic":
		loader = h.loadAcupunctureClinicScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	year, month := ScenarioMonth(time.Now())
	if err := loader(ctx, year, month); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.logger.Info("scenario loaded", "scenario", req.ScenarioID, "year", year, "month", int(month))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"year":     year,
		"month":    int(month),
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFrontDeskScenario(ctx context.Context, year int, month time.Month) error {
	emp := payroll.Employee{
		ID:   "rec-001",
		Name: "Rosa Diaz",
		Role: payroll.RoleReceptionist,
		RateCard: payroll.RateCard{
			BodyRate: dec("10"),
			FeetRate: dec("8"),
			PerHour:  dec("15"),
		},
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	if err := h.Store.SaveHoliday(ctx, generic.Holiday{
		ID: "hol-demo-1", Date: generic.NewTimePoint(year, month, 3), Name: "Demo Holiday",
	}); err != nil {
		return err
	}

	for day := 1; day <= 12; day++ {
		if isWeekend(year, month, day) {
			continue
		}
		start := time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
		end := start.Add(8 * time.Hour)
		rec := payroll.DailyRecord{
			EmployeeID:   emp.ID,
			Date:         generic.NewTimePoint(year, month, day),
			Start:        &start,
			End:          &end,
			BodySessions: decimal.NewFromInt(2),
			FeetSessions: decimal.NewFromInt(1),
		}
		if err := h.Store.PutDailyRecord(ctx, rec); err != nil {
			return err
		}
	}

	_, err := h.Periods.Generate(ctx, generic.PeriodKey{
		EmployeeID: emp.ID, Year: year, Month: month, Part: generic.FirstHalf,
	}, nil)
	return err
}

func (h *Handler) loadStoreFloorScenario(ctx context.Context, year int, month time.Month) error {
	emp := payroll.Employee{
		ID:   "store-001",
		Name: "Kim Lee",
		Role: payroll.RoleStoreEmployee,
		RateCard: payroll.RateCard{
			BodyRate: dec("20"),
			FeetRate: dec("15"),
		},
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}
	if err := h.Store.SaveHoliday(ctx, generic.Holiday{
		ID: "hol-demo-2", Date: generic.NewTimePoint(year, month, 20), Name: "Demo Holiday",
	}); err != nil {
		return err
	}

	for day := 1; day <= generic.DaysInMonth(year, month); day++ {
		if isWeekend(year, month, day) {
			continue
		}
		rec := payroll.DailyRecord{
			EmployeeID:            emp.ID,
			Date:                  generic.NewTimePoint(year, month, day),
			BodySessions:          decimal.NewFromInt(3),
			FeetSessions:          decimal.NewFromInt(2),
			AcupunctureSessions:   decimal.RequireFromString("0.5"),
			RequestedBodySessions: decimal.NewFromInt(1),
			TotalCash:             decimal.NewFromInt(120),
			TotalMachine:          decimal.NewFromInt(80),
			TotalCashOut:          decimal.NewFromInt(30),
			Tips:                  decimal.NewFromInt(25),
			VIPAmount:             decimal.NewFromInt(10),
			AwardAmount:           decimal.NewFromInt(5),
		}
		if err := h.Store.PutDailyRecord(ctx, rec); err != nil {
			return err
		}
	}

	first := generic.PeriodKey{EmployeeID: emp.ID, Year: year, Month: month, Part: generic.FirstHalf}
	if _, err := h.Periods.Generate(ctx, first, nil); err != nil {
		return err
	}

	second := first
	second.Part = generic.SecondHalf
	tipsAndCash := payroll.VariantStoreEmployeeTipsAndCash
	if _, err := h.Periods.Generate(ctx, second, &tipsAndCash); err != nil {
		return err
	}
	_, _, err := h.Periods.Edit(ctx, second, payroll.Edit{ChequeAmount: dec("500")})
	return err
}

func (h *Handler) loadAcupunctureClinicScenario(ctx context.Context, year int, month time.Month) error {
	emp := payroll.Employee{
		ID:   "acu-001",
		Name: "Dr. Mei Wong",
		Role: payroll.RoleAcupuncturist,
		RateCard: payroll.RateCard{
			BodyRate:        dec("20"),
			FeetRate:        dec("15"),
			AcupunctureRate: dec("60"),
		},
	}
	if err := h.Store.SaveEmployee(ctx, emp); err != nil {
		return err
	}

	for day := 1; day <= generic.DaysInMonth(year, month); day++ {
		if isWeekend(year, month, day) {
			continue
		}
		date := generic.NewTimePoint(year, month, day)
		if err := h.Store.PutDailyRecord(ctx, payroll.DailyRecord{
			EmployeeID:          emp.ID,
			Date:                date,
			BodySessions:        decimal.NewFromInt(1),
			AcupunctureSessions: decimal.NewFromInt(4),
		}); err != nil {
			return err
		}
		if err := h.Store.PutClinicalRecord(ctx, acupuncture.ClinicalDailyRecord{
			EmployeeID:                emp.ID,
			Date:                      date,
			Acupuncture:               decimal.NewFromInt(300),
			Massage:                   decimal.NewFromInt(100),
			Insurance:                 decimal.NewFromInt(50),
			NonAcupuncturistInsurance: decimal.NewFromInt(20),
		}); err != nil {
			return err
		}
	}

	for _, part := range []generic.Part{generic.FirstHalf, generic.SecondHalf} {
		if _, err := h.Periods.Generate(ctx, generic.PeriodKey{
			EmployeeID: emp.ID, Year: year, Month: month, Part: part,
		}, nil); err != nil {
			return err
		}
	}

	_, err := h.Reports.Generate(ctx, generic.ReportKey{EmployeeID: emp.ID, Year: year, Month: month}, acupuncture.Percentages{
		Acupuncture:               decimal.RequireFromString("0.4"),
		Massage:                   decimal.RequireFromString("0.3"),
		Insurance:                 decimal.RequireFromString("0.1"),
		NonAcupuncturistInsurance: decimal.RequireFromString("0.05"),
	})
	return err
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func isWeekend(year int, month time.Month, day int) bool {
	wd := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
