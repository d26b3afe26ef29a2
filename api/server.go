/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: Structured request logging (httplog, ECS schema)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for frontend

ROUTE GROUPS:
  /api/employees/*   Employee directory
  /api/holidays/*    Holiday calendar
  /api/schedule/*    Schedule feed ingest
  /api/periods/*     Payroll period lifecycle and views
  /api/payroll/*     Month batch
  /api/reports/*     Acupuncture report lifecycle and commission
  /api/scenarios/*   Demo scenarios
  /healthz           Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Logger receives one record per request. Nil disables request logging.
	Logger *slog.Logger
	// LogLevel is the level successful requests are logged at.
	LogLevel slog.Level
	// AllowedOrigins for CORS.
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Post("/daily", h.IngestDailyRecords)
			r.Post("/clinical", h.IngestClinicalRecords)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Post("/", h.GeneratePeriod)
			r.Route("/{employee}/{year}/{month}/{part}", func(r chi.Router) {
				r.Get("/", h.GetPeriod)
				r.Patch("/", h.EditPeriod)
				r.Delete("/", h.DeletePeriod)
				r.Post("/refresh", h.RefreshPeriod)
				r.Get("/breakdown", h.GetBreakdown)
				r.Get("/cashout", h.GetCashOut)
				r.Get("/export.csv", h.ExportPeriodCSV)
			})
		})

		r.Get("/payroll/{year}/{month}/batch", h.MonthBatch)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", h.GenerateReport)
			r.Route("/{employee}/{year}/{month}", func(r chi.Router) {
				r.Get("/", h.GetReport)
				r.Patch("/", h.EditReport)
				r.Delete("/", h.DeleteReport)
				r.Post("/refresh", h.RefreshReport)
				r.Get("/commission", h.GetCommission)
				r.Get("/commission.csv", h.ExportCommissionCSV)
			})
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
