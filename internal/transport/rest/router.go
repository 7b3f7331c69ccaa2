package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/awardly/compliance-engine/internal/auth"
	"github.com/awardly/compliance-engine/internal/award"
	"github.com/awardly/compliance-engine/internal/employee"
	"github.com/awardly/compliance-engine/internal/payroll"
	"github.com/awardly/compliance-engine/internal/roster"
	"github.com/awardly/compliance-engine/internal/transport/middleware"
	"github.com/awardly/compliance-engine/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, awardHandler *award.Handler, employeeHandler *employee.Handler, rosterHandler *roster.Handler, payrollHandler *payroll.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Award catalog routes (read-only reference data)
				if awardHandler != nil {
					pr.Route("/awards", func(ar chi.Router) {
						ar.Get("/", awardHandler.ListAwards)                           // GET /awards
						ar.Get("/{awardID}", awardHandler.GetAward)                    // GET /awards/:id
						ar.Get("/{awardID}/levels", awardHandler.ListLevels)           // GET /awards/:id/levels
						ar.Get("/{awardID}/levels/resolve", awardHandler.ResolveRate)  // GET /awards/:id/levels/resolve
					})
				}

				// Employee routes
				if employeeHandler != nil {
					pr.Route("/employees", func(er chi.Router) {
						er.Get("/", employeeHandler.ListEmployees)            // GET /employees
						er.Put("/", employeeHandler.UpsertEmployee)           // PUT /employees
						er.Get("/{employeeID}", employeeHandler.GetEmployee)  // GET /employees/:id
					})
				}

				// Roster validation routes
				if rosterHandler != nil {
					pr.Post("/rosters", rosterHandler.UploadRoster)                                        // POST /rosters
					pr.Get("/rosters/{rosterID}/validations/latest", rosterHandler.GetLatestValidation)    // GET /rosters/:id/validations/latest
					pr.Route("/roster-validations", func(rr chi.Router) {
						rr.Post("/", rosterHandler.StartValidation)                   // POST /roster-validations
						rr.Get("/{validationID}", rosterHandler.GetValidation)        // GET /roster-validations/:id
						rr.Post("/{validationID}/retry", rosterHandler.RetryValidation)
					})
					pr.Route("/roster-issues", func(ir chi.Router) {
						ir.Patch("/{issueID}/resolve", rosterHandler.ResolveIssue)
						ir.Patch("/{issueID}/waive", rosterHandler.WaiveIssue)
					})
				}

				// Payroll validation routes
				if payrollHandler != nil {
					pr.Post("/payslips", payrollHandler.UploadPayslips)                                      // POST /payslips
					pr.Get("/payroll-batches/{batchID}/validations/latest", payrollHandler.GetLatestValidation)
					pr.Route("/payroll-validations", func(vr chi.Router) {
						vr.Post("/", payrollHandler.StartValidation)                  // POST /payroll-validations
						vr.Get("/{validationID}", payrollHandler.GetValidation)       // GET /payroll-validations/:id
						vr.Post("/{validationID}/retry", payrollHandler.RetryValidation)
					})
					pr.Patch("/payroll-issues/{issueID}/resolve", payrollHandler.ResolveIssue)
				}
			})
		}
	})
}
