/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to
  handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/datasets/*   Export upload and role bindings
  /api/reconcile    Batch reconciliation
  /api/monitor/*    Live triage board and CSV export
  /api/rules/*      Rule table management
  /api/claims/*     Per-claim portal detail
  /api/notify/*     Email digests
  /api/runs         Run history
  /api/activity     Rule audit trail

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/recond:  Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Dataset routes
		r.Route("/datasets", func(r chi.Router) {
			r.Post("/{side}", h.UploadDataset)
			r.Get("/{side}/roles", h.GetRoles)
			r.Put("/{side}/roles", h.PutRoles)
		})

		// Reconciliation
		r.Post("/reconcile", h.Reconcile)
		r.Get("/runs", h.ListRuns)

		// Live monitor
		r.Route("/monitor", func(r chi.Router) {
			r.Get("/", h.Monitor)
			r.Get("/export", h.MonitorExport)
		})

		// Rule table routes
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.GetRules)
			r.Get("/export", h.ExportRules)
			r.Post("/import", h.ImportRules)
			r.Post("/reset", h.ResetRules)
			r.Post("/save", h.SaveRules)
			r.Get("/sets", h.ListRuleSets)
			r.Post("/sets/{name}/load", h.LoadRuleSet)
			r.Put("/{status}", h.PutRule)
			r.Post("/{status}/rename", h.RenameRule)
			r.Delete("/{status}", h.DeleteRule)
		})

		r.Get("/activity", h.ListActivity)

		// Claim detail scraping
		r.Get("/claims/{id}/detail", h.ClaimDetail)

		// Email digests
		r.Post("/notify/digest", h.SendDigest)

		// Demo data
		r.Post("/fixtures/load", h.LoadFixtures)
	})

	return r
}
