// Package api exposes the comparison engines and project operations over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/compare"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/extract"
)

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// Extractor enables document upload. Without it the route answers 501.
	Extractor *extract.Extractor
	// Timeout bounds each request. Zero means no limit.
	Timeout time.Duration
}

// Server holds the handlers' dependencies.
type Server struct {
	svc       *compare.Service
	extractor *extract.Extractor
}

// NewRouter returns the HTTP handler for svc.
func NewRouter(svc *compare.Service, opts Options) http.Handler {
	s := &Server{svc: svc, extractor: opts.Extractor}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(api chi.Router) {
		api.Post("/recalculate", s.recalculate)
		api.Post("/rescale", s.rescale)
		api.Post("/playbook/apply", s.applyPlaybookRules)
		api.Post("/playbook/match", s.matchCondition)
		api.Post("/audit/offsets", s.findOffsets)
		api.Post("/audit/log", s.initialAuditLog)

		api.Get("/rules", s.listRules)
		api.Post("/rules", s.saveRule)

		api.Post("/projects", s.createProject)
		api.Route("/projects/{projectID}", func(p chi.Router) {
			p.Get("/", s.latest)
			p.Get("/audit", s.auditLog)
			p.Get("/export", s.export)
			p.Post("/documents", s.uploadDocuments)
			p.Post("/cells", s.editCell)
			p.Post("/discounts", s.setDiscount)
			p.Post("/hidden", s.setHidden)
			p.Post("/headcount", s.setHeadcount)
			p.Post("/playbook", s.applyProjectPlaybook)
		})
	})

	return r
}
