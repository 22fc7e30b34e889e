package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/runforge/arc/common/logger"
)

const routerDefaultTimeout = 60 * time.Second

// NewRouter wires the six run-lifecycle routes spec.md §6 exposes (plus
// nothing else: route shapes beyond these are a Non-goal). Grounded on the
// teacher's server/api/rest/server router factories (chi middleware stack,
// a permissive-for-local-dev CORS policy since this module owns no
// identity/tenancy layer to scope it against).
func NewRouter(run *RunAPI, logFactory logger.LogFactory) chi.Router {
	log := logFactory("api.router")
	middleware.DefaultLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log, NoColor: true})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Compress(6))
	r.Use(middleware.Timeout(routerDefaultTimeout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Post("/runs", run.Submit)
		r.Get("/runs", run.ListJobs)
		r.Route("/runs/{run_id}", func(r chi.Router) {
			r.Get("/", run.GetJob)
			r.Get("/state", run.GetState)
			r.Get("/manifest", run.GetManifest)
			r.Get("/artifacts/{artifact_name}", run.GetArtifact)
		})
	})
	return r
}
