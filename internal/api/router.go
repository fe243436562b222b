// Package api serves the analysis and report endpoints over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/planpilot/internal/analysis"
	"github.com/sells-group/planpilot/internal/model"
	"github.com/sells-group/planpilot/internal/monitoring"
	"github.com/sells-group/planpilot/pkg/pvgis"
)

// Analyzer runs analyses.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error)
}

// ReportGenerator produces narrative reports.
type ReportGenerator interface {
	Generate(ctx context.Context, postcode string) (*model.ReportResponse, error)
}

// Deps are the collaborators the router serves. Reports may be nil when no
// report writer is configured and Solar may be nil when the PVGIS proxy is
// off; those routes then answer 503.
type Deps struct {
	Analyzer    Analyzer
	Reports     ReportGenerator
	Solar       pvgis.Client
	ModelLoaded func() bool
	DBHealth    func(ctx context.Context) bool
	Metrics     *monitoring.Metrics
	CORSOrigins []string
	JWTSecret   string
}

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	h := &handlers{deps: d}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(requestLogger)
	r.Use(instrument(d.Metrics))

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", h.health)

		api.Group(func(authed chi.Router) {
			authed.Use(requireJWT([]byte(d.JWTSecret)))
			authed.Get("/analyze", h.analyzeQuery)
			authed.Post("/analyze", h.analyzeBody)
			authed.Get("/report", h.report)
			authed.Get("/pvgis", h.solarEstimate)
		})
	})

	return r
}
