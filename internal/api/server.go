// Package api exposes the underwriting pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/underwriter/internal/cache"
	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/monitoring"
	"github.com/sells-group/underwriter/internal/store"
	"github.com/sells-group/underwriter/internal/valuation"
	"github.com/sells-group/underwriter/internal/workflow"
)

// maxBodyBytes caps inbound JSON payloads.
const maxBodyBytes = 1 << 20

// WorkflowRunner runs the full three-phase pipeline.
type WorkflowRunner interface {
	Run(ctx context.Context, req model.WorkflowRequest) (*model.WorkflowResult, error)
}

// SnapshotCollector produces monitoring snapshots.
type SnapshotCollector interface {
	Collect(ctx context.Context, lookbackHours int) (*monitoring.Snapshot, error)
}

// Deps holds the collaborators behind each route. Only Scorer, Committee, and
// Workflow are required; the remaining routes answer 503 when their
// dependency is absent.
type Deps struct {
	Scorer    workflow.Scorer
	Committee workflow.Deliberator
	Workflow  WorkflowRunner

	// Valuation may be nil, in which case /api/valuate synthesizes.
	Valuation valuation.Client

	Reviews *cache.ReviewCache
	Tokens  *cache.TokenStore
	Runs    store.Store
	Stats   SnapshotCollector
	Metrics *monitoring.Metrics

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer

	CORSOrigins        []string
	StatsLookbackHours int
}

type server struct {
	Deps
}

// NewRouter builds the HTTP handler for all routes.
func NewRouter(d Deps) http.Handler {
	s := &server{Deps: d}

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(api chi.Router) {
		api.Post("/credit-review", s.creditReview)
		api.Post("/committee-review", s.committeeReview)
		api.Post("/workflow", s.runWorkflow)
		api.Post("/valuate", s.valuate)

		api.Get("/reviews", s.listReviews)
		api.Get("/reviews/{id}", s.getReview)
		api.Get("/stats", s.stats)

		api.Post("/session-tokens", s.issueToken)
		api.Get("/session-tokens/{token}", s.validateToken)
		api.Delete("/session-tokens/{token}", s.consumeToken)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
