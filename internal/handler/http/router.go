package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/health"
	"github.com/xrickbrizz/FCEFyN-Planner-sub001/pkg/middleware"

	"github.com/xrickbrizz/FCEFyN-Planner-sub001/internal/service"
)

// RouterConfig bundles the dependencies of the HTTP router.
type RouterConfig struct {
	ReviewService  *service.ReviewService
	StatsService   *service.StatsService
	HealthHandler  *health.Handler
	TokenValidator middleware.TokenValidator
	Logger         *slog.Logger
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all planner review routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("planner-reviews"))
	r.Use(middleware.Tracing("planner-reviews"))
	r.Use(middleware.RequestLogger(cfg.Logger))

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)

	reviewHandler := NewReviewHandler(cfg.ReviewService, cfg.Logger)
	statsHandler := NewStatsHandler(cfg.StatsService, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Public read endpoints, cacheable for a short window.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(30))

			r.Get("/professors/{professorID}/stats", statsHandler.Get)
			r.Get("/professors/{professorID}/reviews", reviewHandler.ListByProfessor)
		})

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.TokenValidator))

			r.Post("/reviews", reviewHandler.Submit)
			r.Delete("/reviews/{professorID}", reviewHandler.Delete)
			r.Get("/users/me/reviews", reviewHandler.ListMine)
		})
	})

	return r
}
