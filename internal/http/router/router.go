package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hos-route-coordinator/internal/http/handlers"
	mw "hos-route-coordinator/internal/http/middleware"
	"hos-route-coordinator/internal/http/middleware/ratelimit"
	"hos-route-coordinator/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	logger logx.Logger,
	base *handlers.Handlers,
	plans *handlers.PlanHandler,
	alerts *handlers.AlertHandler,
	limiter *ratelimit.Middleware,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(mw.Observability(logger))
	if limiter != nil {
		r.Use(limiter.Handler())
	}

	r.Get("/ping", base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/plans", func(r chi.Router) {
		r.Post("/", plans.Create)
		r.Get("/", plans.ListActive)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", plans.Get)
			r.Get("/versions/{version}", plans.GetVersion)
			r.Post("/activate", plans.Activate)
			r.Post("/complete", plans.Complete)
			r.Post("/cancel", plans.Cancel)
			r.Post("/triggers", plans.ApplyTriggers)
		})
	})

	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", alerts.List)
		r.Post("/{id}/acknowledge", alerts.Acknowledge)
		r.Post("/{id}/snooze", alerts.Snooze)
		r.Post("/{id}/resolve", alerts.Resolve)
	})

	r.NotFound(http.HandlerFunc(base.NotFound))

	return r
}
