// Package httptransport assembles the HTTP surface: routing, middleware,
// health, and metrics. Domain logic stays in the handlers' services.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	coordhandler "fraudlens/internal/coordinator/handler"
	invhandler "fraudlens/internal/investigation/handler"
	reviewhandler "fraudlens/internal/review/handler"
	"fraudlens/pkg/platform/httputil"
	"fraudlens/pkg/platform/middleware/auth"
	"fraudlens/pkg/platform/middleware/ratelimit"
	"fraudlens/pkg/platform/middleware/request"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Validator auth.JWTValidator

	Investigations *invhandler.Handler
	Reviews        *reviewhandler.Handler
	Analysis       *coordhandler.Handler

	// RateLimit guards the authenticated surface; nil skips limiting.
	RateLimit *ratelimit.Middleware

	// HealthChecks maps a dependency name to its probe.
	HealthChecks map[string]HealthCheck
}

// NewRouter wires all public endpoints. The reviewer-token exchange and the
// operational endpoints are public; everything else requires a reviewer JWT.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Middleware)

	r.Get("/healthz", healthHandler(d.Logger, d.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	d.Reviews.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireReviewer(d.Validator, d.Logger))

		r.Group(func(r chi.Router) {
			if d.RateLimit != nil {
				r.Use(d.RateLimit.Limit(ratelimit.ClassDefault))
			}
			d.Investigations.Register(r)
		})

		// Analysis fans out to every agent, so it carries a tighter budget.
		r.Group(func(r chi.Router) {
			if d.RateLimit != nil {
				r.Use(d.RateLimit.Limit(ratelimit.ClassAnalysis))
			}
			d.Analysis.Register(r)
		})
	})

	return r
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		// Probes run concurrently so one slow dependency does not eat the
		// whole budget; every probe still reports individually.
		var (
			mu   sync.Mutex
			g    errgroup.Group
			deps = make(map[string]string, len(checks))
		)
		status := "ok"
		code := http.StatusOK
		for name, check := range checks {
			g.Go(func() error {
				err := check(ctx)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
					deps[name] = "unavailable"
					status = "degraded"
					code = http.StatusServiceUnavailable
					return nil
				}
				deps[name] = "ok"
				return nil
			})
		}
		_ = g.Wait()

		httputil.WriteJSON(w, code, map[string]any{
			"status":       status,
			"dependencies": deps,
		})
	}
}
