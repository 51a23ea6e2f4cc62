// Package httpapi exposes the cache, replay and page cache over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/kvops/auth"
	"github.com/jonwraymond/kvops/cache"
	"github.com/jonwraymond/kvops/health"
	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/webcache"
)

// Scopes required by the API when authentication is enabled.
const (
	ScopeRead  = "kv:read"
	ScopeWrite = "kv:write"
)

// PageCache is the part of webcache.Cache the API uses.
type PageCache interface {
	Get(ctx context.Context, url string) (string, error)
	AccessCount(ctx context.Context, url string) (int64, error)
}

// Deps holds the server's collaborators.
type Deps struct {
	Cache    *cache.Cache
	Pages    PageCache           // nil = /v1/pages not mounted
	Health   *health.Aggregator  // nil = readiness always OK
	Verifier *auth.Verifier      // nil = no authentication
	Gatherer prometheus.Gatherer // nil = /metrics not mounted
	Logger   observe.Logger      // nil = no request logging
}

// New returns an http.Handler with every route and middleware wired.
func New(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = observe.NopLogger()
	}
	if deps.Health == nil {
		deps.Health = health.NewAggregator()
	}
	s := &server{deps: deps}

	r := chi.NewRouter()
	r.Use(s.recovery)
	r.Use(requestID)
	r.Use(s.logging)

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(deps.Health))
	r.Get("/health", health.DetailedHandler(deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(deps.Verifier))

		r.With(auth.RequireScope(ScopeWrite)).Post("/values", s.handleStore)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(ScopeRead))
			r.Get("/values/{key}", s.handleGet)
			r.Get("/replay/{op}", s.handleReplay)
			if deps.Pages != nil {
				r.Get("/pages", s.handlePage)
			}
		})
	})

	return r
}

type server struct {
	deps Deps
}

var _ PageCache = (*webcache.Cache)(nil)
