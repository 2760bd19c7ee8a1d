// Package server implements the HTTP transport layer for the ridecache service.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	ridecache "github.com/eugener/ridecache/internal"
	"github.com/eugener/ridecache/internal/app"
	"github.com/eugener/ridecache/internal/storage"
	"github.com/eugener/ridecache/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Cache          *app.CacheAside
	Store          storage.Store
	ReadyCheck     ReadyChecker       // nil = always ready (for tests)
	Metrics        *telemetry.Metrics // nil = no request metrics
	MetricsHandler http.Handler       // nil = no /metrics endpoint
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	// Global middleware
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// System endpoints
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleList(ridecache.KindUser))
			r.Post("/", s.handleCreateUser)
			r.Get("/{id}", s.handleItem(ridecache.KindUser))
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})
		r.Route("/passengers", func(r chi.Router) {
			r.Get("/", s.handleList(ridecache.KindPassenger))
			r.Post("/", s.handleCreatePassenger)
			r.Get("/{id}", s.handleItem(ridecache.KindPassenger))
			r.Put("/{id}", s.handleUpdatePassenger)
			r.Delete("/{id}", s.handleDeletePassenger)
		})
		r.Route("/riders", func(r chi.Router) {
			r.Get("/", s.handleList(ridecache.KindRider))
			r.Post("/", s.handleCreateRider)
			r.Get("/{id}", s.handleItem(ridecache.KindRider))
			r.Put("/{id}", s.handleUpdateRider)
			r.Delete("/{id}", s.handleDeleteRider)
		})
		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.handleCacheStats)
			r.Post("/warm", s.handleCacheWarm)
			r.Get("/events", s.handleCacheEvents)
			r.Delete("/", s.handleCachePurge)
		})
	})

	return r
}

type server struct {
	deps Deps
}
