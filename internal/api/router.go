// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cadence/internal/middleware"
)

// Router binds the Handler to chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. A nil mw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// Global middleware, outermost first
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	if h.perf != nil {
		r.Use(h.perf.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).MethodNotAllowed()
	})

	r.With(APISecurityHeaders()).Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/users/{userID}", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(UserContext())
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Post("/plays", h.IngestPlays)
		r.Get("/plays/count", h.CountPlays)
		r.Get("/plays/recent", h.RecentPlays)

		r.Get("/patterns/hourly", h.HourlyPatterns)
		r.Get("/patterns/calendar", h.CalendarPatterns)
		r.Get("/patterns/monthly", h.MonthlyPatterns)

		r.Get("/journey", h.TrackJourney)
		r.Get("/top-tracks", h.TopTracksForRange)
		r.Get("/top-artists", h.TopArtistsByRange)

		r.Delete("/cache", h.ClearCache)
	})

	return r
}
