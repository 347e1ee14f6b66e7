// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package middleware provides the HTTP middleware shared by the Cadence API.

Components:

  - RequestID: accepts or mints an X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: request counters, latency histograms and the
    in-flight gauge, labelled by chi route pattern
  - PerformanceMonitor: a bounded window of recent request latencies with
    per-route percentiles, reported by /health

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(perf.Middleware)

Route patterns are read after the handler has run, so metrics for
/api/v1/users/{userID}/plays share one series regardless of the user.
*/
package middleware
