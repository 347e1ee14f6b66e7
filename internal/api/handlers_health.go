// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/middleware"
)

const healthPingTimeout = 2 * time.Second

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string                  `json:"status"`
	Version           string                  `json:"version"`
	DatabaseConnected bool                    `json:"database_connected"`
	CircuitBreaker    string                  `json:"circuit_breaker,omitempty"`
	Cache             *CacheHealth            `json:"cache,omitempty"`
	Uptime            float64                 `json:"uptime_seconds"`
	Routes            []middleware.RouteStats `json:"routes,omitempty"`
}

// CacheHealth summarises the response cache counters.
type CacheHealth struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// CacheCleared is the body of DELETE cache.
type CacheCleared struct {
	UserID  string `json:"user_id"`
	Removed int    `json:"removed"`
}

// Health reports store connectivity, breaker state and cache counters. A
// failed ping reports "degraded" with status 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := false
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		err := h.db.Ping(ctx)
		cancel()
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check database ping failed")
		}
		dbConnected = err == nil
	}

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	health := HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.breakerState != nil {
		health.CircuitBreaker = h.breakerState()
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		health.Cache = &CacheHealth{Hits: stats.Hits, Misses: stats.Misses, HitRate: stats.HitRate()}
	}
	if h.perf != nil {
		health.Routes = h.perf.Stats()
	}

	rw.Success(health)
}

// ClearCache drops every cached upstream response of the listener.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}
	if _, err := h.userSession(ctx, userID, token); err != nil {
		if !handleUpstreamError(ctx, rw, "clear_cache", err) {
			rw.ServiceUnavailable("Unable to verify the access token, please try again later")
		}
		return
	}

	removed, err := h.cache.ClearUser(userID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to clear response cache")
		rw.InternalError("Failed to clear cache")
		return
	}

	logging.Ctx(ctx).Info().Int("removed", removed).Msg("Response cache cleared")
	rw.Success(CacheCleared{UserID: userID, Removed: removed})
}
