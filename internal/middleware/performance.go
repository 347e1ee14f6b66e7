// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package middleware

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// DefaultSlowRequestThreshold is the latency above which a request is logged.
const DefaultSlowRequestThreshold = time.Second

// RequestSample is one observed request.
type RequestSample struct {
	Route      string
	Method     string
	Duration   time.Duration
	StatusCode int
	At         time.Time
}

// RouteStats aggregates the samples of one method and route.
type RouteStats struct {
	Route        string  `json:"route"`
	RequestCount int     `json:"request_count"`
	ErrorCount   int     `json:"error_count"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        int64   `json:"p50_ms"`
	P95MS        int64   `json:"p95_ms"`
	P99MS        int64   `json:"p99_ms"`
	MaxMS        int64   `json:"max_ms"`
}

// PerformanceMonitor keeps the most recent requests in a fixed-size ring.
type PerformanceMonitor struct {
	mu            sync.RWMutex
	samples       []RequestSample
	next          int
	full          bool
	slowThreshold time.Duration
}

// NewPerformanceMonitor returns a monitor holding up to capacity samples.
func NewPerformanceMonitor(capacity int, slowThreshold time.Duration) *PerformanceMonitor {
	if capacity <= 0 {
		capacity = 1000
	}
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowRequestThreshold
	}
	return &PerformanceMonitor{
		samples:       make([]RequestSample, capacity),
		slowThreshold: slowThreshold,
	}
}

// Record adds a sample, overwriting the oldest once the ring is full.
func (pm *PerformanceMonitor) Record(s RequestSample) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.samples[pm.next] = s
	pm.next++
	if pm.next == len(pm.samples) {
		pm.next = 0
		pm.full = true
	}
}

// Len returns the number of samples held.
func (pm *PerformanceMonitor) Len() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if pm.full {
		return len(pm.samples)
	}
	return pm.next
}

// Stats returns per-route statistics, busiest route first.
func (pm *PerformanceMonitor) Stats() []RouteStats {
	pm.mu.RLock()
	window := pm.snapshot()
	pm.mu.RUnlock()

	durations := make(map[string][]int64)
	errs := make(map[string]int)
	for _, s := range window {
		key := s.Method + " " + s.Route
		durations[key] = append(durations[key], s.Duration.Milliseconds())
		if s.StatusCode >= http.StatusInternalServerError {
			errs[key]++
		}
	}

	stats := make([]RouteStats, 0, len(durations))
	for key, ds := range durations {
		slices.Sort(ds)
		var sum int64
		for _, d := range ds {
			sum += d
		}
		stats = append(stats, RouteStats{
			Route:        key,
			RequestCount: len(ds),
			ErrorCount:   errs[key],
			AvgMS:        float64(sum) / float64(len(ds)),
			P50MS:        percentile(ds, 0.50),
			P95MS:        percentile(ds, 0.95),
			P99MS:        percentile(ds, 0.99),
			MaxMS:        ds[len(ds)-1],
		})
	}

	slices.SortFunc(stats, func(a, b RouteStats) int {
		if a.RequestCount != b.RequestCount {
			return b.RequestCount - a.RequestCount
		}
		if a.Route < b.Route {
			return -1
		}
		if a.Route > b.Route {
			return 1
		}
		return 0
	})
	return stats
}

// snapshot copies the held samples oldest first. Callers hold mu.
func (pm *PerformanceMonitor) snapshot() []RequestSample {
	if !pm.full {
		return slices.Clone(pm.samples[:pm.next])
	}
	out := make([]RequestSample, 0, len(pm.samples))
	out = append(out, pm.samples[pm.next:]...)
	return append(out, pm.samples[:pm.next]...)
}

// Middleware records each request and logs the slow ones.
func (pm *PerformanceMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		elapsed := time.Since(start)
		route := routePattern(r)
		pm.Record(RequestSample{
			Route:      route,
			Method:     r.Method,
			Duration:   elapsed,
			StatusCode: wrapper.statusCode,
			At:         start,
		})

		if elapsed > pm.slowThreshold {
			logging.Ctx(r.Context()).Warn().
				Str("method", r.Method).
				Str("route", route).
				Int64("duration_ms", elapsed.Milliseconds()).
				Int64("threshold_ms", pm.slowThreshold.Milliseconds()).
				Msg("Slow request detected")
		}
	})
}

// percentile reads the nearest-rank value from an ascending slice.
func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
