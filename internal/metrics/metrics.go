// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package metrics holds the Prometheus collectors for Cadence and small
// Record* helpers so call sites stay one line long.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event store

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_db_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "driver"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_db_query_errors_total",
			Help: "Total number of failed event store queries",
		},
		[]string{"operation", "driver"},
	)

	// Ingestion

	IngestBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_ingest_batches_total",
			Help: "Ingestion batches by outcome (written, empty, failed)",
		},
		[]string{"outcome"},
	)

	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_ingest_records_total",
			Help: "Raw play records seen by ingestion, by disposition (inserted, duplicate, malformed)",
		},
		[]string{"disposition"},
	)

	// Aggregation

	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_aggregation_duration_seconds",
			Help:    "Time spent building an analytics summary",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	AggregationSampleSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_aggregation_sample_size",
			Help:    "Number of plays feeding an analytics summary",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"kind"},
	)

	AggregationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_aggregation_fallbacks_total",
			Help: "Summaries replaced by an empty result after an upstream failure",
		},
		[]string{"kind"},
	)

	// Upstream client

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_upstream_requests_total",
			Help: "Upstream Web API requests by endpoint and status class",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_upstream_request_duration_seconds",
			Help:    "Upstream Web API request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cadence_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_circuit_breaker_requests_total",
			Help: "Requests through the circuit breaker (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Upstream response cache

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_cache_lookups_total",
			Help: "Upstream response cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	// HTTP API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cadence_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cadence_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cadence_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordDBQuery records one event store statement.
func RecordDBQuery(operation, driver string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, driver).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, driver).Inc()
	}
}

// RecordIngest records the disposition of one ingestion batch.
// duplicates is accepted minus inserted; the store does not report it
// directly.
func RecordIngest(received, accepted int, inserted int64, err error) {
	malformed := received - accepted
	if malformed > 0 {
		IngestRecords.WithLabelValues("malformed").Add(float64(malformed))
	}
	switch {
	case err != nil:
		IngestBatches.WithLabelValues("failed").Inc()
	case accepted == 0:
		IngestBatches.WithLabelValues("empty").Inc()
	default:
		IngestBatches.WithLabelValues("written").Inc()
		IngestRecords.WithLabelValues("inserted").Add(float64(inserted))
		if dup := int64(accepted) - inserted; dup > 0 {
			IngestRecords.WithLabelValues("duplicate").Add(float64(dup))
		}
	}
}

// RecordAggregation records one summary computation.
func RecordAggregation(kind string, sampleSize int, duration time.Duration) {
	AggregationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	AggregationSampleSize.WithLabelValues(kind).Observe(float64(sampleSize))
}

// RecordAggregationFallback records a summary replaced by its empty form.
func RecordAggregationFallback(kind string) {
	AggregationFallbacks.WithLabelValues(kind).Inc()
}

// RecordUpstreamRequest records one upstream HTTP exchange. A zero status
// means the request never produced a response.
func RecordUpstreamRequest(endpoint string, status int, duration time.Duration) {
	UpstreamRequests.WithLabelValues(endpoint, statusClass(status)).Inc()
	UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit, miss or error.
func RecordCacheLookup(hit bool, err error) {
	switch {
	case err != nil:
		CacheLookups.WithLabelValues("error").Inc()
	case hit:
		CacheLookups.WithLabelValues("hit").Inc()
	default:
		CacheLookups.WithLabelValues("miss").Inc()
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// ErrorKind is a coarse label for an error, used where the raw message
// would explode label cardinality.
func ErrorKind(err error, kinds map[string]error) string {
	if err == nil {
		return "none"
	}
	for name, target := range kinds {
		if errors.Is(err, target) {
			return name
		}
	}
	return "other"
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return strconv.Itoa(status)
	default:
		return "5xx"
	}
}
