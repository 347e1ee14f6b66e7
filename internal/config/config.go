// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package config loads Cadence configuration with Koanf v2.
//
// Loading order (later layers win):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH, config.yaml, /etc/cadence/config.yaml)
//  3. Environment variables, mapped through envTransformFunc
//
// cmd/server loads a .env file with godotenv before calling Load, so values
// placed there arrive through layer 3.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Cache     CacheConfig     `koanf:"cache"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// DatabaseConfig selects and tunes the event store engine.
type DatabaseConfig struct {
	// Driver is duckdb (default) or sqlite.
	Driver    string `koanf:"driver" validate:"oneof=duckdb sqlite"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = NumCPU
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port" validate:"gte=1,lte=65535"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	Environment string        `koanf:"environment" validate:"oneof=development staging production"`
}

// SecurityConfig holds transport protection settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds zerolog settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// UpstreamConfig configures the music service Web API client.
type UpstreamConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"gte=1"`
	// PageSize is the per-request item cap of the recently-played endpoint.
	PageSize int `koanf:"page_size" validate:"gte=1,lte=50"`

	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gte=0,lte=1"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
}

// CacheConfig configures the per-user upstream response cache (BadgerDB).
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Path     string        `koanf:"path"`
	InMemory bool          `koanf:"in_memory"`
	TTL      time.Duration `koanf:"ttl"`
}

// AnalyticsConfig holds aggregation defaults.
type AnalyticsConfig struct {
	// DefaultTimezone is used when a request carries no timezone.
	DefaultTimezone string `koanf:"default_timezone" validate:"required,iana_tz"`
	CalendarWeeks   int    `koanf:"calendar_weeks" validate:"gte=1,lte=53"`

	JourneyTopCut      int `koanf:"journey_top_cut" validate:"gte=1"`
	JourneyWindowSize  int `koanf:"journey_window_size" validate:"gte=1,lte=50"`
	JourneyMaxPerBadge int `koanf:"journey_max_per_badge" validate:"gte=1"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}
