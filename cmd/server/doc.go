// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package main is the entry point for the Cadence server.

Cadence keeps a per-user listening history from a music streaming service
and serves analytics over it: hourly patterns, a contribution calendar,
monthly listening hours and a track journey across the service's top-track
time ranges.

# Application Architecture

The server runs under Suture v4 process supervision:

	RootSupervisor ("cadence")
	├── StorageSupervisor ("storage-layer")
	│   └── Cache GC (when the response cache is enabled)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Environment: optional .env file (godotenv)
 2. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 3. Logging: zerolog, JSON or console
 4. Event store: DuckDB by default, SQLite with DATABASE_DRIVER=sqlite
 5. Response cache: BadgerDB, per user, with a TTL
 6. Upstream client: resty with rate limiting and a gobreaker circuit breaker
 7. HTTP router: chi with CORS, httprate and Prometheus middleware

# Configuration

Common environment variables:

	DATABASE_DRIVER=duckdb          # or sqlite
	DATABASE_PATH=/data/cadence.duckdb
	HTTP_PORT=3858
	LOG_LEVEL=info
	LOG_FORMAT=json
	CACHE_ENABLED=true
	CACHE_TTL=5m
	DEFAULT_TIMEZONE=UTC

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests for up to 10 seconds, then the cache and the event store close.
*/
package main
