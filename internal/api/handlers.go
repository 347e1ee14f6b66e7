// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/middleware"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/upstream"
)

// syncLimit is the number of recent plays pulled from upstream before a
// history read.
const syncLimit = 50

// HistoryService is the ingestion and read side of the event store.
type HistoryService interface {
	Ingest(ctx context.Context, userID string, records []any) (models.IngestResult, error)
	IngestRaw(ctx context.Context, userID string, plays []models.RawPlay) (models.IngestResult, error)
	Count(ctx context.Context, userID string) (int, error)
	RecentEntries(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error)
}

// Session is the upstream view of one bearer token.
type Session interface {
	cache.Source
	CurrentUserID(ctx context.Context) (string, error)
	FollowedArtists(ctx context.Context, ids []string) (map[string]bool, error)
}

// SourceFactory opens an upstream session for one bearer token.
type SourceFactory func(token string) Session

// UpstreamSessions adapts an upstream client to a SourceFactory.
func UpstreamSessions(c *upstream.Client) SourceFactory {
	return func(token string) Session {
		return c.Session(token)
	}
}

// errForeignToken means the bearer token belongs to another user than the
// one named in the path.
var errForeignToken = errors.New("access token does not belong to the requested user")

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies wires a Handler.
type Dependencies struct {
	History  HistoryService
	Sessions SourceFactory
	Cache    *cache.Cache
	DB       Pinger
	// BreakerState reports the upstream circuit breaker state for /health.
	BreakerState func() string
	Performance  *middleware.PerformanceMonitor
	Analytics    config.AnalyticsConfig
	Version      string
}

// Handler serves the Cadence HTTP API.
type Handler struct {
	history      HistoryService
	sessions     SourceFactory
	cache        *cache.Cache
	db           Pinger
	breakerState func() string
	perf         *middleware.PerformanceMonitor
	analytics    config.AnalyticsConfig
	version      string
	startTime    time.Time
	now          func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		history:      deps.History,
		sessions:     deps.Sessions,
		cache:        deps.Cache,
		db:           deps.DB,
		breakerState: deps.BreakerState,
		perf:         deps.Performance,
		analytics:    deps.Analytics,
		version:      version,
		startTime:    time.Now(),
		now:          time.Now,
	}
}

// userSession resolves the token's owner upstream and returns its session
// only when the owner is userID. The lookup is never cached, so a revoked
// or expired token fails here even when its responses are still cached.
func (h *Handler) userSession(ctx context.Context, userID, token string) (Session, error) {
	sess := h.sessions(token)
	owner, err := sess.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if owner != userID {
		logging.Ctx(ctx).Warn().
			Str("user_id", userID).
			Msg("Access token belongs to another user")
		return nil, errForeignToken
	}
	return sess, nil
}

// source returns the verified, cached upstream source for one request.
func (h *Handler) source(ctx context.Context, userID, token string) (*cache.CachedSource, error) {
	sess, err := h.userSession(ctx, userID, token)
	if err != nil {
		return nil, err
	}
	return cache.Wrap(h.cache, userID, token, sess), nil
}

// syncRecent pulls the latest plays from upstream and stores them. Store
// failures are logged and swallowed. Upstream failures are returned.
func (h *Handler) syncRecent(ctx context.Context, userID string, source cache.Source, action string) error {
	plays, err := source.RecentlyPlayed(ctx, syncLimit)
	if err != nil {
		return err
	}
	if _, err := h.history.IngestRaw(ctx, userID, plays); err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("action", action).
			Int("plays", len(plays)).
			Msg("Failed to store synced plays")
	}
	return nil
}

var upstreamErrorKinds = map[string]error{
	"circuit_open": upstream.ErrCircuitOpen,
	"rate_limited": upstream.ErrRateLimited,
	"canceled":     context.Canceled,
	"timeout":      context.DeadlineExceeded,
}

// handleUpstreamError writes the 401 and 403 responses for rejected tokens
// and returns true. Any other failure is logged and counted, and the caller
// answers with empty data and an alert.
func handleUpstreamError(ctx context.Context, rw *ResponseWriter, action string, err error) bool {
	switch {
	case errors.Is(err, errForeignToken):
		rw.Forbidden("The access token does not belong to this user")
		return true
	case errors.Is(err, upstream.ErrInsufficientScope):
		rw.ReauthRequired("Additional permissions are required, please reconnect your account")
		return true
	case errors.Is(err, upstream.ErrUnauthorized):
		rw.Unauthorized("The music service rejected the access token")
		return true
	}

	logging.Ctx(ctx).Warn().Err(err).
		Str("action", action).
		Str("error_kind", metrics.ErrorKind(err, upstreamErrorKinds)).
		Msg("Failed to fetch listening data")
	metrics.RecordAggregationFallback(action)
	return false
}
