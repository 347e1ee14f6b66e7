// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/history"
	"github.com/tomtom215/cadence/internal/middleware"
	"github.com/tomtom215/cadence/internal/models"
)

const testToken = "test-access-token"

// fakeSource stands in for an upstream session. The token always belongs
// to profileID.
type fakeSource struct {
	mu          sync.Mutex
	profileID   string
	plays       []models.RawPlay
	top         map[models.TimeRange][]models.TrackRef
	artists     map[models.TimeRange][]models.ArtistRef
	followed    map[string]bool
	err         error
	followErr   error
	recentCalls int
	topCalls    int
	artistCalls int
	meCalls     int
	tokens      []string
}

func (f *fakeSource) CurrentUserID(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.profileID, nil
}

func (f *fakeSource) TopArtists(_ context.Context, r models.TimeRange, limit int) ([]models.ArtistRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artistCalls++
	if f.err != nil {
		return nil, f.err
	}
	artists := f.artists[r]
	if limit > len(artists) {
		limit = len(artists)
	}
	return append([]models.ArtistRef(nil), artists[:limit]...), nil
}

func (f *fakeSource) FollowedArtists(_ context.Context, ids []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.followErr != nil {
		return nil, f.followErr
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = f.followed[id]
	}
	return out, nil
}

func (f *fakeSource) RecentlyPlayed(_ context.Context, limit int) ([]models.RawPlay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recentCalls++
	if f.err != nil {
		return nil, f.err
	}
	if limit > len(f.plays) {
		limit = len(f.plays)
	}
	return append([]models.RawPlay(nil), f.plays[:limit]...), nil
}

func (f *fakeSource) TopTracks(_ context.Context, r models.TimeRange, limit int) ([]models.TrackRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topCalls++
	if f.err != nil {
		return nil, f.err
	}
	tracks := f.top[r]
	if limit > len(tracks) {
		limit = len(tracks)
	}
	return append([]models.TrackRef(nil), tracks[:limit]...), nil
}

func (f *fakeSource) calls() (recent, top int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recentCalls, f.topCalls
}

type testEnv struct {
	db      *database.DB
	history *history.Service
	source  *fakeSource
	cache   *cache.Cache
	handler *Handler
	server  http.Handler
}

type envOption func(*envConfig)

type envConfig struct {
	withCache bool
	mw        *ChiMiddlewareConfig
	now       time.Time
}

func withCache() envOption {
	return func(c *envConfig) { c.withCache = true }
}

func withMiddleware(mw *ChiMiddlewareConfig) envOption {
	return func(c *envConfig) { c.mw = mw }
}

func withNow(now time.Time) envOption {
	return func(c *envConfig) { c.now = now }
}

func testAnalyticsConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		DefaultTimezone:    "UTC",
		CalendarWeeks:      12,
		JourneyTopCut:      10,
		JourneyWindowSize:  50,
		JourneyMaxPerBadge: 5,
	}
}

// setupTestEnv wires the full router over an in-memory SQLite store and a
// fake upstream.
func setupTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := database.New(&config.DatabaseConfig{Driver: "sqlite"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	var c *cache.Cache
	if cfg.withCache {
		c, err = cache.Open(&config.CacheConfig{Enabled: true, InMemory: true, TTL: time.Minute})
		if err != nil {
			t.Fatalf("Failed to open cache: %v", err)
		}
		t.Cleanup(func() { _ = c.Close() })
	}

	src := &fakeSource{
		profileID: "u1",
		top:       map[models.TimeRange][]models.TrackRef{},
		artists:   map[models.TimeRange][]models.ArtistRef{},
	}
	svc := history.NewService(db)

	h := NewHandler(Dependencies{
		History: svc,
		Sessions: func(token string) Session {
			src.mu.Lock()
			src.tokens = append(src.tokens, token)
			src.mu.Unlock()
			return src
		},
		Cache:        c,
		DB:           db,
		BreakerState: func() string { return "closed" },
		Performance:  middleware.NewPerformanceMonitor(100, time.Second),
		Analytics:    testAnalyticsConfig(),
		Version:      "test",
	})
	if !cfg.now.IsZero() {
		now := cfg.now
		h.now = func() time.Time { return now }
	}

	mwCfg := cfg.mw
	if mwCfg == nil {
		mwCfg = DefaultChiMiddlewareConfig()
		mwCfg.RateLimitDisabled = true
	}

	return &testEnv{
		db:      db,
		history: svc,
		source:  src,
		cache:   c,
		handler: h,
		server:  NewRouter(h, NewChiMiddleware(mwCfg)).SetupChi(),
	}
}

// envelope mirrors models.APIResponse with data left raw.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type request struct {
	method  string
	path    string
	body    string
	token   string
	headers map[string]string
}

func (env *testEnv) do(t *testing.T, req request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var body io.Reader
	if req.body != "" {
		body = bytes.NewBufferString(req.body)
	}
	method := req.method
	if method == "" {
		method = http.MethodGet
	}

	r := httptest.NewRequest(method, req.path, body)
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.server.ServeHTTP(rec, r)

	var resp envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, resp
}

func decodeData(t *testing.T, resp envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(resp.Data, dst); err != nil {
		t.Fatalf("Failed to decode data %s: %v", resp.Data, err)
	}
}

func rawPlay(trackID string, at time.Time, durationMS int64) models.RawPlay {
	played := at
	return models.RawPlay{
		TrackID:    trackID,
		TrackName:  "Song " + trackID,
		Artists:    []string{"Artist"},
		DurationMS: durationMS,
		PlayedAt:   &played,
	}
}

func refs(ids ...string) []models.TrackRef {
	out := make([]models.TrackRef, len(ids))
	for i, id := range ids {
		out[i] = models.TrackRef{ID: id, Name: "Song " + id}
	}
	return out
}
