// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package upstream is the client for the music service Web API: the
// profile, the recently-played feed, the per-window top tracks and top
// artists of the authenticated user, and whether the user follows given
// artists.
//
// Every request passes a token-bucket limiter and a circuit breaker.
// Rejected credentials surface as ErrUnauthorized or ErrInsufficientScope
// wrapped in *Error; they never trip the breaker.
package upstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

const (
	profilePath        = "/v1/me"
	recentlyPlayedPath = "/v1/me/player/recently-played"
	topTracksPath      = "/v1/me/top/tracks"
	topArtistsPath     = "/v1/me/top/artists"
	followContainsPath = "/v1/me/following/contains"

	// maxPageSize is the item cap the Web API enforces per request. The
	// follow check accepts the same number of ids.
	maxPageSize = 50
)

// Client calls the Web API on behalf of any user; the bearer token is
// supplied per call. It is safe for concurrent use.
type Client struct {
	http     *resty.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	name     string
	pageSize int
}

// NewClient creates a client from cfg.
func NewClient(cfg *config.UpstreamConfig) *Client {
	name := "upstream-api"

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return &Client{
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker:  newBreaker(name, cfg),
		name:     name,
		pageSize: pageSize,
	}
}

// Session binds the client to one user's bearer token.
func (c *Client) Session(token string) *Session {
	return &Session{client: c, token: token}
}

// RecentlyPlayed returns up to limit of the user's most recent plays,
// newest first, following the "before" cursor across pages.
func (c *Client) RecentlyPlayed(ctx context.Context, token string, limit int) ([]models.RawPlay, error) {
	if limit <= 0 {
		return nil, nil
	}

	plays := make([]models.RawPlay, 0, limit)
	before := ""
	for len(plays) < limit {
		n := min(c.pageSize, limit-len(plays))
		params := map[string]string{"limit": strconv.Itoa(n)}
		if before != "" {
			params["before"] = before
		}

		body, err := c.get(ctx, token, "recently_played", recentlyPlayedPath, params)
		if err != nil {
			return nil, err
		}
		var page recentlyPlayedPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &Error{Op: "recently_played", Message: "decode response", Err: err}
		}
		for i := range page.Items {
			plays = append(plays, page.Items[i].rawPlay())
		}

		if len(page.Items) < n || page.Cursors == nil || page.Cursors.Before == "" || page.Cursors.Before == before {
			break
		}
		before = page.Cursors.Before
	}

	if len(plays) > limit {
		plays = plays[:limit]
	}
	return plays, nil
}

// TopTracks returns the user's top tracks for window r, best first.
func (c *Client) TopTracks(ctx context.Context, token string, r models.TimeRange, limit int) ([]models.TrackRef, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown time range %q", r)
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	body, err := c.get(ctx, token, "top_tracks", topTracksPath, map[string]string{
		"time_range": string(r),
		"limit":      strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	var page topTracksPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &Error{Op: "top_tracks", Message: "decode response", Err: err}
	}

	tracks := make([]models.TrackRef, 0, len(page.Items))
	for i := range page.Items {
		if page.Items[i].ID == "" {
			continue
		}
		tracks = append(tracks, page.Items[i].ref())
	}
	return tracks, nil
}

// CurrentUser returns the profile the token belongs to. The token is
// always sent; nothing here is cached.
func (c *Client) CurrentUser(ctx context.Context, token string) (models.UserProfile, error) {
	body, err := c.get(ctx, token, "profile", profilePath, nil)
	if err != nil {
		return models.UserProfile{}, err
	}
	var p profileObject
	if err := json.Unmarshal(body, &p); err != nil {
		return models.UserProfile{}, &Error{Op: "profile", Message: "decode response", Err: err}
	}
	if p.ID == "" {
		return models.UserProfile{}, &Error{Op: "profile", Message: "profile has no id"}
	}
	return models.UserProfile{ID: p.ID, DisplayName: p.DisplayName}, nil
}

// TopArtists returns the user's top artists for window r, best first.
func (c *Client) TopArtists(ctx context.Context, token string, r models.TimeRange, limit int) ([]models.ArtistRef, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown time range %q", r)
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	body, err := c.get(ctx, token, "top_artists", topArtistsPath, map[string]string{
		"time_range": string(r),
		"limit":      strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	var page topArtistsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &Error{Op: "top_artists", Message: "decode response", Err: err}
	}

	artists := make([]models.ArtistRef, 0, len(page.Items))
	for i := range page.Items {
		if page.Items[i].ID == "" {
			continue
		}
		artists = append(artists, page.Items[i].ref())
	}
	return artists, nil
}

// FollowedArtists reports which of ids the user follows. Duplicate and
// empty ids are skipped; ids are checked in batches of maxPageSize.
func (c *Client) FollowedArtists(ctx context.Context, token string, ids []string) (map[string]bool, error) {
	followed := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, seen := followed[id]; seen {
			continue
		}
		followed[id] = false
		unique = append(unique, id)
	}

	for start := 0; start < len(unique); start += maxPageSize {
		batch := unique[start:min(start+maxPageSize, len(unique))]
		body, err := c.get(ctx, token, "follow_contains", followContainsPath, map[string]string{
			"type": "artist",
			"ids":  strings.Join(batch, ","),
		})
		if err != nil {
			return nil, err
		}
		var flags []bool
		if err := json.Unmarshal(body, &flags); err != nil {
			return nil, &Error{Op: "follow_contains", Message: "decode response", Err: err}
		}
		if len(flags) != len(batch) {
			return nil, &Error{Op: "follow_contains", Message: fmt.Sprintf("got %d flags for %d ids", len(flags), len(batch))}
		}
		for i, id := range batch {
			followed[id] = flags[i]
		}
	}
	return followed, nil
}

// get performs one GET through the circuit breaker.
func (c *Client) get(ctx context.Context, token, op, path string, params map[string]string) ([]byte, error) {
	body, err := c.execute(func() ([]byte, error) {
		return c.do(ctx, token, op, path, params)
	})
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("endpoint", op).Msg("Upstream request failed")
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, token, op, path string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Op: op, Message: "request pacing", Err: err}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		metrics.RecordUpstreamRequest(op, 0, time.Since(start))
		return nil, &Error{Op: op, Message: "request failed", Retryable: true, Err: err}
	}
	metrics.RecordUpstreamRequest(op, resp.StatusCode(), time.Since(start))

	if !resp.IsSuccess() {
		return nil, statusError(op, resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

// Session is a Client bound to a bearer token. It satisfies the play,
// top-track and top-artist sources of the analytics and cache packages.
type Session struct {
	client *Client
	token  string
}

// RecentlyPlayed returns up to limit recent plays of the session user.
func (s *Session) RecentlyPlayed(ctx context.Context, limit int) ([]models.RawPlay, error) {
	return s.client.RecentlyPlayed(ctx, s.token, limit)
}

// TopTracks returns the session user's top tracks for window r.
func (s *Session) TopTracks(ctx context.Context, r models.TimeRange, limit int) ([]models.TrackRef, error) {
	return s.client.TopTracks(ctx, s.token, r, limit)
}

// TopArtists returns the session user's top artists for window r.
func (s *Session) TopArtists(ctx context.Context, r models.TimeRange, limit int) ([]models.ArtistRef, error) {
	return s.client.TopArtists(ctx, s.token, r, limit)
}

// CurrentUserID returns the id of the user the token belongs to.
func (s *Session) CurrentUserID(ctx context.Context) (string, error) {
	p, err := s.client.CurrentUser(ctx, s.token)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// FollowedArtists reports which of ids the session user follows.
func (s *Session) FollowedArtists(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.client.FollowedArtists(ctx, s.token, ids)
}
