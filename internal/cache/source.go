// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/models"
)

// Source is the upstream API as seen by one user.
type Source interface {
	RecentlyPlayed(ctx context.Context, limit int) ([]models.RawPlay, error)
	TopTracks(ctx context.Context, r models.TimeRange, limit int) ([]models.TrackRef, error)
	TopArtists(ctx context.Context, r models.TimeRange, limit int) ([]models.ArtistRef, error)
}

// CachedSource serves Source calls from the cache when possible. Errors
// are never cached, and a failing cache only costs an upstream call.
//
// Entries are stored under the user and scoped to a fingerprint of the
// bearer token, so a response fetched with one token is never served to a
// request carrying another. ClearUser drops the entries of every token.
type CachedSource struct {
	cache  *Cache
	userID string
	scope  string
	next   Source
}

// Wrap returns a Source that caches next's responses for userID and token
// in c. The caller must have verified that token belongs to userID.
func Wrap(c *Cache, userID, token string, next Source) *CachedSource {
	return &CachedSource{cache: c, userID: userID, scope: TokenFingerprint(token), next: next}
}

// TokenFingerprint is a short, non-reversible identifier of a bearer token.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// RecentlyPlayed implements Source.
func (s *CachedSource) RecentlyPlayed(ctx context.Context, limit int) ([]models.RawPlay, error) {
	return cached(ctx, s, fmt.Sprintf("%s:recently_played:%d", s.scope, limit), func() ([]models.RawPlay, error) {
		return s.next.RecentlyPlayed(ctx, limit)
	})
}

// TopTracks implements Source.
func (s *CachedSource) TopTracks(ctx context.Context, r models.TimeRange, limit int) ([]models.TrackRef, error) {
	return cached(ctx, s, fmt.Sprintf("%s:top_tracks:%s:%d", s.scope, r, limit), func() ([]models.TrackRef, error) {
		return s.next.TopTracks(ctx, r, limit)
	})
}

// TopArtists implements Source.
func (s *CachedSource) TopArtists(ctx context.Context, r models.TimeRange, limit int) ([]models.ArtistRef, error) {
	return cached(ctx, s, fmt.Sprintf("%s:top_artists:%s:%d", s.scope, r, limit), func() ([]models.ArtistRef, error) {
		return s.next.TopArtists(ctx, r, limit)
	})
}

func cached[T any](ctx context.Context, s *CachedSource, key string, fetch func() ([]T, error)) ([]T, error) {
	var out []T
	hit, err := s.cache.Get(s.userID, key, &out)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}
	if hit {
		return out, nil
	}

	out, err = fetch()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(s.userID, key, out); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return out, nil
}
