// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/analytics"
	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/models"
)

// TopArtists is the body of GET top-artists. Genres is built from the long
// term window and is null when none of its artists has a genre.
type TopArtists struct {
	Windows []models.ArtistWindow `json:"windows"`
	Genres  *models.GenreChart    `json:"genres"`
}

// artistSource serves top artists from the cache and follow state live,
// since a follow can change at any time.
type artistSource struct {
	*cache.CachedSource
	follows Session
}

func (s artistSource) FollowedArtists(ctx context.Context, ids []string) (map[string]bool, error) {
	return s.follows.FollowedArtists(ctx, ids)
}

// TopArtistsByRange returns the top artists of every window with follow
// flags, plus a genre breakdown of the long term window. Each window reads
// its own limit_<time_range> query parameter.
func (h *Handler) TopArtistsByRange(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}

	limits := make(map[models.TimeRange]int, len(models.TimeRanges))
	for _, tr := range models.TimeRanges {
		limits[tr] = queryInt(r, "limit_"+string(tr), analytics.DefaultTopLimit)
	}

	sess, err := h.userSession(ctx, userID, token)
	var windows []models.ArtistWindow
	if err == nil {
		src := artistSource{CachedSource: cache.Wrap(h.cache, userID, token, sess), follows: sess}
		windows, err = analytics.LoadTopArtists(ctx, src, limits)
	}
	if err != nil {
		if handleUpstreamError(ctx, rw, "top_artists", err) {
			return
		}
		rw.SuccessWithMeta(TopArtists{Windows: analytics.EmptyArtistWindows()}, models.Metadata{Alert: UpstreamAlert})
		return
	}

	var longTerm []models.ArtistRef
	for _, win := range windows {
		if win.TimeRange == models.LongTerm {
			longTerm = win.Artists
		}
	}
	rw.Success(TopArtists{Windows: windows, Genres: analytics.GenreChart(longTerm)})
}
