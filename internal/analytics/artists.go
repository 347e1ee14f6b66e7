// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package analytics

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cadence/internal/models"
)

// TopGenreCut is the number of genres named in a genre chart. The rest are
// summed into OtherGenreLabel.
const TopGenreCut = 8

// OtherGenreLabel is the label of the remainder slice of a genre chart.
const OtherGenreLabel = "Other"

// TopArtistSource provides a user's ranked top artists and follow state.
type TopArtistSource interface {
	TopArtists(ctx context.Context, r models.TimeRange, limit int) ([]models.ArtistRef, error)
	FollowedArtists(ctx context.Context, ids []string) (map[string]bool, error)
}

// LoadTopArtists fetches one window per entry of models.TimeRanges, each
// with its own limit from limits, then marks the artists the user follows.
// Limits are normalized with NormalizeTopLimit. Any upstream error is
// returned and no windows are.
func LoadTopArtists(ctx context.Context, source TopArtistSource, limits map[models.TimeRange]int) ([]models.ArtistWindow, error) {
	windows := make([]models.ArtistWindow, len(models.TimeRanges))

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range models.TimeRanges {
		limit := NormalizeTopLimit(limits[r])
		windows[i] = models.ArtistWindow{TimeRange: r, Label: r.Label(), Limit: limit}
		g.Go(func() error {
			artists, err := source.TopArtists(gctx, r, limit)
			if err != nil {
				return err
			}
			if artists == nil {
				artists = []models.ArtistRef{}
			}
			windows[i].Artists = artists
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := uniqueArtistIDs(windows)
	if len(ids) == 0 {
		return windows, nil
	}
	followed, err := source.FollowedArtists(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range windows {
		for j := range windows[i].Artists {
			windows[i].Artists[j].Followed = followed[windows[i].Artists[j].ID]
		}
	}
	return windows, nil
}

// EmptyArtistWindows is served when top artists could not be fetched: every
// window empty at DefaultTopLimit.
func EmptyArtistWindows() []models.ArtistWindow {
	windows := make([]models.ArtistWindow, len(models.TimeRanges))
	for i, r := range models.TimeRanges {
		windows[i] = models.ArtistWindow{
			TimeRange: r,
			Label:     r.Label(),
			Limit:     DefaultTopLimit,
			Artists:   []models.ArtistRef{},
		}
	}
	return windows
}

func uniqueArtistIDs(windows []models.ArtistWindow) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, w := range windows {
		for _, a := range w.Artists {
			if a.ID == "" {
				continue
			}
			if _, ok := seen[a.ID]; ok {
				continue
			}
			seen[a.ID] = struct{}{}
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// GenreChart counts how many artists carry each genre. Genres are compared
// trimmed and lowercased. The TopGenreCut most common genres are labelled
// in title case, ordered by count and then name; the remaining counts are
// summed into a final OtherGenreLabel slice when non-zero. It returns nil
// when no artist has a genre.
func GenreChart(artists []models.ArtistRef) *models.GenreChart {
	counts := make(map[string]int)
	for _, a := range artists {
		seen := make(map[string]struct{}, len(a.Genres))
		for _, g := range a.Genres {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" {
				continue
			}
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			counts[g]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})

	chart := &models.GenreChart{}
	other := 0
	for i, g := range genres {
		if i >= TopGenreCut {
			other += counts[g]
			continue
		}
		chart.Labels = append(chart.Labels, titleWords(g))
		chart.Series = append(chart.Series, counts[g])
	}
	if other > 0 {
		chart.Labels = append(chart.Labels, OtherGenreLabel)
		chart.Series = append(chart.Series, other)
	}
	return chart
}

// titleWords upper-cases the first letter of every space-separated word.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}
