// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/tomtom215/cadence/internal/models"
)

func artistRefs(ids ...string) []models.ArtistRef {
	out := make([]models.ArtistRef, len(ids))
	for i, id := range ids {
		out[i] = models.ArtistRef{ID: id, Name: "Artist " + id, Genres: []string{"indie " + id}}
	}
	return out
}

func TestTopArtistsByRange(t *testing.T) {
	env := setupTestEnv(t, withCache())
	env.source.artists = map[models.TimeRange][]models.ArtistRef{
		models.LongTerm:   {{ID: "a1", Genres: []string{"Indie Rock", "pop"}}, {ID: "a2", Genres: []string{"indie rock"}}},
		models.MediumTerm: artistRefs("a2", "a3"),
		models.ShortTerm:  artistRefs("a4"),
	}
	env.source.followed = map[string]bool{"a2": true, "a4": true}

	rec, resp := env.do(t, request{
		path:  "/api/v1/users/u1/top-artists?limit_long_term=25&limit_medium_term=7&limit_short_term=50",
		token: testToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var top TopArtists
	decodeData(t, resp, &top)
	if len(top.Windows) != 3 {
		t.Fatalf("windows = %+v, want 3", top.Windows)
	}

	want := []struct {
		timeRange models.TimeRange
		label     string
		limit     int
		ids       []string
		followed  []bool
	}{
		{models.LongTerm, "Past Year", 25, []string{"a1", "a2"}, []bool{false, true}},
		{models.MediumTerm, "Past 6 Months", 10, []string{"a2", "a3"}, []bool{true, false}},
		{models.ShortTerm, "Past 4 Weeks", 50, []string{"a4"}, []bool{true}},
	}
	for i, w := range want {
		got := top.Windows[i]
		if got.TimeRange != w.timeRange || got.Label != w.label || got.Limit != w.limit {
			t.Errorf("window %d = %s %q limit %d, want %s %q limit %d", i, got.TimeRange, got.Label, got.Limit, w.timeRange, w.label, w.limit)
		}
		if len(got.Artists) != len(w.ids) {
			t.Fatalf("window %d artists = %+v, want %v", i, got.Artists, w.ids)
		}
		for j, id := range w.ids {
			if got.Artists[j].ID != id || got.Artists[j].Followed != w.followed[j] {
				t.Errorf("window %d artist %d = %s followed=%v, want %s followed=%v",
					i, j, got.Artists[j].ID, got.Artists[j].Followed, id, w.followed[j])
			}
		}
	}

	if top.Genres == nil {
		t.Fatal("genres = nil, want a chart of the long term artists")
	}
	if len(top.Genres.Labels) != 2 || top.Genres.Labels[0] != "Indie Rock" || top.Genres.Series[0] != 2 {
		t.Errorf("genres = %+v, want Indie Rock (2) then Pop (1)", top.Genres)
	}

	// The default limits reuse the cached medium term list, then everything
	// is served from the cache.
	if rec, _ := env.do(t, request{path: "/api/v1/users/u1/top-artists", token: testToken}); rec.Code != http.StatusOK {
		t.Fatalf("second status = %d, want 200", rec.Code)
	}
	if rec, _ := env.do(t, request{path: "/api/v1/users/u1/top-artists", token: testToken}); rec.Code != http.StatusOK {
		t.Fatalf("third status = %d, want 200", rec.Code)
	}
	if env.source.artistCalls != 5 {
		t.Errorf("top artists fetched %d times, want 5", env.source.artistCalls)
	}
}

func TestTopArtistsByRange_NoGenres(t *testing.T) {
	env := setupTestEnv(t)
	env.source.artists = map[models.TimeRange][]models.ArtistRef{
		models.ShortTerm: {{ID: "a1"}},
	}

	rec, resp := env.do(t, request{path: "/api/v1/users/u1/top-artists", token: testToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var top TopArtists
	decodeData(t, resp, &top)
	if top.Genres != nil {
		t.Errorf("genres = %+v, want nil", top.Genres)
	}
	for _, w := range top.Windows {
		if w.Limit != 10 || w.Artists == nil {
			t.Errorf("window %s = %+v, want default limit and non-nil artists", w.TimeRange, w)
		}
	}
}

func TestTopArtistsByRange_FollowLookupFails(t *testing.T) {
	env := setupTestEnv(t)
	env.source.artists = map[models.TimeRange][]models.ArtistRef{models.LongTerm: artistRefs("a1")}
	env.source.followErr = errors.New("follow lookup timed out")

	rec, resp := env.do(t, request{path: "/api/v1/users/u1/top-artists?limit_long_term=50", token: testToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Metadata.Alert != UpstreamAlert {
		t.Errorf("alert = %q, want %q", resp.Metadata.Alert, UpstreamAlert)
	}

	var top TopArtists
	decodeData(t, resp, &top)
	if len(top.Windows) != 3 || top.Genres != nil {
		t.Fatalf("data = %+v, want three empty windows", top)
	}
	for _, w := range top.Windows {
		if w.Limit != 10 || len(w.Artists) != 0 {
			t.Errorf("window %s = %+v, want empty at limit 10", w.TimeRange, w)
		}
	}
}
