// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package analytics

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/tomtom215/cadence/internal/models"
)

func artist(id string, genres ...string) models.ArtistRef {
	return models.ArtistRef{ID: id, Name: "Artist " + id, Genres: genres}
}

func TestGenreChart(t *testing.T) {
	tests := []struct {
		name    string
		artists []models.ArtistRef
		want    *models.GenreChart
	}{
		{
			name:    "no artists",
			artists: nil,
			want:    nil,
		},
		{
			name:    "no genres",
			artists: []models.ArtistRef{artist("a"), artist("b", " ", "")},
			want:    nil,
		},
		{
			name: "normalized and title cased",
			artists: []models.ArtistRef{
				artist("a", "Indie Rock", "pop"),
				artist("b", " indie rock ", "hip-hop"),
				artist("c", "INDIE ROCK"),
			},
			want: &models.GenreChart{
				Labels: []string{"Indie Rock", "Hip-hop", "Pop"},
				Series: []int{3, 1, 1},
			},
		},
		{
			name: "genre counted once per artist",
			artists: []models.ArtistRef{
				artist("a", "pop", "Pop", "rock"),
				artist("b", "rock"),
			},
			want: &models.GenreChart{
				Labels: []string{"Rock", "Pop"},
				Series: []int{2, 1},
			},
		},
		{
			name: "exactly eight genres has no other slice",
			artists: []models.ArtistRef{
				artist("a", "g1", "g2", "g3", "g4"),
				artist("b", "g5", "g6", "g7", "g8"),
			},
			want: &models.GenreChart{
				Labels: []string{"G1", "G2", "G3", "G4", "G5", "G6", "G7", "G8"},
				Series: []int{1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		{
			name: "remainder summed into other",
			artists: []models.ArtistRef{
				artist("a", "pop", "rock", "jazz", "soul", "funk", "folk", "punk", "metal", "ska", "dub"),
				artist("b", "pop", "rock", "ska"),
				artist("c", "pop", "dub"),
			},
			want: &models.GenreChart{
				Labels: []string{"Pop", "Dub", "Rock", "Ska", "Folk", "Funk", "Jazz", "Metal", "Other"},
				Series: []int{3, 2, 2, 2, 1, 1, 1, 1, 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenreChart(tt.artists)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GenreChart() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type artistSource struct {
	mu        sync.Mutex
	windows   map[models.TimeRange][]models.ArtistRef
	followed  map[string]bool
	limits    map[models.TimeRange]int
	asked     []string
	err       error
	followErr error
}

func (s *artistSource) TopArtists(_ context.Context, r models.TimeRange, limit int) ([]models.ArtistRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limits == nil {
		s.limits = map[models.TimeRange]int{}
	}
	s.limits[r] = limit
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.ArtistRef(nil), s.windows[r]...), nil
}

func (s *artistSource) FollowedArtists(_ context.Context, ids []string) (map[string]bool, error) {
	s.asked = append(s.asked, ids...)
	if s.followErr != nil {
		return nil, s.followErr
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = s.followed[id]
	}
	return out, nil
}

func TestLoadTopArtists(t *testing.T) {
	src := &artistSource{
		windows: map[models.TimeRange][]models.ArtistRef{
			models.LongTerm:   {artist("a", "pop"), artist("b")},
			models.MediumTerm: {artist("b"), artist("c")},
		},
		followed: map[string]bool{"b": true},
	}

	windows, err := LoadTopArtists(context.Background(), src, map[models.TimeRange]int{
		models.LongTerm:   50,
		models.MediumTerm: 30,
	})
	if err != nil {
		t.Fatalf("LoadTopArtists() error = %v", err)
	}

	wantLimits := map[models.TimeRange]int{models.LongTerm: 50, models.MediumTerm: 10, models.ShortTerm: 10}
	if !reflect.DeepEqual(src.limits, wantLimits) {
		t.Errorf("requested limits = %v, want %v", src.limits, wantLimits)
	}
	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, r := range models.TimeRanges {
		if windows[i].TimeRange != r || windows[i].Label != r.Label() || windows[i].Limit != wantLimits[r] {
			t.Errorf("window %d = %+v, want %s", i, windows[i], r)
		}
	}
	if windows[2].Artists == nil || len(windows[2].Artists) != 0 {
		t.Errorf("short term artists = %v, want empty", windows[2].Artists)
	}
	if len(src.asked) != 3 {
		t.Errorf("follow lookup ids = %v, want a, b and c once", src.asked)
	}
	if windows[0].Artists[0].Followed || !windows[0].Artists[1].Followed || !windows[1].Artists[0].Followed {
		t.Errorf("followed flags wrong: %+v %+v", windows[0].Artists, windows[1].Artists)
	}
}

func TestLoadTopArtists_Errors(t *testing.T) {
	boom := errors.New("upstream down")

	t.Run("top artists", func(t *testing.T) {
		src := &artistSource{err: boom}
		if _, err := LoadTopArtists(context.Background(), src, nil); !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
		if len(src.asked) != 0 {
			t.Error("follow state looked up after a failed fetch")
		}
	})

	t.Run("follow state", func(t *testing.T) {
		src := &artistSource{
			windows:   map[models.TimeRange][]models.ArtistRef{models.ShortTerm: {artist("a")}},
			followErr: boom,
		}
		if _, err := LoadTopArtists(context.Background(), src, nil); !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	})

	t.Run("no artists skips follow lookup", func(t *testing.T) {
		src := &artistSource{followErr: boom}
		windows, err := LoadTopArtists(context.Background(), src, nil)
		if err != nil || len(windows) != 3 {
			t.Errorf("LoadTopArtists() = %d windows, %v", len(windows), err)
		}
	})
}

func TestEmptyArtistWindows(t *testing.T) {
	windows := EmptyArtistWindows()
	if len(windows) != len(models.TimeRanges) {
		t.Fatalf("got %d windows, want %d", len(windows), len(models.TimeRanges))
	}
	for i, w := range windows {
		if w.TimeRange != models.TimeRanges[i] || w.Limit != DefaultTopLimit || w.Artists == nil || len(w.Artists) != 0 {
			t.Errorf("window %d = %+v", i, w)
		}
	}
}
