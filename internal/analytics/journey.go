// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package analytics

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/cadence/internal/models"
)

const (
	// DefaultTopCut is the rank at or above which a track counts as top.
	DefaultTopCut = 10

	// DefaultTopLimit is used for top-track limits outside TopLimits.
	DefaultTopLimit = 10
)

// TopLimits are the top-track list sizes a caller may request.
var TopLimits = []int{10, 25, 50}

// NormalizeTopLimit returns limit when it is one of TopLimits and
// DefaultTopLimit otherwise.
func NormalizeTopLimit(limit int) int {
	for _, l := range TopLimits {
		if l == limit {
			return limit
		}
	}
	return DefaultTopLimit
}

// JourneyInput holds the ranked top tracks of each window. Index 0 of a
// list is rank 1.
type JourneyInput struct {
	Windows map[models.TimeRange][]models.TrackRef
}

// TopTrackSource provides a user's ranked top tracks per window.
type TopTrackSource interface {
	TopTracks(ctx context.Context, r models.TimeRange, limit int) ([]models.TrackRef, error)
}

// LoadJourney fetches the top windowSize tracks of every window. The
// windows are fetched concurrently; the first error cancels the rest and
// is returned.
func LoadJourney(ctx context.Context, source TopTrackSource, windowSize int) (JourneyInput, error) {
	input := JourneyInput{Windows: make(map[models.TimeRange][]models.TrackRef, len(models.TimeRanges))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range models.TimeRanges {
		g.Go(func() error {
			tracks, err := source.TopTracks(gctx, r, windowSize)
			if err != nil {
				return err
			}
			mu.Lock()
			input.Windows[r] = tracks
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return JourneyInput{}, err
	}
	return input, nil
}

// JourneyOptions tunes Classify.
type JourneyOptions struct {
	TopCut int
}

// Classify ranks every track seen in any window and assigns its badge.
//
// With L, M and S the long, medium and short term ranks (0 when absent) and
// top meaning 1..TopCut:
//
//	evergreen          L, M and S all top
//	fading_out         L top, S absent
//	all_time_favorite  L top, S present, not evergreen
//	new_obsession      S top, L absent, M present
//	short_term         S top, L absent, M absent
//
// The rules are disjoint. Tracks matching none get BadgeNone. The result is
// ordered by best rank, then by track id.
func Classify(input JourneyInput, opts JourneyOptions) []models.TrackJourney {
	topCut := opts.TopCut
	if topCut <= 0 {
		topCut = DefaultTopCut
	}

	byID := make(map[string]*models.TrackJourney)
	var order []string
	for _, r := range models.TimeRanges {
		for i, track := range input.Windows[r] {
			if track.ID == "" {
				continue
			}
			j, ok := byID[track.ID]
			if !ok {
				j = &models.TrackJourney{Track: track, Ranks: make(map[models.TimeRange]int, len(models.TimeRanges))}
				for _, tr := range models.TimeRanges {
					j.Ranks[tr] = 0
				}
				byID[track.ID] = j
				order = append(order, track.ID)
			}
			if j.Ranks[r] == 0 {
				j.Ranks[r] = i + 1
			}
		}
	}

	journeys := make([]models.TrackJourney, 0, len(order))
	for _, id := range order {
		j := byID[id]
		j.Badge = classifyRanks(j.Ranks[models.LongTerm], j.Ranks[models.MediumTerm], j.Ranks[models.ShortTerm], topCut)
		if j.Badge != models.BadgeNone {
			j.BadgeClass, j.BadgeLabel = BadgePresentation(j.Badge)
		}
		journeys = append(journeys, *j)
	}

	sort.SliceStable(journeys, func(a, b int) bool {
		ra, rb := bestRank(journeys[a].Ranks), bestRank(journeys[b].Ranks)
		if ra != rb {
			return ra < rb
		}
		return journeys[a].Track.ID < journeys[b].Track.ID
	})
	return journeys
}

func classifyRanks(long, medium, short, topCut int) models.Badge {
	top := func(rank int) bool { return rank > 0 && rank <= topCut }

	evergreen := top(long) && top(medium) && top(short)
	switch {
	case evergreen:
		return models.BadgeEvergreen
	case top(long) && short == 0:
		return models.BadgeFadingOut
	case top(long) && short > 0:
		return models.BadgeAllTimeFavorite
	case top(short) && long == 0 && medium > 0:
		return models.BadgeNewObsession
	case top(short) && long == 0 && medium == 0:
		return models.BadgeShortTermCrush
	default:
		return models.BadgeNone
	}
}

func bestRank(ranks map[models.TimeRange]int) int {
	best := 0
	for _, r := range ranks {
		if r > 0 && (best == 0 || r < best) {
			best = r
		}
	}
	return best
}

// GroupByBadge collects badged journeys into groups in models.Badges order,
// keeping at most maxPerBadge tracks per group (all when maxPerBadge <= 0).
// Empty groups are omitted.
func GroupByBadge(journeys []models.TrackJourney, maxPerBadge int) []models.BadgeGroup {
	byBadge := make(map[models.Badge][]models.TrackJourney)
	for _, j := range journeys {
		if j.Badge == models.BadgeNone {
			continue
		}
		if maxPerBadge > 0 && len(byBadge[j.Badge]) >= maxPerBadge {
			continue
		}
		byBadge[j.Badge] = append(byBadge[j.Badge], j)
	}

	groups := make([]models.BadgeGroup, 0, len(byBadge))
	for _, badge := range models.Badges {
		tracks := byBadge[badge]
		if len(tracks) == 0 {
			continue
		}
		class, label := BadgePresentation(badge)
		groups = append(groups, models.BadgeGroup{Badge: badge, Label: label, Class: class, Tracks: tracks})
	}
	return groups
}

// BadgePresentation returns the CSS class and display label of badge.
// Unknown badges get "badge-secondary" and a humanised label.
func BadgePresentation(badge models.Badge) (class, label string) {
	switch badge {
	case models.BadgeEvergreen:
		return "badge-warning", "Evergreen"
	case models.BadgeAllTimeFavorite:
		return "badge-success", "All-Time Favorite"
	case models.BadgeNewObsession:
		return "badge-success", "New Obsession"
	case models.BadgeFadingOut:
		return "badge-danger", "Fading Out"
	case models.BadgeShortTermCrush:
		return "badge-info", "Short-Term Crush"
	default:
		return "badge-secondary", humanize(string(badge))
	}
}

// humanize turns "one_hit_wonder" into "One hit wonder".
func humanize(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return ""
	}
	return upperFirst(strings.ToLower(s))
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
