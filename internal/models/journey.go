// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

// TimeRange names an upstream top-tracks window.
type TimeRange string

const (
	LongTerm   TimeRange = "long_term"
	MediumTerm TimeRange = "medium_term"
	ShortTerm  TimeRange = "short_term"
)

// TimeRanges lists the windows from oldest to newest.
var TimeRanges = []TimeRange{LongTerm, MediumTerm, ShortTerm}

// Label returns the display label of the window.
func (r TimeRange) Label() string {
	switch r {
	case LongTerm:
		return "Past Year"
	case MediumTerm:
		return "Past 6 Months"
	case ShortTerm:
		return "Past 4 Weeks"
	default:
		return string(r)
	}
}

// Valid reports whether r is a known window.
func (r TimeRange) Valid() bool {
	return r == LongTerm || r == MediumTerm || r == ShortTerm
}

// Badge is an engagement category. The zero value means no badge.
type Badge string

const (
	BadgeNone            Badge = ""
	BadgeEvergreen       Badge = "evergreen"
	BadgeAllTimeFavorite Badge = "all_time_favorite"
	BadgeNewObsession    Badge = "new_obsession"
	BadgeFadingOut       Badge = "fading_out"
	BadgeShortTermCrush  Badge = "short_term"
)

// Badges is the display order of badge groups.
var Badges = []Badge{
	BadgeEvergreen,
	BadgeAllTimeFavorite,
	BadgeNewObsession,
	BadgeShortTermCrush,
	BadgeFadingOut,
}

// TrackRef is a ranked track as returned by a top-tracks window.
type TrackRef struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Artists       []string `json:"artists,omitempty"`
	AlbumName     string   `json:"album_name,omitempty"`
	AlbumImageURL string   `json:"album_image_url,omitempty"`
	TrackURL      string   `json:"track_url,omitempty"`
}

// TrackJourney is a track with its rank in each window (0 = absent) and the
// badge derived from those ranks.
type TrackJourney struct {
	Track      TrackRef          `json:"track"`
	Ranks      map[TimeRange]int `json:"ranks"`
	Badge      Badge             `json:"badge,omitempty"`
	BadgeLabel string            `json:"badge_label,omitempty"`
	BadgeClass string            `json:"badge_class,omitempty"`
}

// BadgeGroup is the tracks sharing one badge.
type BadgeGroup struct {
	Badge  Badge          `json:"badge"`
	Label  string         `json:"label"`
	Class  string         `json:"class"`
	Tracks []TrackJourney `json:"tracks"`
}
