// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

// UserProfile is the authenticated listener as reported by the upstream.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// ArtistRef is a ranked artist of a top-artists window.
type ArtistRef struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Genres    []string `json:"genres,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	ArtistURL string   `json:"artist_url,omitempty"`
	Followers int      `json:"followers,omitempty"`
	Followed  bool     `json:"followed"`
}

// ArtistWindow is the top artists of one time range.
type ArtistWindow struct {
	TimeRange TimeRange   `json:"time_range"`
	Label     string      `json:"label"`
	Limit     int         `json:"limit"`
	Artists   []ArtistRef `json:"artists"`
}

// GenreChart counts artists per genre. Labels and Series line up; the
// last entry may be the "Other" bucket.
type GenreChart struct {
	Labels []string `json:"labels"`
	Series []int    `json:"series"`
}
