// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package upstream

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/models"
)

const maxErrorMessage = 200

// Web API payloads. Only the fields Cadence reads are declared.

type trackObject struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DurationMS   int64             `json:"duration_ms"`
	PreviewURL   string            `json:"preview_url"`
	ExternalURLs map[string]string `json:"external_urls"`
	Artists      []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
}

type playHistoryItem struct {
	Track    trackObject `json:"track"`
	PlayedAt string      `json:"played_at"`
}

type recentlyPlayedPage struct {
	Items   []playHistoryItem `json:"items"`
	Next    string            `json:"next"`
	Cursors *struct {
		After  string `json:"after"`
		Before string `json:"before"`
	} `json:"cursors"`
}

type topTracksPage struct {
	Items []trackObject `json:"items"`
	Total int           `json:"total"`
}

type artistObject struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Genres       []string          `json:"genres"`
	ExternalURLs map[string]string `json:"external_urls"`
	Followers    struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type topArtistsPage struct {
	Items []artistObject `json:"items"`
	Total int            `json:"total"`
}

type profileObject struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (t *trackObject) artistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func (t *trackObject) imageURL() string {
	if len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

func (t *trackObject) ref() models.TrackRef {
	return models.TrackRef{
		ID:            t.ID,
		Name:          t.Name,
		Artists:       t.artistNames(),
		AlbumName:     t.Album.Name,
		AlbumImageURL: t.imageURL(),
		TrackURL:      t.ExternalURLs["spotify"],
	}
}

func (a *artistObject) ref() models.ArtistRef {
	ref := models.ArtistRef{
		ID:        a.ID,
		Name:      a.Name,
		Genres:    a.Genres,
		ArtistURL: a.ExternalURLs["spotify"],
		Followers: a.Followers.Total,
	}
	if len(a.Images) > 0 {
		ref.ImageURL = a.Images[0].URL
	}
	return ref
}

// rawPlay maps a history item. An unparseable played_at leaves PlayedAt
// nil; ingestion drops such plays.
func (it *playHistoryItem) rawPlay() models.RawPlay {
	p := models.RawPlay{
		TrackID:       it.Track.ID,
		TrackName:     it.Track.Name,
		Artists:       it.Track.artistNames(),
		AlbumName:     it.Track.Album.Name,
		AlbumImageURL: it.Track.imageURL(),
		PreviewURL:    it.Track.PreviewURL,
		TrackURL:      it.Track.ExternalURLs["spotify"],
		DurationMS:    it.Track.DurationMS,
	}
	if at, err := time.Parse(time.RFC3339Nano, it.PlayedAt); err == nil {
		p.PlayedAt = &at
	}
	return p
}

func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}

func isInsufficientScope(message string) bool {
	return strings.Contains(strings.ToLower(message), "insufficient client scope")
}
