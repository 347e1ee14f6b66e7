// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package models defines the data structures shared by the event store, the
// analytics summarizers and the HTTP API.
package models

import (
	"time"
)

// RawPlay is one recently-played item as delivered by the upstream client,
// before normalisation. PlayedAt is nil when the upstream omitted it.
type RawPlay struct {
	TrackID       string     `json:"track_id"`
	TrackName     string     `json:"track_name,omitempty"`
	Artists       []string   `json:"artists,omitempty"`
	AlbumName     string     `json:"album_name,omitempty"`
	AlbumImageURL string     `json:"album_image_url,omitempty"`
	PreviewURL    string     `json:"preview_url,omitempty"`
	TrackURL      string     `json:"track_url,omitempty"`
	DurationMS    int64      `json:"duration_ms,omitempty"`
	PlayedAt      *time.Time `json:"played_at,omitempty"`
}

// PlayEvent is a persisted play of a track by a user.
//
// (UserID, TrackID, PlayedAt) is unique in the event store. A second event
// with the same key is ignored, so the metadata of the first write is kept.
// PlayedAt is always UTC.
type PlayEvent struct {
	UserID        string    `json:"user_id"`
	TrackID       string    `json:"track_id"`
	TrackName     string    `json:"track_name,omitempty"`
	Artists       []string  `json:"artists,omitempty"`
	AlbumName     string    `json:"album_name,omitempty"`
	AlbumImageURL string    `json:"album_image_url,omitempty"`
	PreviewURL    string    `json:"preview_url,omitempty"`
	TrackURL      string    `json:"track_url,omitempty"`
	DurationMS    int64     `json:"duration_ms,omitempty"`
	PlayedAt      time.Time `json:"played_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PlayKey identifies a play event in the store.
type PlayKey struct {
	UserID   string
	TrackID  string
	PlayedAt time.Time
}

// Key returns the event's deduplication key.
func (e *PlayEvent) Key() PlayKey {
	return PlayKey{UserID: e.UserID, TrackID: e.TrackID, PlayedAt: e.PlayedAt}
}

// HistoryEntry is the read model returned by the history reader. It is never
// stored on its own.
type HistoryEntry struct {
	TrackID       string    `json:"track_id"`
	TrackName     string    `json:"track_name,omitempty"`
	Artists       []string  `json:"artists,omitempty"`
	AlbumName     string    `json:"album_name,omitempty"`
	AlbumImageURL string    `json:"album_image_url,omitempty"`
	PreviewURL    string    `json:"preview_url,omitempty"`
	TrackURL      string    `json:"track_url,omitempty"`
	DurationMS    int64     `json:"duration_ms,omitempty"`
	PlayedAt      time.Time `json:"played_at"`
}

// Entry converts the stored event to its read model.
func (e *PlayEvent) Entry() HistoryEntry {
	return HistoryEntry{
		TrackID:       e.TrackID,
		TrackName:     e.TrackName,
		Artists:       e.Artists,
		AlbumName:     e.AlbumName,
		AlbumImageURL: e.AlbumImageURL,
		PreviewURL:    e.PreviewURL,
		TrackURL:      e.TrackURL,
		DurationMS:    e.DurationMS,
		PlayedAt:      e.PlayedAt,
	}
}

// IngestResult summarises one ingestion batch.
type IngestResult struct {
	Received int   `json:"received"`
	Accepted int   `json:"accepted"` // normalised and sent to the store
	Dropped  int   `json:"dropped"`  // malformed records
	Inserted int64 `json:"inserted"` // new rows; Accepted-Inserted were duplicates
}
