// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package history

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/models"
)

// NormalizePlay converts one raw record into a play event for userID.
//
// Accepted shapes are models.RawPlay, *models.RawPlay, map[string]any (flat,
// or with a nested upstream "track" object) and map[string]string. The
// second return is false for any other shape and for records that lack a
// track id or a play time. Missing or mistyped optional fields become zero
// values.
//
// played_at is converted to UTC and truncated to microseconds, the
// precision both store engines keep, so that one instant always maps to one
// key.
func NormalizePlay(userID string, record any) (models.PlayEvent, bool) {
	var raw models.RawPlay
	switch r := record.(type) {
	case models.RawPlay:
		raw = r
	case *models.RawPlay:
		if r == nil {
			return models.PlayEvent{}, false
		}
		raw = *r
	case map[string]any:
		raw = rawFromMap(r)
	case map[string]string:
		raw = rawFromStringMap(r)
	default:
		return models.PlayEvent{}, false
	}

	if raw.TrackID == "" || raw.PlayedAt == nil || raw.PlayedAt.IsZero() {
		return models.PlayEvent{}, false
	}

	return models.PlayEvent{
		UserID:        userID,
		TrackID:       raw.TrackID,
		TrackName:     raw.TrackName,
		Artists:       raw.Artists,
		AlbumName:     raw.AlbumName,
		AlbumImageURL: raw.AlbumImageURL,
		PreviewURL:    raw.PreviewURL,
		TrackURL:      raw.TrackURL,
		DurationMS:    raw.DurationMS,
		PlayedAt:      raw.PlayedAt.UTC().Truncate(time.Microsecond),
	}, true
}

// rawFromMap reads a decoded JSON object. Keys of the nested "track"
// object are consulted when the flat key is absent.
func rawFromMap(m map[string]any) models.RawPlay {
	track, _ := m["track"].(map[string]any)
	album, _ := track["album"].(map[string]any)

	raw := models.RawPlay{
		TrackID:       firstString(m, "track_id", "id"),
		TrackName:     firstString(m, "track_name", "name"),
		Artists:       artistNames(m["artists"]),
		AlbumName:     stringValue(m["album_name"]),
		AlbumImageURL: stringValue(m["album_image_url"]),
		PreviewURL:    stringValue(m["preview_url"]),
		TrackURL:      firstString(m, "track_url", "spotify_url"),
		DurationMS:    int64Value(m["duration_ms"]),
		PlayedAt:      timeValue(m["played_at"]),
	}

	if track != nil {
		mapStringField(stringValue(track["id"]), &raw.TrackID)
		mapStringField(stringValue(track["name"]), &raw.TrackName)
		mapStringField(stringValue(track["preview_url"]), &raw.PreviewURL)
		if urls, ok := track["external_urls"].(map[string]any); ok {
			mapStringField(stringValue(urls["spotify"]), &raw.TrackURL)
		}
		if len(raw.Artists) == 0 {
			raw.Artists = artistNames(track["artists"])
		}
		if raw.DurationMS == 0 {
			raw.DurationMS = int64Value(track["duration_ms"])
		}
	}
	if album != nil {
		mapStringField(stringValue(album["name"]), &raw.AlbumName)
		if images, ok := album["images"].([]any); ok && len(images) > 0 {
			if img, ok := images[0].(map[string]any); ok {
				mapStringField(stringValue(img["url"]), &raw.AlbumImageURL)
			}
		}
	}
	return raw
}

func rawFromStringMap(m map[string]string) models.RawPlay {
	return models.RawPlay{
		TrackID:       firstNonEmpty(m["track_id"], m["id"]),
		TrackName:     firstNonEmpty(m["track_name"], m["name"]),
		Artists:       splitArtists(m["artists"]),
		AlbumName:     m["album_name"],
		AlbumImageURL: m["album_image_url"],
		PreviewURL:    m["preview_url"],
		TrackURL:      firstNonEmpty(m["track_url"], m["spotify_url"]),
		DurationMS:    int64Value(m["duration_ms"]),
		PlayedAt:      timeValue(m["played_at"]),
	}
}

// mapStringField sets *target when it is still empty.
func mapStringField(value string, target *string) {
	if value != "" && *target == "" {
		*target = value
	}
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func int64Value(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i
		}
	}
	return 0
}

// timeValue accepts a time.Time, a *time.Time, an RFC 3339 string or unix
// milliseconds.
func timeValue(v any) *time.Time {
	var t time.Time
	switch x := v.(type) {
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return nil
		}
		t = *x
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		t = parsed
	case float64, int64, int, json.Number:
		ms := int64Value(x)
		if ms <= 0 {
			return nil
		}
		t = time.UnixMilli(ms)
	default:
		return nil
	}
	if t.IsZero() {
		return nil
	}
	return &t
}

// artistNames accepts a list of names, a list of artist objects with a
// "name" key, or a comma separated string.
func artistNames(v any) []string {
	switch a := v.(type) {
	case string:
		return splitArtists(a)
	case []string:
		return nonEmpty(a)
	case []any:
		names := make([]string, 0, len(a))
		for _, item := range a {
			switch it := item.(type) {
			case string:
				names = append(names, strings.TrimSpace(it))
			case map[string]any:
				names = append(names, stringValue(it["name"]))
			}
		}
		return nonEmpty(names)
	default:
		return nil
	}
}

func splitArtists(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return nonEmpty(parts)
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
