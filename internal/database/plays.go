// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/database/query"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

var playEventColumns = []string{
	"user_id", "track_id", "track_name", "artists", "album_name",
	"album_image_url", "preview_url", "track_url", "duration_ms",
	"played_at", "created_at", "updated_at",
}

const selectPlayEventColumns = `user_id, track_id, track_name, artists, album_name,
	album_image_url, preview_url, track_url, duration_ms, played_at, created_at, updated_at`

// InsertPlays writes events in one transaction using
// INSERT ... ON CONFLICT (user_id, track_id, played_at) DO NOTHING and
// returns the number of new rows.
//
// Existing rows are never modified, so the first write of a key wins. When
// the batch itself repeats a key, its first occurrence is the one written.
// Concurrent callers inserting the same keys can make DuckDB abort a commit;
// that case is retried, since re-running the insert cannot duplicate rows.
func (db *DB) InsertPlays(ctx context.Context, events []models.PlayEvent) (int64, error) {
	events = firstOccurrences(events)
	if len(events) == 0 {
		return 0, nil
	}

	ctx, cancel := ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	rows := make([][]interface{}, len(events))
	for i := range events {
		row, err := playEventRow(&events[i], now)
		if err != nil {
			return 0, err
		}
		rows[i] = row
	}

	stmts, err := query.InsertIgnore{
		Table:     "play_events",
		Columns:   playEventColumns,
		Conflict:  []string{"user_id", "track_id", "played_at"},
		MaxParams: db.dialect.maxParams,
	}.Build(rows)
	if err != nil {
		return 0, fmt.Errorf("failed to build play insert: %w", err)
	}

	const maxRetries = 5
	start := time.Now()
	var inserted int64
	for attempt := 0; ; attempt++ {
		inserted, err = db.execInTx(ctx, stmts)
		if err == nil || !isWriteConflict(err) || attempt == maxRetries-1 {
			break
		}
		backoff := time.Millisecond * time.Duration(1<<uint(attempt)) // 1ms, 2ms, 4ms, 8ms
		select {
		case <-time.After(backoff):
			continue
		case <-ctx.Done():
			err = ctx.Err()
		}
		break
	}
	metrics.RecordDBQuery("insert_plays", db.dialect.name, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play events: %w", err)
	}
	return inserted, nil
}

func (db *DB) execInTx(ctx context.Context, stmts []query.Statement) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, stmt := range stmts {
		res, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

// CountDistinctTracks returns how many different tracks the user has played.
func (db *DB) CountDistinctTracks(ctx context.Context, userID string) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().AddUser(userID).BuildWithPrefix()
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(DISTINCT track_id) FROM play_events "+where, args...).Scan(&count)
	metrics.RecordDBQuery("count_distinct_tracks", db.dialect.name, time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// CountPlays returns the number of stored plays for the user.
func (db *DB) CountPlays(ctx context.Context, userID string) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().AddUser(userID).BuildWithPrefix()
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM play_events "+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return count, nil
}

// RecentPlays returns up to limit plays for the user, newest first. Plays
// sharing an instant are ordered by track id so the result is stable.
func (db *DB) RecentPlays(ctx context.Context, userID string, limit int) ([]models.PlayEvent, error) {
	if limit <= 0 {
		return []models.PlayEvent{}, nil
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	where, args := query.NewWhereBuilder().AddUser(userID).BuildWithPrefix()
	args = append(args, limit)
	q := "SELECT " + selectPlayEventColumns + " FROM play_events " + where +
		" ORDER BY played_at DESC, track_id ASC LIMIT ?"

	start := time.Now()
	events, err := db.queryPlays(ctx, q, args...)
	metrics.RecordDBQuery("recent_plays", db.dialect.name, time.Since(start), err)
	return events, err
}

func (db *DB) queryPlays(ctx context.Context, q string, args ...interface{}) ([]models.PlayEvent, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query play events: %w", err)
	}
	defer closeWithLog(rows, "play event rows")

	events := make([]models.PlayEvent, 0)
	for rows.Next() {
		var (
			e                                                   models.PlayEvent
			trackName, artists, album, image, preview, trackURL sql.NullString
			duration                                            sql.NullInt64
		)
		if err := rows.Scan(&e.UserID, &e.TrackID, &trackName, &artists, &album,
			&image, &preview, &trackURL, &duration, &e.PlayedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play event: %w", err)
		}
		e.TrackName = trackName.String
		e.AlbumName = album.String
		e.AlbumImageURL = image.String
		e.PreviewURL = preview.String
		e.TrackURL = trackURL.String
		e.DurationMS = duration.Int64
		if artists.Valid && artists.String != "" {
			if err := json.Unmarshal([]byte(artists.String), &e.Artists); err != nil {
				return nil, fmt.Errorf("failed to decode artists of track %s: %w", e.TrackID, err)
			}
		}
		e.PlayedAt = e.PlayedAt.UTC()
		e.CreatedAt = e.CreatedAt.UTC()
		e.UpdatedAt = e.UpdatedAt.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate play events: %w", err)
	}
	return events, nil
}

func playEventRow(e *models.PlayEvent, now time.Time) ([]interface{}, error) {
	var artists interface{}
	if len(e.Artists) > 0 {
		encoded, err := json.Marshal(e.Artists)
		if err != nil {
			return nil, fmt.Errorf("failed to encode artists of track %s: %w", e.TrackID, err)
		}
		artists = string(encoded)
	}
	var duration interface{}
	if e.DurationMS > 0 {
		duration = e.DurationMS
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = now
	}
	updated := e.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	return []interface{}{
		e.UserID, e.TrackID, nullable(e.TrackName), artists, nullable(e.AlbumName),
		nullable(e.AlbumImageURL), nullable(e.PreviewURL), nullable(e.TrackURL), duration,
		storedInstant(e.PlayedAt), storedInstant(created), storedInstant(updated),
	}, nil
}

// storedInstant is t as both drivers store it: UTC at microsecond precision.
func storedInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// firstOccurrences drops repeated keys within a batch, keeping the first.
func firstOccurrences(events []models.PlayEvent) []models.PlayEvent {
	if len(events) < 2 {
		return events
	}
	seen := make(map[models.PlayKey]struct{}, len(events))
	out := make([]models.PlayEvent, 0, len(events))
	for i := range events {
		k := events[i].Key()
		k.PlayedAt = storedInstant(k.PlayedAt)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, events[i])
	}
	return out
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
