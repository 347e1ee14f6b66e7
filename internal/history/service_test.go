// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/cadence/internal/models"
)

// fakeStore records calls and keeps rows in insertion order, ignoring
// repeated keys the way the event store does.
type fakeStore struct {
	rows        []models.PlayEvent
	insertCalls int
	countCalls  int
	err         error
}

func (f *fakeStore) InsertPlays(_ context.Context, events []models.PlayEvent) (int64, error) {
	f.insertCalls++
	if f.err != nil {
		return 0, f.err
	}
	var inserted int64
	for _, ev := range events {
		dup := false
		for _, r := range f.rows {
			if r.Key() == ev.Key() {
				dup = true
				break
			}
		}
		if !dup {
			f.rows = append(f.rows, ev)
			inserted++
		}
	}
	return inserted, nil
}

func (f *fakeStore) CountDistinctTracks(_ context.Context, userID string) (int, error) {
	f.countCalls++
	if f.err != nil {
		return 0, f.err
	}
	seen := map[string]bool{}
	for _, r := range f.rows {
		if r.UserID == userID {
			seen[r.TrackID] = true
		}
	}
	return len(seen), nil
}

func (f *fakeStore) RecentPlays(_ context.Context, userID string, limit int) ([]models.PlayEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.PlayEvent
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func TestIngest_DropsMalformedAndCounts(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	records := []any{
		map[string]any{"id": "t1", "played_at": "2025-01-01T10:00:00Z"},
		map[string]any{"id": "t2"},
		"garbage",
		models.RawPlay{TrackID: "t3", PlayedAt: &playedAt},
	}
	res, err := svc.Ingest(context.Background(), "u1", records)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	want := models.IngestResult{Received: 4, Accepted: 2, Dropped: 2, Inserted: 2}
	if res != want {
		t.Errorf("result = %+v, want %+v", res, want)
	}
}

func TestIngest_Idempotent(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()
	records := []any{
		map[string]any{"id": "t1", "played_at": "2025-01-01T10:00:00Z"},
		map[string]any{"id": "t2", "played_at": "2025-01-01T10:05:00Z"},
	}

	if _, err := svc.Ingest(ctx, "u1", records); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Ingest(ctx, "u1", records)
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 0 || res.Accepted != 2 {
		t.Errorf("second ingest = %+v, want 2 accepted and 0 inserted", res)
	}
	if n, _ := svc.Count(ctx, "u1"); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestIngest_EmptyBatchSkipsStore(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	res, err := svc.Ingest(context.Background(), "u1", []any{map[string]any{"name": "no id"}})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if store.insertCalls != 0 {
		t.Errorf("store called %d times for an empty batch", store.insertCalls)
	}
	if res.Dropped != 1 || res.Accepted != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestIngest_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewService(&fakeStore{err: boom})

	_, err := svc.Ingest(context.Background(), "u1", []any{models.RawPlay{TrackID: "t1", PlayedAt: &playedAt}})
	if !errors.Is(err, boom) {
		t.Fatalf("Ingest() error = %v, want wrapped %v", err, boom)
	}
}

func TestIngestRaw(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	later := playedAt.Add(time.Minute)

	res, err := svc.IngestRaw(context.Background(), "u1", []models.RawPlay{
		{TrackID: "t1", PlayedAt: &playedAt, DurationMS: 1000},
		{TrackID: "t2", PlayedAt: &later},
		{TrackID: "t3"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Inserted != 2 || res.Dropped != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestCount_BlankUser(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)

	for _, user := range []string{"", "   "} {
		n, err := svc.Count(context.Background(), user)
		if err != nil || n != 0 {
			t.Errorf("Count(%q) = %d, %v; want 0, nil", user, n, err)
		}
	}
	if store.countCalls != 0 {
		t.Errorf("store queried %d times for blank users", store.countCalls)
	}
}

func TestRecentEntries(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()

	var records []any
	for i := 0; i < 5; i++ {
		at := playedAt.Add(time.Duration(i) * time.Hour)
		records = append(records, models.RawPlay{TrackID: string(rune('a' + i)), TrackName: "n", PlayedAt: &at})
	}
	if _, err := svc.Ingest(ctx, "u1", records); err != nil {
		t.Fatal(err)
	}

	entries, err := svc.RecentEntries(ctx, "u1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].TrackID != "e" || entries[2].TrackID != "c" {
		t.Errorf("entries not newest first: %s..%s", entries[0].TrackID, entries[2].TrackID)
	}
}

func TestRecentEntries_StoreFailure(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("closed")})
	if _, err := svc.RecentEntries(context.Background(), "u1", 10); err == nil {
		t.Fatal("expected error")
	}
}
