// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package history persists the plays reported by the upstream service and
// reads them back for the analytics summaries.
//
// Ingestion is idempotent: the event store ignores a play whose
// (user, track, played_at) key already exists, so the same recently-played
// page can be submitted any number of times.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

// Store is the subset of the event store used by Service.
type Store interface {
	InsertPlays(ctx context.Context, events []models.PlayEvent) (int64, error)
	CountDistinctTracks(ctx context.Context, userID string) (int, error)
	RecentPlays(ctx context.Context, userID string, limit int) ([]models.PlayEvent, error)
}

// Service ingests and reads the listening history of users.
type Service struct {
	store Store
}

// NewService creates a history service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Ingest normalises records and writes them for userID.
//
// Malformed records are dropped and counted in the result. A batch with
// nothing left to write succeeds without touching the store. The only error
// is a store failure.
func (s *Service) Ingest(ctx context.Context, userID string, records []any) (models.IngestResult, error) {
	result := models.IngestResult{Received: len(records)}

	events := make([]models.PlayEvent, 0, len(records))
	for _, rec := range records {
		if ev, ok := NormalizePlay(userID, rec); ok {
			events = append(events, ev)
		}
	}
	result.Accepted = len(events)
	result.Dropped = result.Received - result.Accepted

	if len(events) == 0 {
		metrics.RecordIngest(result.Received, 0, 0, nil)
		return result, nil
	}

	inserted, err := s.store.InsertPlays(ctx, events)
	metrics.RecordIngest(result.Received, result.Accepted, inserted, err)
	if err != nil {
		return result, fmt.Errorf("failed to ingest plays: %w", err)
	}
	result.Inserted = inserted

	logging.Ctx(ctx).Debug().
		Int("received", result.Received).
		Int("dropped", result.Dropped).
		Int64("inserted", inserted).
		Msg("Ingested plays")
	return result, nil
}

// IngestRaw is Ingest for plays already decoded by the upstream client.
func (s *Service) IngestRaw(ctx context.Context, userID string, plays []models.RawPlay) (models.IngestResult, error) {
	records := make([]any, len(plays))
	for i := range plays {
		records[i] = plays[i]
	}
	return s.Ingest(ctx, userID, records)
}

// Count returns the number of distinct tracks userID has played. A blank
// user id has no history.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, nil
	}
	n, err := s.store.CountDistinctTracks(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// RecentEntries returns up to limit plays of userID, newest first.
func (s *Service) RecentEntries(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	plays, err := s.store.RecentPlays(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read recent plays: %w", err)
	}
	entries := make([]models.HistoryEntry, len(plays))
	for i := range plays {
		entries[i] = plays[i].Entry()
	}
	return entries, nil
}
