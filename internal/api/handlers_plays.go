// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/validation"
)

// maxIngestBodyBytes caps the POST plays body.
const maxIngestBodyBytes = 4 << 20

// PlayCount is the body of GET plays/count.
type PlayCount struct {
	UserID         string `json:"user_id"`
	DistinctTracks int    `json:"distinct_tracks"`
}

// RecentPlays is the body of GET plays/recent.
type RecentPlays struct {
	Entries []models.HistoryEntry `json:"entries"`
	Count   int                   `json:"count"`
}

// IngestPlays stores a JSON array of raw play records. Malformed records are
// dropped and counted, never rejected.
func (h *Handler) IngestPlays(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIngestBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return
		}
		rw.BadRequest("Failed to read request body")
		return
	}

	var records []any
	if err := json.Unmarshal(body, &records); err != nil {
		rw.BadRequest("Request body must be a JSON array of play records")
		return
	}

	result, err := h.history.Ingest(r.Context(), userID, records)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(result)
}

// CountPlays returns the number of distinct tracks in the listener's history.
func (h *Handler) CountPlays(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	n, err := h.history.Count(r.Context(), userID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(PlayCount{UserID: userID, DistinctTracks: n})
}

// RecentPlays returns the newest history entries.
func (h *Handler) RecentPlays(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := chi.URLParam(r, "userID")

	req := RecentPlaysRequest{Limit: queryInt(r, "limit", DefaultRecentLimit)}
	if err := validation.ValidateStruct(&req); err != nil {
		rw.ValidationError("Invalid limit", validationDetails(err))
		return
	}

	entries, err := h.history.RecentEntries(r.Context(), userID, req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	rw.SuccessWithMeta(RecentPlays{Entries: entries, Count: len(entries)}, models.Metadata{Limit: req.Limit})
}
