// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/analytics"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/validation"
)

// Journey is the body of GET journey.
type Journey struct {
	Groups     []models.BadgeGroup `json:"groups"`
	TrackCount int                 `json:"track_count"`
}

// TopTracks is the body of GET top-tracks.
type TopTracks struct {
	TimeRange models.TimeRange  `json:"time_range"`
	Label     string            `json:"label"`
	Tracks    []models.TrackRef `json:"tracks"`
}

// TrackJourney loads all three top-tracks windows and groups the tracks by
// engagement badge.
func (h *Handler) TrackJourney(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}

	req := JourneyRequest{MaxPerBadge: queryInt(r, "max_per_badge", h.analytics.JourneyMaxPerBadge)}
	if err := validation.ValidateStruct(&req); err != nil {
		rw.ValidationError("Invalid max_per_badge", validationDetails(err))
		return
	}
	meta := models.Metadata{Limit: req.MaxPerBadge}

	src, err := h.source(ctx, userID, token)
	var input analytics.JourneyInput
	if err == nil {
		input, err = analytics.LoadJourney(ctx, src, h.analytics.JourneyWindowSize)
	}
	if err != nil {
		if handleUpstreamError(ctx, rw, "journey", err) {
			return
		}
		meta.Alert = UpstreamAlert
		rw.SuccessWithMeta(Journey{Groups: []models.BadgeGroup{}}, meta)
		return
	}

	journeys := analytics.Classify(input, analytics.JourneyOptions{TopCut: h.analytics.JourneyTopCut})
	groups := analytics.GroupByBadge(journeys, req.MaxPerBadge)
	if groups == nil {
		groups = []models.BadgeGroup{}
	}
	rw.SuccessWithMeta(Journey{Groups: groups, TrackCount: len(journeys)}, meta)
}

// TopTracksForRange returns one ranked top-tracks window.
func (h *Handler) TopTracksForRange(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}

	req, err := topTracksRequest(r)
	if err != nil {
		rw.ValidationError("Invalid time_range", validationDetails(err))
		return
	}
	timeRange := models.TimeRange(req.TimeRange)
	limit := analytics.NormalizeTopLimit(req.Limit)
	meta := models.Metadata{Limit: limit}

	src, err := h.source(ctx, userID, token)
	var tracks []models.TrackRef
	if err == nil {
		tracks, err = src.TopTracks(ctx, timeRange, limit)
	}
	if err != nil {
		if handleUpstreamError(ctx, rw, "top_tracks", err) {
			return
		}
		meta.Alert = UpstreamAlert
		tracks = nil
	}
	if tracks == nil {
		tracks = []models.TrackRef{}
	}
	rw.SuccessWithMeta(TopTracks{TimeRange: timeRange, Label: timeRange.Label(), Tracks: tracks}, meta)
}
