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
)

// HourlyPatterns syncs recent plays from upstream, then aggregates the
// stored history by local hour of day.
func (h *Handler) HourlyPatterns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}
	loc, tz, err := resolveLocation(r, h.analytics.DefaultTimezone)
	if err != nil {
		rw.ValidationError("Invalid timezone", validationDetails(err))
		return
	}

	limit := analytics.NormalizeHourlyLimit(queryInt(r, "limit", analytics.DefaultHourlyLimit))
	meta := models.Metadata{Timezone: tz, Limit: limit}

	src, err := h.source(ctx, userID, token)
	if err == nil {
		err = h.syncRecent(ctx, userID, src, "hourly")
	}
	if err != nil {
		if handleUpstreamError(ctx, rw, "hourly", err) {
			return
		}
		meta.Alert = UpstreamAlert
		rw.SuccessWithMeta(analytics.EmptyHourly(), meta)
		return
	}

	entries, err := h.history.RecentEntries(ctx, userID, limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithMeta(analytics.HourlySummary(entries, loc, limit), meta)
}

// CalendarPatterns syncs recent plays, then lays the stored history out as
// a Sunday-aligned week grid ending today.
func (h *Handler) CalendarPatterns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}
	loc, tz, err := resolveLocation(r, h.analytics.DefaultTimezone)
	if err != nil {
		rw.ValidationError("Invalid timezone", validationDetails(err))
		return
	}

	today := h.now().In(loc)
	weeks := h.analytics.CalendarWeeks
	meta := models.Metadata{Timezone: tz, Limit: analytics.CalendarSampleLimit}

	src, err := h.source(ctx, userID, token)
	if err == nil {
		err = h.syncRecent(ctx, userID, src, "calendar")
	}
	if err != nil {
		if handleUpstreamError(ctx, rw, "calendar", err) {
			return
		}
		meta.Alert = UpstreamAlert
		rw.SuccessWithMeta(analytics.EmptyCalendar(), meta)
		return
	}

	entries, err := h.history.RecentEntries(ctx, userID, analytics.CalendarSampleLimit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessWithMeta(analytics.CalendarSummary(entries, loc, today, weeks), meta)
}

// MonthlyPatterns totals listening hours per local month from upstream
// recently-played data.
func (h *Handler) MonthlyPatterns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	token, err := bearerToken(r)
	if err != nil {
		rw.Unauthorized("A music service access token is required")
		return
	}
	loc, tz, err := resolveLocation(r, h.analytics.DefaultTimezone)
	if err != nil {
		rw.ValidationError("Invalid timezone", validationDetails(err))
		return
	}

	limit := analytics.NormalizeMonthlyLimit(queryInt(r, "limit", analytics.DefaultMonthlyLimit))
	meta := models.Metadata{Timezone: tz, Limit: limit}

	src, err := h.source(ctx, userID, token)
	var summary models.MonthlySummary
	if err == nil {
		summary, err = analytics.MonthlySummary(ctx, src, loc, limit)
	}
	if err != nil {
		if !handleUpstreamError(ctx, rw, "monthly", err) {
			meta.Alert = UpstreamAlert
			rw.SuccessWithMeta(analytics.EmptyMonthly(), meta)
		}
		return
	}
	if summary.Unavailable {
		meta.Alert = UpstreamAlert
	}
	rw.SuccessWithMeta(summary, meta)
}
