// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"time"
)

// HourlySummary is the distribution of plays over local hours of the day.
type HourlySummary struct {
	SampleSize int         `json:"sample_size"`
	Chart      HourlyChart `json:"chart"`
	TopHours   []HourCount `json:"top_hours"`
}

// HourlyChart has exactly 24 labels and 24 values, indexed by hour.
type HourlyChart struct {
	Labels []string `json:"labels"`
	Series []int    `json:"series"`
}

// HourCount is one ranked hour.
type HourCount struct {
	Hour       int     `json:"hour"`
	Label      string  `json:"label"` // "12 AM" .. "11 PM"
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"` // of SampleSize, one decimal
}

// CalendarSummary is a week-aligned daily heatmap.
type CalendarSummary struct {
	SampleSize int            `json:"sample_size"`
	MaxCount   int            `json:"max_count"`
	StartDate  string         `json:"start_date,omitempty"` // 2006-01-02
	EndDate    string         `json:"end_date,omitempty"`
	Weeks      []CalendarWeek `json:"weeks"`
}

// CalendarWeek is one Sunday-first row. The final row stops at today.
type CalendarWeek struct {
	Days []CalendarDay `json:"days"`
}

// CalendarDay is one heatmap cell.
type CalendarDay struct {
	Date    string `json:"date"` // 2006-01-02 in the requested timezone
	Weekday int    `json:"weekday"`
	Count   int    `json:"count"`
	Level   int    `json:"level"` // 0..4
}

// MonthlySummary is the month-over-month listening trend.
type MonthlySummary struct {
	Chart           MonthlyChart   `json:"chart"`
	Buckets         []MonthBucket  `json:"buckets"`
	SampleSize      int            `json:"sample_size"`
	TotalDurationMS int64          `json:"total_duration_ms"`
	TotalHours      float64        `json:"total_hours"`
	HistoryWindow   *HistoryWindow `json:"history_window,omitempty"`

	// Unavailable is set when the upstream failed and the summary was
	// replaced by its empty form.
	Unavailable bool `json:"unavailable,omitempty"`
}

// MonthlyChart pairs month labels with listening hours.
type MonthlyChart struct {
	Labels []string  `json:"labels"`
	Series []float64 `json:"series"`
}

// MonthBucket accumulates the plays of one local calendar month.
type MonthBucket struct {
	Label      string    `json:"label"` // "Jan 2006"
	Month      time.Time `json:"month"` // first instant of the month, local
	DurationMS int64     `json:"duration_ms"`
	Count      int       `json:"count"`
	Hours      float64   `json:"hours"`
}

// HistoryWindow bounds the plays that fed a summary.
type HistoryWindow struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// PreviousMonth returns the first bucket. Buckets are chronological, so this
// is the earliest month in the sample rather than the calendar month before
// now.
func (s *MonthlySummary) PreviousMonth() (MonthBucket, bool) {
	if len(s.Buckets) == 0 {
		return MonthBucket{}, false
	}
	return s.Buckets[0], true
}
