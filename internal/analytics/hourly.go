// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

// DefaultHourlyLimit is used for any limit outside HourlyLimits.
const DefaultHourlyLimit = 100

// HourlyLimits are the sample sizes a caller may request.
var HourlyLimits = []int{10, 25, 50, 100}

// NormalizeHourlyLimit returns limit when it is one of HourlyLimits and
// DefaultHourlyLimit otherwise.
func NormalizeHourlyLimit(limit int) int {
	for _, l := range HourlyLimits {
		if l == limit {
			return limit
		}
	}
	return DefaultHourlyLimit
}

// HourLabel formats hour (0-23) on a 12-hour clock: "12 AM", "1 PM".
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return fmt.Sprintf("%d AM", hour)
	case hour == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", hour-12)
	}
}

// HourlySummary counts the first limit entries by local hour of play.
func HourlySummary(entries []models.HistoryEntry, loc *time.Location, limit int) models.HourlySummary {
	start := time.Now()
	if loc == nil {
		loc = time.UTC
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	summary := EmptyHourly()
	for i := range entries {
		if entries[i].PlayedAt.IsZero() {
			continue
		}
		summary.Chart.Series[entries[i].PlayedAt.In(loc).Hour()]++
		summary.SampleSize++
	}

	for hour, count := range summary.Chart.Series {
		if count == 0 {
			continue
		}
		summary.TopHours = append(summary.TopHours, models.HourCount{
			Hour:       hour,
			Label:      HourLabel(hour),
			Count:      count,
			Percentage: percentage(count, summary.SampleSize),
		})
	}
	sort.SliceStable(summary.TopHours, func(i, j int) bool {
		a, b := summary.TopHours[i], summary.TopHours[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Hour < b.Hour
	})

	metrics.RecordAggregation("hourly", summary.SampleSize, time.Since(start))
	return summary
}

// EmptyHourly is the summary of no plays: 24 zero buckets and no top hours.
func EmptyHourly() models.HourlySummary {
	labels := make([]string, 24)
	for h := range labels {
		labels[h] = HourLabel(h)
	}
	return models.HourlySummary{
		Chart: models.HourlyChart{
			Labels: labels,
			Series: make([]int, 24),
		},
		TopHours: []models.HourCount{},
	}
}

// percentage returns part/total as a percentage with one decimal.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
