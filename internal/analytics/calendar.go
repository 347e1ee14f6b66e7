// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package analytics

import (
	"time"

	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
)

const (
	// CalendarSampleLimit is the number of recent entries the calendar reads.
	CalendarSampleLimit = 500

	// DefaultCalendarWeeks is the grid height when none is configured.
	DefaultCalendarWeeks = 12

	dateLayout = "2006-01-02"
)

// EmptyCalendar is the summary served when recent plays could not be
// fetched: no weeks and no sample.
func EmptyCalendar() models.CalendarSummary {
	return models.CalendarSummary{Weeks: []models.CalendarWeek{}}
}

// CalendarSummary builds a heatmap of plays per local date.
//
// The grid has weeks rows, each starting on a Sunday. The first row is the
// week weeks-1 weeks before the week containing today; the last row ends at
// today, so it may be shorter than seven days. Entries outside the grid
// still count toward SampleSize.
func CalendarSummary(entries []models.HistoryEntry, loc *time.Location, today time.Time, weeks int) models.CalendarSummary {
	start := time.Now()
	if loc == nil {
		loc = time.UTC
	}
	if weeks <= 0 {
		weeks = DefaultCalendarWeeks
	}

	counts := make(map[string]int, len(entries))
	sample := 0
	for i := range entries {
		if entries[i].PlayedAt.IsZero() {
			continue
		}
		counts[entries[i].PlayedAt.In(loc).Format(dateLayout)]++
		sample++
	}

	today = today.In(loc)
	y, m, d := today.Date()
	// Day arithmetic through time.Date keeps every cell at local midnight
	// across DST changes.
	firstDay := d - int(today.Weekday()) - 7*(weeks-1)
	last := time.Date(y, m, d, 0, 0, 0, 0, loc)

	summary := models.CalendarSummary{SampleSize: sample}
	var week models.CalendarWeek
	for offset := 0; ; offset++ {
		day := time.Date(y, m, firstDay+offset, 0, 0, 0, 0, loc)
		if day.After(last) {
			break
		}
		date := day.Format(dateLayout)
		count := counts[date]
		if count > summary.MaxCount {
			summary.MaxCount = count
		}
		week.Days = append(week.Days, models.CalendarDay{
			Date:    date,
			Weekday: int(day.Weekday()),
			Count:   count,
		})
		if day.Weekday() == time.Saturday {
			summary.Weeks = append(summary.Weeks, week)
			week = models.CalendarWeek{}
		}
	}
	if len(week.Days) > 0 {
		summary.Weeks = append(summary.Weeks, week)
	}

	for w := range summary.Weeks {
		for i := range summary.Weeks[w].Days {
			cell := &summary.Weeks[w].Days[i]
			cell.Level = IntensityLevel(cell.Count, summary.MaxCount)
		}
	}
	if n := len(summary.Weeks); n > 0 {
		summary.StartDate = summary.Weeks[0].Days[0].Date
		lastWeek := summary.Weeks[n-1].Days
		summary.EndDate = lastWeek[len(lastWeek)-1].Date
	}

	metrics.RecordAggregation("calendar", sample, time.Since(start))
	return summary
}

// IntensityLevel maps count to a heatmap level 0-4 relative to maxCount.
// A zero count, or a zero maxCount, is level 0.
func IntensityLevel(count, maxCount int) int {
	if count <= 0 || maxCount <= 0 {
		return 0
	}
	ratio := float64(count) / float64(maxCount)
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}
