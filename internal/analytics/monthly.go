// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/upstream"
)

const (
	// DefaultMonthlyLimit is used for limits outside 1..MonthlyMaxLimit.
	DefaultMonthlyLimit = 500

	// MonthlyMaxLimit is the largest sample a caller may request.
	MonthlyMaxLimit = 1000
)

var msPerHour = decimal.NewFromInt(3_600_000)

// PlaySource provides recent plays with their track durations.
type PlaySource interface {
	RecentlyPlayed(ctx context.Context, limit int) ([]models.RawPlay, error)
}

// NormalizeMonthlyLimit returns limit when it is in 1..MonthlyMaxLimit and
// DefaultMonthlyLimit otherwise.
func NormalizeMonthlyLimit(limit int) int {
	if limit < 1 || limit > MonthlyMaxLimit {
		return DefaultMonthlyLimit
	}
	return limit
}

// HoursFromMS converts milliseconds to hours, rounded half-up to one
// decimal place.
func HoursFromMS(ms int64) float64 {
	return decimal.NewFromInt(ms).Div(msPerHour).Round(1).InexactFloat64()
}

// EmptyMonthly is the summary of no plays.
func EmptyMonthly() models.MonthlySummary {
	return models.MonthlySummary{
		Chart: models.MonthlyChart{
			Labels: []string{},
			Series: []float64{},
		},
		Buckets: []models.MonthBucket{},
	}
}

// MonthlySummary reads up to limit recent plays from source and totals
// listening time per local calendar month.
//
// A rejected token (upstream.ErrUnauthorized or ErrInsufficientScope) is
// returned to the caller. Any other source failure is logged and yields
// EmptyMonthly with Unavailable set and a nil error.
func MonthlySummary(ctx context.Context, source PlaySource, loc *time.Location, limit int) (models.MonthlySummary, error) {
	if loc == nil {
		loc = time.UTC
	}
	limit = NormalizeMonthlyLimit(limit)

	plays, err := source.RecentlyPlayed(ctx, limit)
	if err != nil {
		if upstream.IsAuthError(err) {
			return EmptyMonthly(), err
		}
		logging.Ctx(ctx).Warn().Err(err).
			Str("action", "monthly").
			Int("limit", limit).
			Msg("Failed to fetch monthly listening stats")
		metrics.RecordAggregationFallback("monthly")
		summary := EmptyMonthly()
		summary.Unavailable = true
		return summary, nil
	}

	return summarizeMonths(plays, loc), nil
}

func summarizeMonths(plays []models.RawPlay, loc *time.Location) models.MonthlySummary {
	start := time.Now()
	summary := EmptyMonthly()

	buckets := make(map[time.Time]*models.MonthBucket)
	for i := range plays {
		if plays[i].PlayedAt == nil || plays[i].PlayedAt.IsZero() {
			continue
		}
		at := plays[i].PlayedAt.In(loc)
		month := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, loc)

		b, ok := buckets[month]
		if !ok {
			b = &models.MonthBucket{Label: month.Format("Jan 2006"), Month: month}
			buckets[month] = b
		}
		b.Count++
		b.DurationMS += plays[i].DurationMS

		summary.SampleSize++
		summary.TotalDurationMS += plays[i].DurationMS
		if summary.HistoryWindow == nil {
			summary.HistoryWindow = &models.HistoryWindow{Earliest: at, Latest: at}
		} else {
			if at.Before(summary.HistoryWindow.Earliest) {
				summary.HistoryWindow.Earliest = at
			}
			if at.After(summary.HistoryWindow.Latest) {
				summary.HistoryWindow.Latest = at
			}
		}
	}

	for _, b := range buckets {
		b.Hours = HoursFromMS(b.DurationMS)
		summary.Buckets = append(summary.Buckets, *b)
	}
	sort.Slice(summary.Buckets, func(i, j int) bool {
		return summary.Buckets[i].Month.Before(summary.Buckets[j].Month)
	})
	for _, b := range summary.Buckets {
		summary.Chart.Labels = append(summary.Chart.Labels, b.Label)
		summary.Chart.Series = append(summary.Chart.Series, b.Hours)
	}
	summary.TotalHours = HoursFromMS(summary.TotalDurationMS)

	metrics.RecordAggregation("monthly", summary.SampleSize, time.Since(start))
	return summary
}
