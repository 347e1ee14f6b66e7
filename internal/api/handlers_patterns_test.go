// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/tomtom215/cadence/internal/models"
	"github.com/tomtom215/cadence/internal/upstream"
)

func TestHourlyPatterns_SyncsAndAggregates(t *testing.T) {
	env := setupTestEnv(t)

	// 14:xx UTC in January is 8 AM in Chicago.
	base := time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)
	env.source.plays = []models.RawPlay{
		rawPlay("a", base, 1000),
		rawPlay("b", base.Add(10*time.Minute), 1000),
		rawPlay("c", base.Add(3*time.Hour), 1000),
	}

	rec, resp := env.do(t, request{
		path:  "/api/v1/users/u1/patterns/hourly?tz=America/Chicago",
		token: testToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var summary models.HourlySummary
	decodeData(t, resp, &summary)
	if summary.SampleSize != 3 {
		t.Errorf("SampleSize = %d, want 3", summary.SampleSize)
	}
	if len(summary.Chart.Series) != 24 || summary.Chart.Series[8] != 2 || summary.Chart.Series[11] != 1 {
		t.Errorf("Series = %v, want 2 at 8 and 1 at 11", summary.Chart.Series)
	}
	if len(summary.TopHours) == 0 || summary.TopHours[0].Label != "8 AM" {
		t.Errorf("TopHours = %+v, want 8 AM first", summary.TopHours)
	}
	if resp.Metadata.Timezone != "America/Chicago" || resp.Metadata.Limit != 100 {
		t.Errorf("metadata = %+v, want America/Chicago and limit 100", resp.Metadata)
	}
	if resp.Metadata.Alert != "" {
		t.Errorf("unexpected alert %q", resp.Metadata.Alert)
	}

	n, err := env.history.Count(context.Background(), "u1")
	if err != nil || n != 3 {
		t.Errorf("synced tracks = %d (%v), want 3", n, err)
	}
	if len(env.source.tokens) == 0 || env.source.tokens[0] != testToken {
		t.Errorf("session tokens = %v, want %q", env.source.tokens, testToken)
	}
}

func TestHourlyPatterns_LimitAndTimezoneHeader(t *testing.T) {
	env := setupTestEnv(t)

	rec, resp := env.do(t, request{
		path:    "/api/v1/users/u1/patterns/hourly?limit=25",
		token:   testToken,
		headers: map[string]string{TimezoneHeader: "Europe/Berlin"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Metadata.Limit != 25 || resp.Metadata.Timezone != "Europe/Berlin" {
		t.Errorf("metadata = %+v, want limit 25 in Europe/Berlin", resp.Metadata)
	}

	_, resp = env.do(t, request{path: "/api/v1/users/u1/patterns/hourly?limit=7", token: testToken})
	if resp.Metadata.Limit != 100 || resp.Metadata.Timezone != "UTC" {
		t.Errorf("metadata = %+v, want limit 100 in UTC", resp.Metadata)
	}
}

func TestCalendarPatterns(t *testing.T) {
	today := time.Date(2025, 3, 12, 18, 0, 0, 0, time.UTC) // a Wednesday
	env := setupTestEnv(t, withNow(today))

	env.source.plays = []models.RawPlay{
		rawPlay("a", today.Add(-time.Hour), 1000),
		rawPlay("b", today.Add(-2*time.Hour), 1000),
		rawPlay("c", today.Add(-24*time.Hour), 1000),
	}

	rec, resp := env.do(t, request{path: "/api/v1/users/u1/patterns/calendar", token: testToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var summary models.CalendarSummary
	decodeData(t, resp, &summary)
	if summary.SampleSize != 3 || summary.MaxCount != 2 {
		t.Errorf("summary = sample %d max %d, want 3 and 2", summary.SampleSize, summary.MaxCount)
	}
	if len(summary.Weeks) != 12 {
		t.Fatalf("weeks = %d, want 12", len(summary.Weeks))
	}
	last := summary.Weeks[len(summary.Weeks)-1].Days
	if len(last) != 4 {
		t.Fatalf("last row has %d days, want 4 (Sun..Wed)", len(last))
	}
	if last[3].Date != "2025-03-12" || last[3].Count != 2 || last[3].Level != 4 {
		t.Errorf("today cell = %+v, want 2025-03-12 count 2 level 4", last[3])
	}
	if summary.EndDate != "2025-03-12" {
		t.Errorf("EndDate = %q, want 2025-03-12", summary.EndDate)
	}
	if resp.Metadata.Limit != 500 {
		t.Errorf("metadata.limit = %d, want 500", resp.Metadata.Limit)
	}
}

func TestMonthlyPatterns(t *testing.T) {
	env := setupTestEnv(t)

	env.source.plays = []models.RawPlay{
		rawPlay("a", time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC), 3_600_000),
		rawPlay("b", time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC), 1_800_000),
		rawPlay("c", time.Date(2025, 1, 21, 12, 0, 0, 0, time.UTC), 1_800_000),
	}

	rec, resp := env.do(t, request{path: "/api/v1/users/u1/patterns/monthly?limit=2000", token: testToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	var summary models.MonthlySummary
	decodeData(t, resp, &summary)
	if len(summary.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(summary.Buckets))
	}
	if summary.Buckets[0].Label != "Jan 2025" || summary.Buckets[0].Hours != 1 {
		t.Errorf("first bucket = %+v, want Jan 2025 with 1 hour", summary.Buckets[0])
	}
	if summary.TotalHours != 2 {
		t.Errorf("TotalHours = %v, want 2", summary.TotalHours)
	}
	if resp.Metadata.Limit != 500 {
		t.Errorf("metadata.limit = %d, want 500 for an out-of-range limit", resp.Metadata.Limit)
	}
}

func TestPatterns_UpstreamErrorMapping(t *testing.T) {
	paths := []string{
		"/api/v1/users/u1/patterns/hourly",
		"/api/v1/users/u1/patterns/calendar",
		"/api/v1/users/u1/patterns/monthly",
		"/api/v1/users/u1/journey",
		"/api/v1/users/u1/top-tracks",
		"/api/v1/users/u1/top-artists",
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantAlert  bool
	}{
		{
			name:       "unauthorized",
			err:        &upstream.Error{Op: "recently_played", StatusCode: http.StatusUnauthorized, Err: upstream.ErrUnauthorized},
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeUnauthorized,
		},
		{
			name:       "insufficient scope",
			err:        &upstream.Error{Op: "recently_played", StatusCode: http.StatusForbidden, Err: upstream.ErrInsufficientScope},
			wantStatus: http.StatusUnauthorized,
			wantCode:   ErrCodeReauthRequired,
		},
		{
			name:       "server error",
			err:        &upstream.Error{Op: "recently_played", StatusCode: http.StatusBadGateway, Retryable: true},
			wantStatus: http.StatusOK,
			wantAlert:  true,
		},
		{
			name:       "circuit open",
			err:        &upstream.Error{Op: "upstream-api", Err: upstream.ErrCircuitOpen, Retryable: true},
			wantStatus: http.StatusOK,
			wantAlert:  true,
		},
		{
			name:       "network",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusOK,
			wantAlert:  true,
		},
	}

	for _, tt := range tests {
		for _, path := range paths {
			t.Run(tt.name+" "+path, func(t *testing.T) {
				env := setupTestEnv(t)
				env.source.err = tt.err

				rec, resp := env.do(t, request{path: path, token: testToken})
				if rec.Code != tt.wantStatus {
					t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
				}
				if tt.wantCode != "" {
					if resp.Error == nil || resp.Error.Code != tt.wantCode {
						t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
					}
					return
				}
				if resp.Status != "success" {
					t.Errorf("status = %q, want success", resp.Status)
				}
				if tt.wantAlert && resp.Metadata.Alert != UpstreamAlert {
					t.Errorf("alert = %q, want %q", resp.Metadata.Alert, UpstreamAlert)
				}
				if len(resp.Data) == 0 || string(resp.Data) == "null" {
					t.Errorf("data = %s, want an empty summary", resp.Data)
				}
				if path == "/api/v1/users/u1/patterns/calendar" {
					var cal models.CalendarSummary
					decodeData(t, resp, &cal)
					if cal.Weeks == nil || len(cal.Weeks) != 0 || cal.SampleSize != 0 {
						t.Errorf("calendar = %+v, want no weeks and no sample", cal)
					}
				}
			})
		}
	}
}

func TestPatterns_RequireToken(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{
		"/api/v1/users/u1/patterns/hourly",
		"/api/v1/users/u1/patterns/calendar",
		"/api/v1/users/u1/patterns/monthly",
		"/api/v1/users/u1/journey",
		"/api/v1/users/u1/top-tracks",
		"/api/v1/users/u1/top-artists",
	} {
		rec, resp := env.do(t, request{path: path})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, rec.Code)
			continue
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeUnauthorized {
			t.Errorf("%s: error = %+v, want UNAUTHORIZED", path, resp.Error)
		}
	}
	if recent, top := env.source.calls(); recent != 0 || top != 0 || env.source.meCalls != 0 {
		t.Errorf("upstream calls = %d/%d/%d, want none", recent, top, env.source.meCalls)
	}
}

func TestPatterns_ForeignToken(t *testing.T) {
	paths := []string{
		"/api/v1/users/u2/patterns/hourly",
		"/api/v1/users/u2/patterns/calendar",
		"/api/v1/users/u2/patterns/monthly",
		"/api/v1/users/u2/journey",
		"/api/v1/users/u2/top-tracks",
		"/api/v1/users/u2/top-artists",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			env := setupTestEnv(t)
			env.source.plays = []models.RawPlay{
				rawPlay("t1", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 180000),
			}

			rec, resp := env.do(t, request{path: path, token: testToken})
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want 403 (%s)", rec.Code, rec.Body.String())
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeForbidden {
				t.Errorf("error = %+v, want FORBIDDEN", resp.Error)
			}
			if recent, top := env.source.calls(); recent != 0 || top != 0 {
				t.Errorf("upstream data fetched %d/%d times for a foreign token", recent, top)
			}

			count, err := env.history.Count(context.Background(), "u2")
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if count != 0 {
				t.Errorf("stored %d plays for u2 from u1's token", count)
			}
		})
	}
}

func TestPatterns_InvalidTimezone(t *testing.T) {
	env := setupTestEnv(t)

	rec, resp := env.do(t, request{path: "/api/v1/users/u1/patterns/hourly?tz=Mars/Olympus", token: testToken})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want %s", resp.Error, ErrCodeValidationFailed)
	}
}
