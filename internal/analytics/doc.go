// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package analytics turns listening history into the summaries shown to users.

The hourly and calendar summaries read stored history entries; the monthly
summary reads the upstream recently-played feed directly because it needs
track durations; the journey classifier compares a user's top tracks across
the long, medium and short term windows.

Summaries are computed in a caller supplied *time.Location. Local hours and
dates come from converting each instant, so plays on either side of a
daylight saving change land in the hour the listener saw on the clock.

All functions except MonthlySummary are pure and accept empty input.
*/
package analytics
