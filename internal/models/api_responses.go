// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package models

import (
	"time"
)

// APIResponse is the envelope of every HTTP response.
//
//	{
//	  "status": "success",
//	  "data": {"sample_size": 42, ...},
//	  "metadata": {"timestamp": "2026-01-05T12:00:00Z", "query_time_ms": 4}
//	}
//
// When the upstream music service is unavailable the status stays "success",
// data holds the empty summary and metadata.alert carries the message shown
// to the listener.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata holds per-response bookkeeping.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Timezone    string    `json:"timezone,omitempty"`
	Limit       int       `json:"limit,omitempty"`
	Alert       string    `json:"alert,omitempty"`
}

// APIError is the machine-readable error body.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
