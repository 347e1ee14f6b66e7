// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package api serves the Cadence HTTP API on a chi router.

Every response uses the models.APIResponse envelope:

	{"status": "success", "data": {...}, "metadata": {"timestamp": "...", "query_time_ms": 3}}
	{"status": "error", "error": {"code": "UNAUTHORIZED", "message": "..."}, "metadata": {...}}

Routes under /api/v1/users/{userID}:

	POST   /plays              ingest a JSON array of raw play records
	GET    /plays/count        distinct tracks in the stored history
	GET    /plays/recent       newest history entries (?limit=1..500)
	GET    /patterns/hourly    plays per local hour (?limit=&tz=)
	GET    /patterns/calendar  week grid ending today (?tz=)
	GET    /patterns/monthly   listening hours per month (?limit=&tz=)
	GET    /journey            tracks grouped by engagement badge (?max_per_badge=)
	GET    /top-tracks         one top-tracks window (?time_range=&limit=)
	GET    /top-artists        top artists per window with follow flags and a
	                           genre chart (?limit_long_term=&limit_medium_term=&limit_short_term=)
	DELETE /cache              drop cached upstream responses

Endpoints that reach the music service, and DELETE /cache, need
"Authorization: Bearer <token>". The token's owner is looked up upstream on
every request and must be {userID}. Cached responses are scoped to the
token they were fetched with.
The timezone comes from ?tz=, then the X-Timezone header, then
analytics.default_timezone.

Upstream errors map as follows:

  - rejected token: 401 UNAUTHORIZED
  - token of another user: 403 FORBIDDEN
  - missing scope: 401 REAUTH_REQUIRED
  - anything else: 200 with empty data and metadata.alert set
  - store failures: 500 DATABASE_ERROR
*/
package api
