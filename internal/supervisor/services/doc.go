// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package services provides suture.Service wrappers for Cadence components.

Each wrapper turns a component's own lifecycle into suture's context-aware
Serve pattern:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService runs an *http.Server and shuts it down gracefully when the
context is canceled. http.ErrServerClosed is treated as a clean stop.

CacheGCService calls RunGC on the response cache at a fixed interval. A GC
error is logged and the loop continues until the context is canceled.

Both implement fmt.Stringer so suture can name them in its events.
*/
package services
