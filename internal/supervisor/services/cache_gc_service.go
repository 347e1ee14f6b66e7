// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// DefaultCacheGCInterval is used when no interval is given.
const DefaultCacheGCInterval = 10 * time.Minute

// GarbageCollector is satisfied by *cache.Cache.
type GarbageCollector interface {
	RunGC() error
}

// CacheGCService reclaims Badger value-log space on a fixed interval.
type CacheGCService struct {
	gc       GarbageCollector
	interval time.Duration
}

// NewCacheGCService creates the service.
func NewCacheGCService(gc GarbageCollector, interval time.Duration) *CacheGCService {
	if interval <= 0 {
		interval = DefaultCacheGCInterval
	}
	return &CacheGCService{gc: gc, interval: interval}
}

// Serve implements suture.Service.
func (s *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Response cache GC failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Response cache GC finished")
		}
	}
}

func (s *CacheGCService) String() string {
	return "cache-gc"
}
