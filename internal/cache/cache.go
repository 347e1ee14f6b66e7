// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package cache stores upstream responses per user in BadgerDB with a
// time-to-live, so repeated page loads within the TTL do not spend the
// upstream rate limit.
package cache

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

const keyPrefix = "resp:"

// Cache is a BadgerDB-backed response cache. It is safe for concurrent use.
type Cache struct {
	db       *badger.DB
	ttl      time.Duration
	inMemory bool
	hits     atomic.Int64
	misses   atomic.Int64
}

// Stats tracks cache performance.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Open opens the cache described by cfg. It returns nil, nil when the cache
// is disabled; a nil *Cache is a valid, always-missing cache.
func Open(cfg *config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory || cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", opts.InMemory).
		Dur("ttl", cfg.TTL).
		Msg("Response cache opened")

	return &Cache{db: db, ttl: cfg.TTL, inMemory: opts.InMemory}, nil
}

// userPrefix is length-prefixed so that no user id is a prefix of another
// user's keys.
func userPrefix(userID string) []byte {
	return []byte(keyPrefix + strconv.Itoa(len(userID)) + ":" + userID + ":")
}

func entryKey(userID, key string) []byte {
	return append(userPrefix(userID), key...)
}

// Get decodes the entry stored under key for userID into dst and reports
// whether it was found.
func (c *Cache) Get(userID, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(userID, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})

	switch {
	case err == nil:
		c.hits.Add(1)
		metrics.RecordCacheLookup(true, nil)
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		c.misses.Add(1)
		metrics.RecordCacheLookup(false, nil)
		return false, nil
	default:
		c.misses.Add(1)
		metrics.RecordCacheLookup(false, err)
		return false, fmt.Errorf("read cache entry: %w", err)
	}
}

// Set stores value under key for userID with the configured TTL.
func (c *Cache) Set(userID, key string, value any) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(entryKey(userID, key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// ClearUser removes every entry of userID and returns how many were removed.
func (c *Cache) ClearUser(userID string) (int, error) {
	if c == nil {
		return 0, nil
	}

	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("list user cache entries: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete cache entry: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush cache deletes: %w", err)
	}
	return len(keys), nil
}

// Stats returns hit and miss counts since Open.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// RunGC reclaims value log space. It returns nil when there was nothing to
// rewrite.
func (c *Cache) RunGC() error {
	if c == nil || c.inMemory {
		return nil
	}
	for {
		err := c.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}
