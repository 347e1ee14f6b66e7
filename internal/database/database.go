// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package database is the play event store.
//
// It owns one append-only table, play_events, whose rows are unique on
// (user_id, track_id, played_at). Writes use the engine's native
// INSERT ... ON CONFLICT DO NOTHING so overlapping ingestion of the same
// plays is safe without locks or existence checks.
//
// Two engines are supported through the same SQL: DuckDB (default) and
// SQLite via the pure-Go modernc driver.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
)

// defaultQueryTimeout bounds statements whose context has no deadline.
const defaultQueryTimeout = 30 * time.Second

// DB wraps the SQL connection pool of the selected engine.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	dialect dialect
}

// New opens the event store described by cfg and applies pending
// migrations. An empty Path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if cfg.Path != "" && cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open(d.driverName, d.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	d.configurePool(conn, cfg)

	db := &DB{conn: conn, cfg: cfg, dialect: d}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to %s: %w", d.name, err)
	}

	if err := db.runMigrations(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Str("driver", d.name).
		Str("path", displayPath(cfg.Path)).
		Msg("Event store ready")

	return db, nil
}

// Driver returns the engine name, duckdb or sqlite.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Conn returns the underlying pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks that the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close checkpoints (DuckDB) and closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.dialect.checkpointSQL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
		if _, err := db.conn.ExecContext(ctx, db.dialect.checkpointSQL); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// ensureContext adds the default timeout when ctx has no deadline.
func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), defaultQueryTimeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, defaultQueryTimeout)
	}
	return ctx, func() {}
}

func displayPath(path string) string {
	if path == "" || path == ":memory:" {
		return "(memory)"
	}
	return path
}
