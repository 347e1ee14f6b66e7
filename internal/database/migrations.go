// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/cadence/internal/logging"
)

// Migration is one versioned schema change. Migrations are append-only:
// never edit or remove one that has shipped.
type Migration struct {
	Version     int
	Name        string
	Description string
	// SQL renders the statement for a dialect.
	SQL       func(d dialect) string
	AppliedAt time.Time
}

func schemaMigrationsTable(d dialect) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at %s NOT NULL
)`, d.timestampType)
}

// migrations returns every schema change in order.
func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "create_play_events",
			Description: "Append-only play event table unique on user, track and played_at",
			SQL: func(d dialect) string {
				return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS play_events (
	user_id TEXT NOT NULL,
	track_id TEXT NOT NULL,
	track_name TEXT,
	artists TEXT,
	album_name TEXT,
	album_image_url TEXT,
	preview_url TEXT,
	track_url TEXT,
	duration_ms BIGINT,
	played_at %[1]s NOT NULL,
	created_at %[1]s NOT NULL,
	updated_at %[1]s NOT NULL,
	UNIQUE (user_id, track_id, played_at)
)`, d.timestampType)
			},
		},
		{
			Version:     2,
			Name:        "index_play_events_user_played_at",
			Description: "Serve recent-history reads without a full scan",
			SQL: func(dialect) string {
				return `CREATE INDEX IF NOT EXISTS idx_play_events_user_played_at ON play_events (user_id, played_at)`
			},
		},
	}
}

// runMigrations applies migrations that are not yet recorded. Each one runs
// in its own transaction together with its bookkeeping row.
func (db *DB) runMigrations(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable(db.dialect)); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return err
	}

	newMigrations := 0
	for _, m := range migrations() {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Str("driver", db.dialect.name).Msg("Applied database migrations")
	}
	return nil
}

func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration v%d: %w", m.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL(db.dialect)); err != nil {
		return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
		m.Version, m.Name, m.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
	}
	return nil
}

func (db *DB) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer closeWithLog(rows, "migration rows")

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	var version int
	if err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// MigrationHistory returns applied migrations in order.
func (db *DB) MigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	defer closeWithLog(rows, "migration rows")

	var history []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}
