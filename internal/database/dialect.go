// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/cadence/internal/config"
)

// dialect captures the few places where DuckDB and SQLite differ. Both
// accept ? placeholders and ON CONFLICT (...) DO NOTHING.
type dialect struct {
	name          string
	driverName    string
	timestampType string
	checkpointSQL string
	// maxParams caps bind parameters per statement.
	maxParams int

	dsn           func(cfg *config.DatabaseConfig) string
	configurePool func(conn *sql.DB, cfg *config.DatabaseConfig)
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "", "duckdb":
		return duckDBDialect, nil
	case "sqlite":
		return sqliteDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q (want duckdb or sqlite)", driver)
	}
}

var duckDBDialect = dialect{
	name:          "duckdb",
	driverName:    "duckdb",
	timestampType: "TIMESTAMP",
	checkpointSQL: "CHECKPOINT",
	maxParams:     12000,
	dsn: func(cfg *config.DatabaseConfig) string {
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		// Extensions are never needed; keep DuckDB from reaching the network.
		return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			cfg.Path, threads, maxMemory)
	},
	configurePool: func(conn *sql.DB, _ *config.DatabaseConfig) {
		conn.SetMaxOpenConns(runtime.NumCPU())
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(time.Hour)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	},
}

var sqliteDialect = dialect{
	name:       "sqlite",
	driverName: "sqlite",
	// DATETIME makes the driver parse stored text back into time.Time.
	timestampType: "DATETIME",
	maxParams:     30000,
	dsn: func(cfg *config.DatabaseConfig) string {
		path := cfg.Path
		if path == "" || path == ":memory:" {
			path = ":memory:"
		}
		// _time_format=sqlite stores "2006-01-02 15:04:05.999999999-07:00";
		// with UTC values that sorts chronologically as text.
		return "file:" + path + "?_time_format=sqlite&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	},
	configurePool: func(conn *sql.DB, _ *config.DatabaseConfig) {
		// One writer at a time; an in-memory database also lives on a
		// single connection.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	},
}
