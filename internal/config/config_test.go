// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateConfigFile points CONFIG_PATH at a missing file and moves into an
// empty directory so no stray config.yaml is picked up.
func isolateConfigFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Server.Port != 3858 {
		t.Errorf("Server.Port = %d, want 3858", cfg.Server.Port)
	}
	if cfg.Upstream.PageSize != 50 {
		t.Errorf("Upstream.PageSize = %d, want 50", cfg.Upstream.PageSize)
	}
	if cfg.Analytics.CalendarWeeks != 12 {
		t.Errorf("Analytics.CalendarWeeks = %d, want 12", cfg.Analytics.CalendarWeeks)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DUCKDB_PATH", "/tmp/plays.db")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("DEFAULT_TIMEZONE", "America/Chicago")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "/tmp/plays.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("Cache.TTL = %v, want 2m", cfg.Cache.TTL)
	}
	if cfg.Analytics.DefaultTimezone != "America/Chicago" {
		t.Errorf("DefaultTimezone = %q", cfg.Analytics.DefaultTimezone)
	}
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	dir := isolateConfigFile(t)
	path := filepath.Join(dir, "cadence.yaml")
	yaml := `
server:
  port: 9000
analytics:
  calendar_weeks: 26
upstream:
  page_size: 20
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env should win over file: port = %d", cfg.Server.Port)
	}
	if cfg.Analytics.CalendarWeeks != 26 {
		t.Errorf("CalendarWeeks = %d, want 26", cfg.Analytics.CalendarWeeks)
	}
	if cfg.Upstream.PageSize != 20 {
		t.Errorf("PageSize = %d, want 20", cfg.Upstream.PageSize)
	}
	if cfg.Upstream.BaseURL != "https://api.spotify.com" {
		t.Errorf("unset keys keep defaults, BaseURL = %q", cfg.Upstream.BaseURL)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"DUCKDB_PATH":       "database.path",
		"LOG_FORMAT":        "logging.format",
		"UPSTREAM_BASE_URL": "upstream.base_url",
		"PATH":              "",
		"HOME":              "",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "Driver"},
		{"bad timezone", func(c *Config) { c.Analytics.DefaultTimezone = "Nowhere/Land" }, "IANA timezone"},
		{"upstream with path", func(c *Config) { c.Upstream.BaseURL = "https://api.example.com/v1" }, "remove path"},
		{"upstream ftp", func(c *Config) { c.Upstream.BaseURL = "ftp://api.example.com" }, "scheme"},
		{"page size over cap", func(c *Config) { c.Upstream.PageSize = 51 }, "PageSize"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
		{"cache without path", func(c *Config) { c.Cache.Path = "" }, "CACHE_PATH"},
		{"cache zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "CACHE_TTL"},
		{"production in-memory db", func(c *Config) {
			c.Server.Environment = "production"
			c.Database.Path = ""
		}, "DUCKDB_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 3858}
	if got := s.Addr(); got != "127.0.0.1:3858" {
		t.Errorf("Addr() = %q", got)
	}
}
