// Cadence - Listening History Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/validation"
)

// Validate checks struct rules first, then the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a known level", c.Logging.Level)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	// An empty path means an in-memory database, which is only sensible
	// outside production.
	if c.Database.Path == "" && c.Server.IsProduction() {
		return fmt.Errorf("DUCKDB_PATH is required in production")
	}
	return nil
}

func (c *Config) validateUpstream() error {
	parsed, err := url.Parse(c.Upstream.BaseURL)
	if err != nil {
		return fmt.Errorf("UPSTREAM_BASE_URL failed to parse: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("UPSTREAM_BASE_URL scheme must be http or https, got: %s", parsed.Scheme)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("UPSTREAM_BASE_URL should be base URL only, remove path: %s", parsed.Path)
	}
	return nil
}

func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if !c.Cache.InMemory && c.Cache.Path == "" {
		return fmt.Errorf("CACHE_PATH is required when the cache is enabled and not in memory")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.Cache.TTL)
	}
	return nil
}
