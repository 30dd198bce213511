package config

import (
	"fmt"
	"net/url"
	"time"

	"spec-scraper/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// MaxRequests
	if c.MaxRequests <= 0 {
		warnings = append(warnings, "max_requests should be > 0, defaulting to 10")
		c.MaxRequests = 10
	}

	// OutputDir
	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './spec_reports'")
		c.OutputDir = "./spec_reports"
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './scraper_state'")
		c.StateDir = "./scraper_state"
	}

	// DefaultUserAgent
	if c.DefaultUserAgent == "" {
		warnings = append(warnings, "default_user_agent is empty, defaulting to 'spec-scraper/1.0'")
		c.DefaultUserAgent = "spec-scraper/1.0"
	}

	// MaxRetries
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}
	if c.MaxRetries == 0 && c.InitialRetryDelay == 0 {
		c.MaxRetries = 3
	}

	// Retry delays (only if retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
	}

	// InitialRetryDelay > MaxRetryDelay check
	if c.InitialRetryDelay > c.MaxRetryDelay && c.MaxRetryDelay > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
			c.InitialRetryDelay, c.MaxRetryDelay))
		c.InitialRetryDelay = c.MaxRetryDelay
	}

	// SemaphoreAcquireTimeout
	if c.SemaphoreAcquireTimeout <= 0 {
		c.SemaphoreAcquireTimeout = 1 * time.Minute
	}

	// CacheTTL
	if c.CacheTTL < 0 {
		warnings = append(warnings, "cache_ttl cannot be negative, disabling cache reuse")
		c.CacheTTL = 0
	}

	if len(c.Specs) == 0 {
		return warnings, fmt.Errorf("%w: no specs configured", utils.ErrConfigValidation)
	}

	return warnings, nil
}

// Validate checks a single spec entry. Returns warnings and a fatal error for
// entries that cannot be crawled at all.
func (s *SpecConfig) Validate() (warnings []string, err error) {
	if s.URL == "" {
		return warnings, fmt.Errorf("%w: spec url is required", utils.ErrConfigValidation)
	}
	u, parseErr := url.ParseRequestURI(s.URL)
	if parseErr != nil {
		return warnings, fmt.Errorf("%w: invalid spec url '%s': %v", utils.ErrConfigValidation, s.URL, parseErr)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return warnings, fmt.Errorf("%w: spec url '%s' must be http(s)", utils.ErrConfigValidation, s.URL)
	}
	if s.Shortname == "" {
		warnings = append(warnings, fmt.Sprintf(
			"shortname not set for '%s', deriving '%s' from the URL", s.URL, s.EffectiveShortname()))
	}
	for i, page := range s.Pages {
		if page == "" {
			return warnings, fmt.Errorf("%w: empty page entry #%d for spec '%s'", utils.ErrConfigValidation, i+1, s.URL)
		}
	}
	return warnings, nil
}
