package config

import (
	"errors"
	"fmt"
	"strings"
)

func Validate(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.App.DataDir) == "" {
		errs = append(errs, "app.data_dir must not be empty")
	}
	switch cfg.App.LogFormat {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("app.log_format must be console or json, got %q", cfg.App.LogFormat))
	}

	if cfg.Fetch.TimeoutSeconds <= 0 {
		errs = append(errs, "fetch.timeout_seconds must be > 0")
	}
	if cfg.Fetch.RequestsPerSecond <= 0 {
		errs = append(errs, "fetch.requests_per_second must be > 0")
	}
	if cfg.Fetch.Burst <= 0 {
		errs = append(errs, "fetch.burst must be >= 1")
	}
	if cfg.Fetch.MaxAttempts <= 0 {
		errs = append(errs, "fetch.max_attempts must be >= 1")
	}
	if cfg.Fetch.BackoffBaseSeconds <= 0 {
		errs = append(errs, "fetch.backoff_base_seconds must be > 0")
	}

	if cfg.Scrape.WindowHours <= 0 {
		errs = append(errs, "scrape.window_hours must be > 0")
	}
	if cfg.Scrape.Concurrency <= 0 {
		errs = append(errs, "scrape.concurrency must be >= 1")
	}
	if cfg.Scrape.MaxPages <= 0 {
		errs = append(errs, "scrape.max_pages must be >= 1")
	}
	if cfg.Scrape.TenantTimeoutMinutes < 0 {
		errs = append(errs, "scrape.tenant_timeout_minutes must be >= 0")
	}

	if cfg.Discover.MaxQueries <= 0 {
		errs = append(errs, "discover.max_queries must be >= 1")
	}
	if cfg.Discover.PagesPerQuery <= 0 {
		errs = append(errs, "discover.pages_per_query must be >= 1")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}
