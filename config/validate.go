package config

import "github.com/promptvc/promptvc/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if c.Server.RequestTimeoutSeconds < 0 {
		return errors.Newf("server.request_timeout_seconds must be >= 0, got %d", c.Server.RequestTimeoutSeconds)
	}
	if c.Server.RateLimitPerSecond < 0 {
		return errors.Newf("server.rate_limit_per_second must be >= 0, got %f", c.Server.RateLimitPerSecond)
	}

	if c.Auth.Enabled && c.Auth.Token == "" {
		return errors.New("auth.token cannot be empty when auth is enabled (set PROMPTVC_AUTH_TOKEN)")
	}

	if c.Retention.MaxAgeDays < 0 {
		return errors.Newf("retention.max_age_days must be >= 0, got %d", c.Retention.MaxAgeDays)
	}
	if c.Retention.MinVersionsRetained < 0 {
		return errors.Newf("retention.min_versions_retained must be >= 0, got %d", c.Retention.MinVersionsRetained)
	}

	if c.Diff.MaxFieldBytes < 0 {
		return errors.Newf("diff.max_field_bytes must be >= 0, got %d", c.Diff.MaxFieldBytes)
	}

	return nil
}
