package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/promptvc/promptvc/errors"
)

// Save writes the configuration to the given path as TOML, rotating backups
// (.back1, .back2, .back3) of any existing file first.
func Save(c *Config, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	out := map[string]interface{}{
		"database": map[string]interface{}{
			"path": c.Database.Path,
		},
		"server": map[string]interface{}{
			"allowed_origins":         c.Server.AllowedOrigins,
			"request_timeout_seconds": c.Server.RequestTimeoutSeconds,
			"rate_limit_per_second":   c.Server.RateLimitPerSecond,
			"rate_limit_burst":        c.Server.RateLimitBurst,
		},
		"auth": map[string]interface{}{
			// Token is deliberately not persisted; it comes from the environment.
			"enabled": c.Auth.Enabled,
		},
		"retention": map[string]interface{}{
			"max_age_days":          c.Retention.MaxAgeDays,
			"min_versions_retained": c.Retention.MinVersionsRetained,
		},
		"diff": map[string]interface{}{
			"max_field_bytes": c.Diff.MaxFieldBytes,
		},
	}
	if c.Server.Port != nil {
		out["server"].(map[string]interface{})["port"] = *c.Server.Port
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete oldest backup")
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}
