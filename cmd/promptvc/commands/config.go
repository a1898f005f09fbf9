package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/promptvc/promptvc/config"
	"github.com/promptvc/promptvc/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage promptvc configuration",
	Long: `config — Inspect and manage promptvc configuration

Configuration is read from promptvc.toml (working directory or
~/.promptvc/), overridable via PROMPTVC_* environment variables.

Examples:
  promptvc config show   # Show effective configuration
  promptvc config path   # Show the config file location`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file location",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.ConfigFilePath())
	},
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// Render through the same shape Save persists; the auth token is
	// deliberately excluded from output.
	shown := map[string]interface{}{
		"database": map[string]interface{}{
			"path": cfg.Database.Path,
		},
		"server": map[string]interface{}{
			"port":                    cfg.ServerPort(),
			"allowed_origins":         cfg.Server.AllowedOrigins,
			"request_timeout_seconds": cfg.Server.RequestTimeoutSeconds,
			"rate_limit_per_second":   cfg.Server.RateLimitPerSecond,
			"rate_limit_burst":        cfg.Server.RateLimitBurst,
		},
		"auth": map[string]interface{}{
			"enabled": cfg.Auth.Enabled,
		},
		"retention": map[string]interface{}{
			"max_age_days":          cfg.Retention.MaxAgeDays,
			"min_versions_retained": cfg.Retention.MinVersionsRetained,
		},
		"diff": map[string]interface{}{
			"max_field_bytes": cfg.Diff.MaxFieldBytes,
		},
	}

	out, err := toml.Marshal(shown)
	if err != nil {
		return errors.Wrap(err, "failed to render configuration")
	}
	fmt.Print(string(out))
	return nil
}
