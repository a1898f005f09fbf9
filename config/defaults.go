package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "promptvc.db")

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("server.rate_limit_per_second", 0.0) // unlimited
	v.SetDefault("server.rate_limit_burst", 20)

	// Auth defaults: disabled for local development
	v.SetDefault("auth.enabled", false)

	// Retention defaults
	v.SetDefault("retention.max_age_days", 90)
	v.SetDefault("retention.min_versions_retained", 10)

	// Diff defaults: 256 KiB per field keeps the LCS table bounded
	v.SetDefault("diff.max_field_bytes", 256*1024)
}

// BindSensitiveEnvVars binds secrets to environment variables so they never
// need to live in the config file.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("auth.token", "PROMPTVC_AUTH_TOKEN")
}
