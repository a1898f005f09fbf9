// Package config loads and persists promptvc configuration.
package config

// Config represents the promptvc configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Retention RetentionConfig `mapstructure:"retention"`
	Diff      DiffConfig      `mapstructure:"diff"`
}

// DatabaseConfig configures the SQLite database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig configures the promptvc HTTP server
type ServerConfig struct {
	Port                  *int     `mapstructure:"port"` // nil = default 8710, 0 is invalid (omit for default)
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"` // wall-clock deadline per request
	RateLimitPerSecond    float64  `mapstructure:"rate_limit_per_second"`   // 0 = unlimited
	RateLimitBurst        int      `mapstructure:"rate_limit_burst"`
}

// AuthConfig configures bearer-token authentication
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// RetentionConfig configures version cleanup defaults
type RetentionConfig struct {
	MaxAgeDays          int `mapstructure:"max_age_days"`          // versions older than this are eligible (default: 90)
	MinVersionsRetained int `mapstructure:"min_versions_retained"` // newest N per prompt always kept (default: 10)
}

// DiffConfig bounds the diff engines.
// The LCS pass is O(m*n) per textual field, so unbounded fields can make a
// single request CPU- and memory-bound. Oversize fields degrade to a
// whole-value comparison instead of a line or structural diff.
type DiffConfig struct {
	MaxFieldBytes int `mapstructure:"max_field_bytes"` // 0 = unlimited
}

// DefaultServerPort is the development port for the promptvc server
const DefaultServerPort = 8710

// DefaultRequestTimeoutSeconds is the per-request wall-clock deadline.
const DefaultRequestTimeoutSeconds = 30

// ServerPort returns the configured port, falling back to the default when
// unset.
func (c *Config) ServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}
