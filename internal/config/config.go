package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server    ServerConfig    `toml:"server"`    // HTTP server settings
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings
	Storage   StorageConfig   `toml:"storage"`   // Search log persistence settings
	Dashboard DashboardConfig `toml:"dashboard"` // Dashboard session behaviour
	Provider  ProviderConfig  `toml:"provider"`  // Weather data provider settings
	Tracing   TracingConfig   `toml:"tracing"`   // OpenTelemetry tracing settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port             int    `toml:"port"`                  // HTTP port for the server
	Host             string `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	ReadTimeoutSecs  int    `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs int    `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs  int    `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
	StaticFilesDir   string `toml:"static_files_dir"`      // Directory to serve static files from (e.g., "www")
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains search log persistence configuration
type StorageConfig struct {
	Type           string `toml:"type"`                // Storage backend type (currently only "sqlite" is supported)
	SQLitePath     string `toml:"sqlite_path"`         // Path of the SQLite database file
	MaxSearchesAPI int    `toml:"max_searches_in_api"` // Maximum number of search log entries returned by /api/searches
}

// DashboardConfig controls the simulated latency and input limits of dashboard sessions
type DashboardConfig struct {
	MountDelayMs   int `toml:"mount_delay_ms"`   // Delay before the initial snapshot resolves (default 1500)
	SearchDelayMs  int `toml:"search_delay_ms"`  // Delay before a search resolves (default 1000)
	MaxQueryLength int `toml:"max_query_length"` // Longest accepted search query in characters (default 100)
}

// ProviderConfig contains weather provider settings
type ProviderConfig struct {
	Type              string  `toml:"type"`                    // Provider type, only "mock" is supported
	RequestsPerSecond float64 `toml:"requests_per_second"`     // Rate limit for provider lookups (0 = unlimited)
	Burst             int     `toml:"burst"`                   // Rate limiter burst size
	RequestTimeoutSec int     `toml:"request_timeout_seconds"` // Upper bound for a single lookup
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled        bool   `toml:"enabled"`         // Install a tracer provider
	ServiceName    string `toml:"service_name"`    // service.name resource attribute
	ZipkinEndpoint string `toml:"zipkin_endpoint"` // Zipkin collector URL, e.g. http://zipkin:9411/api/v2/spans
}

// Default returns a configuration with every field set to its default value
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read the config file
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	// List of paths to check in order of preference
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Conventional location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			// File exists, try to load it
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// applyDefaults fills zero values with their defaults
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeoutSecs == 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.IdleTimeoutSecs == 0 {
		c.Server.IdleTimeoutSecs = 60
	}
	if c.Server.StaticFilesDir == "" {
		c.Server.StaticFilesDir = "www"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}

	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/wxdash.db"
	}
	if c.Storage.MaxSearchesAPI <= 0 {
		c.Storage.MaxSearchesAPI = 50
	}

	if c.Dashboard.MountDelayMs == 0 {
		c.Dashboard.MountDelayMs = 1500
	}
	if c.Dashboard.SearchDelayMs == 0 {
		c.Dashboard.SearchDelayMs = 1000
	}
	if c.Dashboard.MaxQueryLength == 0 {
		c.Dashboard.MaxQueryLength = 100
	}

	if c.Provider.Type == "" {
		c.Provider.Type = "mock"
	}
	if c.Provider.Burst == 0 {
		c.Provider.Burst = 5
	}
	if c.Provider.RequestTimeoutSec == 0 {
		c.Provider.RequestTimeoutSec = 10
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "wxdash"
	}
}

// Validate applies defaults and validates the configuration
func (c *Config) Validate() error {
	c.applyDefaults()

	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeoutSecs < 0 || c.Server.WriteTimeoutSecs < 0 || c.Server.IdleTimeoutSecs < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}

	// Validate static files directory exists
	if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
		return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate storage config
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}

	if err := c.ValidateDashboard(); err != nil {
		return err
	}

	if err := c.ValidateProvider(); err != nil {
		return err
	}

	if c.Tracing.Enabled && c.Tracing.ZipkinEndpoint == "" {
		return fmt.Errorf("zipkin_endpoint is required when tracing is enabled")
	}

	return nil
}

// ValidateDashboard validates the dashboard configuration
func (c *Config) ValidateDashboard() error {
	if c.Dashboard.MountDelayMs < 0 {
		return fmt.Errorf("invalid mount_delay_ms: %d (must be >= 0)", c.Dashboard.MountDelayMs)
	}
	if c.Dashboard.SearchDelayMs < 0 {
		return fmt.Errorf("invalid search_delay_ms: %d (must be >= 0)", c.Dashboard.SearchDelayMs)
	}
	if c.Dashboard.MaxQueryLength <= 0 {
		return fmt.Errorf("invalid max_query_length: %d (must be > 0)", c.Dashboard.MaxQueryLength)
	}
	return nil
}

// ValidateProvider validates the provider configuration
func (c *Config) ValidateProvider() error {
	if c.Provider.Type != "mock" {
		return fmt.Errorf("invalid provider type: %s (only 'mock' is supported)", c.Provider.Type)
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid requests_per_second: %f (must be >= 0)", c.Provider.RequestsPerSecond)
	}
	if c.Provider.Burst < 0 {
		return fmt.Errorf("invalid burst: %d (must be >= 0)", c.Provider.Burst)
	}
	if c.Provider.RequestTimeoutSec < 0 {
		return fmt.Errorf("invalid request_timeout_seconds: %d", c.Provider.RequestTimeoutSec)
	}
	return nil
}

// MountDelay returns the configured mount delay as a duration
func (c *Config) MountDelay() time.Duration {
	return time.Duration(c.Dashboard.MountDelayMs) * time.Millisecond
}

// SearchDelay returns the configured search delay as a duration
func (c *Config) SearchDelay() time.Duration {
	return time.Duration(c.Dashboard.SearchDelayMs) * time.Millisecond
}

// RequestTimeout returns the provider request timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Provider.RequestTimeoutSec) * time.Second
}
