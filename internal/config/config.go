package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Downloads DownloadsConfig `mapstructure:"downloads"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	BindAddr     string `mapstructure:"bind_addr"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`
}

// DownloadsConfig contains download orchestration settings
type DownloadsConfig struct {
	MaxConcurrent          int      `mapstructure:"max_concurrent"`
	UserAgents             []string `mapstructure:"user_agents"`
	ProgressUpdateInterval string   `mapstructure:"progress_update_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("http.bind_addr", "0.0.0.0:8080")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "0s")
	viper.SetDefault("http.idle_timeout", "60s")
	viper.SetDefault("downloads.max_concurrent", 4)
	viper.SetDefault("downloads.user_agents", []string{})
	viper.SetDefault("downloads.progress_update_interval", "10s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("database.path", "data/downloads.db")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.HTTP.BindAddr == "" {
		return fmt.Errorf("http.bind_addr is required")
	}
	if _, err := time.ParseDuration(c.HTTP.ReadTimeout); err != nil {
		return fmt.Errorf("invalid http.read_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.WriteTimeout); err != nil {
		return fmt.Errorf("invalid http.write_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.HTTP.IdleTimeout); err != nil {
		return fmt.Errorf("invalid http.idle_timeout: %w", err)
	}

	if c.Downloads.MaxConcurrent < 1 || c.Downloads.MaxConcurrent > 32 {
		return fmt.Errorf("downloads.max_concurrent must be between 1 and 32")
	}
	if _, err := time.ParseDuration(c.Downloads.ProgressUpdateInterval); err != nil {
		return fmt.Errorf("invalid downloads.progress_update_interval: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	return nil
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration. Zero
// means no limit, so responses are not cut off under long transfers.
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}

// GetProgressUpdateInterval returns the progress update interval as time.Duration
func (c *DownloadsConfig) GetProgressUpdateInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressUpdateInterval)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}
