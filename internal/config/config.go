// Package config provides configuration management for the author analytics service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the author analytics service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// OpenAlex contains OpenAlex API client settings.
	OpenAlex OpenAlexConfig `mapstructure:"openalex"`
	// Cache contains fetch cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// Network contains collaboration network builder settings.
	Network NetworkConfig `mapstructure:"network"`
	// Reports contains report job store settings.
	Reports ReportsConfig `mapstructure:"reports"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// Port is the HTTP server port (default: 8080).
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
	// MetricsPort is the metrics server port (default: 9090).
	MetricsPort int `mapstructure:"metrics_port" validate:"min=1,max=65535"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing a response.
	// Zero disables the deadline; progress event streams require that.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum time to wait for the next request on a
	// kept-alive connection.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenAlexConfig holds OpenAlex API client configuration.
type OpenAlexConfig struct {
	// BaseURL is the OpenAlex API base URL.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Mailto is the contact address sent with each request; setting it
	// routes traffic to the OpenAlex polite pool.
	Mailto string `mapstructure:"mailto" validate:"omitempty,email"`
	// Timeout is the timeout for a single API call.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	// Burst is the burst size for the rate limiter.
	Burst int `mapstructure:"burst" validate:"min=1"`
	// PageSize is the number of records requested per page (max 200).
	PageSize int `mapstructure:"page_size" validate:"min=1,max=200"`
	// MaxPages caps pagination per listing call. Zero means unbounded.
	MaxPages int `mapstructure:"max_pages" validate:"min=0"`
	// SearchLimit is the maximum number of author search suggestions.
	SearchLimit int `mapstructure:"search_limit" validate:"min=1,max=200"`
	// Parallelism is the number of concurrent citing-works fetches.
	Parallelism int `mapstructure:"parallelism" validate:"min=1"`
}

// CacheConfig holds fetch cache configuration.
type CacheConfig struct {
	// Enabled controls whether fetches are cached at all.
	Enabled bool `mapstructure:"enabled"`
	// TTL is how long a cached fetch stays fresh.
	TTL time.Duration `mapstructure:"ttl"`
	// MaxEntries bounds the cache size; older entries are evicted.
	MaxEntries int `mapstructure:"max_entries" validate:"min=1"`
}

// NetworkConfig holds collaboration network builder configuration.
type NetworkConfig struct {
	// MaxDepth is the default expansion depth when a request does not
	// specify one.
	MaxDepth int `mapstructure:"max_depth" validate:"min=1,max=5"`
	// Threshold is the shared-paper count a co-author must exceed to be
	// admitted into the network.
	Threshold int `mapstructure:"threshold" validate:"min=0"`
	// Parallelism is the number of concurrent frontier fetches.
	Parallelism int `mapstructure:"parallelism" validate:"min=1"`
}

// ReportsConfig holds report job store configuration.
type ReportsConfig struct {
	// Retention is how long finished report jobs stay queryable.
	Retention time.Duration `mapstructure:"retention"`
	// MaxConcurrentBuilds bounds the number of report builds running at once.
	MaxConcurrentBuilds int `mapstructure:"max_concurrent_builds" validate:"min=1"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format" validate:"oneof=json console"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace is the Prometheus namespace prefix for all metrics.
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("AUTHORDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/author-analytics")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.metrics_port", 9090)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// OpenAlex defaults
	v.SetDefault("openalex.base_url", "https://api.openalex.org")
	v.SetDefault("openalex.mailto", "")
	v.SetDefault("openalex.timeout", "30s")
	v.SetDefault("openalex.rate_limit", 10.0)
	v.SetDefault("openalex.burst", 10)
	v.SetDefault("openalex.page_size", 100)
	v.SetDefault("openalex.max_pages", 0)
	v.SetDefault("openalex.search_limit", 10)
	v.SetDefault("openalex.parallelism", 4)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 4096)

	// Network defaults
	v.SetDefault("network.max_depth", 2)
	v.SetDefault("network.threshold", 2)
	v.SetDefault("network.parallelism", 4)

	// Reports defaults
	v.SetDefault("reports.retention", "1h")
	v.SetDefault("reports.max_concurrent_builds", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "author_analytics")
}

var validate = validator.New()

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid value for %s: fails %q", fe.Namespace(), fe.Tag())
		}
		return err
	}

	// Constraints the struct tags cannot express.
	if c.Server.Port == c.Server.MetricsPort {
		return fmt.Errorf("server port and metrics port must differ: %d", c.Server.Port)
	}
	if c.OpenAlex.Timeout <= 0 {
		return fmt.Errorf("openalex timeout must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive when the cache is enabled")
	}
	if c.Reports.Retention <= 0 {
		return fmt.Errorf("reports retention must be positive")
	}

	return nil
}
