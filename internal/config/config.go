// Package config loads the service configuration from the environment
package config

import (
	"fmt"
	"os"
	"servertime/internal/validation"
	"strconv"
	"strings"
	"time"
)

// TLS serving modes
const (
	TLSModeOff      = "off"
	TLSModeFiles    = "files"
	TLSModeAutocert = "autocert"
)

// Config represents the application configuration
type Config struct {
	// API contains HTTP server configuration
	API APIConfig
	// Log contains logger configuration
	Log LogConfig
	// TLS contains HTTPS configuration
	TLS TLSConfig
	// RateLimit contains per-client rate limiting configuration
	RateLimit RateLimitConfig
	// Compression contains gzip response configuration
	Compression CompressionConfig
	// SwaggerEnabled mounts the Swagger UI under /swagger
	SwaggerEnabled bool
}

// APIConfig contains API server settings
type APIConfig struct {
	// Host is the interface to bind, empty for all interfaces
	Host string
	// Port is the server port to listen on
	Port string `validate:"required,numeric"`
	// GinMode is passed to gin.SetMode
	GinMode string `validate:"oneof=debug release test"`
	// ReadHeaderTimeout bounds the time spent reading request headers
	ReadHeaderTimeout time.Duration `validate:"gt=0"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// Addr returns the listen address for the server
func (c APIConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `validate:"oneof=json console"`
}

// TLSConfig contains HTTPS settings
type TLSConfig struct {
	// Mode is one of off, files or autocert
	Mode string `validate:"oneof=off files autocert"`
	// CertFile and KeyFile are PEM files used when Mode is files
	CertFile string `validate:"required_if=Mode files"`
	KeyFile  string `validate:"required_if=Mode files"`
	// AutocertDomains are the host names ACME certificates are requested for
	AutocertDomains []string `validate:"required_if=Mode autocert,dive,hostname"`
	// AutocertCacheDir stores issued certificates between restarts
	AutocertCacheDir string `validate:"required_if=Mode autocert"`
}

// Enabled reports whether the server should serve HTTPS
func (c TLSConfig) Enabled() bool {
	return c.Mode == TLSModeFiles || c.Mode == TLSModeAutocert
}

// RateLimitConfig contains rate limiting settings
type RateLimitConfig struct {
	Enabled bool
	// Requests is the number of requests allowed per window
	Requests int `validate:"gt=0"`
	// Window is the time window in seconds
	Window int `validate:"gt=0"`
	// Burst is the maximum burst size
	Burst int `validate:"gt=0"`
	// IdleTimeout is how long a client limiter is kept after its last request
	IdleTimeout time.Duration `validate:"gt=0"`
	// CleanupSchedule is the cron spec for pruning idle limiters
	CleanupSchedule string `validate:"nospaces,cronspec"`
}

// CompressionConfig contains gzip response settings
type CompressionConfig struct {
	// MinLength is the minimum body size that gets compressed
	MinLength int `validate:"gte=0"`
}

// LoadFromEnv retrieves configuration from environment variables
func (c *Config) LoadFromEnv() error {
	c.API = APIConfig{
		Host:              os.Getenv("API_HOST"),
		Port:              getEnvOrDefault("API_PORT", "8080"),
		GinMode:           getEnvOrDefault("GIN_MODE", "release"),
		ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
	c.Log = LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
	c.TLS = TLSConfig{
		Mode:             strings.ToLower(getEnvOrDefault("TLS_MODE", TLSModeOff)),
		CertFile:         os.Getenv("TLS_CERT_FILE"),
		KeyFile:          os.Getenv("TLS_KEY_FILE"),
		AutocertDomains:  getEnvAsList("TLS_AUTOCERT_DOMAINS"),
		AutocertCacheDir: getEnvOrDefault("TLS_AUTOCERT_CACHE_DIR", "autocert-cache"),
	}
	c.RateLimit = RateLimitConfig{
		Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", false),
		Requests:        getEnvAsInt("RATE_LIMIT_REQUESTS", 1000),
		Window:          getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		Burst:           getEnvAsInt("RATE_LIMIT_BURST", 50),
		IdleTimeout:     getEnvAsDuration("RATE_LIMIT_IDLE_TIMEOUT", 10*time.Minute),
		CleanupSchedule: getEnvOrDefault("RATE_LIMIT_CLEANUP_SCHEDULE", "@every 1h"),
	}
	c.Compression = CompressionConfig{
		MinLength: getEnvAsInt("COMPRESSION_MIN_LENGTH", 1024),
	}
	c.SwaggerEnabled = getEnvAsBool("SWAGGER_ENABLED", false)

	return c.Validate()
}

// Validate checks the configuration against its struct constraints
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnvAsInt retrieves an environment variable and converts it to an integer
func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvAsBool retrieves an environment variable and converts it to a boolean
func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvAsDuration retrieves an environment variable and parses it as a time.Duration
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvAsList splits a comma separated environment variable, dropping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
