package internal

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	// ExpandedTLDs accepts any bunkr.* top-level domain instead of the
	// fixed allow-list when matching input URLs.
	ExpandedTLDs bool

	DefaultTimeout int // seconds
	MaxRetries     int
	UserAgentList  []string

	// Logging configuration
	LogLevel    string
	EnableDebug bool
	QuietMode   bool
	LogFile     string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ExpandedTLDs:   false,
		DefaultTimeout: 30,
		MaxRetries:     3,
		UserAgentList: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},

		LogLevel:    "info",
		EnableDebug: false,
		QuietMode:   false,
		LogFile:     "", // empty means stderr
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() {
	if tlds := os.Getenv("BUNKRFETCH_TLDS"); tlds != "" {
		c.ExpandedTLDs = tlds == "true" || tlds == "1"
	}

	if timeout := os.Getenv("BUNKRFETCH_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.DefaultTimeout = t
		}
	}

	if logLevel := os.Getenv("BUNKRFETCH_LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if debug := os.Getenv("BUNKRFETCH_DEBUG"); debug != "" {
		c.EnableDebug = debug == "true" || debug == "1"
	}

	if quiet := os.Getenv("BUNKRFETCH_QUIET"); quiet != "" {
		c.QuietMode = quiet == "true" || quiet == "1"
	}

	if logFile := os.Getenv("BUNKRFETCH_LOG_FILE"); logFile != "" {
		c.LogFile = logFile
	}
}

// GetEnvWithDefault returns environment variable value or default
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateConfig validates the configuration values
func (c *Config) ValidateConfig() error {
	if c.DefaultTimeout < 1 {
		return fmt.Errorf("invalid default timeout: %d (must be > 0)", c.DefaultTimeout)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries: %d (must be >= 0)", c.MaxRetries)
	}

	if len(c.UserAgentList) == 0 {
		return fmt.Errorf("user agent list cannot be empty")
	}

	return nil
}
