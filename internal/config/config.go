// Package config loads settings from the environment with defaults.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Upstream expense API
	UpstreamBaseURL   string
	UpstreamToken     string
	UpstreamTokenFile string
	UpstreamTimeout   time.Duration

	// Mirror database
	MirrorDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	RefreshInterval time.Duration

	// Analytics response cache
	CacheTTL  time.Duration
	CacheSize int

	// Report export
	ReportSpreadsheetID string
	ReportSheetName     string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		UpstreamBaseURL:   getEnv("UPSTREAM_BASE_URL", ""),
		UpstreamToken:     getEnv("UPSTREAM_TOKEN", ""),
		UpstreamTokenFile: getEnv("UPSTREAM_TOKEN_FILE", ""),
		UpstreamTimeout:   getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second),

		MirrorDBPath: getEnv("MIRROR_DB_PATH", "./data/capify.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "capify"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "capify_events"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),

		CacheTTL:  getEnvDuration("CACHE_TTL", 30*time.Second),
		CacheSize: getEnvInt("CACHE_SIZE", 128),

		ReportSpreadsheetID: getEnv("REPORT_SPREADSHEET_ID", ""),
		ReportSheetName:     getEnv("REPORT_SHEET_NAME", "Monthly"),
	}
}

// Validate checks the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.UpstreamBaseURL == "" {
		errors = append(errors, "UPSTREAM_BASE_URL is required")
	} else if parsed, err := url.Parse(c.UpstreamBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid upstream URL '%s': %v", c.UpstreamBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid upstream URL scheme '%s': must be http or https", parsed.Scheme))
	}

	if c.UpstreamToken == "" && c.UpstreamTokenFile == "" {
		errors = append(errors, "either UPSTREAM_TOKEN or UPSTREAM_TOKEN_FILE must be provided")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("refresh interval %v too short: minimum 1s", c.RefreshInterval))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("cache size %d: must be at least 1", c.CacheSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
