package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendHTTP   = "http"
	BackendMemory = "memory"
)

// DefaultFile is read when MILKBILL_CONFIG is not set.
const DefaultFile = "milkbill.yaml"

type Config struct {
	// HTTP Server
	Port string `yaml:"port"`

	// Bill store
	StoreBackend  string        `yaml:"store_backend"`
	BaseURL       string        `yaml:"base_url"`
	StoreTimeout  time.Duration `yaml:"store_timeout"`
	StoreSeedFile string        `yaml:"store_seed_file"`
	StorePort     string        `yaml:"store_port"`

	// AMQP, disabled when the URL is empty
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Middleware
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// Logging
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		Port:               "8081",
		StoreBackend:       BackendHTTP,
		BaseURL:            "http://localhost:5000/api/bills",
		StoreTimeout:       10 * time.Second,
		StoreSeedFile:      "data/bills.json",
		StorePort:          "5000",
		AMQPExchange:       "milkbill",
		AMQPQueue:          "bill_events",
		RateLimitPerMinute: 60,
		LogFormat:          "text",
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by MILKBILL_CONFIG and finally the environment.
func Load() (*Config, error) {
	base := Defaults()

	path := getEnv("MILKBILL_CONFIG", DefaultFile)
	if err := loadFile(path, &base); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", base.Port),

		StoreBackend:  getEnv("STORE_BACKEND", base.StoreBackend),
		BaseURL:       getEnv("BASE_URL", base.BaseURL),
		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", base.StoreTimeout),
		StoreSeedFile: getEnv("STORE_SEED_FILE", base.StoreSeedFile),
		StorePort:     getEnv("STORE_PORT", base.StorePort),

		AMQPURL:      getEnv("AMQP_URL", base.AMQPURL),
		AMQPExchange: getEnv("AMQP_EXCHANGE", base.AMQPExchange),
		AMQPQueue:    getEnv("AMQP_QUEUE", base.AMQPQueue),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", base.RateLimitPerMinute),

		LogFormat: getEnv("LOG_FORMAT", base.LogFormat),
		LogLevel:  getEnv("LOG_LEVEL", base.LogLevel),
	}

	return cfg, nil
}

// loadFile overlays the YAML file at path on cfg. A missing file is fine.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	errors = append(errors, validatePort("port", c.Port)...)

	validBackends := []string{BackendHTTP, BackendMemory}
	if !slices.Contains(validBackends, c.StoreBackend) {
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be one of %v", c.StoreBackend, validBackends))
	}

	if c.StoreBackend == BackendHTTP {
		if c.BaseURL == "" {
			errors = append(errors, "BASE_URL cannot be empty when using http backend")
		} else if u, err := url.Parse(c.BaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid BASE_URL '%s': %v", c.BaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid BASE_URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		} else if u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid BASE_URL '%s': missing host", c.BaseURL))
		}
	}

	if c.StoreTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be positive", c.StoreTimeout))
	} else if c.StoreTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be at most 5 minutes", c.StoreTimeout))
	}

	errors = append(errors, validatePort("store port", c.StorePort)...)

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	validFormats := []string{"text", "json", "tint"}
	if !slices.Contains(validFormats, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validatePort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
