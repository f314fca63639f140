package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Calendar used for day/week boundaries
	Timezone string

	// JWT
	JWTSecret         string
	JWTExpirationDur  time.Duration
	RefreshExpiration time.Duration

	// Ops endpoints
	PipelineAPIKey string

	// Background work
	SchedulerEnabled     bool
	SchedulerConcurrency int
	RefreshWorkers       int
	RefreshQueueSize     int
	TrashRetention       time.Duration

	// Log file sink (optional)
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// ErrMissingDatabaseURL and ErrMissingJWTSecret are returned by Load when the
// corresponding required variable is unset.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
)

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Timezone:       getEnv("TIMEZONE", "Local"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),
		LogFile:        os.Getenv("LOG_FILE"),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}

	var err error
	if cfg.JWTExpirationDur, err = parseDuration("JWT_EXPIRES_IN", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshExpiration, err = parseDuration("REFRESH_EXPIRES_IN", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TrashRetention, err = parseDuration("TRASH_RETENTION", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SchedulerEnabled, err = parseBool("SCHEDULER_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.SchedulerConcurrency, err = parsePositiveInt("SCHEDULER_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.RefreshWorkers, err = parsePositiveInt("REFRESH_WORKERS", 2); err != nil {
		return nil, err
	}
	if cfg.RefreshQueueSize, err = parsePositiveInt("REFRESH_QUEUE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.LogMaxSizeMB, err = parsePositiveInt("LOG_MAX_SIZE_MB", 10); err != nil {
		return nil, err
	}
	if cfg.LogMaxBackups, err = parsePositiveInt("LOG_MAX_BACKUPS", 3); err != nil {
		return nil, err
	}
	if cfg.LogMaxAgeDays, err = parsePositiveInt("LOG_MAX_AGE_DAYS", 28); err != nil {
		return nil, err
	}

	if err := validateTimezone(cfg.Timezone); err != nil {
		return nil, err
	}

	appConfig = cfg
	return cfg, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Intended for tests and tools
// that build a Config without reading the environment.
func Set(cfg *Config) {
	appConfig = cfg
}

// IsProduction reports whether the deployment is explicitly production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Location resolves the configured timezone. An empty value or "Local" maps
// to the server's local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func validateTimezone(tz string) error {
	if tz == "" || tz == "Local" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	switch strings.ToLower(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s: must be true, false, 1, or 0, got %q", key, s)
	}
}
