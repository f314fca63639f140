package database

import (
	"strings"
	"time"
)

// Config holds connection settings for the primary store.
type Config struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// NewConfig creates a database configuration for the given postgres URL with
// pool defaults suited to a single API process.
func NewConfig(url string) *Config {
	return &Config{
		URL:             url,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
}

// MigrationURL returns the URL golang-migrate expects. Key/value DSNs are not
// accepted by the migrate postgres driver, so only URL forms pass through.
func (c *Config) MigrationURL() string {
	if strings.HasPrefix(c.URL, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(c.URL, "postgresql://")
	}
	return c.URL
}
