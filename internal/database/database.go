package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"empire/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Opener opens a new gorm connection.
type Opener func(ctx context.Context) (*gorm.DB, error)

// OpenPostgres returns an Opener for the configured postgres database.
func OpenPostgres(cfg *Config) Opener {
	return func(ctx context.Context) (*gorm.DB, error) {
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL,
			PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
		}), &gorm.Config{NowFunc: func() time.Time { return time.Now().UTC() }})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying DB: %w", err)
		}
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return db, nil
	}
}

// Connector lazily opens a single shared connection. Concurrent first callers
// share one open attempt; a cached connection is pinged before it is handed
// out and replaced when the ping fails. A failed open is not cached, so the
// next caller retries.
type Connector struct {
	open  Opener
	group singleflight.Group

	mu sync.RWMutex
	db *gorm.DB
}

// NewConnector creates a Connector that uses open to establish connections.
func NewConnector(open Opener) *Connector {
	return &Connector{open: open}
}

// DB returns the shared connection, opening it if necessary.
func (c *Connector) DB(ctx context.Context) (*gorm.DB, error) {
	if db := c.cached(); db != nil {
		if err := Ping(ctx, db); err == nil {
			return db, nil
		}
		logger.Get().Warn("Cached database connection failed ping, reconnecting")
		c.discard(db)
	}

	v, err, _ := c.group.Do("connect", func() (any, error) {
		if db := c.cached(); db != nil {
			return db, nil
		}
		db, err := c.open(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.db = db
		c.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

// Connected reports whether a connection is currently cached.
func (c *Connector) Connected() bool {
	return c.cached() != nil
}

// Close closes the cached connection, if any.
func (c *Connector) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Connector) cached() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *Connector) discard(stale *gorm.DB) {
	c.mu.Lock()
	if c.db == stale {
		c.db = nil
	}
	c.mu.Unlock()
	if sqlDB, err := stale.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Ping checks db without replacing it. A pool handed out by Connector
// redials broken connections itself, so long-lived holders ping it directly.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Manager handles schema operations against the primary store.
type Manager struct {
	connector *Connector
	url       string
}

// NewManager creates a new database manager
func NewManager(config *Config, connector *Connector) *Manager {
	return &Manager{connector: connector, url: config.MigrationURL()}
}

// RunMigrations applies pending SQL migrations from dir (e.g. "migrations").
func (m *Manager) RunMigrations(dir string) error {
	logger.Get().Info("Running database migrations...")

	mig, err := migrate.New("file://"+dir, m.url)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// DB returns the shared GORM connection.
func (m *Manager) DB(ctx context.Context) (*gorm.DB, error) {
	return m.connector.DB(ctx)
}
