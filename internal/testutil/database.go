// Package testutil provides test helpers for setting up in-memory databases,
// creating fixtures, and making assertions.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"empire/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllModels is the list of all GORM models to auto-migrate in tests.
var AllModels = []interface{}{
	&models.User{},
	&models.Transaction{},
	&models.Goal{},
	&models.Workout{},
	&models.Journal{},
	&models.DailySnapshot{},
	&models.TrashItem{},
	&models.AuditLog{},
}

var dbCounter atomic.Int64

var sqliteDialect = strings.NewReplacer("NOW()", "CURRENT_TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP")

// SetupTestDB creates an isolated in-memory SQLite database with all models
// migrated. Timestamps are written in UTC so stored values compare the same
// way they do in postgres.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := openTestDB(t)
	if err := db.AutoMigrate(AllModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// SetupMigratedTestDB creates an isolated in-memory SQLite database whose
// schema comes from the *.up.sql files in dir, applied in version order.
// The postgres-only spellings NOW() and TIMESTAMPTZ are rewritten for sqlite;
// the rest of the DDL is run as is.
func SetupMigratedTestDB(t *testing.T, dir string) *gorm.DB {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no migrations found in %s: %v", dir, err)
	}
	sort.Strings(files)

	db := openTestDB(t)
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("failed to read %s: %v", file, err)
		}
		sql := sqliteDialect.Replace(string(raw))
		for _, stmt := range strings.Split(sql, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if err := db.Exec(stmt).Error; err != nil {
				t.Fatalf("failed to apply %s: %v", filepath.Base(file), err)
			}
		}
	}
	return db
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

// TeardownTestDB closes the underlying database connection.
func TeardownTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Errorf("failed to get underlying DB for teardown: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}
