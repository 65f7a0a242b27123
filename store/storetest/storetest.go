// Package storetest opens throwaway sqlite databases for tests.
package storetest

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/cppla/treebbs/config"
)

// Open returns a migrated sqlite database living in t's temp dir. It is closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	c := config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:    "silent",
	}
	db, err := config.OpenDatabase(c, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		_ = config.CloseDatabase(db)
	})
	return db
}
