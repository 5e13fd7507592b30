// Package testing provides shared test infrastructure for noiseq.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/seismolab/noiseq/db"
)

// CreateTestDB creates a migrated throwaway SQLite test database.
// A file under t.TempDir() is used rather than :memory: so that every
// connection in the pool sees the same database — concurrency tests depend
// on that. Cleanup is registered via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "noiseq_test.db")
	database, err := db.Open(path, nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(database, nil); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
