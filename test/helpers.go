package test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sandevgo/recall/internal/storage/sqlite"
)

// NewDB opens a migrated database on a temp dir, cleaned up with the test.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "recall.db")
	db, err := sqlite.NewDB(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
