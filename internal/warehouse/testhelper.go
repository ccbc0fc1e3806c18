package warehouse

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

// OpenTestWarehouse opens a SQLite warehouse in t.TempDir(), applies the
// demo migrations and registers cleanup.
func OpenTestWarehouse(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "warehouse.sqlite")
	db, err := Open(context.Background(), DriverSQLite, path)
	if err != nil {
		t.Fatalf("open test warehouse: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db, DriverSQLite); err != nil {
		t.Fatalf("migrate test warehouse: %v", err)
	}
	return db
}
