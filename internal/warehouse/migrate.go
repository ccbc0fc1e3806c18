package warehouse

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// embedMigrations holds the demo warehouse schema and seed data. The SQL is
// portable between SQLite and Postgres.
//
//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies all pending demo warehouse migrations. DuckDB has no goose
// dialect; load DuckDB warehouses with their own tooling.
func Migrate(db *sql.DB, driver string) error {
	var dialect string
	switch normalizeDriver(driver) {
	case DriverSQLite:
		dialect = "sqlite3"
	case DriverPostgres:
		dialect = "postgres"
	default:
		return fmt.Errorf("migrations are not supported for driver %q", driver)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
