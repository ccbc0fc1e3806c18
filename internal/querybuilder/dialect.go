package querybuilder

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the few rendering differences between warehouse engines.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	// NativeILike is false for engines without ILIKE; the builder falls back
	// to LOWER(x) LIKE LOWER(?).
	NativeILike bool
	// OffsetNeedsLimit is true for engines that reject OFFSET without LIMIT.
	OffsetNeedsLimit bool
}

// Supported dialects.
var (
	DuckDB   = Dialect{Name: "duckdb", Placeholder: sq.Question, NativeILike: true}
	SQLite   = Dialect{Name: "sqlite", Placeholder: sq.Question, OffsetNeedsLimit: true}
	Postgres = Dialect{Name: "postgres", Placeholder: sq.Dollar, NativeILike: true}
)

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "duckdb", "":
		return DuckDB, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "pgx", "postgres":
		return Postgres, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
}
