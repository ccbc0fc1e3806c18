// Package warehouse connects to the analytical warehouse that holds the
// transaction star schema and executes generated queries against it.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// Supported drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// SQLite DSN parameters for a read-mostly warehouse file.
const (
	defaultBusyTimeout = "5000" // 5 seconds
	defaultJournalMode = "WAL"
)

// Open opens a *sql.DB for driver and dsn and verifies it with a ping.
// An empty driver selects DuckDB; an empty DuckDB dsn is an in-memory database.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch normalizeDriver(driver) {
	case DriverDuckDB:
		db, err = sql.Open(DriverDuckDB, dsn)
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite warehouse requires a file path")
		}
		db, err = sql.Open(DriverSQLite, buildSQLiteDSN(dsn))
		if err == nil {
			db.SetMaxOpenConns(4)
			db.SetMaxIdleConns(4)
		}
	case DriverPostgres:
		db, err = openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s warehouse: %w", driver, err)
	}
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s warehouse: %w", driver, err)
	}
	return db, nil
}

func normalizeDriver(driver string) string {
	switch strings.ToLower(driver) {
	case "", "duckdb":
		return DriverDuckDB
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "pgx", "postgres", "postgresql":
		return DriverPostgres
	}
	return driver
}

// DriverName returns the canonical driver name for driver.
func DriverName(driver string) string { return normalizeDriver(driver) }

func openPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres warehouse requires a connection URL")
	}
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres URL: %w", err)
	}
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = map[string]string{}
	}
	cfg.RuntimeParams["application_name"] = "txn-api"
	return stdlib.OpenDB(*cfg), nil
}

// buildSQLiteDSN appends WAL and busy-timeout parameters unless the caller
// already supplied query parameters.
func buildSQLiteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	params := url.Values{}
	params.Set("_journal_mode", defaultJournalMode)
	params.Set("_busy_timeout", defaultBusyTimeout)
	return path + "?" + params.Encode()
}
