// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the HTTP API and the warehouse it queries.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8080")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Warehouse
	WarehouseDriver string        // duckdb (default), sqlite3 or pgx
	WarehouseDSN    string        // driver DSN; empty opens an in-memory DuckDB
	QueryTimeout    time.Duration // per-query timeout (default 30s)
	AutoMigrate     bool          // apply the demo star schema at startup (sqlite3, pgx)

	// Query limits
	DefaultPageSize int // page size when a request pages without one (default 100)
	MaxLimit        int // largest LIMIT or page size accepted (default 1000)
	MaxFilters      int // most filters per request (default 50)

	// AliasTablesPath names the YAML alias tables file. Empty disables
	// name-to-ID translation.
	AliasTablesPath string

	// Schema checking
	SchemaCheckMode    string // static (default) or discovery
	SchemaStrict       bool   // fail startup on an incompatible warehouse
	ExpectedSchemaHash string // overrides the compiled-in model hash

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100, 0 disables)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	ShutdownTimeout time.Duration // graceful shutdown budget (default 10s)

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

var knownDrivers = map[string]bool{
	"duckdb": true, "sqlite": true, "sqlite3": true, "pgx": true, "postgres": true, "postgresql": true,
}

// LoadFromEnv loads configuration from environment variables.
// Malformed numeric values fall back to their default with a warning.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:         os.Getenv("LISTEN_ADDR"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		Env:                os.Getenv("ENV"),
		WarehouseDriver:    strings.ToLower(strings.TrimSpace(os.Getenv("WAREHOUSE_DRIVER"))),
		WarehouseDSN:       os.Getenv("WAREHOUSE_DSN"),
		AliasTablesPath:    os.Getenv("ALIAS_TABLES_PATH"),
		SchemaCheckMode:    strings.ToLower(strings.TrimSpace(os.Getenv("SCHEMA_CHECK_MODE"))),
		SchemaStrict:       parseBoolEnvDefault("SCHEMA_STRICT", false),
		ExpectedSchemaHash: strings.TrimSpace(os.Getenv("EXPECTED_SCHEMA_HASH")),
		AutoMigrate:        parseBoolEnvDefault("WAREHOUSE_AUTO_MIGRATE", false),
	}

	cfg.QueryTimeout = cfg.durationEnv("QUERY_TIMEOUT", 30*time.Second)
	cfg.ShutdownTimeout = cfg.durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.DefaultPageSize = cfg.intEnv("DEFAULT_PAGE_SIZE", 100)
	cfg.MaxLimit = cfg.intEnv("MAX_LIMIT", 1000)
	cfg.MaxFilters = cfg.intEnv("MAX_FILTERS", 50)
	cfg.RateLimitBurst = cfg.intEnv("RATE_LIMIT_BURST", 200)

	cfg.RateLimitRPS = 100
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.RateLimitRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("RATE_LIMIT_RPS=%q is not a non-negative number, using %g", v, cfg.RateLimitRPS))
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.WarehouseDriver == "" {
		cfg.WarehouseDriver = "duckdb"
	}
	if cfg.SchemaCheckMode == "" {
		cfg.SchemaCheckMode = "static"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if !knownDrivers[cfg.WarehouseDriver] {
		return nil, fmt.Errorf("unsupported WAREHOUSE_DRIVER %q (expected duckdb, sqlite3 or pgx)", cfg.WarehouseDriver)
	}
	if cfg.SchemaCheckMode != "static" && cfg.SchemaCheckMode != "discovery" {
		return nil, fmt.Errorf("unsupported SCHEMA_CHECK_MODE %q (expected static or discovery)", cfg.SchemaCheckMode)
	}
	if cfg.MaxLimit <= 0 {
		return nil, fmt.Errorf("MAX_LIMIT must be positive, got %d", cfg.MaxLimit)
	}
	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > cfg.MaxLimit {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and MAX_LIMIT (%d), got %d", cfg.MaxLimit, cfg.DefaultPageSize)
	}
	if cfg.WarehouseDSN == "" && cfg.WarehouseDriver != "duckdb" {
		return nil, fmt.Errorf("WAREHOUSE_DSN is required for driver %s", cfg.WarehouseDriver)
	}
	if cfg.AutoMigrate && cfg.WarehouseDriver == "duckdb" {
		return nil, fmt.Errorf("WAREHOUSE_AUTO_MIGRATE is only supported for sqlite3 and pgx warehouses")
	}

	if cfg.WarehouseDSN == "" {
		cfg.Warnings = append(cfg.Warnings, "WAREHOUSE_DSN not set: using an empty in-memory DuckDB warehouse")
	}
	if cfg.AliasTablesPath == "" {
		cfg.Warnings = append(cfg.Warnings, "ALIAS_TABLES_PATH not set: filter values must be numeric IDs")
	}
	if cfg.SchemaStrict && cfg.SchemaCheckMode == "static" {
		cfg.Warnings = append(cfg.Warnings, "SCHEMA_STRICT has no effect with SCHEMA_CHECK_MODE=static")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.WarehouseDSN == "" {
			return nil, fmt.Errorf("WAREHOUSE_DSN must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
		if cfg.RateLimitRPS == 0 {
			cfg.Warnings = append(cfg.Warnings, "rate limiting is disabled in production (RATE_LIMIT_RPS=0)")
		}
	}

	return cfg, nil
}

func (c *Config) intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a non-negative integer, using %d", key, v, def))
		return def
	}
	return n
}

// durationEnv accepts a Go duration ("45s", "2m") or a number of seconds.
func (c *Config) durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a positive duration, using %s", key, v, def))
	return def
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Environment variables take precedence.
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
