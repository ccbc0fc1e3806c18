// Package app provides application-level wiring and dependency injection
// for the transaction query API.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"txn-api/internal/api"
	"txn-api/internal/config"
	"txn-api/internal/domain"
	"txn-api/internal/middleware"
	"txn-api/internal/normalize"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
	"txn-api/internal/service/transaction"
	"txn-api/internal/warehouse"
)

// Deps holds the external dependencies that main() must provide.
// The warehouse handle is opened by the caller so that it controls its
// lifetime.
type Deps struct {
	Cfg    *config.Config
	DB     *sql.DB
	Logger *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Model        *schema.Model
	Transactions *transaction.Service
	Normalizer   *normalize.Normalizer
	Checker      domain.SchemaChecker
	// SchemaReport is the startup schema check result.
	SchemaReport *domain.SchemaReport

	cfg    *config.Config
	logger *slog.Logger
}

// New wires the schema model, executor, normalizer, schema checker and
// transaction service from the provided deps, then checks the warehouse
// schema once. A strict incompatibility fails startup.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	driver := warehouse.DriverName(cfg.WarehouseDriver)

	model, err := schema.NewModel(schema.DefaultDefinition())
	if err != nil {
		return nil, fmt.Errorf("schema model: %w", err)
	}
	dialect, err := querybuilder.DialectForDriver(driver)
	if err != nil {
		return nil, err
	}

	tables, err := normalize.LoadAliasTables(cfg.AliasTablesPath)
	if err != nil {
		return nil, fmt.Errorf("alias tables: %w", err)
	}
	if cfg.AliasTablesPath != "" {
		logger.Info("alias tables loaded", "path", cfg.AliasTablesPath, "entries", tables.Len())
	}

	if cfg.AutoMigrate {
		if err := seedWarehouse(deps.DB, driver, logger); err != nil {
			return nil, err
		}
	}

	exec := warehouse.NewExecutor(deps.DB, cfg.QueryTimeout, logger.With("component", "executor"))
	svc := transaction.NewService(model, exec, querybuilder.Options{
		Dialect:    dialect,
		MaxLimit:   cfg.MaxLimit,
		MaxFilters: cfg.MaxFilters,
	}, logger.With("component", "transactions"))

	checker, err := schema.NewChecker(cfg.SchemaCheckMode, model,
		warehouse.NewColumnLister(deps.DB, driver), cfg.ExpectedSchemaHash, cfg.SchemaStrict)
	if err != nil {
		return nil, err
	}

	a := &App{
		Model:        model,
		Transactions: svc,
		Normalizer:   normalize.New(tables, cfg.DefaultPageSize, cfg.MaxLimit),
		Checker:      checker,
		cfg:          cfg,
		logger:       logger,
	}
	if a.SchemaReport, err = checkSchema(ctx, checker, logger); err != nil {
		return nil, err
	}
	return a, nil
}

// Router returns the HTTP handler serving the API.
func (a *App) Router() http.Handler {
	h := api.NewHandler(a.Transactions, a.Normalizer, a.Checker, a.Model, a.logger.With("component", "api"))
	return api.NewRouter(h, api.RouterConfig{
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: a.cfg.RateLimitRPS,
			Burst:             a.cfg.RateLimitBurst,
		},
		Logger: a.logger.With("component", "http"),
	})
}
