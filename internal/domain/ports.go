package domain

import (
	"context"
	"time"
)

// QueryExecutor runs SQL against the backing warehouse.
// Implemented by warehouse.Executor.
type QueryExecutor interface {
	// Execute runs sqlText with bound args. A zero timeout uses the
	// executor's default. Failures are reported as *DatabaseError.
	Execute(ctx context.Context, sqlText string, args []any, timeout time.Duration) ([]Row, error)
}

// SchemaChecker compares the live warehouse schema with the compiled-in model.
// Implemented by schema.StaticChecker and schema.DiscoveryChecker.
type SchemaChecker interface {
	Check(ctx context.Context) (*SchemaReport, error)
}

// SchemaReport is the outcome of a schema compatibility check.
type SchemaReport struct {
	Mode           string   `json:"mode"`
	Compatible     bool     `json:"compatible"`
	CurrentHash    string   `json:"current_hash"`
	ExpectedHash   string   `json:"expected_hash,omitempty"`
	MissingTables  []string `json:"missing_tables,omitempty"`
	MissingColumns []string `json:"missing_columns,omitempty"`
	CheckedAt      string   `json:"checked_at"`
}
