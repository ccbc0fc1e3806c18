package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"txn-api/internal/domain"
)

// checkSchema runs the startup schema check. A non-strict incompatibility
// is logged and startup continues.
func checkSchema(ctx context.Context, checker domain.SchemaChecker, logger *slog.Logger) (*domain.SchemaReport, error) {
	report, err := checker.Check(ctx)
	var compat *domain.SchemaCompatibilityError
	if errors.As(err, &compat) {
		return report, err
	}
	if err != nil {
		return nil, fmt.Errorf("schema check: %w", err)
	}

	if !report.Compatible {
		logger.Warn("warehouse schema differs from the query model",
			"mode", report.Mode,
			"missing_tables", report.MissingTables,
			"missing_columns", report.MissingColumns,
			"current_hash", report.CurrentHash,
			"expected_hash", report.ExpectedHash,
		)
		return report, nil
	}
	logger.Info("warehouse schema check passed", "mode", report.Mode, "hash", report.CurrentHash)
	return report, nil
}
