package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"txn-api/internal/warehouse"
)

// seedWarehouse applies the embedded star schema and demo rows.
func seedWarehouse(db *sql.DB, driver string, logger *slog.Logger) error {
	if err := warehouse.Migrate(db, driver); err != nil {
		return fmt.Errorf("seed demo warehouse: %w", err)
	}
	logger.Info("demo warehouse migrated", "driver", driver)
	return nil
}
