package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"txn-api/internal/domain"
	"txn-api/internal/schema"
	"txn-api/internal/warehouse"
)

// warehouseFlags selects the warehouse for commands that connect to one.
type warehouseFlags struct {
	driver string
	dsn    string
}

func (f *warehouseFlags) register(fs *pflag.FlagSet) {
	driver := os.Getenv("WAREHOUSE_DRIVER")
	if driver == "" {
		driver = warehouse.DriverDuckDB
	}
	fs.StringVar(&f.driver, "driver", driver, "Warehouse driver (duckdb, sqlite3, pgx); defaults to $WAREHOUSE_DRIVER")
	fs.StringVar(&f.dsn, "dsn", os.Getenv("WAREHOUSE_DSN"), "Warehouse DSN; defaults to $WAREHOUSE_DSN")
}

func (f *warehouseFlags) open(ctx context.Context) (*sql.DB, string, error) {
	driver := warehouse.DriverName(f.driver)
	db, err := warehouse.Open(ctx, driver, f.dsn)
	if err != nil {
		return nil, "", err
	}
	return db, driver, nil
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the query model and check a warehouse against it",
	}
	cmd.AddCommand(newSchemaCheckCmd())
	cmd.AddCommand(newSchemaHashCmd())
	return cmd
}

func newSchemaCheckCmd() *cobra.Command {
	var (
		wf           warehouseFlags
		mode         string
		expectedHash string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compare the warehouse schema with the query model",
		Long: "Discovers the warehouse columns and reports missing tables, missing columns and\n" +
			"the column hash. With --strict an incompatible warehouse exits non-zero.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model := schema.MustDefault()
			var src schema.ColumnSource
			if mode == schema.ModeDiscovery {
				db, driver, err := wf.open(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close() //nolint:errcheck
				src = warehouse.NewColumnLister(db, driver)
			}
			checker, err := schema.NewChecker(mode, model, src, expectedHash, strict)
			if err != nil {
				return err
			}

			report, err := checker.Check(cmd.Context())
			var compat *domain.SchemaCompatibilityError
			if err != nil && !errors.As(err, &compat) {
				return err
			}

			if getOutputFormat(cmd) == outputJSON {
				if perr := printJSON(os.Stdout, report); perr != nil {
					return perr
				}
			} else {
				printSchemaReport(report)
			}
			if compat != nil {
				return errInvalid
			}
			return nil
		},
	}

	wf.register(cmd.Flags())
	cmd.Flags().StringVar(&mode, "mode", schema.ModeDiscovery, "Check mode (static, discovery)")
	cmd.Flags().StringVar(&expectedHash, "expected-hash", os.Getenv("EXPECTED_SCHEMA_HASH"), "Expected column hash; defaults to the model hash")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the warehouse is incompatible")

	return cmd
}

func printSchemaReport(r *domain.SchemaReport) {
	rows := [][]string{
		{"mode", r.Mode},
		{"compatible", strconv.FormatBool(r.Compatible)},
		{"current hash", r.CurrentHash},
		{"expected hash", r.ExpectedHash},
		{"checked at", r.CheckedAt},
	}
	if len(r.MissingTables) > 0 {
		rows = append(rows, []string{"missing tables", strings.Join(r.MissingTables, ", ")})
	}
	if len(r.MissingColumns) > 0 {
		rows = append(rows, []string{"missing columns", strings.Join(r.MissingColumns, ", ")})
	}
	printTable(os.Stdout, []string{"check", "result"}, rows)
}

func newSchemaHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print the column hash of the compiled-in query model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hash := schema.MustDefault().Hash()
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(os.Stdout, map[string]string{"hash": hash})
			}
			_, _ = fmt.Fprintln(os.Stdout, hash)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var wf warehouseFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the demo star schema and seed rows in a SQLite or Postgres warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if wf.dsn == "" {
				return fmt.Errorf("--dsn is required")
			}
			db, driver, err := wf.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck

			if err := warehouse.Migrate(db, driver); err != nil {
				return err
			}
			if getOutputFormat(cmd) == outputJSON {
				return printJSON(os.Stdout, map[string]string{"status": "ok", "driver": driver})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Warehouse migrated (%s).\n", driver)
			return nil
		},
	}

	wf.register(cmd.Flags())

	return cmd
}
