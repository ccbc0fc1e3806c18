package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// ColumnLister reads live column names from the warehouse catalog. It
// implements schema.ColumnSource.
type ColumnLister struct {
	db     *sql.DB
	driver string
}

// NewColumnLister creates a lister for db opened with driver.
func NewColumnLister(db *sql.DB, driver string) *ColumnLister {
	return &ColumnLister{db: db, driver: normalizeDriver(driver)}
}

// ListColumns returns the columns of each requested table that exists, keyed
// by the requested name. Missing tables are absent from the result.
func (l *ColumnLister) ListColumns(ctx context.Context, tables []string) (map[string][]string, error) {
	if l.driver == DriverSQLite {
		return l.listSQLite(ctx, tables)
	}
	return l.listInformationSchema(ctx, tables)
}

func (l *ColumnLister) listSQLite(ctx context.Context, tables []string) (map[string][]string, error) {
	out := make(map[string][]string, len(tables))
	for _, table := range tables {
		rows, err := l.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
		if err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		var cols []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("scan table info %s: %w", table, err)
			}
			cols = append(cols, strings.ToLower(name))
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		if len(cols) > 0 {
			out[table] = cols
		}
	}
	return out, nil
}

func (l *ColumnLister) listInformationSchema(ctx context.Context, tables []string) (map[string][]string, error) {
	byLower := make(map[string]string, len(tables))
	lowered := make([]string, 0, len(tables))
	for _, t := range tables {
		byLower[strings.ToLower(t)] = t
		lowered = append(lowered, strings.ToLower(t))
	}

	query, args, err := informationSchemaQuery(l.driver, lowered)
	if err != nil {
		return nil, fmt.Errorf("build column listing: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string][]string, len(tables))
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		name, ok := byLower[strings.ToLower(table)]
		if !ok {
			continue
		}
		out[name] = append(out[name], strings.ToLower(column))
	}
	return out, rows.Err()
}

// informationSchemaQuery lists the columns of the lowered table names in the
// current schema, using the driver's placeholder style.
func informationSchemaQuery(driver string, lowered []string) (string, []any, error) {
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return sq.Select("table_name", "column_name").
		From("information_schema.columns").
		Where("table_schema = current_schema()").
		Where(sq.Eq{"lower(table_name)": lowered}).
		OrderBy("table_name", "ordinal_position").
		PlaceholderFormat(placeholder).
		ToSql()
}
