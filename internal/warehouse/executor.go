package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"txn-api/internal/domain"
)

// DefaultTimeout bounds a query when neither the caller nor the executor
// configuration supplies one.
const DefaultTimeout = 30 * time.Second

// Executor runs generated SQL and returns ordered rows. It implements
// domain.QueryExecutor.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	logger  *slog.Logger
}

var _ domain.QueryExecutor = (*Executor)(nil)

// NewExecutor creates an executor over db. A non-positive timeout selects
// DefaultTimeout.
func NewExecutor(db *sql.DB, timeout time.Duration, logger *slog.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{db: db, timeout: timeout, logger: logger}
}

// Execute runs sqlText with args. A zero timeout uses the executor default.
// A query cut off by its deadline yields a DatabaseError with Timeout set.
func (e *Executor) Execute(ctx context.Context, sqlText string, args []any, timeout time.Duration) ([]domain.Row, error) {
	if timeout <= 0 {
		timeout = e.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, e.wrap(ctx, err, timeout)
	}
	defer rows.Close() //nolint:errcheck

	out, err := scanRows(rows)
	if err != nil {
		return nil, e.wrap(ctx, err, timeout)
	}
	e.logger.Debug("query executed", "rows", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (e *Executor) wrap(ctx context.Context, err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		dbErr := domain.ErrDatabase(err, "query timed out after %s", timeout)
		dbErr.Timeout = true
		return dbErr
	}
	return domain.ErrDatabase(err, "query failed")
}

// scanRows reads every row, keeping column order. Byte slices become strings
// so rows serialize cleanly to JSON.
func scanRows(rows *sql.Rows) ([]domain.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []domain.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, domain.Row{Columns: cols, Values: vals})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
