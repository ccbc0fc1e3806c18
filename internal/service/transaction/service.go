// Package transaction implements the transaction query use cases on top of
// the query builder and the warehouse executor.
package transaction

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
)

// Service runs flexible transaction queries. It builds a fresh query builder
// per call and shares only the immutable schema model.
type Service struct {
	model  *schema.Model
	exec   domain.QueryExecutor
	opts   querybuilder.Options
	logger *slog.Logger
}

// NewService creates a Service. opts.OnWarning is replaced by a logger hook.
func NewService(model *schema.Model, exec domain.QueryExecutor, opts querybuilder.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{model: model, exec: exec, opts: opts, logger: logger}
	s.opts.OnWarning = func(msg string) { s.logger.Warn("query parameter warning", "detail", msg) }
	return s
}

// Model returns the schema model queries are built against.
func (s *Service) Model() *schema.Model { return s.model }

// Dialect returns the SQL dialect of generated statements.
func (s *Service) Dialect() querybuilder.Dialect { return s.opts.Dialect }

func (s *Service) builder(params []querybuilder.Param) (*querybuilder.Builder, error) {
	b := querybuilder.New(s.model, s.opts)
	if err := b.ParseParams(params); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) run(ctx context.Context, op string, stmt *querybuilder.Statement, timeout time.Duration) ([]domain.Row, error) {
	s.logger.Info("executing transaction query", "op", op, "sql", stmt.Inline())
	start := time.Now()
	rows, err := s.exec.Execute(ctx, stmt.SQL, stmt.Args, timeout)
	if err != nil {
		var dbErr *domain.DatabaseError
		if errors.As(err, &dbErr) && dbErr.Timeout {
			s.logger.Warn("transaction query timed out", "op", op, "timeout", timeout)
		} else {
			s.logger.Error("transaction query failed", "op", op, "error", err)
		}
		return nil, err
	}
	s.logger.Debug("transaction query done", "op", op, "rows", len(rows), "duration_ms", time.Since(start).Milliseconds())
	return rows, nil
}

// Query builds and executes the data query for params.
func (s *Service) Query(ctx context.Context, params []querybuilder.Param, timeout time.Duration) ([]domain.Row, error) {
	b, err := s.builder(params)
	if err != nil {
		return nil, err
	}
	stmt, err := b.BuildQuery()
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "query", stmt, timeout)
}

// Count returns the number of rows matching the filters of params.
func (s *Service) Count(ctx context.Context, params []querybuilder.Param, timeout time.Duration) (int64, error) {
	b, err := s.builder(params)
	if err != nil {
		return 0, err
	}
	stmt, err := b.BuildCountQuery()
	if err != nil {
		return 0, err
	}
	return s.total(ctx, "count", stmt, timeout)
}

func (s *Service) total(ctx context.Context, op string, stmt *querybuilder.Statement, timeout time.Duration) (int64, error) {
	rows, err := s.run(ctx, op, stmt, timeout)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := rows[0].Int64("total_count")
	if err != nil {
		return 0, domain.ErrDatabase(err, "read row count")
	}
	return n, nil
}

// PageResult is one page of rows plus its position in the full result.
type PageResult struct {
	Data       []domain.Row      `json:"data"`
	Pagination domain.Pagination `json:"pagination"`
}

// Page runs the data query restricted to one page and the matching count
// query concurrently. Grouped requests count groups rather than rows. The
// page overrides any limit or offset in params.
func (s *Service) Page(ctx context.Context, params []querybuilder.Param, page domain.PageRequest, timeout time.Duration) (*PageResult, error) {
	paged := append(append([]querybuilder.Param(nil), params...),
		querybuilder.Param{Key: querybuilder.KeyLimit, Value: strconv.Itoa(page.Limit())},
		querybuilder.Param{Key: querybuilder.KeyOffset, Value: strconv.Itoa(page.Offset())},
	)
	b, err := s.builder(paged)
	if err != nil {
		return nil, err
	}
	dataStmt, err := b.BuildQuery()
	if err != nil {
		return nil, err
	}
	countStmt, err := b.BuildGroupCountQuery()
	if err != nil {
		return nil, err
	}

	var (
		rows  []domain.Row
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.run(gctx, "page", dataStmt, timeout)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.total(gctx, "page_count", countStmt, timeout)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &PageResult{Data: rows, Pagination: domain.NewPagination(page, total)}, nil
}

// Validation reports whether params build a valid query without executing it.
type Validation struct {
	Valid     bool   `json:"valid"`
	SQL       string `json:"sql,omitempty"`
	InlineSQL string `json:"inline_sql,omitempty"`
	Args      []any  `json:"args,omitempty"`
	*querybuilder.Description
	Error     string `json:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
}

// Validate builds the data query for params and describes it.
func (s *Service) Validate(params []querybuilder.Param) Validation {
	b, err := s.builder(params)
	if err != nil {
		return invalid(err)
	}
	stmt, err := b.BuildQuery()
	if err != nil {
		return invalid(err)
	}
	desc := b.Describe()
	return Validation{
		Valid:       true,
		SQL:         stmt.SQL,
		InlineSQL:   stmt.Inline(),
		Args:        stmt.Args,
		Description: &desc,
	}
}

func invalid(err error) Validation {
	v := Validation{Error: err.Error(), ErrorType: "validation_error"}
	var qb domain.QueryBuildError
	if errors.As(err, &qb) {
		v.ErrorType = qb.Kind()
	}
	return v
}
