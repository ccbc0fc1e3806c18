package transaction

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
	"txn-api/internal/warehouse"
)

func p(kv ...string) []querybuilder.Param {
	out := make([]querybuilder.Param, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, querybuilder.Param{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func setupService(t *testing.T) *Service {
	t.Helper()
	db := warehouse.OpenTestWarehouse(t)
	logger := slog.New(slog.DiscardHandler)
	exec := warehouse.NewExecutor(db, 5*time.Second, logger)
	return NewService(schema.MustDefault(), exec, querybuilder.Options{Dialect: querybuilder.SQLite}, logger)
}

func int64Col(t *testing.T, r domain.Row, col string) int64 {
	t.Helper()
	n, err := r.Int64(col)
	require.NoError(t, err)
	return n
}

func TestQuery_FiltersAndSelect(t *testing.T) {
	svc := setupService(t)

	rows, err := svc.Query(context.Background(), p(
		"select", "transactionId, companyName AS companyName",
		"industry", "58",
		"orderBy", "transactionId",
	), 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"transactionid", "companyName"}, rows[0].Columns)
	assert.Equal(t, int64(1), int64Col(t, rows[0], "transactionid"))
	assert.Equal(t, "Globex Software", rows[0].Values[1])
}

func TestQuery_BuildErrorNeverReachesExecutor(t *testing.T) {
	exec := &stubExecutor{}
	svc := NewService(schema.MustDefault(), exec, querybuilder.Options{}, slog.New(slog.DiscardHandler))

	_, err := svc.Query(context.Background(), p("bogus", "1"), 0)
	assert.True(t, domain.IsQueryBuildError(err))
	assert.Empty(t, exec.calls())
}

func TestCount(t *testing.T) {
	svc := setupService(t)

	n, err := svc.Count(context.Background(), p("year", "gte:2021"), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestPage(t *testing.T) {
	svc := setupService(t)

	res, err := svc.Page(context.Background(), p("year", "gte:2021", "orderBy", "transactionId"),
		domain.PageRequest{Page: 2, PageSize: 3}, 0)
	require.NoError(t, err)

	require.Len(t, res.Data, 3)
	assert.Equal(t, int64(5), int64Col(t, res.Data[0], "transactionid"))
	assert.Equal(t, domain.Pagination{
		Page: 2, PageSize: 3, TotalCount: 7, TotalPages: 3, HasNext: true, HasPrev: true,
	}, res.Pagination)
}

func TestPage_GroupedCountsGroups(t *testing.T) {
	svc := setupService(t)

	res, err := svc.Page(context.Background(), p("select", "year,count", "groupBy", "year", "orderBy", "year"),
		domain.PageRequest{Page: 1, PageSize: 2}, 0)
	require.NoError(t, err)

	assert.Len(t, res.Data, 2)
	assert.Equal(t, int64(5), res.Pagination.TotalCount)
	assert.Equal(t, int64(3), res.Pagination.TotalPages)
}

func TestPage_OverridesLimitAndOffset(t *testing.T) {
	exec := &stubExecutor{rows: []domain.Row{{Columns: []string{"total_count"}, Values: []any{int64(0)}}}}
	svc := NewService(schema.MustDefault(), exec, querybuilder.Options{}, slog.New(slog.DiscardHandler))

	_, err := svc.Page(context.Background(), p("limit", "5", "offset", "1"), domain.PageRequest{Page: 3, PageSize: 10}, 0)
	require.NoError(t, err)

	var data string
	for _, c := range exec.calls() {
		if !bytes.Contains([]byte(c), []byte("total_count")) {
			data = c
		}
	}
	assert.Contains(t, data, "LIMIT 10 OFFSET 20")
}

func TestValidate(t *testing.T) {
	svc := setupService(t)

	v := svc.Validate(p("year", "gte:2020", "select", "industry, COUNT(*)", "groupBy", "industry"))
	require.True(t, v.Valid, v.Error)
	assert.Contains(t, v.SQL, "WHERE tr.announcedyear >= ?")
	assert.Contains(t, v.InlineSQL, "tr.announcedyear >= 2020")
	assert.Equal(t, []string{schema.JoinCompany, schema.JoinIndustry}, v.Joins)
	assert.Equal(t, []any{int64(2020)}, v.Args)

	v = svc.Validate(p("bogus", "1"))
	assert.False(t, v.Valid)
	assert.Equal(t, "field_error", v.ErrorType)
	assert.Nil(t, v.Description)
}

func TestGetByID(t *testing.T) {
	svc := setupService(t)

	row, err := svc.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), int64Col(t, row, "transactionid"))

	_, err = svc.GetByID(context.Background(), 999)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestGetWithRelated(t *testing.T) {
	svc := setupService(t)

	d, err := svc.GetWithRelated(context.Background(), 1, true, true)
	require.NoError(t, err)

	name, _ := d.Transaction.Get("companyName")
	assert.Equal(t, "Globex Software", name)
	typeName, _ := d.Transaction.Get("typeName")
	assert.Equal(t, "Acquisition", typeName)

	require.Len(t, d.RelatedCompanies, 1)
	buyer, _ := d.RelatedCompanies[0].Get("buyerName")
	target, _ := d.RelatedCompanies[0].Get("targetName")
	assert.Equal(t, "Acme Capital", buyer)
	assert.Equal(t, "Globex Software", target)

	require.Len(t, d.Advisors, 2)
	advisor, _ := d.Advisors[1].Get("advisorName")
	role, _ := d.Advisors[1].Get("advisorType")
	assert.Equal(t, "Hooli Legal", advisor)
	assert.Equal(t, "Legal", role)
}

func TestGetWithRelated_NoAdvisorsIsEmpty(t *testing.T) {
	svc := setupService(t)

	advisors, err := svc.Advisors(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, advisors)

	d, err := svc.GetWithRelated(context.Background(), 5, false, false)
	require.NoError(t, err)
	assert.Nil(t, d.RelatedCompanies)
	_, hasCompany := d.Transaction.Get("companyName")
	assert.False(t, hasCompany)
}

func TestByCompany(t *testing.T) {
	svc := setupService(t)

	rows, err := svc.ByCompany(context.Background(), 1001, RelationshipBuyer)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(4), int64Col(t, rows[0], "transactionid"))

	rows, err = svc.ByCompany(context.Background(), 1008, RelationshipAny)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(8), int64Col(t, rows[0], "transactionid"))

	_, err = svc.ByCompany(context.Background(), 1008, "seller")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestIndustryStatistics(t *testing.T) {
	svc := setupService(t)

	stats, err := svc.IndustryStatistics(context.Background(), 58, 0)
	require.NoError(t, err)
	assert.Equal(t, "Technology", stats.Industry)
	assert.Equal(t, int64(3), stats.TransactionCount)
	assert.InDelta(t, 1425.75, stats.TotalValue, 1e-9)
	assert.InDelta(t, 475.25, stats.AverageValue, 1e-9)
	assert.InDelta(t, 1200.5, stats.MaxValue, 1e-9)
	assert.InDelta(t, 75.25, stats.MinValue, 1e-9)

	stats, err = svc.IndustryStatistics(context.Background(), 58, 2022)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TransactionCount)
	assert.Equal(t, 2022, stats.Year)
}

func TestIndustryStatistics_NoRowsIsZeroed(t *testing.T) {
	svc := setupService(t)

	stats, err := svc.IndustryStatistics(context.Background(), 999, 0)
	require.NoError(t, err)
	assert.Equal(t, &IndustryStatistics{IndustryID: 999}, stats)
}

func TestAnalyze(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	rows, err := svc.Analyze(ctx, nil, AnalysisTrend, nil, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 8)

	rows, err = svc.Analyze(ctx, nil, AnalysisComparison, []string{"type"}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, int64(3), int64Col(t, rows[0], "count"))

	rows, err = svc.Analyze(ctx, p("year", "2021"), AnalysisDistribution, []string{"statusId"}, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = svc.Analyze(ctx, nil, AnalysisDistribution, nil, 0)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Analyze(ctx, nil, "forecast", nil, 0)
	assert.ErrorAs(t, err, &verr)
}

func TestAnalyze_KeepsCallerSelect(t *testing.T) {
	exec := &stubExecutor{}
	svc := NewService(schema.MustDefault(), exec, querybuilder.Options{}, slog.New(slog.DiscardHandler))

	_, err := svc.Analyze(context.Background(), p("select", "year, total"), AnalysisTrend, nil, 0)
	require.NoError(t, err)
	require.Len(t, exec.calls(), 1)
	assert.Contains(t, exec.calls()[0], "SUM(tr.transactionsize) AS total")
	assert.NotContains(t, exec.calls()[0], "COUNT(*)")
}

func TestQuery_LogsInlineSQL(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := NewService(schema.MustDefault(), &stubExecutor{}, querybuilder.Options{}, logger)

	_, err := svc.Query(context.Background(), p("year", "2021", "unknownOp", "1"), 0)
	require.Error(t, err)

	_, err = svc.Query(context.Background(), p("companyName", "weird:Acme"), 0)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "executing transaction query")
	assert.Contains(t, buf.String(), "c.companyname = 'weird:Acme'")
	assert.Contains(t, buf.String(), "unrecognized operator prefix")
}

func TestQuery_TimeoutPropagates(t *testing.T) {
	timeout := &domain.DatabaseError{Message: "query timed out", Timeout: true}
	svc := NewService(schema.MustDefault(), &stubExecutor{err: timeout}, querybuilder.Options{}, slog.New(slog.DiscardHandler))

	_, err := svc.Query(context.Background(), nil, time.Millisecond)
	assert.Same(t, timeout, err)

	_, err = svc.Page(context.Background(), nil, domain.PageRequest{Page: 1}, time.Millisecond)
	var dbErr *domain.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.True(t, dbErr.Timeout)
}

type stubExecutor struct {
	mu   sync.Mutex
	sqls []string
	rows []domain.Row
	err  error
}

func (s *stubExecutor) Execute(_ context.Context, sqlText string, _ []any, _ time.Duration) ([]domain.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sqls = append(s.sqls, sqlText)
	return s.rows, s.err
}

func (s *stubExecutor) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sqls...)
}
