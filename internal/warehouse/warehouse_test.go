package warehouse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	return NewExecutor(OpenTestWarehouse(t), time.Second, slog.New(slog.DiscardHandler))
}

func TestExecutor_OrderedRows(t *testing.T) {
	ex := newTestExecutor(t)

	rows, err := ex.Execute(context.Background(),
		"SELECT comments, transactionid, announcedyear FROM ciqTransaction WHERE transactionid = ?", []any{1}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"comments", "transactionid", "announcedyear"}, rows[0].Columns)
	assert.Equal(t, "Acme Capital acquires Globex Software", rows[0].Values[0])
	year, err := rows[0].Int64("announcedyear")
	require.NoError(t, err)
	assert.Equal(t, int64(2020), year)
}

func TestExecutor_EmptyResultIsNotNil(t *testing.T) {
	ex := newTestExecutor(t)

	rows, err := ex.Execute(context.Background(), "SELECT * FROM ciqTransaction WHERE transactionid = ?", []any{-1}, 0)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExecutor_Timeout(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(context.Background(), `
WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 1000000000)
SELECT count(*) FROM c`, nil, 20*time.Millisecond)

	var dbErr *domain.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.True(t, dbErr.Timeout)
	assert.Contains(t, dbErr.Error(), "timed out")
}

func TestExecutor_QueryFailure(t *testing.T) {
	ex := newTestExecutor(t)

	_, err := ex.Execute(context.Background(), "SELECT nope FROM missing_table", nil, 0)

	var dbErr *domain.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.False(t, dbErr.Timeout)
	assert.False(t, domain.IsQueryBuildError(err))
}

func TestCountQueryAgreesWithDataQuery(t *testing.T) {
	ex := newTestExecutor(t)
	model := schema.MustDefault()

	cases := []map[string]string{
		{},
		{"year": "gte:2021"},
		{"type": "2,10"},
		{"industry": "58"},
		{"buyerCountry": "213"},
		{"targetIndustry": "notnull:", "year": "between:2020,2022"},
		{"companyName": "contains:o"},
		{"advisorType": "1"},
	}
	for _, params := range cases {
		b := querybuilder.New(model, querybuilder.Options{Dialect: querybuilder.SQLite})
		require.NoError(t, b.ParseRequestParams(params))

		data, err := b.BuildQuery()
		require.NoError(t, err)
		count, err := b.BuildCountQuery()
		require.NoError(t, err)

		rows, err := ex.Execute(context.Background(), data.SQL, data.Args, 0)
		require.NoError(t, err, data.SQL)
		total, err := ex.Execute(context.Background(), count.SQL, count.Args, 0)
		require.NoError(t, err, count.SQL)
		require.Len(t, total, 1)

		n, err := total[0].Int64("total_count")
		require.NoError(t, err)
		assert.Equal(t, int64(len(rows)), n, "params %v", params)
	}
}

func TestGroupedQueryRunsOnSQLite(t *testing.T) {
	ex := newTestExecutor(t)

	b := querybuilder.New(schema.MustDefault(), querybuilder.Options{Dialect: querybuilder.SQLite})
	require.NoError(t, b.ParseRequestParams(map[string]string{
		"select":  "year, COUNT(*) AS deals, SUM(size) AS volume",
		"groupBy": "year",
		"orderBy": "year:asc",
	}))
	stmt, err := b.BuildQuery()
	require.NoError(t, err)

	rows, err := ex.Execute(context.Background(), stmt.SQL, stmt.Args, 0)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	year, err := rows[0].Int64("announcedyear")
	require.NoError(t, err)
	assert.Equal(t, int64(2020), year)
	deals, err := rows[1].Int64("deals")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deals)

	groups, err := b.BuildGroupCountQuery()
	require.NoError(t, err)
	total, err := ex.Execute(context.Background(), groups.SQL, groups.Args, 0)
	require.NoError(t, err)
	n, err := total[0].Int64("total_count")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestDiscoveryCheckerAgainstMigratedWarehouse(t *testing.T) {
	db := OpenTestWarehouse(t)
	model := schema.MustDefault()

	checker, err := schema.NewChecker(schema.ModeDiscovery, model, NewColumnLister(db, DriverSQLite), "", true)
	require.NoError(t, err)

	report, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Compatible)
	assert.Equal(t, model.Hash(), report.CurrentHash)

	_, err = db.Exec("DROP TABLE ciqAdvisorType")
	require.NoError(t, err)

	report, err = checker.Check(context.Background())
	var compat *domain.SchemaCompatibilityError
	require.ErrorAs(t, err, &compat)
	assert.Equal(t, []string{schema.TableAdvisorType}, report.MissingTables)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported warehouse driver")
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	err := Migrate(nil, DriverDuckDB)
	require.Error(t, err)
}

func TestBuildSQLiteDSN(t *testing.T) {
	assert.Equal(t, "/tmp/w.sqlite?_busy_timeout=5000&_journal_mode=WAL", buildSQLiteDSN("/tmp/w.sqlite"))
	assert.Equal(t, "/tmp/w.sqlite?mode=ro", buildSQLiteDSN("/tmp/w.sqlite?mode=ro"))
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, DriverDuckDB, DriverName(""))
	assert.Equal(t, DriverSQLite, DriverName("sqlite"))
	assert.Equal(t, DriverPostgres, DriverName("postgres"))
}

func TestInformationSchemaQuery_Placeholders(t *testing.T) {
	tables := []string{"ciqtransaction", "ciqcompany"}

	query, args, err := informationSchemaQuery(DriverPostgres, tables)
	require.NoError(t, err)
	assert.Contains(t, query, "lower(table_name) IN ($1,$2)")
	assert.Equal(t, []any{"ciqtransaction", "ciqcompany"}, args)

	query, _, err = informationSchemaQuery(DriverDuckDB, tables)
	require.NoError(t, err)
	assert.Contains(t, query, "lower(table_name) IN (?,?)")
}

func TestDuckDBExecutorAndColumns(t *testing.T) {
	db, err := Open(context.Background(), DriverDuckDB, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("CREATE TABLE ciqAdvisorType (advisortypeid INTEGER, advisortypename VARCHAR)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO ciqAdvisorType VALUES (1, 'Financial'), (2, 'Legal')")
	require.NoError(t, err)

	ex := NewExecutor(db, 0, slog.New(slog.DiscardHandler))
	rows, err := ex.Execute(context.Background(),
		"SELECT advisortypename FROM ciqAdvisorType WHERE advisortypeid IN (?, ?) ORDER BY advisortypeid", []any{1, 2}, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Legal", rows[1].Values[0])

	cols, err := NewColumnLister(db, DriverDuckDB).ListColumns(context.Background(), []string{"ciqAdvisorType", "ciqCompany"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"ciqAdvisorType": {"advisortypeid", "advisortypename"}}, cols)
}
