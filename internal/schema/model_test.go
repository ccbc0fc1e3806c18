package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txn-api/internal/domain"
)

func TestDefaultModel_SelfCheck(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)
	assert.Equal(t, TableTransaction, m.Base().Name)
	assert.Equal(t, "tr", m.Base().Alias)
	assert.Len(t, m.Tables(), 11)
	assert.Len(t, m.JoinKeys(), 18)
}

func TestClosure_DependenciesFirst(t *testing.T) {
	m := MustDefault()

	tests := []struct {
		key  string
		want []string
	}{
		{JoinType, []string{JoinType}},
		{JoinIndustry, []string{JoinCompany, JoinIndustry}},
		{JoinBuyerCountry, []string{JoinTransactionRel, JoinCompanyRel, JoinBuyerCompany, JoinBuyerCountry}},
		{JoinTargetIndustry, []string{JoinTransactionRel, JoinCompanyRel, JoinTargetCompany, JoinTargetIndustry}},
		{JoinAdvisoryType, []string{JoinAdvisorRel, JoinAdvisoryType}},
		{JoinCurrencyCountry, []string{JoinCurrency, JoinCurrencyCountry}},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			got, err := m.Closure(tc.key)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := m.Closure("nope")
	require.Error(t, err)
}

func TestFieldTypesFilledFromTables(t *testing.T) {
	m := MustDefault()

	f, ok := m.Field("size")
	require.True(t, ok)
	assert.Equal(t, TypeFloat, f.Type)
	assert.Equal(t, "tr.transactionsize", f.SQL())

	f, ok = m.Field("companyName")
	require.True(t, ok)
	assert.Equal(t, TypeString, f.Type)
	assert.Equal(t, JoinCompany, f.JoinKey)

	f, ok = m.Field("industry")
	require.True(t, ok)
	assert.Equal(t, "si.simpleindustryid", f.SQL())

	f, ok = m.Field("count")
	require.True(t, ok)
	assert.True(t, f.Aggregate)
	assert.Equal(t, "COUNT(*)", f.SQL())

	_, ok = m.Field("CompanyName")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestNewModel_RejectsCycle(t *testing.T) {
	def := DefaultDefinition()
	for i := range def.Joins {
		if def.Joins[i].Key == JoinCompany {
			def.Joins[i].Requires = []string{JoinIndustry}
		}
	}
	_, err := NewModel(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestNewModel_RejectsUnknownRequires(t *testing.T) {
	def := DefaultDefinition()
	def.Joins = append(def.Joins, JoinPath{
		Key: "ghost", Table: TableCompany, Alias: "ghost",
		Condition: "tr.companyid = ghost.companyid", Requires: []string{"missing"},
	})
	_, err := NewModel(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown join")
}

func TestNewModel_RejectsDuplicateAlias(t *testing.T) {
	def := DefaultDefinition()
	def.Joins = append(def.Joins, JoinPath{
		Key: "company_again", Table: TableCompany, Alias: "c",
		Condition: "tr.companyid = c.companyid",
	})
	_, err := NewModel(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reuses alias")
}

func TestNewModel_RejectsUnreachableConditionAlias(t *testing.T) {
	def := DefaultDefinition()
	for i := range def.Joins {
		if def.Joins[i].Key == JoinBuyerIndustry {
			def.Joins[i].Requires = nil
		}
	}
	_, err := NewModel(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside its requires closure")
}

func TestNewModel_RejectsFieldOnWrongJoin(t *testing.T) {
	def := DefaultDefinition()
	def.Fields = append(def.Fields, Field{Name: "bogus", Alias: "si", Column: "simpleindustryid", JoinKey: JoinCompany})
	_, err := NewModel(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "introduced by join")
}

type fakeColumns struct {
	cols map[string][]string
	err  error
}

func (f fakeColumns) ListColumns(_ context.Context, _ []string) (map[string][]string, error) {
	return f.cols, f.err
}

func liveColumns(m *Model) map[string][]string {
	out := map[string][]string{}
	for _, t := range m.Tables() {
		for _, c := range t.Columns {
			out[t.Name] = append(out[t.Name], c.Name)
		}
	}
	return out
}

func TestStaticChecker(t *testing.T) {
	m := MustDefault()
	report, err := (&StaticChecker{Model: m}).Check(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Compatible)
	assert.Equal(t, m.Hash(), report.CurrentHash)
	assert.Equal(t, ModeStatic, report.Mode)
}

func TestDiscoveryChecker(t *testing.T) {
	m := MustDefault()

	t.Run("compatible", func(t *testing.T) {
		c := &DiscoveryChecker{Model: m, Source: fakeColumns{cols: liveColumns(m)}, Strict: true}
		report, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.True(t, report.Compatible)
		assert.Equal(t, m.Hash(), report.CurrentHash)
	})

	t.Run("missing column lenient", func(t *testing.T) {
		cols := liveColumns(m)
		cols[TableCompany] = cols[TableCompany][1:]
		c := &DiscoveryChecker{Model: m, Source: fakeColumns{cols: cols}}
		report, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.False(t, report.Compatible)
		assert.Equal(t, []string{"ciqCompany.companyid"}, report.MissingColumns)
	})

	t.Run("missing table strict", func(t *testing.T) {
		cols := liveColumns(m)
		delete(cols, TableAdvisorType)
		c := &DiscoveryChecker{Model: m, Source: fakeColumns{cols: cols}, Strict: true}
		report, err := c.Check(context.Background())
		require.Error(t, err)
		var compat *domain.SchemaCompatibilityError
		require.True(t, errors.As(err, &compat))
		assert.NotEqual(t, compat.CurrentHash, compat.ExpectedHash)
		assert.Equal(t, []string{TableAdvisorType}, report.MissingTables)
	})

	t.Run("source failure", func(t *testing.T) {
		c := &DiscoveryChecker{Model: m, Source: fakeColumns{err: errors.New("boom")}}
		_, err := c.Check(context.Background())
		require.Error(t, err)
	})
}

func TestNewChecker(t *testing.T) {
	m := MustDefault()

	c, err := NewChecker("", m, nil, "", false)
	require.NoError(t, err)
	assert.IsType(t, &StaticChecker{}, c)

	_, err = NewChecker(ModeDiscovery, m, nil, "", false)
	require.Error(t, err)

	c, err = NewChecker(ModeDiscovery, m, fakeColumns{}, "abc", true)
	require.NoError(t, err)
	assert.IsType(t, &DiscoveryChecker{}, c)

	_, err = NewChecker("magic", m, nil, "", false)
	require.Error(t, err)
}
