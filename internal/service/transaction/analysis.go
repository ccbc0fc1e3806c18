package transaction

import (
	"context"
	"time"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
)

// Analysis presets.
const (
	AnalysisTrend        = "trend"
	AnalysisComparison   = "comparison"
	AnalysisDistribution = "distribution"
)

// Analyze fills in select, groupBy and orderBy for a preset unless params
// already set them, then runs the query.
//
//   - trend counts deals per announcement year and month.
//   - comparison counts deals per value of fields[0].
//   - distribution counts deals per value of fields[0], ordered by value.
func (s *Service) Analyze(ctx context.Context, params []querybuilder.Param, analysisType string, fields []string, timeout time.Duration) ([]domain.Row, error) {
	var field string
	if len(fields) > 0 {
		field = fields[0]
	}

	var preset []querybuilder.Param
	switch analysisType {
	case AnalysisTrend:
		preset = []querybuilder.Param{
			{Key: querybuilder.KeyGroupBy, Value: "year,month"},
			{Key: querybuilder.KeySelect, Value: "year,month,count"},
			{Key: querybuilder.KeyOrderBy, Value: "year,month"},
		}
	case AnalysisComparison:
		if field == "" {
			preset = []querybuilder.Param{{Key: querybuilder.KeySelect, Value: "count"}}
			break
		}
		preset = []querybuilder.Param{
			{Key: querybuilder.KeyGroupBy, Value: field},
			{Key: querybuilder.KeySelect, Value: field + ",count"},
			{Key: querybuilder.KeyOrderBy, Value: "count:desc"},
		}
	case AnalysisDistribution:
		if field == "" {
			return nil, domain.ErrValidation("distribution analysis requires a field")
		}
		preset = []querybuilder.Param{
			{Key: querybuilder.KeyGroupBy, Value: field},
			{Key: querybuilder.KeySelect, Value: field + ",count"},
			{Key: querybuilder.KeyOrderBy, Value: field},
		}
	default:
		return nil, domain.ErrValidation("unknown analysis type %q, expected trend, comparison or distribution", analysisType)
	}

	merged := append([]querybuilder.Param(nil), params...)
	for _, p := range preset {
		if !hasKey(params, p.Key) {
			merged = append(merged, p)
		}
	}
	return s.Query(ctx, merged, timeout)
}

func hasKey(params []querybuilder.Param, key string) bool {
	for _, p := range params {
		if p.Key == key {
			return true
		}
	}
	return false
}
