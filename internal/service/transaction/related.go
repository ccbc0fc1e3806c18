package transaction

import (
	"context"
	"strconv"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
)

func idParams(id int64, kv ...string) []querybuilder.Param {
	out := []querybuilder.Param{{Key: "transactionId", Value: strconv.FormatInt(id, 10)}}
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, querybuilder.Param{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

// GetByID returns the transaction row with id.
func (s *Service) GetByID(ctx context.Context, id int64) (domain.Row, error) {
	rows, err := s.Query(ctx, idParams(id, querybuilder.KeyLimit, "1"), 0)
	if err != nil {
		return domain.Row{}, err
	}
	if len(rows) == 0 {
		return domain.Row{}, domain.ErrNotFound("transaction %d not found", id)
	}
	return rows[0], nil
}

// Detail is a transaction with optional related entities.
type Detail struct {
	Transaction      domain.Row   `json:"transaction"`
	RelatedCompanies []domain.Row `json:"relatedCompanies,omitempty"`
	Advisors         []domain.Row `json:"advisors,omitempty"`
}

// GetWithRelated returns the transaction with its type name and, on request,
// company descriptors, related companies and advisors.
func (s *Service) GetWithRelated(ctx context.Context, id int64, includeCompanies, includeAdvisors bool) (*Detail, error) {
	sel := "tr.*, typeName AS typeName"
	if includeCompanies {
		sel += ", companyName AS companyName, industryDescription AS industryDescription, countryName AS countryName"
	}
	rows, err := s.Query(ctx, idParams(id, querybuilder.KeySelect, sel, querybuilder.KeyLimit, "1"), 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound("transaction %d not found", id)
	}

	d := &Detail{Transaction: rows[0]}
	if includeCompanies {
		if d.RelatedCompanies, err = s.RelatedCompanies(ctx, id); err != nil {
			return nil, err
		}
	}
	if includeAdvisors {
		if d.Advisors, err = s.Advisors(ctx, id); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// RelatedCompanies lists the buyer/target relationships of a transaction.
func (s *Service) RelatedCompanies(ctx context.Context, id int64) ([]domain.Row, error) {
	return s.Query(ctx, idParams(id,
		querybuilder.KeySelect, "relationshipName AS relationshipType, buyerId AS buyerId, buyerName AS buyerName, "+
			"targetId AS targetId, targetName AS targetName, percentAcquired AS percentAcquired, "+
			"currentInvestment AS investmentAmount, leadInvestor AS isLeadInvestor",
		"companyRelId", "notnull:",
		querybuilder.KeyOrderBy, "companyRelId",
	), 0)
}

// Advisors lists the advisors of a transaction.
func (s *Service) Advisors(ctx context.Context, id int64) ([]domain.Row, error) {
	return s.Query(ctx, idParams(id,
		querybuilder.KeySelect, "advisorId AS advisorId, advisorName AS advisorName, "+
			"advisorType AS advisorTypeId, advisorTypeName AS advisorType",
		"advisorId", "notnull:",
		querybuilder.KeyOrderBy, "advisorId",
	), 0)
}

// Company relationships accepted by ByCompany.
const (
	RelationshipAny    = ""
	RelationshipBuyer  = "buyer"
	RelationshipTarget = "target"
)

// ByCompany lists the transactions a company took part in. Buyer matches the
// acquiring side of a company relationship; target and the default match the
// company the transaction is recorded against.
func (s *Service) ByCompany(ctx context.Context, companyID int64, relationship string) ([]domain.Row, error) {
	var key string
	switch relationship {
	case RelationshipBuyer:
		key = "buyerId"
	case RelationshipTarget, RelationshipAny:
		key = "companyId"
	default:
		return nil, domain.ErrValidation("unknown relationship %q, expected buyer or target", relationship)
	}
	return s.Query(ctx, []querybuilder.Param{
		{Key: querybuilder.KeySelect, Value: "transactionId, year, month, day, size, currencyId, typeName AS typeName"},
		{Key: key, Value: strconv.FormatInt(companyID, 10)},
		{Key: querybuilder.KeyOrderBy, Value: "year:desc,transactionId"},
	}, 0)
}

// IndustryStatistics summarizes deal volume for an industry.
type IndustryStatistics struct {
	IndustryID       int64   `json:"industryId"`
	Industry         string  `json:"industry,omitempty"`
	Year             int     `json:"year,omitempty"`
	TransactionCount int64   `json:"transactionCount"`
	TotalValue       float64 `json:"totalValue"`
	AverageValue     float64 `json:"averageValue"`
	MaxValue         float64 `json:"maxValue"`
	MinValue         float64 `json:"minValue"`
}

// IndustryStatistics aggregates transactions of companies in industryID,
// optionally for one announcement year. An industry without deals yields
// zeroed statistics.
func (s *Service) IndustryStatistics(ctx context.Context, industryID int64, year int) (*IndustryStatistics, error) {
	params := []querybuilder.Param{
		{Key: querybuilder.KeySelect, Value: "industryDescription, COUNT(transactionId) AS transactionCount, " +
			"SUM(size) AS totalValue, AVG(size) AS averageValue, MAX(size) AS maxValue, MIN(size) AS minValue"},
		{Key: querybuilder.KeyGroupBy, Value: "industryDescription"},
		{Key: "industry", Value: strconv.FormatInt(industryID, 10)},
	}
	if year > 0 {
		params = append(params, querybuilder.Param{Key: "year", Value: strconv.Itoa(year)})
	}
	rows, err := s.Query(ctx, params, 0)
	if err != nil {
		return nil, err
	}

	stats := &IndustryStatistics{IndustryID: industryID, Year: year}
	if len(rows) == 0 {
		return stats, nil
	}
	r := rows[0]
	if v, ok := r.Get("simpleindustrydescription"); ok && v != nil {
		stats.Industry, _ = v.(string)
	}
	if stats.TransactionCount, err = r.Int64("transactionCount"); err != nil {
		return nil, domain.ErrDatabase(err, "read industry statistics")
	}
	for col, dst := range map[string]*float64{
		"totalValue":   &stats.TotalValue,
		"averageValue": &stats.AverageValue,
		"maxValue":     &stats.MaxValue,
		"minValue":     &stats.MinValue,
	} {
		if *dst, err = r.Float64(col); err != nil {
			return nil, domain.ErrDatabase(err, "read industry statistics")
		}
	}
	return stats, nil
}
