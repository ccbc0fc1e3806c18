package api

import (
	"context"
	"time"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
	"txn-api/internal/service/transaction"
)

// mockTransactionService implements TransactionService with per-method hooks.
// Calling an unconfigured method panics.
type mockTransactionService struct {
	queryFn     func(ctx context.Context, params []querybuilder.Param, timeout time.Duration) ([]domain.Row, error)
	countFn     func(ctx context.Context, params []querybuilder.Param, timeout time.Duration) (int64, error)
	pageFn      func(ctx context.Context, params []querybuilder.Param, page domain.PageRequest, timeout time.Duration) (*transaction.PageResult, error)
	validateFn  func(params []querybuilder.Param) transaction.Validation
	detailFn    func(ctx context.Context, id int64, includeCompanies, includeAdvisors bool) (*transaction.Detail, error)
	companiesFn func(ctx context.Context, id int64) ([]domain.Row, error)
	advisorsFn  func(ctx context.Context, id int64) ([]domain.Row, error)
	byCompanyFn func(ctx context.Context, companyID int64, relationship string) ([]domain.Row, error)
	industryFn  func(ctx context.Context, industryID int64, year int) (*transaction.IndustryStatistics, error)
	analyzeFn   func(ctx context.Context, params []querybuilder.Param, analysisType string, fields []string, timeout time.Duration) ([]domain.Row, error)
}

func (m *mockTransactionService) Query(ctx context.Context, params []querybuilder.Param, timeout time.Duration) ([]domain.Row, error) {
	if m.queryFn == nil {
		panic("mockTransactionService.Query called but not configured")
	}
	return m.queryFn(ctx, params, timeout)
}

func (m *mockTransactionService) Count(ctx context.Context, params []querybuilder.Param, timeout time.Duration) (int64, error) {
	if m.countFn == nil {
		panic("mockTransactionService.Count called but not configured")
	}
	return m.countFn(ctx, params, timeout)
}

func (m *mockTransactionService) Page(ctx context.Context, params []querybuilder.Param, page domain.PageRequest, timeout time.Duration) (*transaction.PageResult, error) {
	if m.pageFn == nil {
		panic("mockTransactionService.Page called but not configured")
	}
	return m.pageFn(ctx, params, page, timeout)
}

func (m *mockTransactionService) Validate(params []querybuilder.Param) transaction.Validation {
	if m.validateFn == nil {
		panic("mockTransactionService.Validate called but not configured")
	}
	return m.validateFn(params)
}

func (m *mockTransactionService) GetWithRelated(ctx context.Context, id int64, includeCompanies, includeAdvisors bool) (*transaction.Detail, error) {
	if m.detailFn == nil {
		panic("mockTransactionService.GetWithRelated called but not configured")
	}
	return m.detailFn(ctx, id, includeCompanies, includeAdvisors)
}

func (m *mockTransactionService) RelatedCompanies(ctx context.Context, id int64) ([]domain.Row, error) {
	if m.companiesFn == nil {
		panic("mockTransactionService.RelatedCompanies called but not configured")
	}
	return m.companiesFn(ctx, id)
}

func (m *mockTransactionService) Advisors(ctx context.Context, id int64) ([]domain.Row, error) {
	if m.advisorsFn == nil {
		panic("mockTransactionService.Advisors called but not configured")
	}
	return m.advisorsFn(ctx, id)
}

func (m *mockTransactionService) ByCompany(ctx context.Context, companyID int64, relationship string) ([]domain.Row, error) {
	if m.byCompanyFn == nil {
		panic("mockTransactionService.ByCompany called but not configured")
	}
	return m.byCompanyFn(ctx, companyID, relationship)
}

func (m *mockTransactionService) IndustryStatistics(ctx context.Context, industryID int64, year int) (*transaction.IndustryStatistics, error) {
	if m.industryFn == nil {
		panic("mockTransactionService.IndustryStatistics called but not configured")
	}
	return m.industryFn(ctx, industryID, year)
}

func (m *mockTransactionService) Analyze(ctx context.Context, params []querybuilder.Param, analysisType string, fields []string, timeout time.Duration) ([]domain.Row, error) {
	if m.analyzeFn == nil {
		panic("mockTransactionService.Analyze called but not configured")
	}
	return m.analyzeFn(ctx, params, analysisType, fields, timeout)
}
