// Package api provides HTTP handlers for the transaction query REST API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"txn-api/internal/domain"
	"txn-api/internal/middleware"
	"txn-api/internal/normalize"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
	"txn-api/internal/service/transaction"
)

// TransactionService is the subset of transaction.Service the handlers use.
type TransactionService interface {
	Query(ctx context.Context, params []querybuilder.Param, timeout time.Duration) ([]domain.Row, error)
	Count(ctx context.Context, params []querybuilder.Param, timeout time.Duration) (int64, error)
	Page(ctx context.Context, params []querybuilder.Param, page domain.PageRequest, timeout time.Duration) (*transaction.PageResult, error)
	Validate(params []querybuilder.Param) transaction.Validation
	GetWithRelated(ctx context.Context, id int64, includeCompanies, includeAdvisors bool) (*transaction.Detail, error)
	RelatedCompanies(ctx context.Context, id int64) ([]domain.Row, error)
	Advisors(ctx context.Context, id int64) ([]domain.Row, error)
	ByCompany(ctx context.Context, companyID int64, relationship string) ([]domain.Row, error)
	IndustryStatistics(ctx context.Context, industryID int64, year int) (*transaction.IndustryStatistics, error)
	Analyze(ctx context.Context, params []querybuilder.Param, analysisType string, fields []string, timeout time.Duration) ([]domain.Row, error)
}

// APIHandler serves the transaction endpoints.
type APIHandler struct {
	transactions TransactionService
	normalizer   *normalize.Normalizer
	checker      domain.SchemaChecker
	model        *schema.Model
	logger       *slog.Logger
	now          func() time.Time
}

// NewHandler creates a new APIHandler. checker may be nil, in which case
// /schema/status reports the compiled-in model only.
func NewHandler(
	transactions TransactionService,
	normalizer *normalize.Normalizer,
	checker domain.SchemaChecker,
	model *schema.Model,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		transactions: transactions,
		normalizer:   normalizer,
		checker:      checker,
		model:        model,
		logger:       logger,
		now:          time.Now,
	}
}

// envelope wraps every successful response body.
type envelope struct {
	Data            any                `json:"data"`
	Pagination      *domain.Pagination `json:"pagination,omitempty"`
	QueryParameters map[string]string  `json:"query_parameters"`
	Timestamp       string             `json:"timestamp"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *APIHandler) respond(w http.ResponseWriter, params []querybuilder.Param, data any, page *domain.Pagination) {
	writeJSON(w, http.StatusOK, envelope{
		Data:            data,
		Pagination:      page,
		QueryParameters: echoParams(params),
		Timestamp:       h.now().UTC().Format(time.RFC3339),
	})
}

func (h *APIHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	kind := errorKind(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		middleware.Logger(r.Context(), h.logger).Error("request failed",
			"path", r.URL.Path,
			"error", err,
		)
	}
	if kind == "internal_error" {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: status, Error: kind, Message: msg})
}
