package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"txn-api/internal/domain"
	"txn-api/internal/normalize"
	"txn-api/internal/querybuilder"
	"txn-api/internal/schema"
	"txn-api/internal/service/transaction"
)

// maxValidateBody caps the JSON body accepted by POST /transactions/validate.
const maxValidateBody = 1 << 20

// decode reads the ordered query string and normalizes it. raw is returned
// for echoing even when normalization fails.
func (h *APIHandler) decode(r *http.Request) (raw []querybuilder.Param, n normalize.Normalized, err error) {
	raw, err = orderedParams(r.URL.RawQuery)
	if err != nil {
		return nil, normalize.Normalized{}, err
	}
	n, err = h.normalizer.Normalize(raw)
	return raw, n, err
}

// ListTransactions implements GET /transactions. page switches to paginated
// output, countOnly returns the match count and analysisType runs a preset.
func (h *APIHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	raw, n, err := h.decode(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	t := n.Transport

	switch {
	case t.CountOnly:
		count, err := h.transactions.Count(r.Context(), n.Params, t.Timeout)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respond(w, raw, []map[string]int64{{"count": count}}, nil)
	case t.AnalysisType != "":
		rows, err := h.transactions.Analyze(r.Context(), n.Params, t.AnalysisType, t.Fields, t.Timeout)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respond(w, raw, rows, nil)
	case t.HasPage:
		res, err := h.transactions.Page(r.Context(), n.Params, domain.PageRequest{Page: t.Page, PageSize: t.PageSize}, t.Timeout)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respond(w, raw, res.Data, &res.Pagination)
	default:
		rows, err := h.transactions.Query(r.Context(), n.Params, t.Timeout)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		h.respond(w, raw, rows, nil)
	}
}

// CountTransactions implements GET /transactions/count.
func (h *APIHandler) CountTransactions(w http.ResponseWriter, r *http.Request) {
	raw, n, err := h.decode(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	count, err := h.transactions.Count(r.Context(), n.Params, n.Transport.Timeout)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, raw, map[string]int64{"count": count}, nil)
}

// ValidateTransactions implements GET and POST /transactions/validate. An
// invalid query is reported in the body with status 200. POST reads the
// parameters from a JSON object, applied in sorted key order.
func (h *APIHandler) ValidateTransactions(w http.ResponseWriter, r *http.Request) {
	var raw []querybuilder.Param
	var err error
	if r.Method == http.MethodPost {
		raw, err = paramsFromBody(w, r)
	} else {
		raw, err = orderedParams(r.URL.RawQuery)
	}
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	n, err := h.normalizer.Normalize(raw)
	if err != nil {
		h.respond(w, raw, transaction.Validation{Error: err.Error(), ErrorType: errorKind(err)}, nil)
		return
	}
	h.respond(w, raw, h.transactions.Validate(n.Params), nil)
}

func paramsFromBody(w http.ResponseWriter, r *http.Request) ([]querybuilder.Param, error) {
	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValidateBody))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, domain.ErrValidation("request body must be a JSON object of query parameters: %v", err)
	}
	m := make(map[string]string, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case string:
			m[k] = val
		case json.Number, bool:
			m[k] = fmt.Sprint(val)
		case nil:
		default:
			return nil, domain.ErrValidation("parameter %q must be a string, number or boolean", k)
		}
	}
	return querybuilder.ParamsFromMap(m), nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

// GetTransaction implements GET /transactions/{id}.
func (h *APIHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	raw, n, err := h.decode(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	t := n.Transport

	d, err := h.transactions.GetWithRelated(r.Context(), id, t.IncludeCompanies, t.IncludeAdvisors)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !t.IncludeCompanies && !t.IncludeAdvisors {
		h.respond(w, raw, d.Transaction, nil)
		return
	}
	h.respond(w, raw, d, nil)
}

// TransactionCompanies implements GET /transactions/{id}/companies.
func (h *APIHandler) TransactionCompanies(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows, err := h.transactions.RelatedCompanies(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, nil, rows, nil)
}

// TransactionAdvisors implements GET /transactions/{id}/advisors.
func (h *APIHandler) TransactionAdvisors(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows, err := h.transactions.Advisors(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, nil, rows, nil)
}

// CompanyTransactions implements GET /companies/{id}/transactions.
func (h *APIHandler) CompanyTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	relationship := r.URL.Query().Get("relationship")
	rows, err := h.transactions.ByCompany(r.Context(), id, relationship)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, []querybuilder.Param{{Key: "relationship", Value: relationship}}, rows, nil)
}

// IndustryStatistics implements GET /industries/{id}/statistics.
func (h *APIHandler) IndustryStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var year int
	var echo []querybuilder.Param
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || year <= 0 {
			h.respondError(w, r, domain.ErrValidation("year must be a positive integer, got %q", raw))
			return
		}
		echo = append(echo, querybuilder.Param{Key: "year", Value: raw})
	}
	stats, err := h.transactions.IndustryStatistics(r.Context(), id, year)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, echo, stats, nil)
}

// ReferenceValues implements GET /transactions/reference: the names that
// filters accept in place of IDs, per category.
func (h *APIHandler) ReferenceValues(w http.ResponseWriter, r *http.Request) {
	tables := h.normalizer.Tables()
	out := make(map[normalize.Category][]normalize.Entry, len(normalize.Categories))
	for _, cat := range normalize.Categories {
		out[cat] = tables.Entries(cat)
	}
	h.respond(w, nil, out, nil)
}

// fieldInfo describes one logical field for GET /schema/fields.
type fieldInfo struct {
	Name      string `json:"name"`
	SQL       string `json:"sql"`
	Type      string `json:"type"`
	Join      string `json:"join,omitempty"`
	Aggregate bool   `json:"aggregate,omitempty"`
}

// SchemaFields implements GET /schema/fields.
func (h *APIHandler) SchemaFields(w http.ResponseWriter, r *http.Request) {
	fields := h.model.Fields()
	out := make([]fieldInfo, len(fields))
	for i, f := range fields {
		out[i] = fieldInfo{Name: f.Name, SQL: f.SQL(), Type: string(f.Type), Join: f.JoinKey, Aggregate: f.Aggregate}
	}
	h.respond(w, nil, out, nil)
}

// SchemaStatus implements GET /schema/status. An incompatible warehouse is
// reported in the body; only a failed check is an error.
func (h *APIHandler) SchemaStatus(w http.ResponseWriter, r *http.Request) {
	checker := h.checker
	if checker == nil {
		checker = &schema.StaticChecker{Model: h.model}
	}
	report, err := checker.Check(r.Context())
	var compat *domain.SchemaCompatibilityError
	if err != nil && !(errors.As(err, &compat) && report != nil) {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, nil, report, nil)
}

// Healthz implements GET /healthz.
func (h *APIHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
