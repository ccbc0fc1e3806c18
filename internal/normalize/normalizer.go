package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
)

// Transport keys consumed before parameters reach the builder.
const (
	KeyPage             = "page"
	KeyPageSize         = "pageSize"
	KeyPageSizeSnake    = "page_size"
	KeyTimeout          = "timeout"
	KeyCountOnly        = "countOnly"
	KeyCountOnlySnake   = "count_only"
	KeyAnalysisType     = "analysisType"
	KeyFields           = "fields"
	KeyIncludeCompanies = "includeCompanies"
	KeyIncludeAdvisors  = "includeAdvisors"
)

// DefaultPageSize applies when a request pages without a page size.
const DefaultPageSize = 100

var renames = map[string]string{
	"company":         "companyId",
	"relationType":    "relationshipType",
	"transactionSize": "size",
	"announcedYear":   "year",
	"announcedMonth":  "month",
	"announcedDay":    "day",
}

const keyCurrencyISO = "currencyIsoCode"

var translated = map[string]Category{
	"type":             TransactionTypes,
	"country":          Countries,
	"buyerCountry":     Countries,
	"targetCountry":    Countries,
	"industry":         Industries,
	"buyerIndustry":    Industries,
	"targetIndustry":   Industries,
	"currencyId":       Currencies,
	"statusId":         Statuses,
	"advisorType":      AdvisorTypes,
	"relationshipType": RelationTypes,
}

// Pattern operators keep their text; only comparison operators translate.
var translatePrefixRe = regexp.MustCompile(`^(gte|lte|gt|lt|ne|between):(.+)$`)

var integerRe = regexp.MustCompile(`^-?\d+$`)

// Transport carries the request options that are not query parameters.
type Transport struct {
	Page             int
	PageSize         int
	HasPage          bool
	Timeout          time.Duration
	CountOnly        bool
	AnalysisType     string
	Fields           []string
	IncludeCompanies bool
	IncludeAdvisors  bool
}

// Normalized is the result of Normalize.
type Normalized struct {
	Params    []querybuilder.Param
	Transport Transport
}

// Normalizer rewrites raw request parameters. It is stateless apart from
// its immutable alias tables.
type Normalizer struct {
	tables          *AliasTables
	defaultPageSize int
	maxPageSize     int
}

// New creates a normalizer. A nil tables value behaves like empty tables.
func New(tables *AliasTables, defaultPageSize, maxPageSize int) *Normalizer {
	if tables == nil {
		tables, _ = NewAliasTables(File{})
	}
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	if maxPageSize <= 0 {
		maxPageSize = querybuilder.DefaultMaxLimit
	}
	return &Normalizer{tables: tables, defaultPageSize: defaultPageSize, maxPageSize: maxPageSize}
}

// Tables returns the alias tables in use.
func (n *Normalizer) Tables() *AliasTables { return n.tables }

// Normalize splits transport options from query parameters, renames legacy
// parameter names and translates names to IDs. Parameter order is kept.
// Every raw key and value is screened first, including transport options
// that never reach the query builder.
func (n *Normalizer) Normalize(params []querybuilder.Param) (Normalized, error) {
	for _, p := range params {
		if err := querybuilder.CheckValue(p.Key); err != nil {
			return Normalized{}, err
		}
		if err := querybuilder.CheckValue(p.Value); err != nil {
			return Normalized{}, err
		}
	}

	out := Normalized{Transport: Transport{PageSize: n.defaultPageSize}}
	for _, p := range params {
		consumed, err := n.transport(&out.Transport, p)
		if err != nil {
			return Normalized{}, err
		}
		if consumed {
			continue
		}

		key, value := p.Key, p.Value
		if key == keyCurrencyISO {
			v, err := n.currencyFromISO(value)
			if err != nil {
				return Normalized{}, err
			}
			key, value = "currencyId", v
		} else if to, ok := renames[key]; ok {
			key = to
		}
		if cat, ok := translated[key]; ok {
			value = n.Translate(cat, value)
		}
		out.Params = append(out.Params, querybuilder.Param{Key: key, Value: value})
	}
	return out, nil
}

func (n *Normalizer) transport(t *Transport, p querybuilder.Param) (bool, error) {
	switch p.Key {
	case KeyPage:
		v, err := positiveInt(p.Key, p.Value)
		if err != nil {
			return true, err
		}
		t.Page, t.HasPage = v, true
	case KeyPageSize, KeyPageSizeSnake:
		v, err := positiveInt(p.Key, p.Value)
		if err != nil {
			return true, err
		}
		if v > n.maxPageSize {
			return true, domain.ErrValidation("%s must be at most %d", p.Key, n.maxPageSize)
		}
		t.PageSize = v
	case KeyTimeout:
		d, err := parseTimeout(p.Value)
		if err != nil {
			return true, err
		}
		t.Timeout = d
	case KeyCountOnly, KeyCountOnlySnake:
		b, err := parseBool(p.Key, p.Value)
		if err != nil {
			return true, err
		}
		t.CountOnly = b
	case KeyAnalysisType:
		t.AnalysisType = strings.TrimSpace(p.Value)
	case KeyFields:
		t.Fields = nil
		for _, f := range strings.Split(p.Value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				t.Fields = append(t.Fields, f)
			}
		}
	case KeyIncludeCompanies:
		b, err := parseBool(p.Key, p.Value)
		if err != nil {
			return true, err
		}
		t.IncludeCompanies = b
	case KeyIncludeAdvisors:
		b, err := parseBool(p.Key, p.Value)
		if err != nil {
			return true, err
		}
		t.IncludeAdvisors = b
	default:
		return false, nil
	}
	return true, nil
}

// Translate converts names in value to IDs of cat. Plain values, comma lists
// and comparison-prefixed values (both between bounds included) are handled;
// integers, null:/notnull: and unknown names pass through unchanged.
func (n *Normalizer) Translate(cat Category, value string) string {
	if value == "null:" || value == "notnull:" || integerRe.MatchString(value) {
		return value
	}
	if m := translatePrefixRe.FindStringSubmatch(value); m != nil {
		if m[1] == "between" {
			return m[1] + ":" + n.translateList(cat, m[2])
		}
		return m[1] + ":" + n.translateOne(cat, m[2])
	}
	if strings.Contains(value, ",") {
		return n.translateList(cat, value)
	}
	return n.translateOne(cat, value)
}

func (n *Normalizer) translateList(cat Category, value string) string {
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = n.translateOne(cat, strings.TrimSpace(part))
	}
	return strings.Join(parts, ",")
}

func (n *Normalizer) translateOne(cat Category, value string) string {
	if integerRe.MatchString(value) {
		return value
	}
	if id, ok := n.tables.Lookup(cat, value); ok {
		return strconv.FormatInt(id, 10)
	}
	return value
}

func (n *Normalizer) currencyFromISO(value string) (string, error) {
	codes := strings.Split(value, ",")
	for i, code := range codes {
		id, ok := n.tables.CurrencyByISO(code)
		if !ok {
			return "", domain.ErrValidation("unknown currency ISO code %q", strings.TrimSpace(code))
		}
		codes[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(codes, ","), nil
}

func positiveInt(key, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 1 {
		return 0, domain.ErrValidation("%s must be a positive integer, got %q", key, raw)
	}
	return v, nil
}

func parseBool(key, raw string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, domain.ErrValidation("%s must be a boolean, got %q", key, raw)
	}
	return b, nil
}

// parseTimeout accepts whole seconds or a Go duration string.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second, nil
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d, nil
	}
	return 0, domain.ErrValidation("timeout must be a positive number of seconds or a duration, got %q", raw)
}
