package querybuilder

import (
	"sort"
)

// Structural parameter keys. Every other key is a filter.
const (
	KeySelect  = "select"
	KeyGroupBy = "groupBy"
	KeyOrderBy = "orderBy"
	KeyLimit   = "limit"
	KeyOffset  = "offset"
)

// Param is one raw request parameter.
type Param struct {
	Key   string
	Value string
}

// Filter is one raw filter parameter.
type Filter struct {
	Field string
	Value string
}

// Request is the typed form of a flat parameter list.
type Request struct {
	Select  string
	GroupBy string
	OrderBy string
	Limit   string
	Offset  string
	Filters []Filter
}

// ParseRequest runs the security guard over every key and value and splits
// structural keys from filters. A repeated key keeps its first position and
// its last value.
func ParseRequest(params []Param) (Request, error) {
	var req Request
	filterIdx := map[string]int{}
	for _, p := range params {
		if err := CheckValue(p.Key); err != nil {
			return Request{}, err
		}
		if err := CheckValue(p.Value); err != nil {
			return Request{}, err
		}
		switch p.Key {
		case KeySelect:
			req.Select = p.Value
		case KeyGroupBy:
			req.GroupBy = p.Value
		case KeyOrderBy:
			req.OrderBy = p.Value
		case KeyLimit:
			req.Limit = p.Value
		case KeyOffset:
			req.Offset = p.Value
		default:
			if i, ok := filterIdx[p.Key]; ok {
				req.Filters[i].Value = p.Value
				continue
			}
			filterIdx[p.Key] = len(req.Filters)
			req.Filters = append(req.Filters, Filter{Field: p.Key, Value: p.Value})
		}
	}
	return req, nil
}

// ParamsFromMap turns a map into a parameter list ordered by key.
func ParamsFromMap(m map[string]string) []Param {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Param, len(keys))
	for i, k := range keys {
		out[i] = Param{Key: k, Value: m[k]}
	}
	return out
}

// Params flattens the request back into a parameter list.
func (r Request) Params() []Param {
	var out []Param
	add := func(k, v string) {
		if v != "" {
			out = append(out, Param{Key: k, Value: v})
		}
	}
	add(KeySelect, r.Select)
	add(KeyGroupBy, r.GroupBy)
	add(KeyOrderBy, r.OrderBy)
	add(KeyLimit, r.Limit)
	add(KeyOffset, r.Offset)
	for _, f := range r.Filters {
		out = append(out, Param{Key: f.Field, Value: f.Value})
	}
	return out
}
