package api

import (
	"net/url"
	"strings"

	"txn-api/internal/domain"
	"txn-api/internal/querybuilder"
)

// orderedParams decodes a raw query string keeping the order in which keys
// first appear. A repeated key keeps its first position and its last value.
// url.ParseQuery is not used because it loses ordering.
func orderedParams(rawQuery string) ([]querybuilder.Param, error) {
	var out []querybuilder.Param
	index := make(map[string]int)
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, domain.ErrValidation("invalid query parameter name %q", rawKey)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, domain.ErrValidation("invalid value for query parameter %q", key)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			out[i].Value = value
			continue
		}
		index[key] = len(out)
		out = append(out, querybuilder.Param{Key: key, Value: value})
	}
	return out, nil
}

// echoParams renders params for the query_parameters envelope field.
func echoParams(params []querybuilder.Param) map[string]string {
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p.Key] = p.Value
	}
	return out
}
