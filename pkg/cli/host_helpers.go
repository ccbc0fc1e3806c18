package cli

import (
	"fmt"
	"net/url"
	"strings"

	"txn-api/internal/querybuilder"
)

// normalizeHost validates an API host URL and returns it without a
// trailing slash.
func normalizeHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("invalid host %q: host URL cannot be empty", host)
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid host %q: scheme must be http or https", host)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid host %q: missing host", host)
	}
	if u.Path != "" && u.Path != "/" {
		return "", fmt.Errorf("invalid host %q: host must not include a path", host)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid host %q: host must not include query or fragment", host)
	}
	return strings.TrimSuffix(host, "/"), nil
}

// parseParamArgs turns key=value arguments into ordered query parameters.
// An argument holding several pairs joined by & is split, so a query string
// copied from a URL works as a single argument.
func parseParamArgs(args []string) ([]querybuilder.Param, error) {
	var out []querybuilder.Param
	for _, arg := range args {
		for _, pair := range strings.Split(arg, "&") {
			if pair == "" {
				continue
			}
			key, value, ok := strings.Cut(pair, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
			}
			out = append(out, querybuilder.Param{Key: key, Value: value})
		}
	}
	return out, nil
}
