// Package querybuilder turns flat request parameters into SQL over the
// transaction warehouse schema.
//
// A Builder is created per request and is not safe for concurrent use. The
// schema model it reads is shared and immutable.
package querybuilder

import (
	"regexp"

	"txn-api/internal/domain"
)

var injectionSignatures = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(SELECT|INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|EXEC)`),
	regexp.MustCompile(`(?i)UNION\s+(ALL\s+)?SELECT`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`/\*`),
	regexp.MustCompile(`\*/`),
	regexp.MustCompile(`(?i)xp_cmdshell`),
	regexp.MustCompile(`(?i)exec\s+master`),
	regexp.MustCompile(`(?i)sp_executesql`),
}

var (
	safeFieldRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.]*$`)
	safeAliasRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// CheckValue fails with *domain.SecurityError when value matches an
// injection signature.
func CheckValue(value string) error {
	for _, re := range injectionSignatures {
		if re.MatchString(value) {
			return domain.ErrSecurity("potentially unsafe input rejected: %q", truncate(value, 64))
		}
	}
	return nil
}

// CheckAlias validates an output alias.
func CheckAlias(alias string) error {
	if !safeAliasRe.MatchString(alias) {
		return domain.ErrSecurity("invalid alias %q", truncate(alias, 64))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
