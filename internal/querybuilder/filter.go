package querybuilder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"txn-api/internal/domain"
	"txn-api/internal/schema"
)

// Operator is a filter operator name as written in request values.
type Operator string

// Filter operators.
const (
	OpEq       Operator = "eq"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpNe       Operator = "ne"
	OpLike     Operator = "like"
	OpILike    Operator = "ilike"
	OpNull     Operator = "null"
	OpNotNull  Operator = "notnull"
	OpBetween  Operator = "between"
	OpStarts   Operator = "starts"
	OpEnds     Operator = "ends"
	OpContains Operator = "contains"
)

// OperatorSQL is the fixed operator table.
var OperatorSQL = map[Operator]string{
	OpEq:       "=",
	OpGte:      ">=",
	OpLte:      "<=",
	OpGt:       ">",
	OpLt:       "<",
	OpNe:       "!=",
	OpLike:     "LIKE",
	OpILike:    "ILIKE",
	OpNull:     "IS NULL",
	OpNotNull:  "IS NOT NULL",
	OpBetween:  "BETWEEN",
	OpStarts:   "LIKE",
	OpEnds:     "LIKE",
	OpContains: "LIKE",
}

var (
	operatorPrefixRe = regexp.MustCompile(`^(gte|lte|gt|lt|ne|like|ilike|between|starts|ends|contains):(.+)$`)
	knownEmptyRe     = regexp.MustCompile(`^(gte|lte|gt|lt|ne|like|ilike|between|starts|ends|contains):\s*$`)
	wordPrefixRe     = regexp.MustCompile(`^([A-Za-z_]+):`)
)

// Predicate is one resolved WHERE condition. Values are typed literals ready
// to be bound as query arguments.
type Predicate struct {
	Field    string
	Column   string
	Operator Operator
	Values   []any
}

// ParseFilter parses raw into a predicate on the resolved field. warn, when
// non-nil, receives diagnostics for operator-like prefixes that are treated
// as literal text.
func ParseFilter(res Resolution, raw string, warn func(string)) (Predicate, error) {
	if res.Aggregate {
		return Predicate{}, domain.ErrField(res.Name, "field %q is an aggregate and cannot be filtered", res.Name)
	}
	p := Predicate{Field: res.Name, Column: res.SQL}
	value := strings.TrimSpace(raw)

	switch value {
	case "null:":
		p.Operator = OpNull
		return p, nil
	case "notnull:":
		p.Operator = OpNotNull
		return p, nil
	}

	if m := operatorPrefixRe.FindStringSubmatch(value); m != nil {
		p.Operator = Operator(m[1])
		rest := m[2]
		switch p.Operator {
		case OpBetween:
			parts := strings.Split(rest, ",")
			if len(parts) != 2 {
				return Predicate{}, domain.ErrParse("between for %q needs exactly two values, got %d", res.Name, len(parts))
			}
			for _, part := range parts {
				v, err := literal(res, strings.TrimSpace(part))
				if err != nil {
					return Predicate{}, err
				}
				p.Values = append(p.Values, v)
			}
		case OpLike, OpILike:
			p.Values = []any{rest}
		case OpStarts:
			p.Values = []any{rest + "%"}
		case OpEnds:
			p.Values = []any{"%" + rest}
		case OpContains:
			p.Values = []any{"%" + rest + "%"}
		default:
			rest = strings.TrimSpace(rest)
			if rest == "" {
				return Predicate{}, domain.ErrParse("operator %q for %q needs a value", m[1], res.Name)
			}
			v, err := literal(res, rest)
			if err != nil {
				return Predicate{}, err
			}
			p.Values = []any{v}
		}
		return p, nil
	}

	if m := knownEmptyRe.FindStringSubmatch(value); m != nil {
		return Predicate{}, domain.ErrParse("operator %q for %q needs a value", m[1], res.Name)
	}
	if m := wordPrefixRe.FindStringSubmatch(value); m != nil && warn != nil {
		warn(fmt.Sprintf("unrecognized operator prefix %q on %q, treating value as literal", m[1], res.Name))
	}

	p.Operator = OpEq
	if strings.Contains(value, ",") {
		for _, part := range strings.Split(value, ",") {
			v, err := literal(res, strings.TrimSpace(part))
			if err != nil {
				return Predicate{}, err
			}
			p.Values = append(p.Values, v)
		}
		return p, nil
	}
	v, err := literal(res, value)
	if err != nil {
		return Predicate{}, err
	}
	p.Values = []any{v}
	return p, nil
}

// literal converts s to the Go value bound for a column of res.Type.
func literal(res Resolution, s string) (any, error) {
	switch res.Type {
	case schema.TypeInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return nil, domain.ErrParse("invalid numeric value %q for %q", s, res.Name)
	case schema.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, domain.ErrParse("invalid numeric value %q for %q", s, res.Name)
		}
		if f == float64(int64(f)) && !strings.ContainsAny(s, ".eE") {
			return int64(f), nil
		}
		return f, nil
	case schema.TypeBool:
		switch strings.ToLower(s) {
		case "1", "true", "yes":
			return int64(1), nil
		case "0", "false", "no":
			return int64(0), nil
		}
		return nil, domain.ErrParse("invalid boolean value %q for %q", s, res.Name)
	default:
		return s, nil
	}
}

// Render returns the predicate as SQL with ? placeholders and its args.
func (p Predicate) Render(d Dialect) (string, []any) {
	switch p.Operator {
	case OpNull, OpNotNull:
		return p.Column + " " + OperatorSQL[p.Operator], nil
	case OpBetween:
		return p.Column + " BETWEEN ? AND ?", p.Values
	case OpEq:
		if len(p.Values) > 1 {
			return p.Column + " IN (" + sq.Placeholders(len(p.Values)) + ")", p.Values
		}
		return p.Column + " = ?", p.Values
	case OpILike:
		if !d.NativeILike {
			return "LOWER(" + p.Column + ") LIKE LOWER(?)", p.Values
		}
		return p.Column + " ILIKE ?", p.Values
	default:
		return p.Column + " " + OperatorSQL[p.Operator] + " ?", p.Values
	}
}

// Inline renders the predicate with literal values, for display only.
func (p Predicate) Inline(d Dialect) string {
	sqlText, args := p.Render(d)
	return inlineArgs(sqlText, args)
}

func (p Predicate) sqlizer(d Dialect) sq.Sqlizer {
	sqlText, args := p.Render(d)
	return sq.Expr(sqlText, args...)
}

// inlineArgs substitutes ? placeholders with SQL literals. Generated SQL
// never contains string literals, so every ? is a placeholder.
func inlineArgs(sqlText string, args []any) string {
	var b strings.Builder
	i := 0
	for _, r := range sqlText {
		if r == '?' && i < len(args) {
			b.WriteString(sqlLiteral(args[i]))
			i++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}
