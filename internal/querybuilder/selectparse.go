package querybuilder

import (
	"regexp"
	"strings"

	"txn-api/internal/domain"
)

// ExprKind tags an output expression.
type ExprKind int

// Output expression kinds.
const (
	KindPlain ExprKind = iota
	KindAggregate
	KindWindow
)

// OrderItem is one ORDER BY entry inside a window or the outer query.
type OrderItem struct {
	SQL     string
	Desc    bool
	JoinKey string
	// Field is the logical field ordered on; empty for a select alias.
	Field     string
	Aggregate bool
}

func (o OrderItem) String() string {
	if o.Desc {
		return o.SQL + " DESC"
	}
	return o.SQL + " ASC"
}

// OutputExpression is one projection of the SELECT list.
type OutputExpression struct {
	Kind     ExprKind
	Function string // upper-case; empty for plain fields
	Arg      Resolution
	Distinct bool
	// PartitionBy and OrderBy are set for window calls.
	PartitionBy []Resolution
	OrderBy     []OrderItem

	// Alias is the output name; empty renders the plain field bare.
	Alias         string
	ExplicitAlias bool
}

// Aggregate reports whether the expression collapses rows.
func (e OutputExpression) Aggregate() bool {
	return e.Kind == KindAggregate || (e.Kind == KindPlain && e.Arg.Aggregate)
}

// SQL renders the projection including its alias.
func (e OutputExpression) SQL() string {
	var body string
	switch e.Kind {
	case KindPlain:
		body = e.Arg.SQL
	case KindAggregate:
		body = e.callSQL()
	case KindWindow:
		body = e.callSQL() + " OVER (" + e.overSQL() + ")"
	}
	if e.Alias == "" {
		return body
	}
	return body + " AS " + e.Alias
}

func (e OutputExpression) callSQL() string {
	arg := e.Arg.SQL
	if e.Distinct {
		arg = "DISTINCT " + arg
	}
	return e.Function + "(" + arg + ")"
}

func (e OutputExpression) overSQL() string {
	var parts []string
	if len(e.PartitionBy) > 0 {
		cols := make([]string, len(e.PartitionBy))
		for i, p := range e.PartitionBy {
			cols[i] = p.SQL
		}
		parts = append(parts, "PARTITION BY "+strings.Join(cols, ", "))
	}
	if len(e.OrderBy) > 0 {
		items := make([]string, len(e.OrderBy))
		for i, o := range e.OrderBy {
			items[i] = o.String()
		}
		parts = append(parts, "ORDER BY "+strings.Join(items, ", "))
	}
	return strings.Join(parts, " ")
}

var (
	aliasSuffixRe = regexp.MustCompile(`(?is)^(.*\S)\s+AS\s+(\S+)$`)
	distinctRe    = regexp.MustCompile(`(?is)^(\w+)\(\s*DISTINCT\s+([^()]+?)\s*\)$`)
	windowRe      = regexp.MustCompile(`(?is)^(\w+)\(([^()]*)\)\s*OVER\s*\((.*)\)$`)
	overClauseRe  = regexp.MustCompile(`(?is)^\s*(?:PARTITION\s+BY\s+(.+?))?\s*(?:ORDER\s+BY\s+(.+?))?\s*$`)
	callRe        = regexp.MustCompile(`(?is)^(\w+)\((.+)\)$`)
	orderItemRe   = regexp.MustCompile(`(?i)^(\S+)(?:\s+(ASC|DESC))?$`)
	starRefRe     = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9_]*)\.\*$`)
)

var aggregateFuncs = map[string]bool{"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true}

var rankingFuncs = map[string]bool{"ROW_NUMBER": true, "RANK": true, "DENSE_RANK": true}

// SplitTopLevel splits s on commas that are not nested inside parentheses.
func SplitTopLevel(s string) ([]string, error) {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, domain.ErrParse("unbalanced parentheses in %q", truncate(s, 64))
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, domain.ErrParse("unbalanced parentheses in %q", truncate(s, 64))
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts, nil
}

// ParseSelect parses a select list into output expressions.
func ParseSelect(r *Resolver, raw string) ([]OutputExpression, error) {
	tokens, err := SplitTopLevel(raw)
	if err != nil {
		return nil, err
	}
	out := make([]OutputExpression, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			return nil, domain.ErrParse("empty expression in select list")
		}
		expr, err := parseSelectToken(r, tok)
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

func parseSelectToken(r *Resolver, tok string) (OutputExpression, error) {
	var alias string
	if m := aliasSuffixRe.FindStringSubmatch(tok); m != nil {
		tok, alias = strings.TrimSpace(m[1]), m[2]
		if err := CheckAlias(alias); err != nil {
			return OutputExpression{}, err
		}
	}

	var (
		expr OutputExpression
		err  error
	)
	switch {
	case windowRe.MatchString(tok):
		expr, err = parseWindow(r, windowRe.FindStringSubmatch(tok))
	case distinctRe.MatchString(tok):
		m := distinctRe.FindStringSubmatch(tok)
		expr, err = parseAggregate(r, m[1], m[2], true)
	case callRe.MatchString(tok) && aggregateFuncs[strings.ToUpper(callRe.FindStringSubmatch(tok)[1])]:
		m := callRe.FindStringSubmatch(tok)
		expr, err = parseAggregate(r, m[1], m[2], false)
	default:
		expr, err = parsePlain(r, tok)
	}
	if err != nil {
		return OutputExpression{}, err
	}

	if alias != "" {
		expr.Alias, expr.ExplicitAlias = alias, true
	} else {
		expr.Alias = defaultAlias(expr)
	}
	return expr, nil
}

func parsePlain(r *Resolver, tok string) (OutputExpression, error) {
	if m := starRefRe.FindStringSubmatch(tok); m != nil {
		res, err := r.ResolveStar(m[1])
		if err != nil {
			return OutputExpression{}, err
		}
		return OutputExpression{Kind: KindPlain, Arg: res}, nil
	}
	if name, _, ok := strings.Cut(tok, "("); ok {
		return OutputExpression{}, domain.ErrBuild("unsupported function or expression %q", strings.TrimSpace(name))
	}
	res, err := r.ResolveRef(tok)
	if err != nil {
		return OutputExpression{}, err
	}
	return OutputExpression{Kind: KindPlain, Arg: res}, nil
}

func parseAggregate(r *Resolver, fn, arg string, distinct bool) (OutputExpression, error) {
	fn = strings.ToUpper(fn)
	if !aggregateFuncs[fn] {
		if distinct {
			return OutputExpression{}, domain.ErrBuild("DISTINCT is only supported inside aggregate functions, got %s", fn)
		}
		return OutputExpression{}, domain.ErrBuild("unsupported function %q", fn)
	}
	res, err := resolveCallArg(r, fn, strings.TrimSpace(arg), distinct)
	if err != nil {
		return OutputExpression{}, err
	}
	return OutputExpression{Kind: KindAggregate, Function: fn, Arg: res, Distinct: distinct}, nil
}

func resolveCallArg(r *Resolver, fn, arg string, distinct bool) (Resolution, error) {
	if arg == "*" {
		if fn != "COUNT" || distinct {
			return Resolution{}, domain.ErrBuild("%s(*) is not supported", fn)
		}
		return Resolution{Name: "*", SQL: "*"}, nil
	}
	res, err := r.ResolveRef(arg)
	if err != nil {
		return Resolution{}, err
	}
	if res.Aggregate {
		return Resolution{}, domain.ErrBuild("aggregate field %q cannot be nested inside %s", arg, fn)
	}
	return res, nil
}

func parseWindow(r *Resolver, m []string) (OutputExpression, error) {
	fn, arg, over := strings.ToUpper(m[1]), strings.TrimSpace(m[2]), m[3]
	expr := OutputExpression{Kind: KindWindow, Function: fn}

	switch {
	case rankingFuncs[fn]:
		if arg != "" {
			return OutputExpression{}, domain.ErrBuild("%s takes no arguments", fn)
		}
	case aggregateFuncs[fn]:
		if arg == "" {
			return OutputExpression{}, domain.ErrBuild("%s needs an argument", fn)
		}
		if strings.HasPrefix(strings.ToUpper(arg), "DISTINCT ") {
			return OutputExpression{}, domain.ErrBuild("DISTINCT is not supported in window functions")
		}
		res, err := resolveCallArg(r, fn, arg, false)
		if err != nil {
			return OutputExpression{}, err
		}
		expr.Arg = res
	default:
		return OutputExpression{}, domain.ErrBuild("unsupported window function %q", fn)
	}

	om := overClauseRe.FindStringSubmatch(over)
	if om == nil || (om[1] == "" && om[2] == "") {
		return OutputExpression{}, domain.ErrParse("invalid OVER clause %q", truncate(over, 64))
	}
	if om[1] != "" {
		for _, name := range strings.Split(om[1], ",") {
			res, err := r.ResolveRef(strings.TrimSpace(name))
			if err != nil {
				return OutputExpression{}, err
			}
			if res.Aggregate {
				return OutputExpression{}, domain.ErrField(res.Name, "cannot partition by aggregate field %q", res.Name)
			}
			expr.PartitionBy = append(expr.PartitionBy, res)
		}
	}
	if om[2] != "" {
		for _, item := range strings.Split(om[2], ",") {
			im := orderItemRe.FindStringSubmatch(strings.TrimSpace(item))
			if im == nil {
				return OutputExpression{}, domain.ErrParse("invalid window ORDER BY item %q", strings.TrimSpace(item))
			}
			res, err := r.ResolveRef(im[1])
			if err != nil {
				return OutputExpression{}, err
			}
			expr.OrderBy = append(expr.OrderBy, OrderItem{SQL: res.SQL, Desc: strings.EqualFold(im[2], "DESC"), JoinKey: res.JoinKey})
		}
	}
	return expr, nil
}

// defaultAlias names unaliased calls deterministically: lower-case function,
// "_distinct" when distinct, then "_" and the argument name with "*" as
// "all". Plain columns keep their natural name; expression fields use their
// logical name.
func defaultAlias(e OutputExpression) string {
	switch e.Kind {
	case KindPlain:
		if e.Arg.Aggregate {
			return e.Arg.Name
		}
		return ""
	default:
		name := strings.ToLower(e.Function)
		if e.Distinct {
			name += "_distinct"
		}
		switch {
		case e.Arg.SQL == "":
		case e.Arg.Name == "*":
			name += "_all"
		default:
			name += "_" + strings.ReplaceAll(e.Arg.Name, ".", "_")
		}
		return name
	}
}
