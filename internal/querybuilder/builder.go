package querybuilder

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"txn-api/internal/domain"
	"txn-api/internal/schema"
)

// Defaults for Options.
const (
	DefaultMaxLimit   = 1000
	DefaultMaxFilters = 50
)

// Options configures a Builder.
type Options struct {
	Dialect    Dialect
	MaxLimit   int
	MaxFilters int
	// OnWarning receives non-fatal diagnostics such as unknown operator
	// prefixes that were treated as literals.
	OnWarning func(msg string)
}

// Statement is rendered SQL plus its bound arguments.
type Statement struct {
	SQL    string
	Args   []any
	inline string
}

// Inline returns the statement with arguments rendered as SQL literals.
// It is meant for display and logs; execute SQL with Args instead.
func (s *Statement) Inline() string { return s.inline }

// Builder holds the state of one query under construction.
type Builder struct {
	model    *schema.Model
	resolver *Resolver
	opts     Options

	selects    []OutputExpression
	predicates []Predicate
	joins      []string
	joinSet    map[string]bool
	groupBy    []Resolution
	orderBy    []OrderItem
	limit      *int
	offset     *int
}

// New creates a builder over model.
func New(model *schema.Model, opts Options) *Builder {
	if opts.Dialect.Placeholder == nil {
		opts.Dialect = DuckDB
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}
	if opts.MaxFilters <= 0 {
		opts.MaxFilters = DefaultMaxFilters
	}
	return &Builder{
		model:    model,
		resolver: NewResolver(model),
		opts:     opts,
		joinSet:  map[string]bool{},
	}
}

// AddRequiredJoin adds key and everything it requires, dependencies first.
// Adding a key that is already present is a no-op.
func (b *Builder) AddRequiredJoin(key string) error {
	if key == "" || b.joinSet[key] {
		return nil
	}
	j, ok := b.model.Join(key)
	if !ok {
		return domain.ErrJoin(key, "unknown join path %q", key)
	}
	for _, req := range j.Requires {
		if err := b.AddRequiredJoin(req); err != nil {
			return err
		}
	}
	b.joinSet[key] = true
	b.joins = append(b.joins, key)
	return nil
}

// ParseRequestParams applies a parameter map, iterating keys in sorted order.
func (b *Builder) ParseRequestParams(params map[string]string) error {
	return b.ParseParams(ParamsFromMap(params))
}

// ParseParams applies an ordered parameter list.
func (b *Builder) ParseParams(params []Param) error {
	req, err := ParseRequest(params)
	if err != nil {
		return err
	}
	return b.Apply(req)
}

// Apply populates the builder from a typed request. The select list is
// processed before orderBy so ORDER BY may name select aliases.
func (b *Builder) Apply(req Request) error {
	for _, v := range []string{req.Select, req.GroupBy, req.OrderBy, req.Limit, req.Offset} {
		if err := CheckValue(v); err != nil {
			return err
		}
	}
	if len(req.Filters) > b.opts.MaxFilters {
		return domain.ErrQueryLimit("filters", b.opts.MaxFilters,
			"too many filters: %d exceeds the maximum of %d", len(req.Filters), b.opts.MaxFilters)
	}

	if strings.TrimSpace(req.Select) != "" {
		if err := b.SetSelect(req.Select); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.GroupBy) != "" {
		if err := b.SetGroupBy(req.GroupBy); err != nil {
			return err
		}
	}
	for _, f := range req.Filters {
		if err := b.AddFilter(f.Field, f.Value); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.OrderBy) != "" {
		if err := b.SetOrderBy(req.OrderBy); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.Limit) != "" {
		n, err := parseNonNegative(KeyLimit, req.Limit)
		if err != nil {
			return err
		}
		if err := b.SetLimit(n); err != nil {
			return err
		}
	}
	if strings.TrimSpace(req.Offset) != "" {
		n, err := parseNonNegative(KeyOffset, req.Offset)
		if err != nil {
			return err
		}
		b.SetOffset(n)
	}
	return nil
}

func parseNonNegative(key, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, domain.ErrParse("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}

// AddFilter resolves field, parses raw, and registers the needed joins.
// Unknown fields fail with *domain.FieldError.
func (b *Builder) AddFilter(field, raw string) error {
	if err := CheckValue(field); err != nil {
		return err
	}
	if err := CheckValue(raw); err != nil {
		return err
	}
	res, err := b.resolver.Resolve(field)
	if err != nil {
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			return domain.ErrField(field, "unknown parameter %q: %s", field, fe.Message)
		}
		return err
	}
	p, err := ParseFilter(res, raw, b.opts.OnWarning)
	if err != nil {
		return err
	}
	if err := b.AddRequiredJoin(res.JoinKey); err != nil {
		return err
	}
	b.predicates = append(b.predicates, p)
	return nil
}

// SetSelect replaces the projection list.
func (b *Builder) SetSelect(raw string) error {
	exprs, err := ParseSelect(b.resolver, raw)
	if err != nil {
		return err
	}
	for _, e := range exprs {
		if err := b.registerExpr(e); err != nil {
			return err
		}
	}
	b.selects = exprs
	return nil
}

func (b *Builder) registerExpr(e OutputExpression) error {
	if err := b.AddRequiredJoin(e.Arg.JoinKey); err != nil {
		return err
	}
	for _, p := range e.PartitionBy {
		if err := b.AddRequiredJoin(p.JoinKey); err != nil {
			return err
		}
	}
	for _, o := range e.OrderBy {
		if err := b.AddRequiredJoin(o.JoinKey); err != nil {
			return err
		}
	}
	return nil
}

// SetGroupBy replaces the GROUP BY list.
func (b *Builder) SetGroupBy(raw string) error {
	var out []Resolution
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.ErrParse("empty field in groupBy")
		}
		res, err := b.resolver.ResolveRef(name)
		if err != nil {
			return err
		}
		if res.Aggregate {
			return domain.ErrField(name, "cannot group by aggregate field %q", name)
		}
		if err := b.AddRequiredJoin(res.JoinKey); err != nil {
			return err
		}
		out = append(out, res)
	}
	b.groupBy = out
	return nil
}

var orderDirRe = regexp.MustCompile(`^(?i:asc|desc)$`)

// SetOrderBy parses "field[:asc|desc],...". A field may name a select alias.
func (b *Builder) SetOrderBy(raw string) error {
	var out []OrderItem
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return domain.ErrParse("empty item in orderBy")
		}
		name, dir, hasDir := strings.Cut(item, ":")
		if hasDir && !orderDirRe.MatchString(dir) {
			return domain.ErrParse("invalid sort direction %q for %q, expected asc or desc", dir, name)
		}
		desc := strings.EqualFold(dir, "desc")

		if alias, ok := b.selectAlias(name); ok {
			out = append(out, OrderItem{SQL: alias, Desc: desc})
			continue
		}
		res, err := b.resolver.ResolveRef(name)
		if err != nil {
			return err
		}
		if err := b.AddRequiredJoin(res.JoinKey); err != nil {
			return err
		}
		out = append(out, OrderItem{SQL: res.SQL, Desc: desc, JoinKey: res.JoinKey, Field: res.Name, Aggregate: res.Aggregate})
	}
	b.orderBy = out
	return nil
}

func (b *Builder) selectAlias(name string) (string, bool) {
	for _, e := range b.selects {
		if e.Alias != "" && e.Alias == name {
			return e.Alias, true
		}
	}
	return "", false
}

// SetLimit sets LIMIT, enforcing the configured maximum.
func (b *Builder) SetLimit(n int) error {
	if n > b.opts.MaxLimit {
		return domain.ErrQueryLimit("limit", b.opts.MaxLimit,
			"limit %d exceeds the maximum of %d", n, b.opts.MaxLimit)
	}
	b.limit = &n
	return nil
}

// SetOffset sets OFFSET.
func (b *Builder) SetOffset(n int) { b.offset = &n }

// Joins returns the registered join keys in emission order.
func (b *Builder) Joins() []string { return append([]string(nil), b.joins...) }

// Grouped reports whether the data query aggregates rows.
func (b *Builder) Grouped() bool {
	if len(b.groupBy) > 0 {
		return true
	}
	for _, e := range b.selects {
		if e.Aggregate() {
			return true
		}
	}
	return false
}

// validateGrouping enforces SQL GROUP BY validity: once rows are grouped,
// every plain projection and every ORDER BY field must be a group key.
// Window calls, aggregates and select aliases are exempt.
func (b *Builder) validateGrouping() error {
	if !b.Grouped() {
		return nil
	}
	keys := make(map[string]bool, len(b.groupBy))
	for _, g := range b.groupBy {
		keys[g.SQL] = true
	}
	for _, e := range b.selects {
		if e.Kind != KindPlain || e.Arg.Aggregate {
			continue
		}
		if !keys[e.Arg.SQL] {
			return domain.ErrBuild("field %q must appear in groupBy or be used in an aggregate function", e.Arg.Name)
		}
	}
	for _, o := range b.orderBy {
		if o.Field == "" || o.Aggregate || keys[o.SQL] {
			continue
		}
		return domain.ErrBuild("cannot order grouped results by %q: it must appear in groupBy or be a select alias", o.Field)
	}
	return nil
}

func (b *Builder) projections() []string {
	if len(b.selects) == 0 {
		if len(b.groupBy) > 0 {
			cols := make([]string, len(b.groupBy))
			for i, g := range b.groupBy {
				cols[i] = g.SQL
			}
			return cols
		}
		return []string{b.model.Base().Alias + ".*"}
	}
	cols := make([]string, len(b.selects))
	for i, e := range b.selects {
		cols[i] = e.SQL()
	}
	return cols
}

// from applies FROM, the ordered joins, and the WHERE predicates.
func (b *Builder) from(sb sq.SelectBuilder) sq.SelectBuilder {
	base := b.model.Base()
	sb = sb.From(base.Name + " " + base.Alias)
	for _, key := range b.joins {
		j, _ := b.model.Join(key)
		sb = sb.LeftJoin(j.Table + " " + j.Alias + " ON " + j.Condition)
	}
	for _, p := range b.predicates {
		sb = sb.Where(p.sqlizer(b.opts.Dialect))
	}
	return sb
}

func (b *Builder) dataQuery(paginate bool) sq.SelectBuilder {
	sb := b.from(sq.Select(b.projections()...))
	if len(b.groupBy) > 0 {
		cols := make([]string, len(b.groupBy))
		for i, g := range b.groupBy {
			cols[i] = g.SQL
		}
		sb = sb.GroupBy(cols...)
	}
	if !paginate {
		return sb
	}
	if len(b.orderBy) > 0 {
		items := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			items[i] = o.String()
		}
		sb = sb.OrderBy(items...)
	}
	if b.limit != nil {
		sb = sb.Limit(uint64(*b.limit))
	}
	if b.offset != nil {
		if b.limit == nil && b.opts.Dialect.OffsetNeedsLimit {
			sb = sb.Suffix(fmt.Sprintf("LIMIT -1 OFFSET %d", *b.offset))
		} else {
			sb = sb.Offset(uint64(*b.offset))
		}
	}
	return sb
}

// BuildQuery renders the data query.
func (b *Builder) BuildQuery() (*Statement, error) {
	if err := b.validateGrouping(); err != nil {
		return nil, err
	}
	return b.render(b.dataQuery(true))
}

// BuildCountQuery renders SELECT COUNT(*) AS total_count over the same joins
// and predicates as the data query.
func (b *Builder) BuildCountQuery() (*Statement, error) {
	return b.render(b.from(sq.Select("COUNT(*) AS total_count")))
}

// BuildGroupCountQuery counts the rows a grouped data query returns.
func (b *Builder) BuildGroupCountQuery() (*Statement, error) {
	if !b.Grouped() {
		return b.BuildCountQuery()
	}
	if err := b.validateGrouping(); err != nil {
		return nil, err
	}
	inner := b.dataQuery(false).PlaceholderFormat(sq.Question)
	return b.render(sq.Select("COUNT(*) AS total_count").FromSelect(inner, "grouped"))
}

func (b *Builder) render(sb sq.SelectBuilder) (*Statement, error) {
	qSQL, args, err := sb.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, domain.ErrBuild("render query: %v", err)
	}
	finalSQL, err := b.opts.Dialect.Placeholder.ReplacePlaceholders(qSQL)
	if err != nil {
		return nil, domain.ErrBuild("render placeholders: %v", err)
	}
	return &Statement{SQL: finalSQL, Args: args, inline: inlineArgs(qSQL, args)}, nil
}

// Description is the builder state in display form.
type Description struct {
	Joins   []string `json:"joins"`
	Select  []string `json:"select"`
	Where   []string `json:"where"`
	GroupBy []string `json:"group_by"`
	OrderBy []string `json:"order_by"`
	Limit   *int     `json:"limit,omitempty"`
	Offset  *int     `json:"offset,omitempty"`
}

// Describe exposes the builder state for validation output.
func (b *Builder) Describe() Description {
	d := Description{
		Joins:   b.Joins(),
		Select:  b.projections(),
		Where:   make([]string, len(b.predicates)),
		GroupBy: make([]string, len(b.groupBy)),
		OrderBy: make([]string, len(b.orderBy)),
		Limit:   b.limit,
		Offset:  b.offset,
	}
	for i, p := range b.predicates {
		d.Where[i] = p.Inline(b.opts.Dialect)
	}
	for i, g := range b.groupBy {
		d.GroupBy[i] = g.SQL
	}
	for i, o := range b.orderBy {
		d.OrderBy[i] = o.String()
	}
	return d
}
