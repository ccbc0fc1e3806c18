package querybuilder

import (
	"strings"

	"txn-api/internal/domain"
	"txn-api/internal/schema"
)

// Resolution is the SQL side of a logical field reference.
type Resolution struct {
	Name      string
	SQL       string
	JoinKey   string // join that introduces the alias; empty for the base table
	Type      schema.ColumnType
	Aggregate bool
}

// Resolver maps logical field names onto the schema model.
type Resolver struct {
	model *schema.Model
}

// NewResolver creates a resolver over model.
func NewResolver(model *schema.Model) *Resolver {
	return &Resolver{model: model}
}

// Resolve looks up a logical field from the field table. Lookup is exact and
// case-sensitive.
func (r *Resolver) Resolve(name string) (Resolution, error) {
	if !safeFieldRe.MatchString(name) {
		return Resolution{}, domain.ErrField(name, "invalid field name %q", truncate(name, 64))
	}
	f, ok := r.model.Field(name)
	if !ok {
		return Resolution{}, domain.ErrField(name, "unknown field %q", name)
	}
	return Resolution{
		Name:      f.Name,
		SQL:       f.SQL(),
		JoinKey:   f.JoinKey,
		Type:      f.Type,
		Aggregate: f.Aggregate,
	}, nil
}

// ResolveRef resolves a logical field or a qualified alias.column reference
// against a schema alias.
func (r *Resolver) ResolveRef(name string) (Resolution, error) {
	if !safeFieldRe.MatchString(name) {
		return Resolution{}, domain.ErrField(name, "invalid field name %q", truncate(name, 64))
	}
	if _, ok := r.model.Field(name); ok {
		return r.Resolve(name)
	}
	alias, column, ok := strings.Cut(name, ".")
	if !ok {
		return Resolution{}, domain.ErrField(name, "unknown field %q", name)
	}
	joinKey, known := r.model.AliasJoin(alias)
	if !known {
		return Resolution{}, domain.ErrField(name, "unknown table alias %q in %q", alias, name)
	}
	col, ok := r.model.Column(alias, column)
	if !ok {
		return Resolution{}, domain.ErrField(name, "unknown column %q on alias %q", column, alias)
	}
	return Resolution{
		Name:    name,
		SQL:     alias + "." + col.Name,
		JoinKey: joinKey,
		Type:    col.Type,
	}, nil
}

// ResolveStar resolves alias.* for select lists.
func (r *Resolver) ResolveStar(alias string) (Resolution, error) {
	joinKey, ok := r.model.AliasJoin(alias)
	if !ok {
		return Resolution{}, domain.ErrField(alias+".*", "unknown table alias %q", alias)
	}
	return Resolution{Name: alias + ".*", SQL: alias + ".*", JoinKey: joinKey}, nil
}
