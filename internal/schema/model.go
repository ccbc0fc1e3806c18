package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Model is the immutable schema: tables, join graph, and field table.
// A Model is safe for concurrent use.
type Model struct {
	base       Table
	tables     map[string]Table    // by table name
	joins      map[string]JoinPath // by join key
	joinOrder  []string
	aliasJoin  map[string]string // alias -> join key ("" for the base alias)
	aliasTable map[string]string // alias -> table name
	fields     map[string]Field
}

// Definition is the raw material a Model is built from.
type Definition struct {
	Base   string // base table name
	Tables []Table
	Joins  []JoinPath
	Fields []Field // Type is filled in from the table definition when empty
}

// NewModel builds a Model and runs Validate on it.
func NewModel(def Definition) (*Model, error) {
	m := &Model{
		tables:     make(map[string]Table, len(def.Tables)),
		joins:      make(map[string]JoinPath, len(def.Joins)),
		aliasJoin:  make(map[string]string),
		aliasTable: make(map[string]string),
		fields:     make(map[string]Field, len(def.Fields)),
	}
	for _, t := range def.Tables {
		if _, dup := m.tables[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		m.tables[t.Name] = t
	}
	base, ok := m.tables[def.Base]
	if !ok {
		return nil, fmt.Errorf("base table %q is not defined", def.Base)
	}
	m.base = base
	m.aliasJoin[base.Alias] = ""
	m.aliasTable[base.Alias] = base.Name

	for _, j := range def.Joins {
		if _, dup := m.joins[j.Key]; dup {
			return nil, fmt.Errorf("duplicate join key %q", j.Key)
		}
		if _, ok := m.tables[j.Table]; !ok {
			return nil, fmt.Errorf("join %q targets unknown table %q", j.Key, j.Table)
		}
		if prev, dup := m.aliasJoin[j.Alias]; dup {
			if prev == "" {
				return nil, fmt.Errorf("join %q reuses the base alias %q", j.Key, j.Alias)
			}
			return nil, fmt.Errorf("join %q reuses alias %q of join %q", j.Key, j.Alias, prev)
		}
		m.joins[j.Key] = j
		m.joinOrder = append(m.joinOrder, j.Key)
		m.aliasJoin[j.Alias] = j.Key
		m.aliasTable[j.Alias] = j.Table
	}

	for _, f := range def.Fields {
		if _, dup := m.fields[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		if f.Expr == "" && f.Type == "" {
			col, ok := m.Column(f.Alias, f.Column)
			if !ok {
				return nil, fmt.Errorf("field %q references unknown column %s.%s", f.Name, f.Alias, f.Column)
			}
			f.Type = col.Type
		}
		m.fields[f.Name] = f
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

var conditionAliasRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.[A-Za-z_]`)

// Validate is the startup self-check of the join graph and field table.
func (m *Model) Validate() error {
	for _, key := range m.joinOrder {
		for _, req := range m.joins[key].Requires {
			if _, ok := m.joins[req]; !ok {
				return fmt.Errorf("join %q requires unknown join %q", key, req)
			}
		}
	}

	if err := m.checkAcyclic(); err != nil {
		return err
	}

	for _, key := range m.joinOrder {
		j := m.joins[key]
		closure, err := m.Closure(key)
		if err != nil {
			return err
		}
		reachable := map[string]bool{m.base.Alias: true}
		for _, k := range closure {
			reachable[m.joins[k].Alias] = true
		}
		for _, match := range conditionAliasRe.FindAllStringSubmatch(j.Condition, -1) {
			if !reachable[match[1]] {
				return fmt.Errorf("join %q condition references alias %q outside its requires closure", key, match[1])
			}
		}
	}

	for _, f := range m.fields {
		if f.Expr != "" {
			continue
		}
		owner, ok := m.aliasJoin[f.Alias]
		if !ok {
			return fmt.Errorf("field %q uses unknown alias %q", f.Name, f.Alias)
		}
		if owner != f.JoinKey {
			return fmt.Errorf("field %q alias %q is introduced by join %q, not %q", f.Name, f.Alias, owner, f.JoinKey)
		}
	}
	return nil
}

// checkAcyclic runs a three-colour depth-first search over the requires edges.
func (m *Model) checkAcyclic() error {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[string]int, len(m.joins))
	var visit func(key string, path []string) error
	visit = func(key string, path []string) error {
		switch colour[key] {
		case grey:
			return fmt.Errorf("join graph has a cycle: %s -> %s", strings.Join(path, " -> "), key)
		case black:
			return nil
		}
		colour[key] = grey
		for _, req := range m.joins[key].Requires {
			if err := visit(req, append(path[:len(path):len(path)], key)); err != nil {
				return err
			}
		}
		colour[key] = black
		return nil
	}
	for _, key := range m.joinOrder {
		if err := visit(key, nil); err != nil {
			return err
		}
	}
	return nil
}

// Closure returns key and all of its transitive requirements, dependencies
// first, without duplicates.
func (m *Model) Closure(key string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	var add func(k string) error
	add = func(k string) error {
		if seen[k] {
			return nil
		}
		j, ok := m.joins[k]
		if !ok {
			return fmt.Errorf("unknown join %q", k)
		}
		for _, req := range j.Requires {
			if err := add(req); err != nil {
				return err
			}
		}
		seen[k] = true
		out = append(out, k)
		return nil
	}
	if err := add(key); err != nil {
		return nil, err
	}
	return out, nil
}

// Base returns the base fact table.
func (m *Model) Base() Table { return m.base }

// Join looks up a join path by key.
func (m *Model) Join(key string) (JoinPath, bool) {
	j, ok := m.joins[key]
	return j, ok
}

// JoinKeys returns all join keys in declaration order.
func (m *Model) JoinKeys() []string {
	return append([]string(nil), m.joinOrder...)
}

// Field looks up a logical field by exact name.
func (m *Model) Field(name string) (Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Fields returns all logical fields sorted by name.
func (m *Model) Fields() []Field {
	out := make([]Field, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AliasJoin returns the join key that introduces alias. The base alias maps
// to the empty key.
func (m *Model) AliasJoin(alias string) (string, bool) {
	k, ok := m.aliasJoin[alias]
	return k, ok
}

// TableForAlias returns the table bound to alias.
func (m *Model) TableForAlias(alias string) (Table, bool) {
	name, ok := m.aliasTable[alias]
	if !ok {
		return Table{}, false
	}
	return m.tables[name], true
}

// Column looks up a column through a schema alias.
func (m *Model) Column(alias, column string) (Column, bool) {
	t, ok := m.TableForAlias(alias)
	if !ok {
		return Column{}, false
	}
	return t.Column(column)
}

// Tables returns all tables sorted by name.
func (m *Model) Tables() []Table {
	out := make([]Table, 0, len(m.tables))
	for _, t := range m.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Hash is a SHA-256 over the sorted lower-case table.column pairs.
func (m *Model) Hash() string {
	byTable := make(map[string][]string, len(m.tables))
	for _, t := range m.tables {
		for _, c := range t.Columns {
			byTable[t.Name] = append(byTable[t.Name], c.Name)
		}
	}
	return HashColumns(byTable)
}

// HashColumns hashes a table -> columns listing the same way Model.Hash does.
func HashColumns(cols map[string][]string) string {
	pairs := make([]string, 0, 128)
	for table, names := range cols {
		for _, c := range names {
			pairs = append(pairs, strings.ToLower(table)+"."+strings.ToLower(c))
		}
	}
	sort.Strings(pairs)
	sum := sha256.Sum256([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(sum[:])
}

// DefaultDefinition returns the definition of the transaction warehouse.
func DefaultDefinition() Definition {
	specs := defaultFieldSpecs()
	fields := make([]Field, 0, len(specs)+5)
	for _, s := range specs {
		fields = append(fields, Field{Name: s.name, Alias: s.alias, Column: s.column, JoinKey: s.join})
	}
	fields = append(fields, expressionFields()...)
	return Definition{
		Base:   TableTransaction,
		Tables: defaultTables(),
		Joins:  defaultJoins(),
		Fields: fields,
	}
}

// Default returns the shared transaction warehouse model.
var Default = sync.OnceValues(func() (*Model, error) {
	return NewModel(DefaultDefinition())
})

// MustDefault returns Default and panics when the self-check fails.
func MustDefault() *Model {
	m, err := Default()
	if err != nil {
		panic(fmt.Sprintf("schema self-check failed: %v", err))
	}
	return m
}
