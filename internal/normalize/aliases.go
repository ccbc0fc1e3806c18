// Package normalize turns client-facing request parameters into the flat
// parameter list the query builder accepts. It consumes transport keys,
// applies parameter renames and translates human-readable names into IDs.
package normalize

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category names one alias table.
type Category string

// Alias table categories.
const (
	TransactionTypes Category = "transactionTypes"
	Countries        Category = "countries"
	Industries       Category = "industries"
	Currencies       Category = "currencies"
	Statuses         Category = "statuses"
	AdvisorTypes     Category = "advisorTypes"
	RelationTypes    Category = "relationTypes"
)

// Categories lists every category in display order.
var Categories = []Category{
	TransactionTypes, Countries, Industries, Currencies, Statuses, AdvisorTypes, RelationTypes,
}

// Entry is one ID with its display name and accepted aliases.
type Entry struct {
	ID      int64    `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	ISOCode string   `yaml:"isoCode,omitempty" json:"isoCode,omitempty"`
	Aliases []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// File is the on-disk alias tables document.
type File struct {
	TransactionTypes []Entry `yaml:"transactionTypes"`
	Countries        []Entry `yaml:"countries"`
	Industries       []Entry `yaml:"industries"`
	Currencies       []Entry `yaml:"currencies"`
	Statuses         []Entry `yaml:"statuses"`
	AdvisorTypes     []Entry `yaml:"advisorTypes"`
	RelationTypes    []Entry `yaml:"relationTypes"`
}

func (f File) byCategory() map[Category][]Entry {
	return map[Category][]Entry{
		TransactionTypes: f.TransactionTypes,
		Countries:        f.Countries,
		Industries:       f.Industries,
		Currencies:       f.Currencies,
		Statuses:         f.Statuses,
		AdvisorTypes:     f.AdvisorTypes,
		RelationTypes:    f.RelationTypes,
	}
}

// AliasTables maps names to IDs per category. A value is immutable once
// built and safe to share between goroutines.
type AliasTables struct {
	entries  map[Category][]Entry
	names    map[Category]map[int64]string
	reverse  map[Category]map[string]int64
	isoCodes map[string]int64
}

// NewAliasTables builds the lookup maps for f. Names and aliases are matched
// case-insensitively; an alias claimed by two different IDs of the same
// category is an error.
func NewAliasTables(f File) (*AliasTables, error) {
	t := &AliasTables{
		entries:  map[Category][]Entry{},
		names:    map[Category]map[int64]string{},
		reverse:  map[Category]map[string]int64{},
		isoCodes: map[string]int64{},
	}
	for cat, entries := range f.byCategory() {
		t.entries[cat] = append([]Entry(nil), entries...)
		t.names[cat] = make(map[int64]string, len(entries))
		rev := make(map[string]int64, len(entries)*3)
		for _, e := range entries {
			if _, dup := t.names[cat][e.ID]; dup {
				return nil, fmt.Errorf("%s: duplicate id %d", cat, e.ID)
			}
			t.names[cat][e.ID] = e.Name
			for _, name := range append([]string{e.Name}, e.Aliases...) {
				key := strings.ToLower(strings.TrimSpace(name))
				if key == "" {
					continue
				}
				if prev, ok := rev[key]; ok && prev != e.ID {
					return nil, fmt.Errorf("%s: alias %q maps to both %d and %d", cat, name, prev, e.ID)
				}
				rev[key] = e.ID
			}
			if cat == Currencies && e.ISOCode != "" {
				t.isoCodes[strings.ToUpper(e.ISOCode)] = e.ID
			}
		}
		t.reverse[cat] = rev
	}
	return t, nil
}

// ParseAliasTables decodes a YAML alias tables document.
func ParseAliasTables(data []byte) (*AliasTables, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alias tables: %w", err)
	}
	return NewAliasTables(f)
}

// LoadAliasTables reads the alias tables file at path. An empty path yields
// empty tables, in which case every value passes through untranslated.
func LoadAliasTables(path string) (*AliasTables, error) {
	if path == "" {
		return NewAliasTables(File{})
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is operator configuration
	if err != nil {
		return nil, fmt.Errorf("read alias tables: %w", err)
	}
	return ParseAliasTables(data)
}

// Lookup returns the ID registered for name in cat.
func (t *AliasTables) Lookup(cat Category, name string) (int64, bool) {
	if cat == Currencies {
		if id, ok := t.CurrencyByISO(name); ok {
			return id, true
		}
	}
	id, ok := t.reverse[cat][strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// Name returns the display name of id in cat.
func (t *AliasTables) Name(cat Category, id int64) (string, bool) {
	name, ok := t.names[cat][id]
	return name, ok
}

// CurrencyByISO returns the currency ID for an ISO 4217 code.
func (t *AliasTables) CurrencyByISO(code string) (int64, bool) {
	id, ok := t.isoCodes[strings.ToUpper(strings.TrimSpace(code))]
	return id, ok
}

// Entries returns a copy of the entries of cat ordered by ID.
func (t *AliasTables) Entries(cat Category) []Entry {
	out := append([]Entry(nil), t.entries[cat]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the total number of entries across categories.
func (t *AliasTables) Len() int {
	n := 0
	for _, e := range t.entries {
		n += len(e)
	}
	return n
}
