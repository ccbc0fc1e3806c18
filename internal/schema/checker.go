package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"txn-api/internal/domain"
)

// Checker modes, selected by SCHEMA_CHECK_MODE.
const (
	ModeStatic    = "static"
	ModeDiscovery = "discovery"
)

// StaticChecker reports the compiled-in schema hash and never fails.
type StaticChecker struct {
	Model *Model
}

// Check implements domain.SchemaChecker.
func (c *StaticChecker) Check(_ context.Context) (*domain.SchemaReport, error) {
	hash := c.Model.Hash()
	return &domain.SchemaReport{
		Mode:        ModeStatic,
		Compatible:  true,
		CurrentHash: hash,
		CheckedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ColumnSource lists the live columns of the warehouse, keyed by table name.
// Implemented by warehouse.ColumnLister.
type ColumnSource interface {
	ListColumns(ctx context.Context, tables []string) (map[string][]string, error)
}

// DiscoveryChecker compares the live warehouse against the model.
type DiscoveryChecker struct {
	Model  *Model
	Source ColumnSource
	// ExpectedHash defaults to the model hash when empty.
	ExpectedHash string
	// Strict turns an incompatibility into a *domain.SchemaCompatibilityError.
	Strict bool
}

// Check implements domain.SchemaChecker.
func (c *DiscoveryChecker) Check(ctx context.Context) (*domain.SchemaReport, error) {
	tables := c.Model.Tables()
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}

	live, err := c.Source.ListColumns(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("discover warehouse columns: %w", err)
	}
	liveLower := make(map[string]map[string]bool, len(live))
	for table, cols := range live {
		set := make(map[string]bool, len(cols))
		for _, col := range cols {
			set[strings.ToLower(col)] = true
		}
		liveLower[strings.ToLower(table)] = set
	}

	report := &domain.SchemaReport{
		Mode:      ModeDiscovery,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}
	relevant := make(map[string][]string, len(tables))
	for _, t := range tables {
		set, ok := liveLower[strings.ToLower(t.Name)]
		if !ok {
			report.MissingTables = append(report.MissingTables, t.Name)
			continue
		}
		for _, col := range t.Columns {
			if !set[col.Name] {
				report.MissingColumns = append(report.MissingColumns, t.Name+"."+col.Name)
			}
		}
		for col := range set {
			relevant[t.Name] = append(relevant[t.Name], col)
		}
	}
	sort.Strings(report.MissingColumns)

	report.CurrentHash = HashColumns(relevant)
	report.ExpectedHash = c.ExpectedHash
	if report.ExpectedHash == "" {
		report.ExpectedHash = c.Model.Hash()
	}
	report.Compatible = len(report.MissingTables) == 0 &&
		len(report.MissingColumns) == 0 &&
		report.CurrentHash == report.ExpectedHash

	if !report.Compatible && c.Strict {
		return report, &domain.SchemaCompatibilityError{
			Message: fmt.Sprintf("warehouse schema is incompatible: %d missing tables, %d missing columns",
				len(report.MissingTables), len(report.MissingColumns)),
			CurrentHash:  report.CurrentHash,
			ExpectedHash: report.ExpectedHash,
		}
	}
	return report, nil
}

// NewChecker selects a checker for mode.
func NewChecker(mode string, model *Model, src ColumnSource, expectedHash string, strict bool) (domain.SchemaChecker, error) {
	switch mode {
	case "", ModeStatic:
		return &StaticChecker{Model: model}, nil
	case ModeDiscovery:
		if src == nil {
			return nil, fmt.Errorf("discovery schema check needs a column source")
		}
		return &DiscoveryChecker{Model: model, Source: src, ExpectedHash: expectedHash, Strict: strict}, nil
	default:
		return nil, fmt.Errorf("unknown schema check mode %q", mode)
	}
}
