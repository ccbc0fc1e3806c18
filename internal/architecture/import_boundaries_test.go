package architecture_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productionFiles(t *testing.T) []string {
	t.Helper()

	var out []string
	for _, dir := range []string{"internal", "pkg"} {
		files, err := collectGoFiles(filepath.Join(repoRootDir(), dir))
		require.NoError(t, err)
		for _, f := range files {
			if !isTestFile(f) {
				out = append(out, f)
			}
		}
	}
	return out
}

func TestImportBoundaries(t *testing.T) {
	violations := make([]string, 0)
	for _, file := range productionFiles(t) {
		sourcePkg := packageImportPath(file)
		rule, ok := findRule(sourcePkg)
		if !ok {
			continue
		}

		for _, importPath := range parseImports(t, file) {
			if !strings.HasPrefix(importPath, modulePath+"/") {
				continue
			}
			if matchingForbiddenPrefix(importPath, rule.forbidden) == "" {
				continue
			}
			violations = append(violations,
				"governance: "+sourcePkg+" imports "+importPath+" via "+relToRepoRoot(file)+"; allowed direction: "+rule.hint,
			)
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("%s", strings.Join(violations, "\n"))
	}
}

// Every library package must fall under a rule; app is the composition root.
func TestImportBoundaries_EveryPackageHasRule(t *testing.T) {
	exempt := map[string]bool{
		modulePath + "/internal/app":          true,
		modulePath + "/internal/architecture": true,
	}

	seen := make(map[string]bool)
	for _, file := range productionFiles(t) {
		seen[packageImportPath(file)] = true
	}
	require.NotEmpty(t, seen)

	for pkg := range seen {
		if exempt[pkg] {
			continue
		}
		_, ok := findRule(pkg)
		assert.Truef(t, ok, "no import rule covers %s", pkg)
	}
}

func TestImportBoundaries_RulesNameExistingPackages(t *testing.T) {
	for _, rule := range architectureRules {
		rel := strings.TrimPrefix(rule.sourcePrefix, modulePath+"/")
		info, err := os.Stat(filepath.Join(repoRootDir(), filepath.FromSlash(rel)))
		require.NoErrorf(t, err, "rule source %s", rule.sourcePrefix)
		assert.True(t, info.IsDir())
	}
}

func TestHasPathPrefix(t *testing.T) {
	assert.True(t, hasPathPrefix("txn-api/internal/service", "txn-api/internal/service"))
	assert.True(t, hasPathPrefix("txn-api/internal/service/transaction", "txn-api/internal/service"))
	assert.False(t, hasPathPrefix("txn-api/internal/servicex", "txn-api/internal/service"))
}
