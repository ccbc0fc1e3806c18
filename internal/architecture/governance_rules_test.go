package architecture_test

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulePath = "txn-api"

type layerRule struct {
	sourcePrefix string
	forbidden    []string
	hint         string
}

func internalPkgs(names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, modulePath+"/internal/"+n)
	}
	return out
}

var outerLayers = []string{
	modulePath + "/cmd",
	modulePath + "/pkg",
}

var architectureRules = []layerRule{
	{
		sourcePrefix: modulePath + "/internal/domain",
		forbidden: append(internalPkgs(
			"schema", "querybuilder", "normalize", "warehouse", "service",
			"api", "middleware", "config", "app",
		), outerLayers...),
		hint: "domain may only import domain",
	},
	{
		sourcePrefix: modulePath + "/internal/schema",
		forbidden: append(internalPkgs(
			"querybuilder", "normalize", "warehouse", "service",
			"api", "middleware", "config", "app",
		), outerLayers...),
		hint: "schema should depend on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/querybuilder",
		forbidden: append(internalPkgs(
			"normalize", "warehouse", "service", "api", "middleware", "config", "app",
		), outerLayers...),
		hint: "querybuilder should depend on schema and domain",
	},
	{
		sourcePrefix: modulePath + "/internal/normalize",
		forbidden: append(internalPkgs(
			"warehouse", "service", "api", "middleware", "config", "app",
		), outerLayers...),
		hint: "normalize should depend on querybuilder and domain",
	},
	{
		sourcePrefix: modulePath + "/internal/warehouse",
		forbidden: append(internalPkgs(
			"querybuilder", "normalize", "service", "api", "middleware", "config", "app",
		), outerLayers...),
		hint: "warehouse implements domain ports and depends on domain only",
	},
	{
		sourcePrefix: modulePath + "/internal/service",
		forbidden: append(internalPkgs(
			"normalize", "warehouse", "api", "middleware", "config", "app",
		), outerLayers...),
		hint: "service should reach the warehouse through domain ports",
	},
	{
		sourcePrefix: modulePath + "/internal/api",
		forbidden: append(internalPkgs(
			"warehouse", "config", "app",
		), outerLayers...),
		hint: "api should depend on service/normalize/domain packages",
	},
	{
		sourcePrefix: modulePath + "/internal/middleware",
		forbidden: append(internalPkgs(
			"schema", "querybuilder", "normalize", "warehouse", "service", "api", "config", "app",
		), outerLayers...),
		hint: "middleware should depend on domain and middleware-local packages",
	},
	{
		sourcePrefix: modulePath + "/internal/config",
		forbidden: append(internalPkgs(
			"schema", "querybuilder", "normalize", "warehouse", "service", "api", "middleware", "app",
		), outerLayers...),
		hint: "config reads the environment and imports nothing else",
	},
	{
		sourcePrefix: modulePath + "/pkg/cli",
		forbidden: append(internalPkgs("api", "app", "middleware", "config"), modulePath+"/cmd"),
		hint: "cli talks to the server over HTTP and builds SQL offline",
	},
}

func collectGoFiles(root string) ([]string, error) {
	files := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			files = append(files, filepath.ToSlash(path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func repoRootDir() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func findRule(sourcePkg string) (layerRule, bool) {
	for _, rule := range architectureRules {
		if hasPathPrefix(sourcePkg, rule.sourcePrefix) {
			return rule, true
		}
	}
	return layerRule{}, false
}

func matchingForbiddenPrefix(importPath string, forbidden []string) string {
	for _, prefix := range forbidden {
		if hasPathPrefix(importPath, prefix) {
			return prefix
		}
	}
	return ""
}

func hasPathPrefix(value string, prefix string) bool {
	return value == prefix || strings.HasPrefix(value, prefix+"/")
}

func packageImportPath(file string) string {
	return modulePath + "/" + filepath.ToSlash(filepath.Dir(relToRepoRoot(file)))
}

func isTestFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "_test.go")
}

func parseImports(t *testing.T, file string) []string {
	t.Helper()

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
	require.NoErrorf(t, err, "parse imports for %s", file)

	imports := make([]string, 0, len(parsed.Imports))
	for _, imp := range parsed.Imports {
		imports = append(imports, strings.Trim(imp.Path.Value, "\""))
	}
	return imports
}

func relToRepoRoot(path string) string {
	rel, err := filepath.Rel(repoRootDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
