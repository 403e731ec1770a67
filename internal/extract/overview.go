// Package extract implements the snippet/chunk extractor (§4.3) and
// the symbol/import extractor (§4.4).
package extract

import (
	"path/filepath"
	"strings"
)

// overviewBasenames lists the lower-cased basenames treated as
// "overview documents" (§4.3): READMEs and package manifests, which
// get a longer leading snippet and fewer, larger chunks.
var overviewBasenames = map[string]bool{
	"readme.md":        true,
	"readme":            true,
	"readme.txt":       true,
	"readme.rst":       true,
	"package.json":     true,
	"pyproject.toml":   true,
	"cargo.toml":       true,
	"go.mod":           true,
	"pom.xml":          true,
	"composer.json":    true,
	"gemfile":          true,
	"setup.py":         true,
	"pubspec.yaml":     true,
}

// IsOverviewDocument reports whether uri names a README or package
// manifest file, per §4.3.
func IsOverviewDocument(uri string) bool {
	base := strings.ToLower(filepath.Base(uri))
	if overviewBasenames[base] {
		return true
	}
	return strings.HasPrefix(base, "readme.")
}
