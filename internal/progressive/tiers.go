package progressive

import (
	"path"
	"sort"
	"strings"

	"github.com/codewell/rre/internal/extract"
)

// Tier is a file's indexing priority; lower values are scheduled
// earlier (§4.7: "Critical, High, Medium, Low, Lowest").
type Tier int

const (
	TierCritical Tier = iota
	TierHigh
	TierMedium
	TierLow
	TierLowest
)

var criticalBasenames = map[string]bool{
	"main": true,
	"app":  true,
	"index": true,
}

var lowestSuffixes = []string{".map", ".d.ts"}

var lowestPathSegments = []string{"/generated/", "/dist/", "/build/"}

var testMarkers = []string{".test.", "_test.", ".spec.", "/test/", "/tests/"}

// Prioritize sorts files into the §4.7 tier order, preserving each
// file's relative position within its tier (stable).
func Prioritize(files []string) []string {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tierOf(sorted[i]) < tierOf(sorted[j])
	})
	return sorted
}

func tierOf(relPath string) Tier {
	switch {
	case isLowest(relPath):
		return TierLowest
	case isCritical(relPath):
		return TierCritical
	case isTestOrDoc(relPath):
		return TierLow
	case isSourceFile(relPath):
		return TierHigh
	default:
		return TierMedium
	}
}

func isLowest(relPath string) bool {
	lower := strings.ToLower(relPath)
	for _, suffix := range lowestSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	slashed := "/" + lower
	for _, seg := range lowestPathSegments {
		if strings.Contains(slashed, seg) {
			return true
		}
	}
	return false
}

func isCritical(relPath string) bool {
	if extract.IsOverviewDocument(relPath) {
		return true
	}
	base := path.Base(relPath)
	ext := path.Ext(base)
	stem := strings.ToLower(strings.TrimSuffix(base, ext))
	return criticalBasenames[stem]
}

func isTestOrDoc(relPath string) bool {
	lower := "/" + strings.ToLower(relPath)
	for _, marker := range testMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(relPath))
	return ext == ".md" || ext == ".rst"
}

func isSourceFile(relPath string) bool {
	return sourceExtensions[strings.ToLower(path.Ext(relPath))]
}

var sourceExtensions = map[string]bool{
	".go": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".mjs": true, ".py": true, ".rs": true, ".c": true, ".h": true,
	".java": true, ".php": true, ".rb": true,
}
