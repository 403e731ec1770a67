package extract

import (
	"regexp"
	"strings"
)

var (
	esImportRe = regexp.MustCompile(`(?m)^\s*import\s+([^'"]*?)\s*from\s+['"]([^'"]+)['"]`)
	requireRe  = regexp.MustCompile(`(?m)require\(\s*['"]([^'"]+)['"]\s*\)`)
)

var filteredSchemes = []string{"node:", "data:", "blob:"}

// Imports is the result of §4.4's import extractor: the symbols bound
// by import/require statements, and the module specifiers they came
// from, both deduplicated.
type Imports struct {
	Symbols []string
	From    []string
}

// ExtractImports scans raw source text for ES-style `import ... from
// '...'` statements (named, default, and namespace forms) and
// CommonJS `require(...)` calls, filtering out absolute URLs and
// runtime-scheme specifiers from the "from" list and deduplicating
// both lists. It is deliberately regex-based rather than AST-based so
// it degrades gracefully on malformed or partial input (§4.4).
func ExtractImports(text string) Imports {
	symbols := newOrderedSet()
	from := newOrderedSet()

	for _, m := range esImportRe.FindAllStringSubmatch(text, -1) {
		clause, path := m[1], m[2]
		for _, name := range parseImportClause(clause) {
			symbols.add(name)
		}
		if !isFilteredSpecifier(path) {
			from.add(path)
		}
	}

	for _, m := range requireRe.FindAllStringSubmatch(text, -1) {
		path := m[1]
		if !isFilteredSpecifier(path) {
			from.add(path)
		}
	}

	return Imports{Symbols: symbols.slice(), From: from.slice()}
}

// parseImportClause extracts the bound names from an ES import
// clause, e.g. "a, {b, c as d}" -> ["a", "b", "d"], "* as ns" -> ["ns"].
func parseImportClause(clause string) []string {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return nil
	}

	var names []string
	for _, part := range splitTopLevelComma(clause) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case strings.HasPrefix(part, "*"):
			if idx := strings.Index(part, "as"); idx >= 0 {
				names = append(names, strings.TrimSpace(part[idx+len("as"):]))
			}
		case strings.HasPrefix(part, "{"):
			inner := strings.TrimSuffix(strings.TrimPrefix(part, "{"), "}")
			for _, item := range strings.Split(inner, ",") {
				item = strings.TrimSpace(item)
				if item == "" {
					continue
				}
				if idx := strings.Index(item, " as "); idx >= 0 {
					names = append(names, strings.TrimSpace(item[idx+len(" as "):]))
				} else {
					names = append(names, item)
				}
			}
		default:
			names = append(names, part)
		}
	}
	return names
}

// splitTopLevelComma splits on commas that are not nested inside {}.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	var cur strings.Builder
	for _, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		}
		if r == ',' && depth == 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func isFilteredSpecifier(path string) bool {
	if strings.Contains(path, "://") {
		return true
	}
	for _, scheme := range filteredSchemes {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}

// orderedSet deduplicates strings while preserving first-seen order.
type orderedSet struct {
	seen  map[string]struct{}
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.order = append(s.order, v)
}

func (s *orderedSet) slice() []string {
	return s.order
}
