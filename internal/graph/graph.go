// Package graph builds a read-only import/symbol relationship view
// over the index store: a directed dominikbraun/graph graph with an
// edge a -> b whenever a's imported_from resolves to b's uri. It is
// never a source of truth — imported_symbols/imported_from on
// index.Entry remain canonical — and is rebuilt wholesale alongside
// rebuild_all()/incremental updates rather than mutated incrementally.
package graph

import (
	"path"
	"sort"
	"strings"
	"sync"

	dgraph "github.com/dominikbraun/graph"

	"github.com/codewell/rre/internal/index"
)

// candidateSuffixes are appended to an unresolved import path in turn
// until a match is found in the store's path index, covering the
// common "import './foo'" extension-elided style.
var candidateSuffixes = []string{"", ".ts", ".tsx", ".js", ".jsx", ".go", ".py", ".rb", ".php", ".rs", ".java"}

// Graph is the in-memory relationship view, safe for concurrent reads
// once Build has returned.
type Graph struct {
	mu sync.RWMutex
	g  dgraph.Graph[string, string]
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{g: newDirected()}
}

func newDirected() dgraph.Graph[string, string] {
	return dgraph.New(dgraph.StringHash, dgraph.Directed())
}

// Build discards the current graph and rebuilds it wholesale from
// every live entry in store (§3's "rebuilt alongside rebuild_all()").
func (g *Graph) Build(store *index.Store) {
	fresh := newDirected()

	entries := store.Entries()
	for _, ie := range entries {
		_ = fresh.AddVertex(index.Canon(ie.Entry.URI))
	}

	resolver := newResolver(entries)
	for _, ie := range entries {
		from := index.Canon(ie.Entry.URI)
		for _, imp := range ie.Entry.ImportedFrom {
			target, ok := resolver.resolve(ie.Entry.URI, imp)
			if !ok {
				continue
			}
			_ = fresh.AddEdge(from, target) // duplicate/self edges are harmless no-ops
		}
	}

	g.mu.Lock()
	g.g = fresh
	g.mu.Unlock()
}

// Dependencies returns the canonical URIs that uri directly imports
// from, sorted for determinism.
func (g *Graph) Dependencies(uri string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adjacency, err := g.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	edges, ok := adjacency[index.Canon(uri)]
	if !ok {
		return nil
	}
	return sortedKeys(edges)
}

// Dependents returns the canonical URIs that directly import from
// uri, sorted for determinism.
func (g *Graph) Dependents(uri string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	predecessors, err := g.g.PredecessorMap()
	if err != nil {
		return nil
	}
	edges, ok := predecessors[index.Canon(uri)]
	if !ok {
		return nil
	}
	return sortedKeys(edges)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// resolver maps an import-path string, as written in the importing
// file, to the store entry it most likely refers to. Resolution is
// best-effort: relative paths are resolved against the importer's
// directory and matched against the store's known URIs, trying a
// short list of common source extensions when the import omits one.
type resolver struct {
	byURI  map[string]string // canon(uri) -> uri
	byStem map[string]string // canon(uri without its final extension) -> uri
}

func newResolver(entries []index.IndexedEntry) *resolver {
	r := &resolver{
		byURI:  make(map[string]string, len(entries)),
		byStem: make(map[string]string, len(entries)),
	}
	for _, ie := range entries {
		uri := ie.Entry.URI
		r.byURI[index.Canon(uri)] = uri
		r.byStem[index.Canon(stem(uri))] = uri
	}
	return r
}

func (r *resolver) resolve(fromURI, importPath string) (string, bool) {
	if isExternalPackageSpecifier(importPath) {
		return "", false
	}

	base := importPath
	if strings.HasPrefix(importPath, ".") {
		base = path.Join(path.Dir(fromURI), importPath)
	}
	base = path.Clean(base)

	for _, suffix := range candidateSuffixes {
		candidate := base + suffix
		if uri, ok := r.byURI[index.Canon(candidate)]; ok {
			return index.Canon(uri), true
		}
	}
	if uri, ok := r.byStem[index.Canon(base)]; ok {
		return index.Canon(uri), true
	}
	return "", false
}

func stem(uri string) string {
	ext := path.Ext(uri)
	if ext == "" {
		return uri
	}
	return strings.TrimSuffix(uri, ext)
}

// isExternalPackageSpecifier reports whether an import path names a
// package from an external registry (bare specifier, no relative or
// absolute path component) rather than a file in this workspace.
func isExternalPackageSpecifier(importPath string) bool {
	if importPath == "" {
		return true
	}
	return !strings.HasPrefix(importPath, ".") && !strings.HasPrefix(importPath, "/")
}
