package index

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/codewell/rre/internal/tokenize"
)

// MaxBoundedPrefix is the cap on the zero-token candidate fallback (§4.2).
const MaxBoundedPrefix = 100

// minIntersectionForPrecision is the floor below which the intersection
// result is augmented with union members for recall (§4.2).
const minIntersectionForPrecision = 10

// maxUnionAugment is the cap on how many union members are added back
// in when the precise intersection is too small (§4.2).
const maxUnionAugment = 50

// smallSetThreshold selects the hash-membership intersection path over
// the sorted-array merge path (§4.2's "Intersection algorithm").
const smallSetThreshold = 256

// postingSet is the set of entry indices associated with a posting key.
type postingSet map[int]struct{}

// Store is the multi-index store: the entry list plus every posting
// map named in §3, mutated only by its owning goroutine (callers are
// responsible for external synchronization beyond the internal mutex,
// which only protects against concurrent reads during a mutation).
type Store struct {
	mu sync.RWMutex

	tokenizer *tokenize.Tokenizer

	entries []*Entry // nil at index i means entry i was deleted
	live    int      // count of non-nil entries

	pathIndex               map[string]int // canon(uri) -> entry index, unique
	termIndex               map[string]postingSet
	symbolIndex             map[string]postingSet
	languageIndex           map[string]postingSet // by lower-cased extension, without the dot
	pathHierarchyIndex      map[string]postingSet // every ancestor directory
	symbolRelationshipIndex map[string]postingSet // imported symbol name -> importing entries

	metadata Metadata
}

// New creates an empty Store.
func New(tok *tokenize.Tokenizer) *Store {
	return &Store{
		tokenizer:               tok,
		pathIndex:               make(map[string]int),
		termIndex:               make(map[string]postingSet),
		symbolIndex:             make(map[string]postingSet),
		languageIndex:           make(map[string]postingSet),
		pathHierarchyIndex:      make(map[string]postingSet),
		symbolRelationshipIndex: make(map[string]postingSet),
		metadata:                Metadata{Version: CurrentVersion},
	}
}

// Canon returns the canonical lookup-key form of a uri: lower-cased.
func Canon(uri string) string {
	return strings.ToLower(uri)
}

// Metadata returns a copy of the store's current metadata.
func (s *Store) Metadata() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// SetMetadata replaces the store's metadata wholesale (used by persist
// on load and by the indexer after a rebuild).
func (s *Store) SetMetadata(m Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = m
}

// Len returns the number of live (non-deleted) entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// EntryAt returns the entry at the given index, or false if it has
// been deleted or is out of range.
func (s *Store) EntryAt(i int) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.entries) || s.entries[i] == nil {
		return nil, false
	}
	return s.entries[i], true
}

// Entries returns every live entry paired with its index, in index order.
func (s *Store) Entries() []IndexedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]IndexedEntry, 0, s.live)
	for i, e := range s.entries {
		if e != nil {
			out = append(out, IndexedEntry{Index: i, Entry: e})
		}
	}
	return out
}

// IndexedEntry pairs an Entry with its stable store index.
type IndexedEntry struct {
	Index int
	Entry *Entry
}

// Lookup returns the entry index for a canonical uri, if present.
func (s *Store) Lookup(uri string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.pathIndex[Canon(uri)]
	return i, ok
}

// Insert adds entry as a new record and returns its assigned index.
// The entry's pre-computed token sets must already be populated (via
// Entry.RecomputeTokens) by the caller.
func (s *Store) Insert(entry *Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(entry)
}

func (s *Store) insertLocked(entry *Entry) int {
	idx := len(s.entries)
	s.entries = append(s.entries, entry)
	s.live++
	s.indexPostingsLocked(idx, entry)
	return idx
}

// Update replaces the entry at index with a new version, removing its
// old postings and inserting the new ones. index must have been
// returned by a prior Insert/Update on this store and not yet removed.
func (s *Store) Update(index int, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) || s.entries[index] == nil {
		return fmt.Errorf("index: update on unknown entry index %d", index)
	}

	s.removePostingsLocked(index, s.entries[index])
	s.entries[index] = entry
	s.indexPostingsLocked(index, entry)
	return nil
}

// Remove deletes the entry at index from the entry list and every
// posting map; any posting set that becomes empty is erased (§3).
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) || s.entries[index] == nil {
		return fmt.Errorf("index: remove on unknown entry index %d", index)
	}

	entry := s.entries[index]
	s.removePostingsLocked(index, entry)
	delete(s.pathIndex, Canon(entry.URI))
	s.entries[index] = nil
	s.live--
	return nil
}

// RebuildAll clears every posting map and re-derives them from the
// current entry list, recomputing any missing pre-computed token sets
// along the way (§4.2's rebuild_all).
func (s *Store) RebuildAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.termIndex = make(map[string]postingSet)
	s.symbolIndex = make(map[string]postingSet)
	s.languageIndex = make(map[string]postingSet)
	s.pathHierarchyIndex = make(map[string]postingSet)
	s.symbolRelationshipIndex = make(map[string]postingSet)
	s.pathIndex = make(map[string]int)

	for i, e := range s.entries {
		if e == nil {
			continue
		}
		if e.SnippetTokens == nil || e.URITokens == nil || e.SymbolTokens == nil {
			e.RecomputeTokens(s.tokenizer)
		}
		s.indexPostingsLocked(i, e)
	}
}

// indexPostingsLocked adds entry's postings to every map (§4.2 insert).
func (s *Store) indexPostingsLocked(idx int, e *Entry) {
	for t := range tokenize.Union(e.SnippetTokens, e.URITokens, e.SymbolTokens) {
		addPosting(s.termIndex, t, idx)
	}
	for _, sym := range e.Symbols {
		addPosting(s.symbolIndex, strings.ToLower(sym), idx)
	}
	for _, imp := range e.ImportedSymbols {
		addPosting(s.symbolRelationshipIndex, strings.ToLower(imp), idx)
	}
	if ext := extensionOf(e.URI); ext != "" {
		addPosting(s.languageIndex, ext, idx)
	}
	for _, dir := range ancestorDirs(e.URI) {
		addPosting(s.pathHierarchyIndex, dir, idx)
	}
	s.pathIndex[Canon(e.URI)] = idx
}

// removePostingsLocked is the symmetric removal of indexPostingsLocked.
func (s *Store) removePostingsLocked(idx int, e *Entry) {
	for t := range tokenize.Union(e.SnippetTokens, e.URITokens, e.SymbolTokens) {
		removePosting(s.termIndex, t, idx)
	}
	for _, sym := range e.Symbols {
		removePosting(s.symbolIndex, strings.ToLower(sym), idx)
	}
	for _, imp := range e.ImportedSymbols {
		removePosting(s.symbolRelationshipIndex, strings.ToLower(imp), idx)
	}
	if ext := extensionOf(e.URI); ext != "" {
		removePosting(s.languageIndex, ext, idx)
	}
	for _, dir := range ancestorDirs(e.URI) {
		removePosting(s.pathHierarchyIndex, dir, idx)
	}
}

func addPosting(m map[string]postingSet, key string, idx int) {
	set, ok := m[key]
	if !ok {
		set = postingSet{}
		m[key] = set
	}
	set[idx] = struct{}{}
}

func removePosting(m map[string]postingSet, key string, idx int) {
	set, ok := m[key]
	if !ok {
		return
	}
	delete(set, idx)
	if len(set) == 0 {
		delete(m, key)
	}
}

func extensionOf(uri string) string {
	ext := path.Ext(uri)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ancestorDirs returns every ancestor directory of uri, e.g. for
// "a/b/c.go" it returns ["a/b", "a"].
func ancestorDirs(uri string) []string {
	dir := path.Dir(uri)
	var dirs []string
	for dir != "." && dir != "/" && dir != "" {
		dirs = append(dirs, dir)
		next := path.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return dirs
}

// Candidates implements §4.2's candidate-selection algorithm.
func (s *Store) Candidates(queryTokens tokenize.Set) map[int]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch len(queryTokens) {
	case 0:
		return s.boundedPrefixLocked()
	case 1:
		var token string
		for t := range queryTokens {
			token = t
		}
		return toResult(unionSets(
			lookupOr(s.termIndex, token),
			lookupOr(s.symbolIndex, token),
		))
	default:
		return s.multiTokenCandidatesLocked(queryTokens)
	}
}

func (s *Store) boundedPrefixLocked() map[int]struct{} {
	out := make(map[int]struct{}, MaxBoundedPrefix)
	for i, e := range s.entries {
		if e == nil {
			continue
		}
		out[i] = struct{}{}
		if len(out) >= MaxBoundedPrefix {
			break
		}
	}
	return out
}

func (s *Store) multiTokenCandidatesLocked(queryTokens tokenize.Set) map[int]struct{} {
	termSets := make([]postingSet, 0, len(queryTokens))
	symbolSets := make([]postingSet, 0, len(queryTokens))
	for t := range queryTokens {
		termSets = append(termSets, lookupOr(s.termIndex, t))
		symbolSets = append(symbolSets, lookupOr(s.symbolIndex, t))
	}

	termIntersection := intersect(termSets)
	symbolIntersection := intersect(symbolSets)

	result := unionSets(termIntersection, symbolIntersection)

	if len(termIntersection) < minIntersectionForPrecision {
		termUnion := unionSets(termSets...)
		added := 0
		for idx := range termUnion {
			if added >= maxUnionAugment {
				break
			}
			if _, ok := result[idx]; ok {
				continue
			}
			result[idx] = struct{}{}
			added++
		}
	}

	return toResult(result)
}

func lookupOr(m map[string]postingSet, key string) postingSet {
	if set, ok := m[key]; ok {
		return set
	}
	return nil
}

func unionSets(sets ...postingSet) postingSet {
	out := postingSet{}
	for _, set := range sets {
		for idx := range set {
			out[idx] = struct{}{}
		}
	}
	return out
}

func toResult(set postingSet) map[int]struct{} {
	if set == nil {
		return map[int]struct{}{}
	}
	return map[int]struct{}(set)
}

// intersect computes the intersection of all given posting sets,
// sorting inputs by size ascending and early-exiting once the running
// result is empty (§4.2's intersection algorithm). Small working sets
// use hash membership directly; once the smallest set is large, all
// sets are converted to sorted arrays and merge-intersected instead.
func intersect(sets []postingSet) postingSet {
	if len(sets) == 0 {
		return postingSet{}
	}

	// Drop nil/empty sets early: an empty posting set makes the whole
	// intersection empty.
	for _, set := range sets {
		if len(set) == 0 {
			return postingSet{}
		}
	}

	sorted := make([]postingSet, len(sets))
	copy(sorted, sets)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) < len(sorted[j]) })

	if len(sorted[0]) <= smallSetThreshold {
		return intersectHash(sorted)
	}
	return intersectSortedArrays(sorted)
}

func intersectHash(sorted []postingSet) postingSet {
	result := postingSet{}
	for idx := range sorted[0] {
		inAll := true
		for _, set := range sorted[1:] {
			if _, ok := set[idx]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			result[idx] = struct{}{}
		}
	}
	return result
}

func intersectSortedArrays(sorted []postingSet) postingSet {
	arrays := make([][]int, len(sorted))
	for i, set := range sorted {
		arr := make([]int, 0, len(set))
		for idx := range set {
			arr = append(arr, idx)
		}
		sort.Ints(arr)
		arrays[i] = arr
	}

	result := arrays[0]
	for _, next := range arrays[1:] {
		result = mergeIntersect(result, next)
		if len(result) == 0 {
			break
		}
	}

	out := postingSet{}
	for _, idx := range result {
		out[idx] = struct{}{}
	}
	return out
}

func mergeIntersect(a, b []int) []int {
	out := make([]int, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
