// Package bm25 implements the BM25 statistics cache (§4.5): per-entry
// document length and term-frequency maps, a lazily-recomputed running
// average document length, and the classical BM25 scoring formula.
package bm25

import (
	"strings"
	"sync"
)

// K1 and B are the classical BM25 tuning constants named in §4.5.
const (
	K1 = 1.2
	B  = 0.75
)

// Stats holds the BM25 statistics for a single entry.
type Stats struct {
	DocLength       int
	TermFrequencies map[string]int
}

// Cache is the BM25 statistics cache, keyed by store entry index.
type Cache struct {
	mu          sync.RWMutex
	stats       map[int]Stats
	totalLength int
	dirty       bool
	avgCached   float64
}

// NewCache creates an empty BM25 statistics cache.
func NewCache() *Cache {
	return &Cache{stats: make(map[int]Stats)}
}

// Upsert records or replaces the statistics for idx, derived from the
// document text (the entry's snippet, for a snippet-level entry, or a
// chunk's text for a chunk-level document). Must be called whenever
// the corresponding entry/chunk text changes.
func (c *Cache) Upsert(idx int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.stats[idx]; ok {
		c.totalLength -= old.DocLength
	}

	s := Stats{
		DocLength:       len(text),
		TermFrequencies: countTerms(text),
	}
	c.stats[idx] = s
	c.totalLength += s.DocLength
	c.dirty = true
}

// Remove deletes idx's statistics from the cache.
func (c *Cache) Remove(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.stats[idx]; ok {
		c.totalLength -= old.DocLength
		delete(c.stats, idx)
		c.dirty = true
	}
}

// Get returns the statistics for idx, if present.
func (c *Cache) Get(idx int) (Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stats[idx]
	return s, ok
}

// Len returns the number of documents currently tracked.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stats)
}

// AvgDocLength returns the average document length across every
// tracked document, recomputing it lazily when the dirty flag is set
// (§3's "avg_doc_length is consistent... whenever the dirty flag is
// false").
func (c *Cache) AvgDocLength() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dirty {
		return c.avgCached
	}
	if len(c.stats) == 0 {
		c.avgCached = 0
		c.dirty = false
		return 0
	}
	c.avgCached = float64(c.totalLength) / float64(len(c.stats))
	c.dirty = false
	return c.avgCached
}

// CountTerms exposes countTerms for callers that need term-frequency
// statistics for a document this cache does not track by index — the
// ranker's on-the-fly chunk-level BM25 scoring (§4.5: "documents being
// either a snippet or a chunk").
func CountTerms(text string) map[string]int {
	return countTerms(text)
}

// countTerms tokenizes text the same way internal/tokenize does, but
// counts occurrences rather than producing a set — BM25 term
// frequency needs repeat counts, not membership.
func countTerms(text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int)

	start := -1
	flush := func(end int) {
		if start != -1 {
			counts[lower[start:end]]++
			start = -1
		}
	}
	for i, r := range lower {
		if isTermRune(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(lower))

	return counts
}

func isTermRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	default:
		return false
	}
}
