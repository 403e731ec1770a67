// Package tokenize implements the engine's tokenizer (§4.1): a pure,
// allocation-light lower-case alphanumeric-plus-underscore splitter,
// backed by a bounded LRU cache keyed by the input string.
package tokenize

import (
	"fmt"
	"strings"

	"github.com/maypok86/otter"
)

// DefaultCacheSize bounds the tokenization cache (§3: "~10000").
const DefaultCacheSize = 10_000

// Set is an unordered collection of tokens, represented as a map for
// O(1) membership tests — the shape every posting/candidate operation
// in internal/index and internal/query needs.
type Set map[string]struct{}

// NewSet builds a Set from a slice of tokens.
func NewSet(tokens []string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Union returns the union of all given token sets.
func Union(sets ...Set) Set {
	out := Set{}
	for _, s := range sets {
		for t := range s {
			out[t] = struct{}{}
		}
	}
	return out
}

// Slice returns the tokens of s as a slice, in no particular order.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// Has reports whether t is a member of s.
func (s Set) Has(t string) bool {
	_, ok := s[t]
	return ok
}

// Tokenizer tokenizes text with an LRU cache in front of the pure split.
type Tokenizer struct {
	cache otter.Cache[string, Set]
}

// New creates a Tokenizer whose cache holds at most capacity distinct
// input strings. A non-positive capacity disables caching.
func New(capacity int) (*Tokenizer, error) {
	if capacity <= 0 {
		return &Tokenizer{}, nil
	}

	cache, err := otter.MustBuilder[string, Set](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build tokenizer cache: %w", err)
	}
	return &Tokenizer{cache: cache}, nil
}

// Tokenize lower-cases s, splits on runs of characters outside
// [a-z0-9_], and drops empty tokens. Results are cached by the exact
// input string.
func (t *Tokenizer) Tokenize(s string) Set {
	if t.cache != nil {
		if cached, ok := t.cache.Get(s); ok {
			return cached
		}
	}

	tokens := Split(s)
	if t.cache != nil {
		t.cache.Set(s, tokens)
	}
	return tokens
}

// Clear empties the tokenization cache. Used by the engine's
// memory-pressure monitor when crossing the hard threshold (§5.5).
func (t *Tokenizer) Clear() {
	if t.cache != nil {
		t.cache.Clear()
	}
}

// Split is the pure tokenization function with no caching, used
// directly where a one-off tokenization is cheaper than a cache round
// trip (e.g. tokenizing a freshly-built chunk exactly once).
func Split(s string) Set {
	lower := strings.ToLower(s)
	tokens := Set{}

	start := -1
	for i, r := range lower {
		if isTokenRune(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			tokens[lower[start:i]] = struct{}{}
			start = -1
		}
	}
	if start != -1 {
		tokens[lower[start:]] = struct{}{}
	}

	return tokens
}

func isTokenRune(r rune) bool {
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
