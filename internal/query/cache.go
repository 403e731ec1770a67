package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/maypok86/otter"
)

// ResultCacheSize and EmbeddingCacheSize bound the two front-end
// caches (§4.6): one keyed by canon(query)+":"+k holding formatted
// results, one keyed by canon(query) holding the query's embedding
// vector so repeated queries skip re-embedding.
const (
	ResultCacheSize    = 512
	EmbeddingCacheSize = 1024
)

// ResultCacheTTL is how long a cached result list remains valid before
// it is treated as expired (§4.6: "check an unexpired cache").
const ResultCacheTTL = 30 * time.Second

// cachedResult is what the result cache stores per key.
type cachedResult struct {
	response Response
	storedAt time.Time
}

// Caches bundles the front-end's two otter caches.
type Caches struct {
	results    otter.Cache[string, cachedResult]
	embeddings otter.Cache[string, []float32]
}

// NewCaches builds the front-end caches with their default sizes. A
// non-positive size disables the corresponding cache.
func NewCaches() (*Caches, error) {
	c := &Caches{}

	if ResultCacheSize > 0 {
		results, err := otter.MustBuilder[string, cachedResult](ResultCacheSize).
			CollectStats().
			Build()
		if err != nil {
			return nil, fmt.Errorf("query: failed to build result cache: %w", err)
		}
		c.results = results
	}

	if EmbeddingCacheSize > 0 {
		embeddings, err := otter.MustBuilder[string, []float32](EmbeddingCacheSize).
			CollectStats().
			Build()
		if err != nil {
			return nil, fmt.Errorf("query: failed to build embedding cache: %w", err)
		}
		c.embeddings = embeddings
	}

	return c, nil
}

// Canonicalize lower-cases and trims a raw query string (§4.6 step 1).
func Canonicalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// resultCacheKey forms the cache key for a canonicalized query and k.
func resultCacheKey(canon string, k int) string {
	return canon + ":" + strconv.Itoa(k)
}

// getResult returns a cached response if present and not expired.
func (c *Caches) getResult(canon string, k int) (Response, bool) {
	if c == nil || c.results == nil {
		return Response{}, false
	}
	cached, ok := c.results.Get(resultCacheKey(canon, k))
	if !ok {
		return Response{}, false
	}
	if time.Since(cached.storedAt) > ResultCacheTTL {
		c.results.Delete(resultCacheKey(canon, k))
		return Response{}, false
	}
	return cached.response, true
}

// putResult stores a response under the given query/k.
func (c *Caches) putResult(canon string, k int, resp Response) {
	if c == nil || c.results == nil {
		return
	}
	c.results.Set(resultCacheKey(canon, k), cachedResult{response: resp, storedAt: time.Now()})
}

// getEmbedding returns a cached query embedding, if present.
func (c *Caches) getEmbedding(canon string) ([]float32, bool) {
	if c == nil || c.embeddings == nil {
		return nil, false
	}
	return c.embeddings.Get(canon)
}

// putEmbedding stores a query embedding for future reuse.
func (c *Caches) putEmbedding(canon string, vec []float32) {
	if c == nil || c.embeddings == nil || vec == nil {
		return
	}
	c.embeddings.Set(canon, vec)
}

// ClearResults empties the result cache, keeping the (cheaper to
// rebuild than re-embed) embedding cache intact. Used by the engine's
// memory-pressure monitor when crossing the soft threshold (§5.5:
// "above a soft threshold it shrinks caches").
func (c *Caches) ClearResults() {
	if c == nil || c.results == nil {
		return
	}
	c.results.Clear()
}

// ClearAll empties both caches. Used by the engine's memory-pressure
// monitor when crossing the hard threshold (§5.5: "above a hard
// threshold it ... clears all caches").
func (c *Caches) ClearAll() {
	if c == nil {
		return
	}
	c.ClearResults()
	if c.embeddings != nil {
		c.embeddings.Clear()
	}
}
