package query

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/codewell/rre/internal/bm25"
	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/embedding"
	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

// rerankCap caps rerankSize(k), the ceil(1.5·k) candidates that enter
// the hybrid reranking stage (§4.6 step 7), independent of k itself,
// to bound reranking cost on a very large k.
const rerankCap = 600

// vectorStoreFanout is the "2·k" size of the parallel vector-store
// query issued alongside candidate selection (§4.6 step 4).
const vectorStoreFanout = 2

// Frontend implements the full query algorithm (§4.6): caching,
// self-disable, embedding lookup, candidate selection, the guarded
// scoring loop, hybrid reranking, and result formatting.
type Frontend struct {
	Store     *index.Store
	BM25Cache *bm25.Cache
	Tokenizer *tokenize.Tokenizer
	Embedder  *embedding.Pipeline
	VecStore  collab.VectorStore

	Caches *Caches
	Pools  *CommonPools

	breaker *selfDisableBreaker
}

// NewFrontend wires a Frontend from its collaborators. Caches/Pools
// may be supplied by the caller (engine construction) or left nil, in
// which case caching and warm pools are simply skipped.
func NewFrontend(store *index.Store, bm25Cache *bm25.Cache, tok *tokenize.Tokenizer, embedder *embedding.Pipeline, vecStore collab.VectorStore, caches *Caches, pools *CommonPools) *Frontend {
	return &Frontend{
		Store:     store,
		BM25Cache: bm25Cache,
		Tokenizer: tok,
		Embedder:  embedder,
		VecStore:  vecStore,
		Caches:    caches,
		Pools:     pools,
		breaker:   newSelfDisableBreaker(),
	}
}

// ResetSelfDisable re-enables scoring after a rebuild (§5.5: the
// engine calls this once the index has been rebuilt).
func (f *Frontend) ResetSelfDisable() {
	f.breaker.reset()
}

// WithBM25Cache returns a shallow copy of f pointed at a new BM25Cache,
// keeping the same self-disable breaker. Used by the engine after an
// incremental update rebuilds corpus statistics without a full index
// rebuild, so the breaker's "until next rebuild" stickiness (§5.5)
// isn't reset by routine file edits.
func (f *Frontend) WithBM25Cache(bm25Cache *bm25.Cache) *Frontend {
	cp := *f
	cp.BM25Cache = bm25Cache
	return &cp
}

// SelfDisabled reports whether the performance guard has tripped.
func (f *Frontend) SelfDisabled() bool {
	return f.breaker.disabled()
}

// Query runs the full algorithm for one query and returns its results
// with metrics (§4.6). Both Query and QueryWithMetrics on the public
// engine API are thin wrappers over this.
func (f *Frontend) Query(ctx context.Context, queryText string, opts Options) Response {
	start := time.Now()
	k := opts.K
	if k < 0 {
		k = 0
	}

	canon := Canonicalize(queryText)

	if cached, ok := f.Caches.getResult(canon, k); ok {
		// A cache hit is a lookup, not a rescoring: the cached Metrics
		// still describe the original (uncached) call, so
		// RetrievalLatencyMs is overwritten here with the actual
		// (much smaller) hit latency instead of being served stale.
		cached.Metrics.RetrievalLatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
		return cached
	}

	if k == 0 {
		resp := Response{Results: nil, Metrics: Metrics{ResultsCount: 0, TopScore: 0}}
		resp.Metrics.RetrievalLatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
		f.Caches.putResult(canon, k, resp)
		return resp
	}

	var resp Response
	if f.breaker.disabled() {
		resp = f.fallback(k)
	} else {
		resp = f.score(ctx, queryText, canon, k)
	}

	resp.Metrics.RetrievalLatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
	f.breaker.record(time.Since(start))

	f.Caches.putResult(canon, k, resp)
	return resp
}

// score runs the full scored-retrieval path: steps 3-8 of §4.6.
func (f *Frontend) score(ctx context.Context, queryText, canon string, k int) Response {
	var metrics Metrics

	queryEmbedding, embeddingLatencyMs := f.resolveEmbedding(ctx, canon, queryText)
	metrics.EmbeddingLatencyMs = embeddingLatencyMs

	var vecMatches map[string]float64
	var wg sync.WaitGroup
	if f.VecStore != nil && f.VecStore.IsEnabled() && len(queryEmbedding) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hits, err := f.VecStore.Query(ctx, queryEmbedding, vectorStoreFanout*k)
			if err != nil {
				return
			}
			m := make(map[string]float64, len(hits))
			for _, h := range hits {
				m[h.ID] = h.Score
			}
			vecMatches = m
		}()
	}

	queryTokens := f.Tokenizer.Tokenize(queryText)

	var candidates map[int]struct{}
	if pool, ok := f.Pools.lookup(canon); ok {
		candidates = pool
	} else {
		candidates = f.Store.Candidates(queryTokens)
	}

	deadline := time.Now().Add(queryTimeout)
	s := newScorer(f.Store, f.BM25Cache, queryText, queryTokens, candidates)
	scored, timedOut, earlyTerminated := collectCandidates(s, candidates, deadline)
	metrics.TimedOut = timedOut
	metrics.EarlyTerminated = earlyTerminated

	if len(scored) == 0 {
		wg.Wait()
		resp := f.fallback(k)
		resp.Metrics.TimedOut = timedOut
		resp.Metrics.EarlyTerminated = earlyTerminated
		return resp
	}

	// Drop zero-signal candidates before reranking: otherwise hybrid
	// min-max normalization's 0.5 fallback (all scores identical) would
	// manufacture a non-zero final score out of no real match at all
	// (the empty-query boundary case).
	scored = filterPositive(scored)
	if len(scored) == 0 {
		wg.Wait()
		return Response{Metrics: metrics}
	}

	rerankN := rerankSize(k)
	if rerankN > rerankCap {
		rerankN = rerankCap
	}
	topForRerank := topByScore(scored, rerankN)

	wg.Wait()

	final := topForRerank
	if len(queryEmbedding) > 0 {
		final = hybridRerank(ctx, f.Store, topForRerank, queryEmbedding, f.VecStore, vecMatches)
		metrics.HybridSearchUsed = true
	}

	deduped := dedupeByURI(f.Store, final)
	top := topByScore(deduped, k)

	results := make([]string, 0, len(top))
	topScore := 0.0
	tokensInjected := 0
	for _, c := range top {
		if c.score <= 0 {
			continue
		}
		text, ok := Format(f.Store, c, queryTokens)
		if !ok {
			continue
		}
		results = append(results, text)
		tokensInjected += (len(text) + 3) / 4
		if c.score > topScore {
			topScore = c.score
		}
	}

	metrics.ResultsCount = len(results)
	metrics.TopScore = topScore
	metrics.TokensInjected = tokensInjected

	return Response{Results: results, Metrics: metrics}
}

// filterPositive drops every candidate with a non-positive score.
func filterPositive(candidates []candidate) []candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if c.score > 0 {
			out = append(out, c)
		}
	}
	return out
}

// resolveEmbedding looks up (or computes and caches) the query's
// embedding vector, returning the embedding latency in milliseconds
// when a computation actually happened.
func (f *Frontend) resolveEmbedding(ctx context.Context, canon, queryText string) ([]float32, float64) {
	if f.Embedder == nil || !f.Embedder.Usable() {
		return nil, 0
	}

	if cached, ok := f.Caches.getEmbedding(canon); ok {
		return cached, 0
	}

	start := time.Now()
	vectors, err := f.Embedder.Embed(ctx, []string{queryText})
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil || len(vectors) == 0 {
		return nil, elapsed
	}

	f.Caches.putEmbedding(canon, vectors[0])
	return vectors[0], elapsed
}

// fallback produces unranked results straight from the bounded-prefix
// candidate set, used when self-disabled or when nothing could be
// scored before the deadline (§4.6 step 2, §3's external-snippet
// fallback).
func (f *Frontend) fallback(k int) Response {
	candidates := f.Store.Candidates(tokenize.Set{})

	indices := make([]int, 0, len(candidates))
	for idx := range candidates {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	results := make([]string, 0, k)
	tokensInjected := 0
	for _, idx := range indices {
		if len(results) >= k {
			break
		}
		c := candidate{entryIndex: idx, chunkIndex: -1, score: 0}
		text, ok := Format(f.Store, c, nil)
		if !ok {
			continue
		}
		results = append(results, text)
		tokensInjected += (len(text) + 3) / 4
	}

	return Response{
		Results: results,
		Metrics: Metrics{
			ResultsCount:   len(results),
			TopScore:       0,
			TokensInjected: tokensInjected,
		},
	}
}
