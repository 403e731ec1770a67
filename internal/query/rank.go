package query

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/codewell/rre/internal/bm25"
	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/embedding"
	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

// snippetLazyThreshold is the minimum snippet score an entry must
// reach before its chunks are scored at all (§4.6's "lazy chunk
// evaluation").
const snippetLazyThreshold = 2.0

// earlyTerminationScore and earlyTerminationCount implement §4.6's
// "early termination": once this many candidates clear this score,
// scoring stops.
const (
	earlyTerminationScore = 5.0
	earlyTerminationCount = 50
)

// queryTimeout is the hard per-query wall-clock deadline (§5).
const queryTimeout = 150 * time.Millisecond

// rerankSize controls how many of the BM25-stage top candidates
// enter hybrid reranking: top 1.5*k per §4.5, surfaced here as an
// integer multiplier pair to avoid floating-point k scaling surprises.
func rerankSize(k int) int {
	n := (k*3 + 1) / 2 // ceil(1.5k)
	if n < k {
		n = k
	}
	return n
}

// scorer holds everything needed to score candidates for one query.
type scorer struct {
	store     *index.Store
	bm25Cache *bm25.Cache

	queryText   string
	queryTokens tokenize.Set

	candidateCount int
	docFreq        map[string]int
	avgDocLength   float64
}

func newScorer(store *index.Store, bm25Cache *bm25.Cache, queryText string, queryTokens tokenize.Set, candidates map[int]struct{}) *scorer {
	s := &scorer{
		store:          store,
		bm25Cache:      bm25Cache,
		queryText:      queryText,
		queryTokens:    queryTokens,
		candidateCount: len(candidates),
		avgDocLength:   bm25Cache.AvgDocLength(),
		docFreq:        make(map[string]int, len(queryTokens)),
	}

	for idx := range candidates {
		e, ok := store.EntryAt(idx)
		if !ok {
			continue
		}
		for t := range queryTokens {
			if e.SnippetTokens.Has(t) || e.URITokens.Has(t) || e.SymbolTokens.Has(t) {
				s.docFreq[t]++
			}
		}
	}

	return s
}

func (s *scorer) idf(t string) float64 {
	return bm25.IDF(s.candidateCount, s.docFreq[t])
}

// bm25Score sums the per-token BM25 contribution for one document.
func (s *scorer) bm25Score(termFreqs map[string]int, docLength int) float64 {
	var total float64
	for t := range s.queryTokens {
		total += bm25.Score(termFreqs[t], docLength, s.avgDocLength, s.idf(t))
	}
	return total
}

// scoreEntry returns an entry's snippet-level score.
func (s *scorer) scoreEntry(idx int, e *index.Entry) float64 {
	heuristic := bm25.BaseHeuristicScore(s.queryText, s.queryTokens, bm25.HeuristicInput{
		Symbols:       e.Symbols,
		SymbolTokens:  e.SymbolTokens,
		URITokens:     e.URITokens,
		SnippetTokens: e.SnippetTokens,
		Snippet:       e.Snippet,
	})

	var bmScore float64
	if stats, ok := s.bm25Cache.Get(idx); ok {
		bmScore = s.bm25Score(stats.TermFrequencies, stats.DocLength)
	}

	return bm25.Blend(heuristic, bmScore)
}

// scoreChunk returns one chunk's score, computing its BM25 term
// frequencies on the fly since the shared cache only tracks
// entry-level (snippet) documents.
func (s *scorer) scoreChunk(c index.Chunk) float64 {
	heuristic := bm25.ChunkScore(s.queryText, s.queryTokens, c.Text, c.Tokens)
	bmScore := s.bm25Score(bm25.CountTerms(c.Text), len(c.Text))
	return bm25.Blend(heuristic, bmScore)
}

// collectCandidates runs the BM25-stage scoring loop over every
// candidate entry index, with the lazy-chunk and early-termination
// guardrails (§4.6 step 6), and a hard wall-clock deadline.
func collectCandidates(s *scorer, candidates map[int]struct{}, deadline time.Time) (scored []candidate, timedOut bool, earlyTerminated bool) {
	indices := make([]int, 0, len(candidates))
	for idx := range candidates {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	aboveThreshold := 0

	for i, idx := range indices {
		if i%32 == 0 && time.Now().After(deadline) {
			timedOut = true
			break
		}

		e, ok := s.store.EntryAt(idx)
		if !ok {
			continue
		}

		snippetScore := s.scoreEntry(idx, e)
		scored = append(scored, candidate{entryIndex: idx, chunkIndex: -1, score: snippetScore})
		if snippetScore >= earlyTerminationScore {
			aboveThreshold++
		}

		if snippetScore >= snippetLazyThreshold {
			for ci, c := range e.Chunks {
				chunkScore := s.scoreChunk(c)
				scored = append(scored, candidate{entryIndex: idx, chunkIndex: ci, score: chunkScore})
				if chunkScore >= earlyTerminationScore {
					aboveThreshold++
				}
			}
		}

		if aboveThreshold >= earlyTerminationCount {
			earlyTerminated = true
			break
		}
	}

	return scored, timedOut, earlyTerminated
}

// hybridRerank reranks the top rerankSize(k) candidates by blending
// normalized BM25 scores with cosine similarity to the query
// embedding, substituting an external vector store's score where
// available (§4.5).
func hybridRerank(ctx context.Context, store *index.Store, candidates []candidate, queryEmbedding []float32, vecStore collab.VectorStore, vecMatches map[string]float64) []candidate {
	if len(candidates) == 0 || len(queryEmbedding) == 0 {
		return candidates
	}

	lo, hi := candidates[0].score, candidates[0].score
	for _, c := range candidates {
		if c.score < lo {
			lo = c.score
		}
		if c.score > hi {
			hi = c.score
		}
	}
	spread := hi - lo

	out := make([]candidate, len(candidates))
	for i, c := range candidates {
		normalized := 0.5
		if spread > 0 {
			normalized = (c.score - lo) / spread
		}

		var cos float64
		if vecMatches != nil {
			if v, ok := vecMatches[docID(store, c)]; ok {
				cos = v
			}
		} else {
			cos = cosineFor(store, c, queryEmbedding)
		}

		out[i] = candidate{entryIndex: c.entryIndex, chunkIndex: c.chunkIndex, score: 0.6*normalized + 0.4*cos}
	}
	return out
}

func cosineFor(store *index.Store, c candidate, queryEmbedding []float32) float64 {
	e, ok := store.EntryAt(c.entryIndex)
	if !ok {
		return 0
	}
	if c.isChunk() {
		if c.chunkIndex >= len(e.Chunks) {
			return 0
		}
		return embedding.Cosine(queryEmbedding, e.Chunks[c.chunkIndex].Embedding)
	}
	return embedding.Cosine(queryEmbedding, e.SnippetEmbedding)
}

func docID(store *index.Store, c candidate) string {
	e, ok := store.EntryAt(c.entryIndex)
	if !ok {
		return ""
	}
	if c.isChunk() {
		return e.URI + ":" + strconv.Itoa(c.chunkIndex)
	}
	return e.URI
}

// dedupeByURI keeps only the highest-scoring candidate per entry URI,
// preserving the relative score order (§4.5's final dedup step).
func dedupeByURI(store *index.Store, candidates []candidate) []candidate {
	best := make(map[string]candidate, len(candidates))
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		e, ok := store.EntryAt(c.entryIndex)
		if !ok {
			continue
		}
		existing, seen := best[e.URI]
		if !seen {
			order = append(order, e.URI)
			best[e.URI] = c
			continue
		}
		if c.score > existing.score {
			best[e.URI] = c
		}
	}

	out := make([]candidate, 0, len(order))
	for _, uri := range order {
		out = append(out, best[uri])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}
