// Package query implements the query front-end and BM25/hybrid ranker
// (§4.5, §4.6): candidate selection, scoring with lazy chunk
// evaluation and early termination, optional hybrid vector-store
// reranking, top-k extraction, and result formatting.
package query

// Options configures a single Query call. K is taken literally: K=0 is
// the documented boundary case (an empty result list, zero top
// score), not "use the default" — callers that want DefaultK must set
// it themselves before calling Query.
type Options struct {
	K int
}

// DefaultK is the k a caller should use when none was specified by
// its own caller (e.g. a CLI flag default).
const DefaultK = 5

// Metrics reports what happened during one query (§4.6).
type Metrics struct {
	RetrievalLatencyMs float64
	TokensInjected     int
	ResultsCount       int
	TopScore           float64
	TimedOut           bool
	EarlyTerminated    bool
	EmbeddingLatencyMs float64
	HybridSearchUsed   bool
}

// Response is the canonical query_with_metrics return value.
type Response struct {
	Results []string
	Metrics Metrics
}

// candidate is one scoreable unit: either an entry's snippet
// (ChunkIndex -1) or one of its chunks.
type candidate struct {
	entryIndex int
	chunkIndex int // -1 for the entry's snippet
	score      float64
}

func (c candidate) isChunk() bool { return c.chunkIndex >= 0 }
