// Package index implements the multi-index store (§3, §4.2): the
// in-memory inverted-index postings, the path index, and the
// IndexEntry/Chunk/Metadata data model they are built over.
package index

import (
	"time"

	"github.com/codewell/rre/internal/tokenize"
)

// Chunk is a contiguous character- or AST-bounded region of a file,
// with its line range and its own token/embedding annotation (§3).
type Chunk struct {
	Text      string
	StartLine int // 1-based
	EndLine   int // 1-based
	Tokens    tokenize.Set
	Embedding []float32 // optional; same dimension as Entry.SnippetEmbedding
}

// Entry is one indexed file's record (§3's IndexEntry).
type Entry struct {
	URI string // opaque; canonical form is lower-cased when used as a lookup key

	Symbols []string // ordered list of declared identifier strings

	Snippet          string
	SnippetStartLine int // 1-based
	SnippetEndLine   int // 1-based

	Chunks []Chunk // Chunks[i].Embedding corresponds 1:1 with ChunkEmbeddings[i] conceptually; embeddings live on the chunk itself

	// Pre-computed token sets. Invariant: whenever Snippet, URI, or
	// Symbols changes, these are rebuilt via RecomputeTokens.
	SnippetTokens tokenize.Set
	URITokens     tokenize.Set
	SymbolTokens  tokenize.Set

	ImportedSymbols []string // optional relationship list
	ImportedFrom    []string // optional relationship list

	SnippetEmbedding []float32 // optional
}

// RecomputeTokens rebuilds the entry's pre-computed token sets from
// its current Snippet/URI/Symbols fields, and the token set of every
// chunk from its text. Callers must invoke this after mutating any of
// those fields (§3 invariant 2).
func (e *Entry) RecomputeTokens(tok *tokenize.Tokenizer) {
	e.SnippetTokens = tok.Tokenize(e.Snippet)
	e.URITokens = tok.Tokenize(e.URI)

	symTokens := make([]tokenize.Set, 0, len(e.Symbols))
	for _, s := range e.Symbols {
		symTokens = append(symTokens, tok.Tokenize(s))
	}
	e.SymbolTokens = tokenize.Union(symTokens...)

	for i := range e.Chunks {
		e.Chunks[i].Tokens = tok.Tokenize(e.Chunks[i].Text)
	}
}

// Metadata describes the state of the index as a whole (§3's IndexMetadata).
type Metadata struct {
	Version      string
	FileCount    int
	LastUpdated  time.Time
	Corrupted    bool
	NeedsRebuild bool
	TotalSizeMB  float64 // optional; zero means unset
}

// CurrentVersion is the on-disk format version this engine writes (§4.8, §6).
const CurrentVersion = "1.0.0"
