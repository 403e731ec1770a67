// Package persist implements the versioned JSON on-disk format (§4.8):
// load (with legacy-format migration, chunked streaming, and inverted
// index rebuild) and a debounced save.
package persist

// Document is the root on-disk structure for one workspace's index.
type Document struct {
	Metadata MetadataDoc `json:"metadata"`
	Entries  []EntryDoc  `json:"entries"`
}

// MetadataDoc mirrors index.Metadata's on-disk shape.
type MetadataDoc struct {
	Version      string  `json:"version"`
	FileCount    int     `json:"file_count"`
	LastUpdated  int64   `json:"last_updated"` // unix milliseconds
	Corrupted    bool    `json:"corrupted,omitempty"`
	NeedsRebuild bool    `json:"needs_rebuild,omitempty"`
	TotalSizeMB  float64 `json:"total_size,omitempty"`
}

// ChunkDoc mirrors index.Chunk's on-disk shape.
type ChunkDoc struct {
	Text      string     `json:"text"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`
	Tokens    TokenField `json:"tokens,omitempty"`
	Embedding []float32  `json:"embedding,omitempty"`
}

// EntryDoc mirrors index.Entry's on-disk shape. Undefined/empty
// fields are omitted for compactness, per §4.8.
type EntryDoc struct {
	URI string `json:"uri"`

	Symbols []string `json:"symbols,omitempty"`

	Snippet          string `json:"snippet,omitempty"`
	SnippetStartLine int    `json:"snippet_start_line,omitempty"`
	SnippetEndLine   int    `json:"snippet_end_line,omitempty"`

	Chunks []ChunkDoc `json:"chunks,omitempty"`

	SnippetTokens TokenField `json:"snippet_tokens,omitempty"`
	URITokens     TokenField `json:"uri_tokens,omitempty"`
	SymbolTokens  TokenField `json:"symbol_tokens,omitempty"`

	ImportedSymbols []string `json:"imported_symbols,omitempty"`
	ImportedFrom    []string `json:"imported_from,omitempty"`

	SnippetEmbedding []float32 `json:"snippet_embedding,omitempty"`
}
