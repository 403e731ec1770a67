package persist

import (
	"time"

	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

func entryFromDoc(d EntryDoc) *index.Entry {
	e := &index.Entry{
		URI:              d.URI,
		Symbols:          d.Symbols,
		Snippet:          d.Snippet,
		SnippetStartLine: d.SnippetStartLine,
		SnippetEndLine:   d.SnippetEndLine,
		ImportedSymbols:  d.ImportedSymbols,
		ImportedFrom:     d.ImportedFrom,
		SnippetEmbedding: d.SnippetEmbedding,
		SnippetTokens:    tokenSetFrom(d.SnippetTokens),
		URITokens:        tokenSetFrom(d.URITokens),
		SymbolTokens:     tokenSetFrom(d.SymbolTokens),
	}

	for _, c := range d.Chunks {
		e.Chunks = append(e.Chunks, index.Chunk{
			Text:      c.Text,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Tokens:    tokenSetFrom(c.Tokens),
			Embedding: c.Embedding,
		})
	}

	return e
}

func docFromEntry(e *index.Entry) EntryDoc {
	d := EntryDoc{
		URI:              e.URI,
		Symbols:          e.Symbols,
		Snippet:          e.Snippet,
		SnippetStartLine: e.SnippetStartLine,
		SnippetEndLine:   e.SnippetEndLine,
		ImportedSymbols:  e.ImportedSymbols,
		ImportedFrom:     e.ImportedFrom,
		SnippetEmbedding: e.SnippetEmbedding,
		SnippetTokens:    TokenField(e.SnippetTokens.Slice()),
		URITokens:        TokenField(e.URITokens.Slice()),
		SymbolTokens:     TokenField(e.SymbolTokens.Slice()),
	}

	for _, c := range e.Chunks {
		d.Chunks = append(d.Chunks, ChunkDoc{
			Text:      c.Text,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Tokens:    TokenField(c.Tokens.Slice()),
			Embedding: c.Embedding,
		})
	}

	return d
}

// tokenSetFrom returns nil (not an empty set) for an empty field, so
// Store.RebuildAll's "recompute if missing" check works correctly.
func tokenSetFrom(f TokenField) tokenize.Set {
	if len(f) == 0 {
		return nil
	}
	return tokenize.NewSet(f)
}

func metadataFromDoc(d MetadataDoc) index.Metadata {
	return index.Metadata{
		Version:      d.Version,
		FileCount:    d.FileCount,
		LastUpdated:  time.UnixMilli(d.LastUpdated),
		Corrupted:    d.Corrupted,
		NeedsRebuild: d.NeedsRebuild,
		TotalSizeMB:  d.TotalSizeMB,
	}
}

func docFromMetadata(m index.Metadata) MetadataDoc {
	return MetadataDoc{
		Version:      m.Version,
		FileCount:    m.FileCount,
		LastUpdated:  m.LastUpdated.UnixMilli(),
		Corrupted:    m.Corrupted,
		NeedsRebuild: m.NeedsRebuild,
		TotalSizeMB:  m.TotalSizeMB,
	}
}
