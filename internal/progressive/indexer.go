// Package progressive implements the progressive indexer (§4.7): it
// walks a workspace via internal/discovery, assigns per-file
// priorities, and extracts symbols/snippets/chunks/embeddings for
// every discovered file in priority order, respecting a CPU budget
// and a cancellation token throughout.
package progressive

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/codewell/rre/internal/ast"
	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/config"
	"github.com/codewell/rre/internal/discovery"
	"github.com/codewell/rre/internal/embedding"
	"github.com/codewell/rre/internal/extract"
	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/tokenize"
)

// Indexer extracts and stores one file at a time, in priority order,
// honoring the batch pacing and CPU budget of §4.7.
type Indexer struct {
	FS        collab.FileSystem
	AST       collab.AstService // may be nil; defaults.NopEmbeddingService-style callers pass a no-op
	ASTConfig bool              // config.FeatureConfig.AST: whether to consult AST at all
	Embedder  *embedding.Pipeline
	Notify    collab.NotificationService

	Store     *index.Store
	Tokenizer *tokenize.Tokenizer
	Chunking  config.ChunkingConfig
	CPUBudget float64

	// Progress, if set, is called after every file processed during
	// Run with the running count and the total discovered, letting a
	// caller (e.g. a CLI progress bar) track a full indexing pass.
	Progress func(processed, total int)
}

// Stats summarizes one progressive-indexing pass.
type Stats struct {
	// RunID uniquely identifies this pass, for correlating a run's
	// notifications (progress, failures, completion) in a host's logs
	// when several runs (warm, rebuild, future concurrent workspaces)
	// may interleave.
	RunID           string
	FilesDiscovered int
	FilesIndexed    int
	FilesFailed     int
	Cancelled       bool
}

// Run discovers every code/doc file under root, sorts it into
// priority tiers, and processes it in paced batches (§4.7). It
// returns cleanly (Stats.Cancelled = true, nil error) if ctx is
// cancelled at a batch boundary.
func (idx *Indexer) Run(ctx context.Context, root string, paths config.PathsConfig) (Stats, error) {
	disc, err := discovery.New(root, paths.Code, paths.Docs, paths.Ignore)
	if err != nil {
		return Stats{}, fmt.Errorf("progressive: compile patterns: %w", err)
	}

	codeFiles, docFiles, err := disc.Files()
	if err != nil {
		return Stats{}, fmt.Errorf("progressive: discover files: %w", err)
	}

	all := make([]string, 0, len(codeFiles)+len(docFiles))
	all = append(all, codeFiles...)
	all = append(all, docFiles...)

	sorted := Prioritize(all)
	stats := Stats{RunID: uuid.New().String(), FilesDiscovered: len(sorted)}

	throttle := newCPUThrottle(idx.CPUBudget)
	allBatches := batches(sorted)

	processed := 0
	for bi, batch := range allBatches {
		select {
		case <-ctx.Done():
			stats.Cancelled = true
			return stats, nil
		default:
		}

		for _, relPath := range batch {
			processed++
			if processed%YieldEvery == 0 {
				runtime.Gosched()
			}

			start := time.Now()
			if err := idx.IndexFile(ctx, root, relPath); err != nil {
				stats.FilesFailed++
				if idx.Notify != nil {
					idx.Notify.Warn(fmt.Sprintf("progressive[%s]: %s: %v", stats.RunID, relPath, err))
				}
			} else {
				stats.FilesIndexed++
			}
			throttle.recordWork(time.Since(start))
			if idx.Progress != nil {
				idx.Progress(processed, stats.FilesDiscovered)
			}
		}

		if bi < len(allBatches)-1 {
			select {
			case <-ctx.Done():
				stats.Cancelled = true
				return stats, nil
			case <-time.After(BatchDelay):
			}
		}
	}

	return stats, nil
}

// IndexFile reads, extracts, and stores (inserting or updating) a
// single file at root-relative relPath — shared by the progressive
// pass and the incremental file watcher (§4.9: "re-extracting
// symbols/snippets/chunks and updating the entry in place").
func (idx *Indexer) IndexFile(ctx context.Context, root, relPath string) error {
	content, err := idx.FS.ReadFile(ctx, filepath.Join(root, relPath))
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}
	text := string(content)

	entry, err := idx.extractEntry(ctx, relPath, text)
	if err != nil {
		return err
	}
	entry.RecomputeTokens(idx.Tokenizer)

	if idx.Embedder != nil && idx.Embedder.Usable() {
		idx.attachEmbeddings(ctx, entry)
	}

	if i, ok := idx.Store.Lookup(entry.URI); ok {
		return idx.Store.Update(i, entry)
	}
	idx.Store.Insert(entry)
	return nil
}

func (idx *Indexer) extractEntry(ctx context.Context, uri, text string) (*index.Entry, error) {
	overview := extract.IsOverviewDocument(uri)
	fallback := extract.Fallback(text, budgetFor(idx.Chunking, overview))

	chunks := fallbackChunks(fallback.Chunks)
	var symbols []string

	if idx.ASTConfig && idx.AST != nil {
		if language := ast.DetectLanguage(uri); language != "" && idx.AST.IsEnabled(language) {
			if astSymbols, err := idx.AST.ExtractSymbols(ctx, uri, text); err == nil {
				symbols = extract.FlattenSymbols(convertSymbols(astSymbols))
				if astChunks, err := idx.AST.CreateASTChunks(ctx, uri, text, astSymbols); err == nil && len(astChunks) > 0 {
					chunks = convertASTChunks(astChunks)
				}
			} else if idx.Notify != nil {
				idx.Notify.Warn(fmt.Sprintf("progressive: ast extract_symbols failed for %s: %v", uri, err))
			}
		}
	}

	imports := extract.ExtractImports(text)

	return &index.Entry{
		URI:              uri,
		Symbols:          symbols,
		Snippet:          fallback.Snippet,
		SnippetStartLine: fallback.SnippetStartLine,
		SnippetEndLine:   fallback.SnippetEndLine,
		Chunks:           chunks,
		ImportedSymbols:  imports.Symbols,
		ImportedFrom:     imports.From,
	}, nil
}

func (idx *Indexer) attachEmbeddings(ctx context.Context, entry *index.Entry) {
	texts := make([]string, 0, 1+len(entry.Chunks))
	texts = append(texts, entry.Snippet)
	for _, c := range entry.Chunks {
		texts = append(texts, c.Text)
	}

	vectors, err := idx.Embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		if err != nil && idx.Notify != nil {
			idx.Notify.Warn(fmt.Sprintf("progressive: embedding failed for %s: %v", entry.URI, err))
		}
		return
	}

	entry.SnippetEmbedding = vectors[0]
	for i := range entry.Chunks {
		entry.Chunks[i].Embedding = vectors[i+1]
	}
}

func budgetFor(cfg config.ChunkingConfig, overview bool) extract.Budget {
	if overview {
		return extract.Budget{
			SnippetChars: cfg.OverviewSnippetChars,
			ChunkCount:   cfg.OverviewChunkCount,
			ChunkChars:   cfg.OverviewChunkChars,
			OverlapChars: cfg.OverlapChars,
		}
	}
	return extract.Budget{
		SnippetChars: cfg.DefaultSnippetChars,
		ChunkCount:   cfg.DefaultChunkCount,
		ChunkChars:   cfg.DefaultChunkChars,
		OverlapChars: cfg.OverlapChars,
	}
}

func fallbackChunks(in []extract.Chunk) []index.Chunk {
	out := make([]index.Chunk, len(in))
	for i, c := range in {
		out[i] = index.Chunk{Text: c.Text, StartLine: c.StartLine, EndLine: c.EndLine}
	}
	return out
}

func convertASTChunks(in []collab.AstChunk) []index.Chunk {
	out := make([]index.Chunk, len(in))
	for i, c := range in {
		out[i] = index.Chunk{Text: c.Text, StartLine: c.StartLine, EndLine: c.EndLine}
	}
	return out
}

func convertSymbols(in []collab.SymbolNode) []extract.Symbol {
	out := make([]extract.Symbol, len(in))
	for i, s := range in {
		out[i] = extract.Symbol{Name: s.Name, Children: convertSymbols(s.Children)}
	}
	return out
}
