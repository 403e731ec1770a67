// Package engine assembles every internal package into the public
// Repository Retrieval Engine API (§6): warm_index, query,
// query_with_metrics, rebuild_index. It is the single place that
// wires collaborators and owns the shared index/cache state.
// WarmIndex and RebuildIndex are serialized by one mutex; the file
// watcher's incremental updates run on the updater's own goroutines
// and rely on index.Store's internal lock.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codewell/rre/internal/bm25"
	"github.com/codewell/rre/internal/branchcache"
	"github.com/codewell/rre/internal/config"
	"github.com/codewell/rre/internal/graph"
	"github.com/codewell/rre/internal/embedding"
	"github.com/codewell/rre/internal/index"
	"github.com/codewell/rre/internal/persist"
	"github.com/codewell/rre/internal/progressive"
	"github.com/codewell/rre/internal/query"
	"github.com/codewell/rre/internal/tokenize"
	"github.com/codewell/rre/internal/vectorstore"
	"github.com/codewell/rre/internal/watch"
)

// indexFileName is the primary on-disk snapshot, relative to the
// workspace's .rre directory (§4.8).
const indexFileName = "index.json"

// Engine is the assembled retrieval engine. Exactly one controlling
// goroutine is expected to call its mutating methods (WarmIndex,
// RebuildIndex, and the file-watch path started by WarmIndex); Query
// and QueryWithMetrics are safe to call concurrently with each other
// and with an in-flight mutation, per §5's ordering guarantees.
type Engine struct {
	cfg  *config.Config
	deps Dependencies

	tokenizer *tokenize.Tokenizer
	store     *index.Store
	bm25Cache *bm25.Cache
	caches    *query.Caches
	embedder  *embedding.Pipeline

	frontendMu sync.RWMutex // guards frontend, swapped wholesale by RebuildIndex (mirrors vectorstore.ChromemStore's own collection swap)
	frontend   *query.Frontend

	graph    *graph.Graph
	branches *branchcache.Cache

	indexer *progressive.Indexer
	updater *watch.Updater

	mu            sync.Mutex // serializes WarmIndex/RebuildIndex against each other
	root          string
	indexPath     string
	persistDebounce *persist.Debouncer
	watchCancel   context.CancelFunc
	memStop       chan struct{}
	haltedFlag    int32 // read/written via sync/atomic, see memory.go
}

// New assembles an Engine from cfg and deps. Every optional
// collaborator left nil in deps gets a standalone-usable default
// (§6: "the engine is usable standalone").
func New(cfg *config.Config, deps Dependencies) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	deps.setDefaults()

	tok, err := tokenize.New(tokenize.DefaultCacheSize)
	if err != nil {
		tok, _ = tokenize.New(0)
	}
	store := index.New(tok)
	bm25Cache := bm25.NewCache()
	caches, err := query.NewCaches()
	if err != nil {
		caches = nil
	}
	embedder := embedding.NewPipeline(deps.Embedding, deps.Privacy, deps.Secrets)
	frontend := query.NewFrontend(store, bm25Cache, tok, embedder, deps.VecStore, caches, nil)

	idx := &progressive.Indexer{
		FS:        deps.FS,
		AST:       deps.AST,
		ASTConfig: cfg.Index.AST,
		Embedder:  embedder,
		Notify:    deps.Notify,
		Store:     store,
		Tokenizer: tok,
		Chunking:  cfg.Chunking,
		CPUBudget: cfg.Indexer.CPUBudget,
		Progress:  deps.OnIndexProgress,
	}

	e := &Engine{
		cfg:       cfg,
		deps:      deps,
		tokenizer: tok,
		store:     store,
		bm25Cache: bm25Cache,
		caches:    caches,
		embedder:  embedder,
		frontend:  frontend,
		graph:     graph.New(),
		indexer:   idx,
	}
	return e
}

// WarmIndex implements §6's warm_index: lazily load the on-disk index
// if present and current, restoring from the branch snapshot cache
// when it is newer, otherwise enqueue a full progressive index. It
// also starts the incremental file watcher. Idempotent: once a call
// has completed for a root, a further call with the same root returns
// nil without reloading the index or starting another watcher.
func (e *Engine) WarmIndex(ctx context.Context, root string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.root == root && e.memStop != nil {
		return nil
	}

	e.root = root
	e.indexPath = filepath.Join(root, ".rre", indexFileName)
	cacheRoot := e.deps.CacheRoot
	if cacheRoot == "" {
		cacheRoot = filepath.Join(root, ".rre", "branches")
	}
	e.branches = branchcache.New(cacheRoot, e.deps.Git)
	e.persistDebounce = persist.NewDebouncer(persist.SaveDelay, e.save)

	loaded, err := e.loadPrimaryOrSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("engine: warm index: %w", err)
	}

	if !loaded {
		stats, err := e.indexer.Run(ctx, root, e.cfg.Paths)
		if err != nil {
			return fmt.Errorf("engine: progressive index: %w", err)
		}
		if e.deps.Notify != nil {
			e.deps.Notify.Info(fmt.Sprintf("engine: warm index run %s complete (%d indexed, %d failed, cancelled=%v)",
				stats.RunID, stats.FilesIndexed, stats.FilesFailed, stats.Cancelled))
		}
		e.afterRebuild()
		e.persistDebounce.Trigger()
	}

	if err := e.startWatch(ctx); err != nil && e.deps.Notify != nil {
		e.deps.Notify.Warn(fmt.Sprintf("engine: file watch unavailable: %v", err))
	}
	e.startMemoryMonitor()

	return nil
}

// loadPrimaryOrSnapshot tries the primary JSON file first, then the
// branch snapshot cache if it is newer or the primary is absent
// (§3's "(added) Branch-aware snapshot cache").
func (e *Engine) loadPrimaryOrSnapshot(ctx context.Context) (bool, error) {
	primaryInfo, primaryErr := os.Stat(e.indexPath)

	var snapshotData []byte
	var snapshotAt time.Time
	var haveSnapshot bool
	if e.branches != nil {
		data, at, ok, err := e.branches.Restore(e.root)
		if err == nil && ok {
			snapshotData, snapshotAt, haveSnapshot = data, at, true
		}
	}

	useSnapshot := haveSnapshot && (primaryErr != nil || snapshotAt.After(primaryInfo.ModTime()))
	if useSnapshot {
		if ok, err := e.loadBytes(ctx, snapshotData); ok {
			return true, err
		}
		// Fall through to the primary file if the snapshot is corrupt.
	}

	if primaryErr != nil {
		// No primary snapshot: fall back to the pre-`.rre/`-subdirectory
		// legacy location (§4.8 load step 1's "(c) alternate legacy
		// path under the workspace itself") before giving up and
		// enqueuing a full progressive index.
		if legacyData, err := os.ReadFile(persist.LegacyIndexPath(e.root)); err == nil {
			if ok, err := e.loadBytes(ctx, legacyData); ok {
				e.migrateLegacyIndex()
				return true, err
			}
		}
		return false, nil
	}
	data, err := os.ReadFile(e.indexPath)
	if err != nil {
		return false, nil
	}
	return e.loadBytes(ctx, data)
}

// migrateLegacyIndex rewrites the just-loaded legacy-path index at the
// current primary location and removes the legacy file, completing the
// "migrate inline and rewrite" step for load shape (c). Best-effort:
// if the legacy file can't be removed, the next warm-up load simply
// finds the (now also valid) primary file first and never looks at it
// again.
func (e *Engine) migrateLegacyIndex() {
	if e.persistDebounce != nil {
		e.persistDebounce.Flush()
	}
	_ = os.Remove(persist.LegacyIndexPath(e.root))
	if e.deps.Notify != nil {
		e.deps.Notify.Info("engine: migrated legacy index file to " + e.indexPath)
	}
}

// loadBytes decodes and installs an in-memory snapshot from raw JSON
// bytes, returning false (not an error) if the bytes are unusable so
// the caller falls back to progressive indexing.
func (e *Engine) loadBytes(ctx context.Context, data []byte) (bool, error) {
	tmp, err := os.CreateTemp("", "rre-snapshot-*.json")
	if err != nil {
		return false, nil
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, nil
	}
	tmp.Close()

	result, err := persist.Load(ctx, tmp.Name())
	if err != nil || result == nil {
		return false, nil
	}
	if result.Metadata.Corrupted || result.NeedsRebuild {
		return false, nil
	}

	for _, entry := range result.Entries {
		if entry == nil {
			continue
		}
		entry.RecomputeTokens(e.tokenizer)
		idx := e.store.Insert(entry)
		e.bm25Cache.Upsert(idx, entry.Snippet)
	}
	e.store.SetMetadata(result.Metadata)
	e.afterRebuild()
	return true, nil
}

// RebuildIndex implements §6's rebuild_index: a from-scratch full
// rebuild, emitting start/complete notifications.
func (e *Engine) RebuildIndex(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deps.Notify != nil {
		e.deps.Notify.Info("engine: rebuild starting")
	}

	fresh := index.New(e.tokenizer)
	e.indexer.Store = fresh
	e.bm25Cache = bm25.NewCache()

	stats, err := e.indexer.Run(ctx, e.root, e.cfg.Paths)
	if err != nil {
		if e.deps.Notify != nil {
			e.deps.Notify.Warn(fmt.Sprintf("engine: rebuild failed: %v", err))
		}
		return fmt.Errorf("engine: rebuild: %w", err)
	}

	e.store = fresh
	for _, ie := range fresh.Entries() {
		e.bm25Cache.Upsert(ie.Index, ie.Entry.Snippet)
	}
	e.setFrontend(query.NewFrontend(e.store, e.bm25Cache, e.tokenizer, e.embedder, e.deps.VecStore, e.caches, nil))
	atomic.StoreInt32(&e.haltedFlag, 0)
	e.afterRebuild()
	if e.persistDebounce != nil {
		e.persistDebounce.Trigger()
	}

	if e.deps.Notify != nil {
		e.deps.Notify.Info(fmt.Sprintf("engine: rebuild run %s complete (%d indexed, %d failed, cancelled=%v)",
			stats.RunID, stats.FilesIndexed, stats.FilesFailed, stats.Cancelled))
	}
	return nil
}

// afterRebuild refreshes every derived view of the store (relationship
// graph, external vector store, self-disable breaker) after a bulk
// change to its contents.
func (e *Engine) afterRebuild() {
	e.graph.Build(e.store)
	e.loadVectorStore(context.Background())
	e.currentFrontend().ResetSelfDisable()
}

// loadVectorStore pushes every entry's snippet/chunk embeddings into
// the external vector store, when one is wired and supports bulk
// loading (the default chromem-go store does).
func (e *Engine) loadVectorStore(ctx context.Context) {
	loader, ok := e.deps.VecStore.(vectorStoreLoader)
	if !ok {
		return
	}

	entries := e.store.Entries()
	docs := make([]vectorstore.VectorDocument, 0, len(entries))
	for _, ie := range entries {
		if len(ie.Entry.SnippetEmbedding) > 0 {
			docs = append(docs, vectorstore.VectorDocument{
				ID:        ie.Entry.URI,
				Text:      ie.Entry.Snippet,
				Embedding: ie.Entry.SnippetEmbedding,
			})
		}
		for ci, c := range ie.Entry.Chunks {
			if len(c.Embedding) == 0 {
				continue
			}
			docs = append(docs, vectorstore.VectorDocument{
				ID:        fmt.Sprintf("%s:%d", ie.Entry.URI, ci),
				Text:      c.Text,
				Embedding: c.Embedding,
			})
		}
	}
	if len(docs) == 0 {
		return
	}
	if err := loader.Load(ctx, docs); err != nil && e.deps.Notify != nil {
		e.deps.Notify.Warn(fmt.Sprintf("engine: vector store load failed: %v", err))
	}
}

// startWatch starts the fsnotify-backed incremental updater rooted at
// e.root (§4.9). Returns an error only if the watch could not be
// established at all; a file-watch failure never fails WarmIndex.
func (e *Engine) startWatch(ctx context.Context) error {
	baseAccept, err := watch.AcceptFunc(e.cfg.Paths)
	if err != nil {
		return fmt.Errorf("compile accept patterns: %w", err)
	}
	// Wrap the base filter so a hard memory-pressure halt (§5.5) also
	// stops the incremental updater from doing any further work until
	// the next rebuild clears it.
	accept := func(relPath string) bool {
		return !e.halted() && baseAccept(relPath)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := e.deps.FS.Watch(watchCtx, e.root, e.cfg.Paths.Ignore)
	if err != nil {
		cancel()
		return fmt.Errorf("start watch: %w", err)
	}
	e.watchCancel = cancel

	e.updater = watch.NewUpdater(e.indexer, e.root, accept, e.cfg.Indexer.Parallelism, e.onIncrementalChange)
	go e.updater.Run(watchCtx, events)
	return nil
}

// onIncrementalChange is the updater's onSaved callback (§4.9: "After
// processing, schedule the debounced save"). The watcher mutates
// e.store directly (inserts/updates/removes by index), so the bm25
// corpus statistics are rebuilt wholesale here to stay in sync — the
// same cost class as the graph and vector-store refreshes already done
// on this path, and simpler than threading per-file upsert/remove
// calls through watch.Updater.
func (e *Engine) onIncrementalChange() {
	fresh := bm25.NewCache()
	for _, ie := range e.store.Entries() {
		fresh.Upsert(ie.Index, ie.Entry.Snippet)
	}
	e.bm25Cache = fresh
	// Swap in a copy of the live frontend carrying the new BM25Cache,
	// for the same race-safety reason RebuildIndex swaps it (§5), but
	// keeping the same breaker so routine edits don't clear it.
	e.setFrontend(e.currentFrontend().WithBM25Cache(fresh))

	e.graph.Build(e.store)
	e.loadVectorStore(context.Background())
	if e.persistDebounce != nil {
		e.persistDebounce.Trigger()
	}
}

// save flushes the current store contents to the primary JSON file
// and the current branch's snapshot cache (§4.8, "(added)" branch
// cache).
func (e *Engine) save() {
	entries := make([]*index.Entry, 0)
	for _, ie := range e.store.Entries() {
		entries = append(entries, ie.Entry)
	}
	metadata := e.store.Metadata()

	if err := persist.Save(e.indexPath, entries, metadata); err != nil {
		if e.deps.Notify != nil {
			e.deps.Notify.Warn(fmt.Sprintf("engine: save failed: %v", err))
		}
		return
	}

	if e.branches != nil {
		if data, err := os.ReadFile(e.indexPath); err == nil {
			_ = e.branches.Save(e.root, data)
		}
	}
}

// Query implements §6's query: a convenience wrapper over
// QueryWithMetrics that discards the metrics.
func (e *Engine) Query(ctx context.Context, text string, k int) []string {
	return e.QueryWithMetrics(ctx, text, k).Results
}

// QueryWithMetrics implements §6's query_with_metrics: the canonical
// retrieval call.
func (e *Engine) QueryWithMetrics(ctx context.Context, text string, k int) query.Response {
	return e.currentFrontend().Query(ctx, text, query.Options{K: k})
}

// Shutdown stops the background file watcher and memory monitor and
// flushes any pending debounced save. Safe to call even if WarmIndex
// was never called.
func (e *Engine) Shutdown() {
	if e.watchCancel != nil {
		e.watchCancel()
	}
	if e.updater != nil {
		e.updater.Stop()
	}
	e.stopMemoryMonitor()
	if e.persistDebounce != nil {
		e.persistDebounce.Flush()
	}
}

// setFrontend swaps the active frontend under the write lock.
func (e *Engine) setFrontend(f *query.Frontend) {
	e.frontendMu.Lock()
	e.frontend = f
	e.frontendMu.Unlock()
}

// currentFrontend returns the active frontend under the read lock.
func (e *Engine) currentFrontend() *query.Frontend {
	e.frontendMu.RLock()
	defer e.frontendMu.RUnlock()
	return e.frontend
}

// notify is a nil-safe convenience used by the memory monitor.
func (e *Engine) notify(msg string) {
	if e.deps.Notify != nil {
		e.deps.Notify.Warn(msg)
	}
}
