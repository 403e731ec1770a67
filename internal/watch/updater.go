package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/codewell/rre/internal/collab"
	"github.com/codewell/rre/internal/persist"
	"github.com/codewell/rre/internal/progressive"
)

// DebounceDelay is the quiet period after the last pending change
// before the updater processes a batch (§4.9).
const DebounceDelay = 3 * time.Second

// DefaultWorkers is the default number of files processed in
// parallel by one debounced flush (§4.9).
const DefaultWorkers = 2

// Updater is the debounced incremental updater (§4.9): it accumulates
// changed-file events, coalesces bursts behind a debounce timer, and
// re-extracts each pending file through the same extraction path the
// progressive indexer uses, reusing the entry's existing store index
// when one exists.
type Updater struct {
	indexer *progressive.Indexer
	root    string
	accept  func(relPath string) bool
	workers int
	onSaved func()

	mu        sync.Mutex
	pending   map[string]bool
	debouncer *persist.Debouncer
}

// NewUpdater builds an Updater that re-indexes through indexer,
// rooted at root. accept filters which relative paths are eligible
// (see AcceptFunc). onSaved, if non-nil, is called after every
// processed batch so the caller can schedule its own debounced save
// (§4.9: "After processing, schedule the debounced save").
func NewUpdater(indexer *progressive.Indexer, root string, accept func(string) bool, workers int, onSaved func()) *Updater {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	u := &Updater{
		indexer: indexer,
		root:    root,
		accept:  accept,
		workers: workers,
		onSaved: onSaved,
		pending: make(map[string]bool),
	}
	u.debouncer = persist.NewDebouncer(DebounceDelay, u.flush)
	return u
}

// Run consumes events until ctx is cancelled or the channel closes,
// then stops the debouncer.
func (u *Updater) Run(ctx context.Context, events <-chan collab.FileEvent) {
	defer u.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			u.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one filesystem event (§4.9). Deletions are
// applied immediately to the store, caches, and the pending set;
// add/update events are coalesced behind the debounce timer.
func (u *Updater) HandleEvent(ev collab.FileEvent) {
	relPath := u.toRelPath(ev.Path)
	if !u.accept(relPath) {
		return
	}

	if ev.Kind == collab.FileDeleted {
		u.mu.Lock()
		delete(u.pending, relPath)
		u.mu.Unlock()

		if i, ok := u.indexer.Store.Lookup(relPath); ok {
			_ = u.indexer.Store.Remove(i)
		}
		if u.onSaved != nil {
			u.onSaved()
		}
		return
	}

	u.mu.Lock()
	u.pending[relPath] = true
	u.mu.Unlock()
	u.debouncer.Trigger()
}

// Stop cancels any pending debounce timer without flushing it.
func (u *Updater) Stop() {
	u.debouncer.Stop()
}

// Flush processes any pending files immediately, bypassing the
// debounce timer (useful for tests and for a clean shutdown path).
func (u *Updater) Flush() {
	u.debouncer.Flush()
}

func (u *Updater) toRelPath(path string) string {
	rel, err := filepath.Rel(u.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (u *Updater) flush() {
	u.mu.Lock()
	files := make([]string, 0, len(u.pending))
	for f := range u.pending {
		files = append(files, f)
	}
	u.pending = make(map[string]bool)
	u.mu.Unlock()

	if len(files) == 0 {
		return
	}

	u.processBatch(context.Background(), files)

	if u.onSaved != nil {
		u.onSaved()
	}
}

// processBatch re-indexes files in parallel, bounded to u.workers
// concurrent extractions (§4.9: "process pending URIs in parallel
// batches (≤ N workers, default 2)").
func (u *Updater) processBatch(ctx context.Context, files []string) {
	sem := make(chan struct{}, u.workers)
	var wg sync.WaitGroup

	for _, relPath := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(relPath string) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := u.indexer.IndexFile(ctx, u.root, relPath); err != nil && u.indexer.Notify != nil {
				u.indexer.Notify.Warn(fmt.Sprintf("watch: %s: %v", relPath, err))
			}
		}(relPath)
	}

	wg.Wait()
}
