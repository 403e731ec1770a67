package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codewell/rre/internal/index"
)

// SaveDelay is the debounce period after the last mutation before a
// save is flushed to disk (§4.8: "debounced ~5s after last mutation").
const SaveDelay = 5 * time.Second

// legacyIndexFileName is where an older version of this engine wrote
// its index directly under the workspace root, before the `.rre/`
// subdirectory convention (§4.8 load step 1's "(c) alternate legacy
// path under the workspace itself").
const legacyIndexFileName = ".rre-index.json"

// LegacyIndexPath returns the pre-`.rre/`-subdirectory location of the
// index file for a workspace rooted at root, checked as a fallback
// when neither the primary file nor a branch snapshot is available.
func LegacyIndexPath(root string) string {
	return filepath.Join(root, legacyIndexFileName)
}

// Save writes the whole index file at path, creating its parent
// directory if needed, and stamps the metadata's LastUpdated (§4.8's
// save path).
func Save(path string, entries []*index.Entry, metadata index.Metadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("persist: create parent directory: %w", err)
	}

	metadata.LastUpdated = time.Now()
	metadata.FileCount = len(entries)
	metadata.Version = index.CurrentVersion

	doc := Document{
		Metadata: docFromMetadata(metadata),
		Entries:  make([]EntryDoc, 0, len(entries)),
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		doc.Entries = append(doc.Entries, docFromEntry(e))
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("persist: marshal index: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("persist: write index file: %w", err)
	}
	return nil
}

// Debouncer schedules a Save call to run SaveDelay after the most
// recent call to Trigger, collapsing bursts of mutations into one
// write (§4.8, grounded on the teacher's debounce-timer pattern for
// file-watch events).
type Debouncer struct {
	mu     sync.Mutex
	timer  *time.Timer
	delay  time.Duration
	fn     func()
	closed bool
}

// NewDebouncer creates a Debouncer that calls fn after delay of
// quiet time following the last Trigger call.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the debounce window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending timer and prevents future triggers from
// scheduling a new one.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Flush cancels any pending timer and runs fn synchronously now, for
// dispose-time "flush a final save synchronously" semantics (§9).
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	fn := d.fn
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
