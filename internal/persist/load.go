package persist

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/codewell/rre/internal/index"
)

// chunkSize is the number of entries decoded per yield point (§4.8:
// "Load entries in 1000-entry chunks, yielding between chunks").
const chunkSize = 1000

// Result is the outcome of a Load call.
type Result struct {
	Entries      []*index.Entry
	Metadata     index.Metadata
	NeedsRebuild bool
	Migrated     bool // true if the on-disk format was legacy and should be rewritten
}

// Load reads and parses the index file at path (§4.8's load path).
// A missing file is reported via os.IsNotExist on the returned error,
// distinguishing "nothing persisted yet" from actual corruption. A
// malformed-but-present file is never an error: it is reported as
// corrupted metadata with NeedsRebuild set, per §7's "malformed
// on-disk index is treated as corruption, not a fatal error".
func Load(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, migrated, err := decode(data)
	if err != nil {
		return &Result{
			Metadata: index.Metadata{
				Version:      index.CurrentVersion,
				Corrupted:    true,
				NeedsRebuild: true,
			},
			NeedsRebuild: true,
		}, nil
	}

	metadata := metadataFromDoc(doc.Metadata)
	needsRebuild := migrated || metadata.Version != index.CurrentVersion || metadata.NeedsRebuild

	entries := make([]*index.Entry, 0, len(doc.Entries))
	for i, ed := range doc.Entries {
		if i > 0 && i%chunkSize == 0 {
			runtime.Gosched()
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("persist: load cancelled: %w", ctx.Err())
			default:
			}
		}
		entries = append(entries, entryFromDoc(ed))
	}

	if needsRebuild {
		metadata.NeedsRebuild = true
	}
	metadata.Version = index.CurrentVersion

	return &Result{
		Entries:      entries,
		Metadata:     metadata,
		NeedsRebuild: needsRebuild,
		Migrated:     migrated,
	}, nil
}
