package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// decode detects which on-disk shape data is in (§4.8 load step 1)
// and returns a normalized Document, migrated in memory if necessary.
// Recognized shapes:
//   - versioned: {"metadata": {...}, "entries": [...]}
//   - legacy array-only: a bare JSON array of entries, no metadata
//     wrapper at all
func decode(data []byte) (doc Document, migrated bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Document{}, false, fmt.Errorf("persist: empty index file")
	}

	if trimmed[0] == '[' {
		var entries []EntryDoc
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return Document{}, false, fmt.Errorf("persist: legacy array format: %w", err)
		}
		return Document{
			Metadata: MetadataDoc{Version: "", FileCount: len(entries)},
			Entries:  entries,
		}, true, nil
	}

	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, false, fmt.Errorf("persist: versioned format: %w", err)
	}
	return doc, false, nil
}
