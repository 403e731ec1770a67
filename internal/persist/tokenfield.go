package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// TokenField is a token set's on-disk representation. The current
// format always writes it as a JSON array; §9's documented legacy
// tolerance means the reader must also accept a JSON object (keys
// only, values ignored) for files written by an older format.
type TokenField []string

// UnmarshalJSON accepts either shape and normalizes to a plain slice.
func (t *TokenField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	switch data[0] {
	case '[':
		var arr []string
		if err := json.Unmarshal(data, &arr); err != nil {
			return fmt.Errorf("persist: token field array: %w", err)
		}
		*t = arr
		return nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("persist: token field object: %w", err)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		*t = keys
		return nil
	default:
		return fmt.Errorf("persist: token field has unexpected JSON kind %q", data[0])
	}
}
