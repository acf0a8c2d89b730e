package model

import (
	"bytes"
	"encoding/json"
)

// mergeSeen makes the struct encoding match the originally decoded object.
// Keys from the input that the encoding dropped come back: unknown keys
// always, known keys only when they carried a zero value (omitempty drops
// those). Known keys the input did not have are removed when the encoding
// filled them with a zero value.
func mergeSeen(encoded []byte, seen map[string]json.RawMessage, known map[string]bool) ([]byte, error) {
	if seen == nil {
		return encoded, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, err
	}
	for k, raw := range out {
		if _, ok := seen[k]; !ok && known[k] && isZeroJSON(raw) {
			delete(out, k)
		}
	}
	for k, raw := range seen {
		if _, ok := out[k]; ok {
			continue
		}
		if known[k] && !isZeroJSON(raw) {
			continue
		}
		out[k] = raw
	}
	return json.Marshal(out)
}

func splitSeen(data []byte) (map[string]json.RawMessage, error) {
	var seen map[string]json.RawMessage
	if err := json.Unmarshal(data, &seen); err != nil {
		return nil, err
	}
	return seen, nil
}

func isZeroJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "null", "false", "0", `""`, "[]", "{}":
		return true
	}
	return false
}

func keySet(keys ...string) map[string]bool {
	s := make(map[string]bool, len(keys))
	for _, k := range keys {
		s[k] = true
	}
	return s
}
