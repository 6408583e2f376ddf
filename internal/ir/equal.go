package ir

import (
	"bytes"
	"encoding/json"
)

// DeepEqualJSON compares two values by their canonical JSON encoding.
// Both sides are round-tripped through encoding/json first so that typed
// structs, freshly-built maps, and values read back from a persisted
// document (where every number is a float64) compare equal when they
// encode to the same document.
func DeepEqualJSON(a, b any) bool {
	ca, err := canonicalJSON(a)
	if err != nil {
		return false
	}
	cb, err := canonicalJSON(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var norm any
	if err := json.Unmarshal(raw, &norm); err != nil {
		return nil, err
	}
	return json.Marshal(norm)
}
