package elevenlabs

import (
	"bytes"
	"encoding/json"
)

// Envelope keys the list endpoint has been observed to use, in lookup order.
var listEnvelopeKeys = []string{"knowledge_bases", "items", "documents", "data"}

// Envelope keys used by the dependent-agents endpoint.
var dependentsEnvelopeKeys = []string{"agents", "dependent_agents", "agent_list"}

// TryExtractArray returns the first array found under keys (in order) when body is
// an object, the body itself when it is a bare array, and nil otherwise.
func TryExtractArray(body []byte, keys ...string) []json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil
		}
		for _, key := range keys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err == nil && items != nil {
				return items
			}
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil {
			return items
		}
	}
	return nil
}

// ExtractArray decodes the array located by TryExtractArray into []T, keeping
// server order. Elements that do not decode into T are skipped; an unknown shape
// yields an empty, non-nil slice.
func ExtractArray[T any](body []byte, keys ...string) []T {
	items := TryExtractArray(body, keys...)
	out := make([]T, 0, len(items))
	for _, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
