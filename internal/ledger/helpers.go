package ledger

import (
	"encoding/json"
	"fmt"
)

// strPtr returns nil for the empty string so optional columns stay NULL.
func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ensureJSON returns an empty object for nil metadata.
func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}

// mergeMeta overlays extra keys onto a base metadata object.
func mergeMeta(base json.RawMessage, extra map[string]interface{}) json.RawMessage {
	merged := make(map[string]interface{})
	if len(base) > 0 {
		_ = json.Unmarshal(base, &merged)
	}
	for k, v := range extra {
		merged[k] = v
	}
	out, _ := json.Marshal(merged)
	return out
}

// jsonUnmarshal is a helper that wraps json.Unmarshal.
func jsonUnmarshal(data json.RawMessage, v interface{}) error {
	if data == nil {
		return fmt.Errorf("nil json data")
	}
	return json.Unmarshal(data, v)
}

// metaInt64 reads an integer field out of entry metadata; JSON numbers decode
// as float64.
func metaInt64(meta map[string]interface{}, key string) int64 {
	if v, ok := meta[key].(float64); ok {
		return int64(v)
	}
	return 0
}
