package models

import (
	"encoding/json"
	"time"
)

// CacheEntry is one timestamped snapshot of a suggestion result.
// Entries are never mutated after they are stored; a new result is a new entry.
type CacheEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	Context   SuggestionContext `json:"contextKey"`
	Payload   json.RawMessage   `json:"payload"`
}

// Clone returns a copy that shares no memory with e.
func (e CacheEntry) Clone() CacheEntry {
	out := e
	out.Context = e.Context.Clone()
	if e.Payload != nil {
		out.Payload = append(json.RawMessage(nil), e.Payload...)
	}
	return out
}

// CacheStats reports cache performance metrics.
type CacheStats struct {
	Entries    int64 `json:"entries"`
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Recoveries int64 `json:"recoveries"`
}
