package entity

import "time"

// CacheKind partitions cache entries by what they memoize.
type CacheKind string

const (
	CacheKindAll          CacheKind = "all" // selector only, never stored
	CacheKindMetadata     CacheKind = "metadata"
	CacheKindChangeSignal CacheKind = "change_signal"
	CacheKindTranscript   CacheKind = "transcript"
)

// CacheEntry is one memoized computation result.
type CacheEntry struct {
	Identity    VideoIdentity
	Kind        CacheKind
	Fingerprint string
	Payload     []byte
	CreatedAt   time.Time
}

// ClearedEntry reports one video's removals from clear_cache.
type ClearedEntry struct {
	Filename   string      `json:"filename"`
	Kinds      []CacheKind `json:"types"`
	FreedBytes int64       `json:"freed_bytes"`
}
