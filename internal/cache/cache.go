// Package cache defines the tiered-cache contracts for serialized feature
// collections.
package cache

import (
	"context"
	"errors"
	"time"
)

// Tier names where a payload was found or stored.
type Tier string

const (
	TierNone   Tier = ""
	TierMemory Tier = "memory"
	TierFile   Tier = "file"
	TierBoth   Tier = "both"
)

// ErrClearUnsupported is returned by memory backends that cannot enumerate
// their keys. Selective memory-tier clearing is a documented limitation of
// the LRU backend; entries age out via TTL instead.
var ErrClearUnsupported = errors.New("cache: selective clear not supported by this backend")

// MemoryStore is the fast tier: an opaque thread-safe key-value store with
// per-entry expiry. Implementations must be safe for concurrent use.
type MemoryStore interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	ClearPrefix(ctx context.Context, prefix string) error
}
