// Package tiered layers the memory store over the file store. Reads go
// memory first; file hits are promoted back into memory so repeated
// lookups stay cheap after a restart or eviction.
package tiered

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openmaps/shptiles/internal/cache"
	"github.com/openmaps/shptiles/internal/cache/filestore"
	"github.com/openmaps/shptiles/internal/core/observability"
)

// MemoryLimit caps the payload size admitted to the memory tier. Larger
// payloads are served from disk only.
const MemoryLimit = 10 << 20

type Cache struct {
	mem    cache.MemoryStore
	files  *filestore.Store
	logger *slog.Logger
}

func New(mem cache.MemoryStore, files *filestore.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{mem: mem, files: files, logger: logger}
}

// Get looks the key up memory first, then on disk. A file hit is written
// back to memory with promoteTTL so the next lookup stays in process.
// The returned tier names where the payload was found, TierNone on miss.
func (c *Cache) Get(ctx context.Context, key string, promoteTTL time.Duration) ([]byte, cache.Tier) {
	if b, ok := c.mem.Get(ctx, key); ok {
		observability.IncCacheHit(string(cache.TierMemory))
		return b, cache.TierMemory
	}
	observability.IncCacheMiss(string(cache.TierMemory))

	b, ok := c.files.Get(key)
	if !ok {
		observability.IncCacheMiss(string(cache.TierFile))
		return nil, cache.TierNone
	}
	observability.IncCacheHit(string(cache.TierFile))

	if len(b) <= MemoryLimit {
		if err := c.mem.Set(ctx, key, b, promoteTTL); err != nil {
			c.logger.Warn("promoting cache entry", "key", key, "error", err)
		} else {
			observability.IncCachePromotion()
		}
	}
	return b, cache.TierFile
}

// Put stores the payload on disk always and in memory only when it fits
// under MemoryLimit. A file-tier failure is logged and counted but does
// not block the memory write; the returned tier reflects what succeeded.
func (c *Cache) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) cache.Tier {
	tier := cache.TierNone

	if err := c.files.Put(key, payload); err != nil {
		observability.IncCacheWriteFailure(string(cache.TierFile))
		c.logger.Error("writing file cache entry", "key", key, "error", err)
	} else {
		tier = cache.TierFile
	}

	if len(payload) > MemoryLimit {
		return tier
	}
	if err := c.mem.Set(ctx, key, payload, ttl); err != nil {
		observability.IncCacheWriteFailure(string(cache.TierMemory))
		c.logger.Warn("writing memory cache entry", "key", key, "error", err)
		return tier
	}
	if tier == cache.TierFile {
		return cache.TierBoth
	}
	return cache.TierMemory
}

// Clear drops every cached entry for the layer prefix. The file tier is
// authoritative; a memory backend that cannot clear selectively is a
// known limitation and its entries age out via TTL.
func (c *Cache) Clear(ctx context.Context, prefix string) (int, error) {
	removed, err := c.files.Clear(prefix)
	if err != nil {
		return removed, err
	}
	if merr := c.mem.ClearPrefix(ctx, prefix); merr != nil {
		if errors.Is(merr, cache.ErrClearUnsupported) {
			c.logger.Debug("memory tier entries will age out via ttl", "prefix", prefix)
		} else {
			return removed, merr
		}
	}
	return removed, nil
}
