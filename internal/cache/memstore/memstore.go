// Package memstore is the in-process memory tier backed by an expirable
// LRU. It is size-bounded by entry count and safe for concurrent use.
package memstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/openmaps/shptiles/internal/cache"
)

// maxTTL is the LRU's own expiry backstop; per-entry deadlines below it are
// enforced on read since the expirable LRU has a single cache-wide TTL.
const maxTTL = 24 * time.Hour

type entry struct {
	val []byte
	exp time.Time
}

type Store struct {
	lru *expirable.LRU[string, entry]
}

var _ cache.MemoryStore = (*Store)(nil)

func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 512
	}
	return &Store{
		lru: expirable.NewLRU[string, entry](maxEntries, nil, maxTTL),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool) {
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}
	if time.Now().After(e.exp) {
		s.lru.Remove(key)
		return nil, false
	}
	return e.val, true
}

func (s *Store) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > maxTTL {
		ttl = maxTTL
	}
	s.lru.Add(key, entry{val: val, exp: time.Now().Add(ttl)})
	return nil
}

// ClearPrefix is not supported by the LRU backend; entries age out via
// their TTL. Hosts that need selective clearing use the redis backend.
func (s *Store) ClearPrefix(_ context.Context, _ string) error {
	return cache.ErrClearUnsupported
}

// Len reports the live entry count, for tests and debugging.
func (s *Store) Len() int { return s.lru.Len() }
