// Package filestore is the on-disk cache tier. Entries are GeoJSON
// documents named after their cache key and expire by file age rather
// than a stored deadline.
package filestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Retention is how long a cached file stays servable after its last
// write. Age is judged by mtime, so rewriting an entry renews it.
const Retention = 7 * 24 * time.Hour

const ext = ".geojson"

type Store struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+ext)
}

// Get returns the cached payload for key, or ok=false when the entry is
// absent or older than Retention. Expired files are removed on lookup.
func (s *Store) Get(key string) ([]byte, bool) {
	p := s.path(key)
	fi, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if time.Since(fi.ModTime()) > Retention {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("removing expired cache file", "path", p, "error", err)
		}
		return nil, false
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Put writes the payload via a temp file and rename, so readers never
// observe a partially written entry.
func (s *Store) Put(key string, payload []byte) error {
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publish cache file: %w", err)
	}
	return nil
}

// Clear removes every entry whose key starts with prefix and reports how
// many files were deleted.
func (s *Store) Clear(prefix string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
