package filestore

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)

	if err := s.Put("shp_roads_abcd", []byte(`{"type":"FeatureCollection"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get("shp_roads_abcd")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != `{"type":"FeatureCollection"}` {
		t.Fatalf("unexpected payload: %s", got)
	}
	if _, ok := s.Get("shp_roads_missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestExpiredEntryIsMissAndDeleted(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Put("shp_roads_old", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	p := filepath.Join(dir, "shp_roads_old.geojson")
	stale := time.Now().Add(-Retention - time.Hour)
	if err := os.Chtimes(p, stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	if _, ok := s.Get("shp_roads_old"); ok {
		t.Fatal("entry past retention should miss")
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("expired file should be removed, stat err = %v", err)
	}
}

func TestRewriteRenewsEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Put("k", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	p := filepath.Join(dir, "k.geojson")
	stale := time.Now().Add(-Retention - time.Hour)
	if err := os.Chtimes(p, stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if err := s.Put("k", []byte("v2")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get("k")
	if !ok || string(got) != "v2" {
		t.Fatalf("Get = %q, %v; want v2, true", got, ok)
	}
}

func TestClearRemovesOnlyPrefix(t *testing.T) {
	s := newStore(t)

	for _, k := range []string{"shp_roads_a", "shp_roads_b", "shp_rivers_a"} {
		if err := s.Put(k, []byte("v")); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	n, err := s.Clear("shp_roads_")
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("Clear removed %d files, want 2", n)
	}
	if _, ok := s.Get("shp_roads_a"); ok {
		t.Fatal("cleared key should miss")
	}
	if _, ok := s.Get("shp_rivers_a"); !ok {
		t.Fatal("other layer's entry should survive")
	}
}

func TestConcurrentPutsNeverYieldPartialBytes(t *testing.T) {
	s := newStore(t)

	a := make([]byte, 64*1024)
	b := make([]byte, 64*1024)
	for i := range a {
		a[i] = 'a'
		b[i] = 'b'
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		payload := a
		if i%2 == 1 {
			payload = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if err := s.Put("contested", payload); err != nil {
					t.Errorf("Put: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, ok := s.Get("contested")
	if !ok {
		t.Fatal("expected hit after concurrent writes")
	}
	if len(got) != len(a) {
		t.Fatalf("payload length %d, want %d", len(got), len(a))
	}
	first := got[0]
	for _, c := range got {
		if c != first {
			t.Fatal("payload mixes bytes from different writers")
		}
	}
}
