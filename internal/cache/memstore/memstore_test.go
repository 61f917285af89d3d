package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openmaps/shptiles/internal/cache"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New(8)
	ctx := context.Background()

	if err := s.Set(ctx, "a", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := s.Get(ctx, "a")
	if !ok {
		t.Fatal("expected hit for key a")
	}
	if string(got) != "payload" {
		t.Fatalf("got %q, want %q", got, "payload")
	}
	if _, ok := s.Get(ctx, "missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestPerEntryExpiry(t *testing.T) {
	s := New(8)
	ctx := context.Background()

	if err := s.Set(ctx, "short", []byte("x"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "long", []byte("y"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := s.Get(ctx, "short"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if _, ok := s.Get(ctx, "long"); !ok {
		t.Fatal("expected unexpired entry to hit")
	}
	// The stale entry is dropped on lookup, not just hidden.
	if n := s.Len(); n != 1 {
		t.Fatalf("Len() = %d, want 1", n)
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	s := New(2)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if err := s.Set(ctx, k, []byte(k), time.Minute); err != nil {
			t.Fatalf("Set %s: %v", k, err)
		}
	}
	if _, ok := s.Get(ctx, "a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := s.Get(ctx, "c"); !ok {
		t.Fatal("newest entry should survive")
	}
}

func TestClearPrefixUnsupported(t *testing.T) {
	s := New(8)
	err := s.ClearPrefix(context.Background(), "shp_roads_")
	if !errors.Is(err, cache.ErrClearUnsupported) {
		t.Fatalf("ClearPrefix error = %v, want ErrClearUnsupported", err)
	}
}
