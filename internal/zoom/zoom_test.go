package zoom

import (
	"testing"
	"time"

	"github.com/openmaps/shptiles/internal/core/model"
)

func z(v int) *int { return &v }

func TestCategoryFor(t *testing.T) {
	cases := []struct {
		zoom *int
		want Category
	}{
		{nil, Default},
		{z(0), Far},
		{z(7), Far},
		{z(8), Medium},
		{z(12), Medium},
		{z(13), Close},
		{z(15), Close},
		{z(16), Detailed},
		{z(22), Detailed},
	}
	for _, tc := range cases {
		if got := CategoryFor(tc.zoom); got != tc.want {
			t.Fatalf("CategoryFor(%v)=%v want %v", tc.zoom, got, tc.want)
		}
	}
}

func TestTTL(t *testing.T) {
	cases := []struct {
		zoom *int
		want time.Duration
	}{
		{z(5), 24 * time.Hour},
		{z(10), 6 * time.Hour},
		{z(14), 2 * time.Hour},
		{z(18), time.Hour},
		{nil, 12 * time.Hour},
	}
	for _, tc := range cases {
		if got := TTL(tc.zoom); got != tc.want {
			t.Fatalf("TTL(%v)=%v want %v", tc.zoom, got, tc.want)
		}
	}
}

func TestAutoFactor_TableAndMonotonicity(t *testing.T) {
	table := map[int]float64{
		3: 0.05, 7: 0.05, 8: 0.02, 9: 0.02, 10: 0.01, 11: 0.01,
		12: 0.005, 13: 0.005, 14: 0.002, 15: 0.002, 16: 0, 20: 0,
	}
	for zoom, want := range table {
		if got := AutoFactor(z(zoom)); got != want {
			t.Fatalf("AutoFactor(%d)=%v want %v", zoom, got, want)
		}
	}

	prev := 1.0
	for zoom := 0; zoom <= 22; zoom++ {
		f := AutoFactor(z(zoom))
		if f < 0 || f > 0.05 {
			t.Fatalf("AutoFactor(%d)=%v outside [0, 0.05]", zoom, f)
		}
		if f > prev {
			t.Fatalf("AutoFactor not non-increasing at zoom %d", zoom)
		}
		prev = f
	}
}

func TestResolve_BudgetBounds(t *testing.T) {
	for zoom := 0; zoom <= 22; zoom++ {
		_, budget := Resolve(z(zoom), model.Simplification{Mode: model.SimplifyAuto}, 0, 4)
		if budget < 1000 || budget > 5000 {
			t.Fatalf("budget at zoom %d = %d outside [1000, 5000]", zoom, budget)
		}
	}
}

func TestResolve_GlobalMaxDistribution(t *testing.T) {
	// caller asks for 100 features over 4 visible chunks: the floor of
	// 1000 per chunk still applies
	_, perChunk := Resolve(z(10), model.Simplification{Mode: model.SimplifyAuto}, 100, 4)
	if perChunk != 1000 {
		t.Fatalf("perChunk=%d want floor 1000", perChunk)
	}

	_, perChunk = Resolve(z(10), model.Simplification{Mode: model.SimplifyAuto}, 12000, 4)
	if perChunk != 3000 {
		t.Fatalf("perChunk=%d want 12000/4=3000", perChunk)
	}

	// zero visible chunks must not divide by zero
	_, perChunk = Resolve(z(10), model.Simplification{Mode: model.SimplifyAuto}, 8000, 0)
	if perChunk != 8000 {
		t.Fatalf("perChunk=%d want 8000", perChunk)
	}
}

func TestResolve_SimplificationModes(t *testing.T) {
	f, _ := Resolve(z(6), model.Simplification{Mode: model.SimplifyAuto}, 0, 1)
	if f != 0.05 {
		t.Fatalf("auto at zoom 6: %v want 0.05", f)
	}
	f, _ = Resolve(z(6), model.Simplification{Mode: model.SimplifyExplicit, Factor: 0.3}, 0, 1)
	if f != 0.3 {
		t.Fatalf("explicit: %v want 0.3", f)
	}
	f, _ = Resolve(z(6), model.Simplification{Mode: model.SimplifyNone}, 0, 1)
	if f != 0 {
		t.Fatalf("none: %v want 0", f)
	}
	f, _ = Resolve(nil, model.Simplification{Mode: model.SimplifyAuto}, 0, 1)
	if f != 0 {
		t.Fatalf("auto with nil zoom: %v want 0", f)
	}
}
