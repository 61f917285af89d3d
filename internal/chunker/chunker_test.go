package chunker

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/openmaps/shptiles/internal/core/model"
)

type fakeSource struct {
	count  int
	extent model.BBox
}

func (f fakeSource) Count() int         { return f.count }
func (f fakeSource) Extent() model.BBox { return f.extent }
func (f fakeSource) Path() string       { return "/data/test.shp" }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChunk_SmallFileSingleChunk(t *testing.T) {
	ext := model.BBox{XMin: -10, YMin: -5, XMax: 40, YMax: 35}
	chunks := Chunk(fakeSource{count: 5000, extent: ext}, discard())

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.ID != "full" {
		t.Fatalf("id=%q want full", c.ID)
	}
	if c.BBox != ext {
		t.Fatalf("bbox=%v want full extent %v", c.BBox, ext)
	}
	if c.EstimatedCount != 5000 {
		t.Fatalf("count=%d want exact 5000", c.EstimatedCount)
	}
}

func TestChunk_GridCoversExtent(t *testing.T) {
	ext := model.BBox{XMin: 0, YMin: 0, XMax: 30, YMax: 30}
	total := 40000 // ceil(40000/5000)=8 -> side=ceil(sqrt(8))=3
	chunks := Chunk(fakeSource{count: total, extent: ext}, discard())

	if len(chunks) != 9 {
		t.Fatalf("got %d chunks, want 9", len(chunks))
	}

	// deterministic ids
	if chunks[0].ID != "chunk_0_0" || chunks[8].ID != "chunk_2_2" {
		t.Fatalf("unexpected ids %q %q", chunks[0].ID, chunks[8].ID)
	}

	// union covers extent: min of mins, max of maxes, and no cell escapes
	union := chunks[0].BBox
	for _, c := range chunks {
		union.XMin = math.Min(union.XMin, c.BBox.XMin)
		union.YMin = math.Min(union.YMin, c.BBox.YMin)
		union.XMax = math.Max(union.XMax, c.BBox.XMax)
		union.YMax = math.Max(union.YMax, c.BBox.YMax)
		if c.BBox.XMin < ext.XMin || c.BBox.XMax > ext.XMax ||
			c.BBox.YMin < ext.YMin || c.BBox.YMax > ext.YMax {
			t.Fatalf("cell %s escapes extent: %v", c.ID, c.BBox)
		}
		if c.EstimatedCount != total/9 {
			t.Fatalf("cell %s estimate=%d want %d", c.ID, c.EstimatedCount, total/9)
		}
	}
	if union != ext {
		t.Fatalf("union=%v want exactly %v", union, ext)
	}

	// adjacent cells must share edges (no gaps): every interior boundary at
	// i*10 exactly
	for _, c := range chunks {
		for _, v := range []float64{c.BBox.XMin, c.BBox.XMax, c.BBox.YMin, c.BBox.YMax} {
			if math.Mod(v, 10) != 0 {
				t.Fatalf("cell %s boundary %v not on grid line", c.ID, v)
			}
		}
	}
}

func TestChunk_SideCapped(t *testing.T) {
	ext := model.BBox{XMin: 0, YMin: 0, XMax: 100, YMax: 100}
	// 10 million shapes wants side 45; must cap at MaxChunks/2 = 10
	chunks := Chunk(fakeSource{count: 10_000_000, extent: ext}, discard())
	if len(chunks) != 100 {
		t.Fatalf("got %d chunks, want 10x10=100", len(chunks))
	}
}

func TestChunk_Deterministic(t *testing.T) {
	src := fakeSource{count: 80000, extent: model.BBox{XMin: 0, YMin: 0, XMax: 8, YMax: 8}}
	a := Chunk(src, discard())
	b := Chunk(src, discard())
	if len(a) != len(b) {
		t.Fatalf("lengths differ")
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].BBox != b[i].BBox {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestVisible(t *testing.T) {
	chunks := []model.Chunk{
		{ID: "a", BBox: model.BBox{XMin: 0, YMin: 0, XMax: 10, YMax: 10}},
		{ID: "b", BBox: model.BBox{XMin: 5, YMin: 5, XMax: 15, YMax: 15}},
		{ID: "c", BBox: model.BBox{XMin: 20, YMin: 20, XMax: 30, YMax: 30}},
	}
	view := model.BBox{XMin: 0, YMin: 0, XMax: 10, YMax: 10}

	got := Visible(chunks, view)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("visible=%v want [a b] in chunk-list order", got)
	}

	if n := len(Visible(chunks, model.BBox{XMin: 50, YMin: 50, XMax: 60, YMax: 60})); n != 0 {
		t.Fatalf("expected no visible chunks, got %d", n)
	}
}
