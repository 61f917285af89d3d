// Package chunker partitions a shapefile's extent into a grid of
// geographic chunks so per-request extraction cost stays bounded.
package chunker

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/openmaps/shptiles/internal/core/model"
	"github.com/openmaps/shptiles/internal/core/observability"
)

// Source is the slice of the geometry source the chunker needs: a shape
// count and the full extent, both cheap header reads.
type Source interface {
	Count() int
	Extent() model.BBox
	Path() string
}

const (
	// MaxFeaturesPerChunk is the budget a single chunk is expected not to
	// exceed. Files at or under it are served as one chunk.
	MaxFeaturesPerChunk = 5000

	// MaxChunks bounds total grid overhead; the grid is capped at
	// MaxChunks/2 cells per side.
	MaxChunks = 20
)

// Chunk splits the source into a roughly-square grid of chunks. Chunk ids
// are deterministic ("full" or "chunk_{i}_{j}") so repeated calls against
// the same layer produce stable cache keys. Per-cell counts are estimates;
// exact counts are only known after extraction.
func Chunk(src Source, logger *slog.Logger) []model.Chunk {
	start := time.Now()
	total := src.Count()
	extent := src.Extent()

	if total <= MaxFeaturesPerChunk {
		logger.Debug("shapefile small enough, no chunking needed",
			"path", src.Path(), "shapes", total)
		observability.ObserveChunking(time.Since(start).Seconds())
		return []model.Chunk{{
			ID:             "full",
			BBox:           extent,
			EstimatedCount: total,
			Path:           src.Path(),
		}}
	}

	needed := int(math.Ceil(float64(total) / MaxFeaturesPerChunk))
	side := int(math.Ceil(math.Sqrt(float64(needed))))
	if side > MaxChunks/2 {
		side = MaxChunks / 2
	}

	width := (extent.XMax - extent.XMin) / float64(side)
	height := (extent.YMax - extent.YMin) / float64(side)
	estimate := total / (side * side)

	chunks := make([]model.Chunk, 0, side*side)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			cell := model.BBox{
				XMin: extent.XMin + float64(i)*width,
				YMin: extent.YMin + float64(j)*height,
				XMax: extent.XMin + float64(i+1)*width,
				YMax: extent.YMin + float64(j+1)*height,
			}
			// outer edges take the exact extent so the grid tiles it
			// without float drift
			if i == side-1 {
				cell.XMax = extent.XMax
			}
			if j == side-1 {
				cell.YMax = extent.YMax
			}
			chunks = append(chunks, model.Chunk{
				ID:             chunkID(i, j),
				BBox:           cell,
				EstimatedCount: estimate,
				Path:           src.Path(),
			})
		}
	}

	logger.Info("chunked shapefile",
		"path", src.Path(), "shapes", total, "chunks", len(chunks), "side", side)
	observability.ObserveChunking(time.Since(start).Seconds())
	return chunks
}

// Visible filters chunks to those whose bbox overlaps the viewport, in
// chunk-list order. No relevance ranking is applied.
func Visible(chunks []model.Chunk, view model.BBox) []model.Chunk {
	out := make([]model.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.BBox.Overlaps(view) {
			out = append(out, c)
		}
	}
	return out
}

func chunkID(i, j int) string {
	return fmt.Sprintf("chunk_%d_%d", i, j)
}
