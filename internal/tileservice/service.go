// Package tileservice orchestrates a tile request end to end: resolve the
// layer, pick the visible chunks, serve each chunk from the tiered cache
// and extract the misses, then merge everything into one feature
// collection.
package tileservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/singleflight"

	"github.com/openmaps/shptiles/internal/cache"
	"github.com/openmaps/shptiles/internal/cache/keys"
	"github.com/openmaps/shptiles/internal/cache/tiered"
	"github.com/openmaps/shptiles/internal/chunker"
	"github.com/openmaps/shptiles/internal/core/model"
	"github.com/openmaps/shptiles/internal/extract"
	"github.com/openmaps/shptiles/internal/shape"
	"github.com/openmaps/shptiles/internal/zoom"
)

// ErrUnavailable marks layers whose features cannot be served: remote
// layers, or vector layers whose shapefile directory is missing.
var ErrUnavailable = errors.New("tileservice: layer data unavailable")

// LayerSource resolves layer ids to their registry records.
type LayerSource interface {
	Get(ctx context.Context, id string) (model.Layer, error)
}

type Service struct {
	layers  LayerSource
	cache   *tiered.Cache
	logger  *slog.Logger
	workers int

	sf singleflight.Group

	mu     sync.Mutex
	chunks map[string][]model.Chunk
}

func New(layers LayerSource, cache *tiered.Cache, workers int, logger *slog.Logger) *Service {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		layers:  layers,
		cache:   cache,
		logger:  logger,
		workers: workers,
		chunks:  make(map[string][]model.Chunk),
	}
}

type chunkResult struct {
	idx     int
	fc      *geojson.FeatureCollection
	skipped int
	err     error
}

// Query serves one tile request. Features arrive in chunk-grid order and
// the collection carries an "info" member summarizing what was served.
func (s *Service) Query(ctx context.Context, q model.TileQuery) (*geojson.FeatureCollection, error) {
	layer, err := s.layers.Get(ctx, q.LayerID)
	if err != nil {
		return nil, err
	}
	if layer.Kind != model.KindVector {
		return nil, fmt.Errorf("%w: layer %s is %s", ErrUnavailable, layer.ID, layer.Kind)
	}

	chunks, err := s.layerChunks(layer)
	if err != nil {
		return nil, err
	}

	visible := chunker.Visible(chunks, q.BBox)
	factor, perChunk := zoom.Resolve(q.Zoom, q.Simplify, q.MaxFeatures, len(visible))
	ttl := zoom.TTL(q.Zoom)

	estimated := 0
	for _, c := range chunks {
		estimated += c.EstimatedCount
	}

	out := geojson.NewFeatureCollection()
	included, skipped := 0, 0

	if len(visible) > 0 {
		results, err := s.fillChunks(ctx, layer, visible, q, factor, perChunk, ttl)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			out.Features = append(out.Features, r.fc.Features...)
			included += len(r.fc.Features)
			skipped += r.skipped
		}
	}

	out.ExtraMembers = geojson.Properties{
		"info": geojson.Properties{
			"total_features":    estimated,
			"included_features": included,
			"skipped_features":  skipped,
			"visible_chunks":    len(visible),
			"total_chunks":      len(chunks),
			"simplification":    factor,
			"zoom":              zoomMember(q.Zoom),
		},
	}
	return out, nil
}

// Invalidate drops everything cached for the layer and its memoized
// chunk grid. It reports how many file-tier entries were removed.
func (s *Service) Invalidate(ctx context.Context, layerID string) (int, error) {
	s.mu.Lock()
	delete(s.chunks, layerID)
	s.mu.Unlock()

	n, err := s.cache.Clear(ctx, keys.LayerPrefix(layerID))
	if err != nil {
		return n, fmt.Errorf("clearing cache for layer %s: %w", layerID, err)
	}
	s.logger.Info("layer invalidated", "layer", layerID, "files_removed", n)
	return n, nil
}

// layerChunks returns the memoized chunk grid for the layer, computing it
// on first use. The grid survives until Invalidate drops it.
func (s *Service) layerChunks(layer model.Layer) ([]model.Chunk, error) {
	s.mu.Lock()
	if cs, ok := s.chunks[layer.ID]; ok {
		s.mu.Unlock()
		return cs, nil
	}
	s.mu.Unlock()

	src, err := shape.OpenDir(layer.ShapefileDir)
	if err != nil {
		return nil, fmt.Errorf("%w: layer %s: %v", ErrUnavailable, layer.ID, err)
	}
	cs := chunker.Chunk(src, s.logger)
	if cerr := src.Close(); cerr != nil {
		s.logger.Warn("closing shapefile source", "layer", layer.ID, "error", cerr)
	}

	s.mu.Lock()
	s.chunks[layer.ID] = cs
	s.mu.Unlock()
	return cs, nil
}

// fillChunks resolves every visible chunk through the cache with a
// bounded worker pool, extracting on miss. Results come back indexed so
// the merge preserves chunk-grid order.
func (s *Service) fillChunks(
	ctx context.Context,
	layer model.Layer,
	visible []model.Chunk,
	q model.TileQuery,
	factor float64,
	perChunk int,
	ttl time.Duration,
) ([]chunkResult, error) {
	jobs := make(chan int, len(visible))
	results := make(chan chunkResult, len(visible))

	var wg sync.WaitGroup
	wg.Add(s.workers)
	for range s.workers {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res := s.fetchChunk(ctx, layer, visible[idx], q, factor, perChunk, ttl)
				res.idx = idx
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for i := range visible {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	ordered := make([]chunkResult, len(visible))
	seen := 0
	var errs []error
	for r := range results {
		ordered[r.idx] = r
		seen++
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	if err := ctx.Err(); err != nil && seen < len(visible) {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%d/%d chunks failed: %w", len(errs), len(visible), errs[0])
	}
	return ordered, nil
}

func (s *Service) fetchChunk(
	ctx context.Context,
	layer model.Layer,
	chunk model.Chunk,
	q model.TileQuery,
	factor float64,
	perChunk int,
	ttl time.Duration,
) chunkResult {
	key := keys.Key(layer.ID, chunk.ID, factor, perChunk, q.Zoom)

	payload, tier := s.cache.Get(ctx, key, ttl)
	if tier == cache.TierNone {
		v, err, _ := s.sf.Do(key, func() (any, error) {
			b, berr := s.buildChunk(layer, chunk, factor, perChunk)
			if berr != nil {
				return nil, berr
			}
			s.cache.Put(ctx, key, b, ttl)
			return b, nil
		})
		if err != nil {
			return chunkResult{err: fmt.Errorf("chunk %s: %w", chunk.ID, err)}
		}
		payload = v.([]byte)
	}

	fc, err := geojson.UnmarshalFeatureCollection(payload)
	if err != nil {
		return chunkResult{err: fmt.Errorf("decoding chunk %s: %w", chunk.ID, err)}
	}
	return chunkResult{fc: fc, skipped: skippedCount(fc)}
}

func (s *Service) buildChunk(layer model.Layer, chunk model.Chunk, factor float64, perChunk int) ([]byte, error) {
	fc, _, err := extract.ExtractDir(layer.ShapefileDir, chunk.BBox, perChunk, factor, s.logger)
	if err != nil {
		if errors.Is(err, shape.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return json.Marshal(fc)
}

// skippedCount reads the skipped counter back out of the chunk_info
// member. Cached payloads round-trip it as a JSON number.
func skippedCount(fc *geojson.FeatureCollection) int {
	info, ok := fc.ExtraMembers["chunk_info"]
	if !ok {
		return 0
	}
	m, ok := info.(map[string]any)
	if !ok {
		if p, ok := info.(geojson.Properties); ok {
			m = p
		} else {
			return 0
		}
	}
	switch v := m["skipped"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

func zoomMember(z *int) any {
	if z == nil {
		return nil
	}
	return *z
}
