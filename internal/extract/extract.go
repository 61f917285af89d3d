// Package extract filters a shapefile to the features intersecting a
// bounding box, applies decimation, and builds a GeoJSON FeatureCollection.
package extract

import (
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/openmaps/shptiles/internal/core/model"
	"github.com/openmaps/shptiles/internal/core/observability"
	"github.com/openmaps/shptiles/internal/shape"
	"github.com/openmaps/shptiles/internal/simplify"
)

// Stats summarizes one extraction pass. Skipped counts records that could
// not be converted (bad part offsets, unsupported geometry); it is surfaced
// in response metadata rather than only logged.
type Stats struct {
	Included int
	Skipped  int
}

// Extract scans src in file order and collects features intersecting bbox.
// maxFeatures 0 means unbounded. The result is deterministic for an
// unmodified source: file order in, file order out, fixed decimation.
func Extract(src *shape.Source, bbox model.BBox, maxFeatures int, factor float64, logger *slog.Logger) (*geojson.FeatureCollection, Stats, error) {
	start := time.Now()
	fc := geojson.NewFeatureCollection()
	var stats Stats

	for src.Next() {
		if maxFeatures > 0 && stats.Included >= maxFeatures {
			break
		}

		g := src.Shape()
		if g.Empty() {
			continue
		}
		if !intersects(g.Points, bbox) {
			continue
		}

		geom, ok := toGeometry(g, factor)
		if !ok {
			stats.Skipped++
			continue
		}

		f := geojson.NewFeature(geom)
		f.Properties = properties(src.Attributes())
		fc.Append(f)
		stats.Included++
	}
	if err := src.Err(); err != nil {
		return nil, stats, err
	}

	fc.ExtraMembers = geojson.Properties{
		"chunk_info": map[string]any{
			"bbox":           bbox.Slice(),
			"feature_count":  stats.Included,
			"skipped":        stats.Skipped,
			"simplification": factor,
		},
	}

	observability.ObserveExtraction(time.Since(start).Seconds(), stats.Included)
	logger.Debug("extracted features",
		"path", src.Path(), "bbox", bbox.String(),
		"included", stats.Included, "skipped", stats.Skipped,
		"simplification", factor, "dur", time.Since(start).String())
	return fc, stats, nil
}

// ExtractDir opens the first shapefile in dir for a single pass.
func ExtractDir(dir string, bbox model.BBox, maxFeatures int, factor float64, logger *slog.Logger) (*geojson.FeatureCollection, Stats, error) {
	src, err := shape.OpenDir(dir)
	if err != nil {
		return nil, Stats{}, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logger.Warn("close shapefile", "err", cerr)
		}
	}()
	return Extract(src, bbox, maxFeatures, factor, logger)
}

// intersects reports whether any vertex falls inside bbox, edges inclusive.
// The test runs against the original vertices, before decimation.
func intersects(pts []orb.Point, bbox model.BBox) bool {
	for _, p := range pts {
		if bbox.Contains(p[0], p[1]) {
			return true
		}
	}
	return false
}

func toGeometry(g shape.Geometry, factor float64) (orb.Geometry, bool) {
	switch g.Type {
	case shape.GeomPoint:
		return g.Points[0], true

	case shape.GeomLine:
		return orb.LineString(simplify.Ring(g.Points, factor)), true

	case shape.GeomPolygon:
		rings, ok := splitRings(g.Points, g.Parts)
		if !ok {
			return nil, false
		}
		poly := make(orb.Polygon, 0, len(rings))
		for _, r := range rings {
			poly = append(poly, orb.Ring(simplify.Ring(r, factor)))
		}
		return poly, true

	default:
		return nil, false
	}
}

// splitRings slices the flat vertex array by ring-start offsets; the last
// ring runs to the end of the array. Out-of-range or unordered offsets mark
// the record as unconvertible.
func splitRings(pts []orb.Point, parts []int) ([][]orb.Point, bool) {
	if len(parts) <= 1 {
		return [][]orb.Point{pts}, true
	}
	rings := make([][]orb.Point, 0, len(parts))
	for i, startIdx := range parts {
		end := len(pts)
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if startIdx < 0 || startIdx >= end || end > len(pts) {
			return nil, false
		}
		rings = append(rings, pts[startIdx:end])
	}
	return rings, true
}

func properties(attrs map[string]model.AttrValue) geojson.Properties {
	props := make(geojson.Properties, len(attrs))
	for name, v := range attrs {
		props[name] = v.JSONValue()
	}
	return props
}
