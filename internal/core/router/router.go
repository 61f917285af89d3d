// Package router holds the HTTP parameter decoding and handlers for the
// tile API. Parameter decoding is deliberately lenient: a malformed
// zoom, simplify, or max_features falls back to its default instead of
// failing the request. Only the bbox is strict.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/openmaps/shptiles/internal/core/model"
	"github.com/openmaps/shptiles/internal/core/observability"
	"github.com/openmaps/shptiles/internal/registry"
	"github.com/openmaps/shptiles/internal/tileservice"
)

// TileService serves one validated tile query.
type TileService interface {
	Query(ctx context.Context, q model.TileQuery) (*geojson.FeatureCollection, error)
}

// LayerLister enumerates registered layers for the catalog endpoint.
type LayerLister interface {
	List(ctx context.Context) ([]model.Layer, error)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// HandleTile serves GET /layers/{id}/features.
func HandleTile(logger *slog.Logger, svc TileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		q, err := ParseTileQuery(r)
		if err != nil {
			writeError(sw, http.StatusBadRequest, err.Error())
			observability.ObserveHTTP(r.Method, "/layers/{id}/features", http.StatusBadRequest, time.Since(start).Seconds())
			return
		}

		fc, err := svc.Query(r.Context(), q)
		switch {
		case err == nil:
			sw.Header().Set("Content-Type", "application/geo+json")
			if encErr := json.NewEncoder(sw).Encode(fc); encErr != nil {
				logger.Error("encoding feature collection", "layer", q.LayerID, "error", encErr)
			}
		case errors.Is(err, tileservice.ErrUnavailable), errors.Is(err, registry.ErrNotFound):
			writeError(sw, http.StatusNotFound, "layer unavailable: "+q.LayerID)
		default:
			logger.Error("tile query failed", "layer", q.LayerID, "error", err)
			writeError(sw, http.StatusInternalServerError, "internal error")
		}

		observability.ObserveHTTP(r.Method, "/layers/{id}/features", sw.code, time.Since(start).Seconds())
	}
}

// HandleLayers serves GET /layers.
func HandleLayers(logger *slog.Logger, layers LayerLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		all, err := layers.List(r.Context())
		if err != nil {
			logger.Error("listing layers", "error", err)
			writeError(sw, http.StatusInternalServerError, "internal error")
		} else {
			if all == nil {
				all = []model.Layer{}
			}
			sw.Header().Set("Content-Type", "application/json")
			if encErr := json.NewEncoder(sw).Encode(all); encErr != nil {
				logger.Error("encoding layer list", "error", encErr)
			}
		}

		observability.ObserveHTTP(r.Method, "/layers", sw.code, time.Since(start).Seconds())
	}
}

// ParseTileQuery decodes the request. The bbox is required and strict;
// every other parameter degrades to its default on parse failure.
func ParseTileQuery(r *http.Request) (model.TileQuery, error) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		return model.TileQuery{}, errors.New("missing layer id")
	}

	bbox, err := parseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		return model.TileQuery{}, fmt.Errorf("invalid bbox: %w", err)
	}

	return model.TileQuery{
		LayerID:     id,
		BBox:        bbox,
		Zoom:        parseZoom(r.URL.Query().Get("zoom")),
		Simplify:    model.ParseSimplification(r.URL.Query().Get("simplify")),
		MaxFeatures: parseMaxFeatures(r.URL.Query().Get("max_features")),
	}, nil
}

func parseBBox(raw string) (model.BBox, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.BBox{}, errors.New("missing required parameter: bbox")
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return model.BBox{}, errors.New("expected 4 comma-separated values: x1,y1,x2,y2")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = f
	}
	if vals[2] <= vals[0] || vals[3] <= vals[1] {
		return model.BBox{}, errors.New("coordinates must satisfy x2>x1 and y2>y1")
	}
	return model.BBox{XMin: vals[0], YMin: vals[1], XMax: vals[2], YMax: vals[3]}, nil
}

func parseZoom(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	z, err := strconv.Atoi(raw)
	if err != nil || z < 0 {
		return nil
	}
	return &z
}

func parseMaxFeatures(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
