// Package shapetest writes throwaway shapefiles for tests.
package shapetest

import (
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
)

// WritePolygons writes a polygon shapefile named base.shp in dir. Each entry
// of polys is one shape given as its part rings. Attribute columns NAME
// (text) and VAL (numeric) are filled from names and vals; short slices
// leave the remainder blank.
func WritePolygons(t *testing.T, dir, base string, polys [][][]shp.Point, names []string, vals []float64) string {
	t.Helper()
	path := filepath.Join(dir, base+".shp")

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	w.SetFields([]shp.Field{
		shp.StringField("NAME", 32),
		shp.FloatField("VAL", 16, 4),
	})

	for i, parts := range polys {
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		w.Write(&poly)
		if i < len(names) {
			if err := w.WriteAttribute(i, 0, names[i]); err != nil {
				t.Fatalf("write NAME %d: %v", i, err)
			}
		}
		if i < len(vals) {
			if err := w.WriteAttribute(i, 1, vals[i]); err != nil {
				t.Fatalf("write VAL %d: %v", i, err)
			}
		}
	}
	w.Close()
	return path
}

// WritePoints writes a point shapefile with a NAME attribute column.
func WritePoints(t *testing.T, dir, base string, pts []shp.Point, names []string) string {
	t.Helper()
	path := filepath.Join(dir, base+".shp")

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	w.SetFields([]shp.Field{shp.StringField("NAME", 32)})

	for i := range pts {
		w.Write(&pts[i])
		if i < len(names) {
			if err := w.WriteAttribute(i, 0, names[i]); err != nil {
				t.Fatalf("write NAME %d: %v", i, err)
			}
		}
	}
	w.Close()
	return path
}

// Square returns a closed square ring centered at (cx, cy).
func Square(cx, cy, half float64) []shp.Point {
	return []shp.Point{
		{X: cx - half, Y: cy - half},
		{X: cx - half, Y: cy + half},
		{X: cx + half, Y: cy + half},
		{X: cx + half, Y: cy - half},
		{X: cx - half, Y: cy - half},
	}
}

// Ring returns a closed ring with n distinct vertices approximating a
// circle of the given radius, for simplification tests that need long rings.
func Ring(cx, cy, radius float64, n int) []shp.Point {
	pts := make([]shp.Point, 0, n+1)
	for i := 0; i < n; i++ {
		// walk the perimeter of a square to stay deterministic without trig
		f := float64(i) / float64(n) * 4
		var x, y float64
		switch {
		case f < 1:
			x, y = -1+2*f, -1
		case f < 2:
			x, y = 1, -1+2*(f-1)
		case f < 3:
			x, y = 1-2*(f-2), 1
		default:
			x, y = -1, 1-2*(f-3)
		}
		pts = append(pts, shp.Point{X: cx + x*radius, Y: cy + y*radius})
	}
	pts = append(pts, pts[0])
	return pts
}
