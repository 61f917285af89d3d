// Package shape reads shapefile geometry and attribute records.
//
// A Source wraps one shapefile triplet (.shp/.shx/.dbf). Shapes are read in
// file order; attribute records are decoded once into the closed
// model.AttrValue kinds at read time.
package shape

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/openmaps/shptiles/internal/core/model"
)

var (
	// ErrUnavailable means the geometry file is missing or the directory
	// holds no shapefile. Callers treat the layer as unavailable, no retry.
	ErrUnavailable = errors.New("shape: source unavailable")
	// ErrMalformed means a geometry file is present but unreadable.
	ErrMalformed = errors.New("shape: malformed source")
)

type GeomType int

const (
	GeomNone GeomType = iota
	GeomPoint
	GeomLine
	GeomPolygon
)

// Geometry is one shape record: a type tag, the flat vertex array, and the
// ring start offsets for multi-part polygons.
type Geometry struct {
	Type   GeomType
	Points []orb.Point
	Parts  []int
}

func (g Geometry) Empty() bool { return len(g.Points) == 0 }

type Source struct {
	path   string
	r      *shp.Reader
	raw    []shp.Field
	fields []model.Field
	count  int
	extent model.BBox
	row    int
}

// FindShapefile returns the path of the first .shp file in dir, in sorted
// order so repeated calls resolve the same file.
func FindShapefile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: read dir %s: %v", ErrUnavailable, dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".shp") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no .shp file in %s", ErrUnavailable, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// Open opens the shapefile at path together with its companions.
func Open(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrMalformed, path, err)
	}

	count, err := recordCount(path)
	if err != nil {
		_ = r.Close()
		return nil, err
	}

	box := r.BBox()
	raw := r.Fields()
	fields := make([]model.Field, len(raw))
	for i, f := range raw {
		fields[i] = model.Field{Name: f.String(), Kind: fieldKind(f.Fieldtype)}
	}

	return &Source{
		path:   path,
		r:      r,
		raw:    raw,
		fields: fields,
		count:  count,
		extent: model.BBox{XMin: box.MinX, YMin: box.MinY, XMax: box.MaxX, YMax: box.MaxY},
		row:    -1,
	}, nil
}

// OpenDir opens the first shapefile found in dir.
func OpenDir(dir string) (*Source, error) {
	path, err := FindShapefile(dir)
	if err != nil {
		return nil, err
	}
	return Open(path)
}

func (s *Source) Close() error {
	if err := s.r.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}

func (s *Source) Path() string          { return s.path }
func (s *Source) Count() int            { return s.count }
func (s *Source) Extent() model.BBox    { return s.extent }
func (s *Source) Fields() []model.Field { return s.fields }

// Next advances to the next shape in file order.
func (s *Source) Next() bool {
	if !s.r.Next() {
		return false
	}
	s.row++
	return true
}

// Shape returns the current shape's geometry. Unsupported shape types come
// back as GeomNone and are skipped by callers.
func (s *Source) Shape() Geometry {
	_, sh := s.r.Shape()
	switch v := sh.(type) {
	case *shp.Point:
		return Geometry{Type: GeomPoint, Points: []orb.Point{{v.X, v.Y}}}
	case *shp.PolyLine:
		return Geometry{Type: GeomLine, Points: toOrb(v.Points), Parts: toInts(v.Parts)}
	case *shp.Polygon:
		return Geometry{Type: GeomPolygon, Points: toOrb(v.Points), Parts: toInts(v.Parts)}
	default:
		return Geometry{Type: GeomNone}
	}
}

// Attributes decodes the current shape's attribute record.
func (s *Source) Attributes() map[string]model.AttrValue {
	out := make(map[string]model.AttrValue, len(s.raw))
	for i := range s.raw {
		out[s.fields[i].Name] = decodeValue(s.fields[i].Kind, s.r.ReadAttribute(s.row, i))
	}
	return out
}

// Err reports a read error encountered during iteration, if any.
func (s *Source) Err() error {
	if err := s.r.Err(); err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrMalformed, s.path, err)
	}
	return nil
}

// recordCount derives the shape count from the .shx index: a fixed 100-byte
// header followed by one 8-byte entry per record.
func recordCount(shpPath string) (int, error) {
	shxPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".shx"
	st, err := os.Stat(shxPath)
	if err != nil {
		return 0, fmt.Errorf("%w: index %s: %v", ErrMalformed, shxPath, err)
	}
	if st.Size() < 100 {
		return 0, fmt.Errorf("%w: index %s truncated", ErrMalformed, shxPath)
	}
	return int((st.Size() - 100) / 8), nil
}

func fieldKind(t byte) model.FieldKind {
	switch t {
	case 'N', 'F':
		return model.KindNumber
	case 'D':
		return model.KindDate
	case 'M', 'B':
		return model.KindBytes
	default:
		return model.KindText
	}
}

func decodeValue(kind model.FieldKind, raw string) model.AttrValue {
	raw = strings.TrimSpace(raw)
	switch kind {
	case model.KindNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Not an error per the taxonomy: a blank or malformed numeric
			// cell degrades to text.
			return model.TextValue(raw)
		}
		return model.NumberValue(f)
	case model.KindDate:
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return model.TextValue(raw)
		}
		return model.DateValue(t)
	case model.KindBytes:
		return model.BytesValue([]byte(raw))
	default:
		return model.TextValue(raw)
	}
}

func toOrb(pts []shp.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func toInts(parts []int32) []int {
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i] = int(p)
	}
	return out
}
