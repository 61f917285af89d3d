// Package model defines core domain types shared across the engine.
package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BBox is an axis-aligned bounding box in the layer's spatial reference.
// Invariant: XMin <= XMax and YMin <= YMax.
type BBox struct {
	XMin, YMin float64
	XMax, YMax float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.XMin, b.YMin, b.XMax, b.YMax)
}

// Contains reports whether the point lies inside the box, edges inclusive.
func (b BBox) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// Overlaps reports whether two boxes share any area, using standard
// 2D interval overlap (touching edges count as overlapping).
func (b BBox) Overlaps(o BBox) bool {
	if b.XMax < o.XMin || b.XMin > o.XMax || b.YMax < o.YMin || b.YMin > o.YMax {
		return false
	}
	return true
}

func (b BBox) Slice() []float64 {
	return []float64{b.XMin, b.YMin, b.XMax, b.YMax}
}

type LayerKind string

const (
	// KindVector is a shapefile-backed layer served by this engine.
	KindVector LayerKind = "vector"
	// KindRemote is published elsewhere; the engine refuses to render it.
	KindRemote LayerKind = "remote"
)

// Layer identifies a dataset. Owned by the registry; the engine only reads it.
type Layer struct {
	ID           string
	Name         string
	Kind         LayerKind
	ShapefileDir string
	// Style is opaque presentation metadata (stroke/fill/opacity), passed
	// through to clients uninterpreted.
	Style json.RawMessage
}

// Chunk is one rectangular subdivision of a layer's full extent.
// Chunks are a pure function of the source geometry and the chunk-count
// policy; they may be regenerated at any time.
type Chunk struct {
	ID             string
	BBox           BBox
	EstimatedCount int
	Path           string
}

type SimplifyMode int

const (
	SimplifyAuto SimplifyMode = iota
	SimplifyExplicit
	SimplifyNone
)

// Simplification is the decoded simplify parameter. It is resolved once at
// the boundary and never re-parsed downstream.
type Simplification struct {
	Mode   SimplifyMode
	Factor float64
}

// ParseSimplification decodes the raw simplify query value. Unparseable
// numeric input falls back to no simplification rather than erroring.
func ParseSimplification(raw string) Simplification {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "auto":
		return Simplification{Mode: SimplifyAuto}
	case "", "none":
		return Simplification{Mode: SimplifyNone}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 || f >= 1 {
		return Simplification{Mode: SimplifyExplicit, Factor: 0}
	}
	return Simplification{Mode: SimplifyExplicit, Factor: f}
}

// FieldKind is the closed set of attribute value kinds. Coercion happens
// once at read time, not during serialization.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindDate
	KindBytes
)

type Field struct {
	Name string
	Kind FieldKind
}

// AttrValue is one attribute value of a feature record.
type AttrValue struct {
	Kind   FieldKind
	Text   string
	Number float64
	Date   time.Time
	Bytes  []byte
}

func TextValue(s string) AttrValue    { return AttrValue{Kind: KindText, Text: s} }
func NumberValue(f float64) AttrValue { return AttrValue{Kind: KindNumber, Number: f} }
func DateValue(t time.Time) AttrValue { return AttrValue{Kind: KindDate, Date: t} }
func BytesValue(b []byte) AttrValue   { return AttrValue{Kind: KindBytes, Bytes: b} }

// JSONValue returns the serialization of the value: dates as ISO-8601,
// bytes as base64 text.
func (v AttrValue) JSONValue() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindBytes:
		return base64.StdEncoding.EncodeToString(v.Bytes)
	default:
		return v.Text
	}
}

// TileQuery is a validated tile request as produced by the HTTP boundary.
type TileQuery struct {
	LayerID     string
	BBox        BBox
	Zoom        *int
	Simplify    Simplification
	MaxFeatures int
}
