package model

import (
	"testing"
	"time"
)

func TestBBoxOverlaps(t *testing.T) {
	view := BBox{XMin: 0, YMin: 0, XMax: 10, YMax: 10}

	cases := []struct {
		name string
		b    BBox
		want bool
	}{
		{"partial overlap", BBox{5, 5, 15, 15}, true},
		{"disjoint", BBox{20, 20, 30, 30}, false},
		{"contained", BBox{2, 2, 4, 4}, true},
		{"touching edge", BBox{10, 0, 20, 10}, true},
		{"left of", BBox{-5, 0, -1, 10}, false},
		{"below", BBox{0, -5, 10, -1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.b.Overlaps(view); got != tc.want {
				t.Fatalf("Overlaps(%v, %v)=%v want %v", tc.b, view, got, tc.want)
			}
			if got := view.Overlaps(tc.b); got != tc.want {
				t.Fatalf("overlap is not symmetric for %v", tc.b)
			}
		})
	}
}

func TestBBoxContains_EdgesInclusive(t *testing.T) {
	b := BBox{XMin: 0, YMin: 0, XMax: 10, YMax: 10}
	for _, p := range [][2]float64{{0, 0}, {10, 10}, {0, 10}, {5, 0}} {
		if !b.Contains(p[0], p[1]) {
			t.Fatalf("edge point %v should be contained", p)
		}
	}
	if b.Contains(10.001, 5) {
		t.Fatalf("point outside should not be contained")
	}
}

func TestParseSimplification(t *testing.T) {
	cases := []struct {
		raw  string
		mode SimplifyMode
		f    float64
	}{
		{"auto", SimplifyAuto, 0},
		{"AUTO", SimplifyAuto, 0},
		{"", SimplifyNone, 0},
		{"none", SimplifyNone, 0},
		{"0.05", SimplifyExplicit, 0.05},
		{" 0.01 ", SimplifyExplicit, 0.01},
		{"garbage", SimplifyExplicit, 0},
		{"1.5", SimplifyExplicit, 0},
		{"-0.2", SimplifyExplicit, 0},
	}
	for _, tc := range cases {
		got := ParseSimplification(tc.raw)
		if got.Mode != tc.mode || got.Factor != tc.f {
			t.Fatalf("ParseSimplification(%q)=%+v want mode=%v factor=%v", tc.raw, got, tc.mode, tc.f)
		}
	}
}

func TestAttrValueJSON(t *testing.T) {
	d := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	if got := DateValue(d).JSONValue(); got != "2024-03-17" {
		t.Fatalf("date serialization: got %v", got)
	}
	if got := BytesValue([]byte{0x01, 0x02}).JSONValue(); got != "AQI=" {
		t.Fatalf("bytes serialization: got %v", got)
	}
	if got := NumberValue(3.5).JSONValue(); got != 3.5 {
		t.Fatalf("number serialization: got %v", got)
	}
	if got := TextValue("x").JSONValue(); got != "x" {
		t.Fatalf("text serialization: got %v", got)
	}
}
