package keys

import (
	"regexp"
	"strings"
	"testing"
)

func zp(v int) *int { return &v }

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("42", "chunk_1_2", 0.05, 1000, zp(6))
	k2 := Key("42", "chunk_1_2", 0.05, 1000, zp(6))
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
}

func TestKey_ParametersChangeKey(t *testing.T) {
	base := Key("42", "chunk_1_2", 0.05, 1000, zp(6))
	variants := []string{
		Key("43", "chunk_1_2", 0.05, 1000, zp(6)),
		Key("42", "chunk_2_1", 0.05, 1000, zp(6)),
		Key("42", "chunk_1_2", 0.02, 1000, zp(6)),
		Key("42", "chunk_1_2", 0.05, 2000, zp(6)),
		Key("42", "chunk_1_2", 0.05, 1000, zp(7)),
		Key("42", "chunk_1_2", 0.05, 1000, nil),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d produced the same key", i)
		}
	}
}

func TestKey_Shape(t *testing.T) {
	k := Key("my layer:v2", "full", 0, 5000, nil)
	if !strings.HasPrefix(k, "shp_") {
		t.Fatalf("missing shp_ prefix: %s", k)
	}
	if !strings.HasPrefix(k, LayerPrefix("my layer:v2")) {
		t.Fatalf("key %q does not start with its layer prefix %q", k, LayerPrefix("my layer:v2"))
	}
	if !regexp.MustCompile(`_[0-9a-f]{32}$`).MatchString(k) {
		t.Fatalf("missing 128-bit hex digest suffix: %s", k)
	}
	// keys become file names; they must be path-safe
	if strings.ContainsAny(k, "/\\ :") {
		t.Fatalf("key contains unsafe characters: %s", k)
	}
}

func TestLayerPrefix_SeparatesLayers(t *testing.T) {
	// layer ids where one is a leading substring of the other
	pairs := [][2]string{
		{"1", "12"},
		{"roads", "roads_2"},
	}
	for _, p := range pairs {
		k := Key(p[1], "full", 0, 0, nil)
		if strings.HasPrefix(k, LayerPrefix(p[0])) {
			t.Fatalf("layer %q key %q must not match layer %q prefix %q", p[1], k, p[0], LayerPrefix(p[0]))
		}
	}

	// distinct raw ids that sanitize to the same text get distinct prefixes
	if LayerPrefix("my layer") == LayerPrefix("my_layer") {
		t.Fatalf("layers %q and %q share prefix %q", "my layer", "my_layer", LayerPrefix("my layer"))
	}
}
