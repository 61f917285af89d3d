// Package keys builds deterministic cache keys for chunk payloads.
//
// A key embeds the sanitized layer id in clear text so the file tier can
// clear one layer's entries by prefix, followed by a 128-bit digest over
// the full parameter tuple.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const prefix = "shp_"

// Key derives the cache key for one chunk extraction. The digest covers
// layer id, chunk id, simplification factor, feature cap, and zoom, so any
// parameter change addresses a different entry.
func Key(layerID, chunkID string, factor float64, maxFeatures int, zoom *int) string {
	params := fmt.Sprintf("%s:%s:%g:%d:%s", layerID, chunkID, factor, maxFeatures, zoomPart(zoom))

	// Two independent 64-bit sums make a 128-bit digest; xxhash has no
	// seeded variant in v2, so the second sum runs over a domain-separated
	// input.
	hi := xxhash.Sum64String(params)
	lo := xxhash.Sum64String("shptiles.chunk\x00" + params)

	return fmt.Sprintf("%s%016x%016x", LayerPrefix(layerID), hi, lo)
}

// LayerPrefix returns the file-name prefix shared by all of a layer's keys.
func LayerPrefix(layerID string) string {
	return prefix + layerSegment(layerID) + "_"
}

// layerSegment is the sanitized layer id plus a short digest of the raw
// id. The digest keeps layer segments from nesting: without it the
// prefix for "roads" would also match keys of "roads_2", and distinct
// raw ids that sanitize alike ("my layer" vs "my_layer") would share a
// prefix, so clearing one layer could delete another's entries.
func layerSegment(layerID string) string {
	return fmt.Sprintf("%s-%08x", sanitizeLayer(layerID), uint32(xxhash.Sum64String(layerID)))
}

// Prefix is the file-name prefix shared by every cache key.
func Prefix() string { return prefix }

func zoomPart(zoom *int) string {
	if zoom == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *zoom)
}

func sanitizeLayer(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "none"
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
