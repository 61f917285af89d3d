// Package zoom maps map zoom levels to simplification, feature-budget, and
// cache-TTL policy. All functions are pure.
package zoom

import (
	"time"

	"github.com/openmaps/shptiles/internal/core/model"
)

type Category string

const (
	Far      Category = "far"
	Medium   Category = "medium"
	Close    Category = "close"
	Detailed Category = "detailed"
	Default  Category = "default"
)

var ttlByCategory = map[Category]time.Duration{
	Far:      24 * time.Hour,
	Medium:   6 * time.Hour,
	Close:    2 * time.Hour,
	Detailed: time.Hour,
	Default:  12 * time.Hour,
}

// CategoryFor buckets a zoom level; a nil zoom is the default category.
func CategoryFor(zoom *int) Category {
	if zoom == nil {
		return Default
	}
	switch z := *zoom; {
	case z < 8:
		return Far
	case z < 13:
		return Medium
	case z < 16:
		return Close
	default:
		return Detailed
	}
}

// TTL returns the memory-tier expiry for a zoom level. Far views change
// rarely and cache long; detailed views cache short.
func TTL(zoom *int) time.Duration {
	return ttlByCategory[CategoryFor(zoom)]
}

// AutoFactor is the simplification factor applied when the caller asks for
// "auto". It is monotonically non-increasing in zoom.
func AutoFactor(zoom *int) float64 {
	if zoom == nil {
		return 0
	}
	switch z := *zoom; {
	case z < 8:
		return 0.05
	case z < 10:
		return 0.02
	case z < 12:
		return 0.01
	case z < 14:
		return 0.005
	case z < 16:
		return 0.002
	default:
		return 0
	}
}

// chunkBudget is the per-chunk feature cap when the caller supplies none.
func chunkBudget(zoom *int) int {
	if zoom == nil {
		return 5000
	}
	switch z := *zoom; {
	case z < 8:
		return 1000
	case z < 10:
		return 2000
	case z < 12:
		return 3000
	case z < 14:
		return 4000
	default:
		return 5000
	}
}

// Resolve turns the decoded request parameters into the effective
// simplification factor and per-chunk feature cap. A caller-supplied global
// max is spread across visible chunks with a floor of 1000 per chunk.
func Resolve(zoom *int, s model.Simplification, globalMax, visibleChunks int) (factor float64, perChunk int) {
	switch s.Mode {
	case model.SimplifyAuto:
		factor = AutoFactor(zoom)
	case model.SimplifyExplicit:
		factor = s.Factor
	case model.SimplifyNone:
		factor = 0
	}

	if globalMax > 0 {
		if visibleChunks < 1 {
			visibleChunks = 1
		}
		perChunk = globalMax / visibleChunks
		if perChunk < 1000 {
			perChunk = 1000
		}
		return factor, perChunk
	}
	return factor, chunkBudget(zoom)
}
