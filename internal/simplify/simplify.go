// Package simplify reduces coordinate rings by fixed-stride decimation.
//
// This is deliberately a cheap, deterministic point-drop: it keeps roughly
// (1-factor)*N points at a uniform stride, always preserving the first and
// last point. It is not topology-preserving; a simplified ring may
// self-intersect, which is accepted for interactive display.
package simplify

import (
	"math"

	"github.com/paulmach/orb"
)

// minRingLen is the threshold below which rings pass through untouched.
const minRingLen = 10

// Ring decimates pts by factor in [0, 1). Factors outside that range, and
// rings of minRingLen points or fewer, return the input unchanged.
func Ring(pts []orb.Point, factor float64) []orb.Point {
	if factor <= 0 || factor >= 1 {
		return pts
	}
	n := len(pts)
	if n <= minRingLen {
		return pts
	}

	keep := int(math.Round(float64(n) * (1 - factor)))
	if keep < 3 {
		keep = 3
	}
	if keep >= n {
		return pts
	}

	out := make([]orb.Point, 0, keep)
	out = append(out, pts[0])

	step := float64(n) / float64(keep)
	for j := 1; j <= keep-2; j++ {
		idx := int(math.Round(float64(j) * step))
		if idx > n-1 {
			idx = n - 1
		}
		out = append(out, pts[idx])
	}

	out = append(out, pts[n-1])
	return out
}
