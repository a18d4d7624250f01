// Package game defines the random source shared by the arcade games.
// Each game lives in its own subpackage with pure draw and payout rules.
package game

import "math/rand/v2"

// Source is a uniform random generator. Implementations must be safe for
// concurrent use since a single source serves every chat.
type Source interface {
	// IntN returns a uniform int in [0, n).
	IntN(n int) int
	// Float64 returns a uniform float in [0.0, 1.0).
	Float64() float64
}

// Shared is the process-wide source backed by math/rand/v2's global generator.
// It is seeded by the runtime and not reproducible.
var Shared Source = sharedSource{}

type sharedSource struct{}

func (sharedSource) IntN(n int) int { return rand.IntN(n) }
func (sharedSource) Float64() float64 { return rand.Float64() }

// IntRange returns a uniform int in the inclusive range [lo, hi].
func IntRange(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo+1)
}
