// Package gametest provides deterministic random sources for tests.
package gametest

import "sync"

// Source replays scripted draws. IntN returns the next scripted value
// reduced into [0, n); Float64 returns the next scripted float.
// Exhausted scripts fall back to 0.
type Source struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

// NewSource creates a Source with scripted IntN results.
func NewSource(ints ...int) *Source {
	return &Source{ints: ints}
}

// WithFloats appends scripted Float64 results.
func (s *Source) WithFloats(floats ...float64) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats = append(s.floats, floats...)
	return s
}

// IntN implements game.Source.
func (s *Source) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return ((v % n) + n) % n
}

// Float64 implements game.Source.
func (s *Source) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}
