// Package random holds the injectable randomness used by enrichment and
// metric simulation. Production code uses the math/rand/v2 global source;
// tests substitute a fixed sequence.
package random

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Source yields floats in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Default returns a Source backed by the process-wide generator. Safe for concurrent use.
func Default() Source { return globalSource{} }

// Uniform draws from [lo, hi].
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// Round3 rounds to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Index draws an index in [0, n). n must be positive.
func Index(src Source, n int) int {
	i := int(src.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Choice picks one element of options. Returns the zero value for an empty slice.
func Choice[T any](src Source, options []T) T {
	var zero T
	if len(options) == 0 {
		return zero
	}
	return options[Index(src, len(options))]
}

// Sample picks k distinct elements without replacement, preserving draw order.
// The input slice is not modified.
func Sample[T any](src Source, options []T, k int) []T {
	pool := append([]T(nil), options...)
	if k > len(pool) {
		k = len(pool)
	}
	for i := 0; i < k; i++ {
		j := i + Index(src, len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// Sequence replays fixed values in order, cycling when exhausted. The zero
// value always returns 0. Safe for concurrent use.
type Sequence struct {
	Values []float64

	mu   sync.Mutex
	next int
}

func (s *Sequence) Float64() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}
