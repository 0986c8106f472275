package domain

import "math/rand"

// RandomSource supplies uniform randomness to the engines. Every operation
// that needs randomness takes one explicitly, so a seeded or scripted source
// makes the whole engine deterministic under test.
type RandomSource interface {
	// Intn returns a uniform int in [0, n). Panics if n <= 0.
	Intn(n int) int
	// Float64 returns a uniform float64 in [0, 1).
	Float64() float64
	// Shuffle permutes n elements using the given swap function.
	Shuffle(n int, swap func(i, j int))
}

// NewRand returns a RandomSource backed by math/rand with the given seed.
func NewRand(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}
