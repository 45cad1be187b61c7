// Package rng derives the random generators used for model initialization.
//
// Every seed gets its own generator. Nothing here touches the package-level
// math/rand source, so members may be built on separate goroutines without
// changing their output.
package rng

import "math/rand"

// Engine maps a seed to a freshly seeded generator.
type Engine interface {
	Seeded(seed int64) *rand.Rand
}

// MathRand is the default Engine backed by math/rand sources.
// The math/rand stream for a given seed is stable across Go releases.
type MathRand struct{}

func (MathRand) Seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// MemberSeed is the seed for ensemble member index. It is the index itself.
func MemberSeed(index int) int64 {
	return int64(index)
}
