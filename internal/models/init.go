package models

import (
	"math"
	"math/rand"
)

// Init fills a tensor from rng. Constant initializers never draw from rng.
type Init func(t Tensor, rng *rand.Rand)

func constant(v float32) Init {
	return func(t Tensor, _ *rand.Rand) {
		for i := range t.Data {
			t.Data[i] = v
		}
	}
}

func normal(std float64) Init {
	return func(t Tensor, rng *rand.Rand) {
		for i := range t.Data {
			t.Data[i] = float32(rng.NormFloat64() * std)
		}
	}
}

// kaimingNormalFanOut is He initialization in fan_out mode with a ReLU gain.
func kaimingNormalFanOut(t Tensor, rng *rand.Rand) {
	fanOut := t.Shape[0]
	for _, d := range t.Shape[2:] {
		fanOut *= d
	}
	normal(math.Sqrt(2.0/float64(fanOut)))(t, rng)
}

func uniformFanIn(fanIn int) Init {
	bound := 1.0 / math.Sqrt(float64(fanIn))
	return func(t Tensor, rng *rand.Rand) {
		for i := range t.Data {
			t.Data[i] = float32((rng.Float64()*2 - 1) * bound)
		}
	}
}

var (
	zeros = constant(0)
	ones  = constant(1)
)
