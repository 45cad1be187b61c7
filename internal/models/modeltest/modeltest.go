// Package modeltest provides small architectures for tests that build whole ensembles.
package modeltest

import (
	"math/rand"

	"github.com/danmuck/ensemblectl/internal/models"
)

const TinyID = "tiny"

// Tiny is a conv + linear model with a few hundred parameters.
type Tiny struct{}

func (Tiny) Metadata() models.ArchitectureMetadata {
	return models.ArchitectureMetadata{ID: TinyID, Family: "test", Description: "tiny conv net for tests"}
}

func (Tiny) Params(opts models.Options) []models.ParamSpec {
	stem := 5
	if opts.SmallInputs {
		stem = 3
	}
	return []models.ParamSpec{
		{Name: "conv.weight", Shape: []int{4, 3, stem, stem}, Init: gaussian},
		{Name: "conv.bias", Shape: []int{4}, Init: fill(0)},
		{Name: "fc.weight", Shape: []int{opts.NumClasses, 4}, Init: gaussian},
		{Name: "fc.bias", Shape: []int{opts.NumClasses}, Init: fill(0)},
	}
}

// Registry returns a registry holding the built-in set plus Tiny.
func Registry() *models.Registry {
	r := models.Default()
	if err := r.Register(Tiny{}); err != nil {
		panic(err)
	}
	return r
}

func gaussian(t models.Tensor, rng *rand.Rand) {
	for i := range t.Data {
		t.Data[i] = float32(rng.NormFloat64())
	}
}

func fill(v float32) models.Init {
	return func(t models.Tensor, _ *rand.Rand) {
		for i := range t.Data {
			t.Data[i] = v
		}
	}
}
