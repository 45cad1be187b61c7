package models

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrStateMismatch = errors.New("models: state does not match model layout")
)

// Tensor is one named, dense float32 parameter or buffer.
type Tensor struct {
	Name  string
	Shape []int
	Data  []float32
}

// NewTensor allocates a zero-valued tensor of the given shape.
func NewTensor(name string, shape ...int) Tensor {
	return Tensor{
		Name:  name,
		Shape: slices.Clone(shape),
		Data:  make([]float32, numel(shape)),
	}
}

// Len is the number of scalar elements.
func (t Tensor) Len() int {
	return len(t.Data)
}

// SameLayout reports whether two tensors agree on name and shape.
func (t Tensor) SameLayout(o Tensor) bool {
	return t.Name == o.Name && slices.Equal(t.Shape, o.Shape)
}

// Validate checks that the data length agrees with the shape.
func (t Tensor) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: tensor without name", ErrStateMismatch)
	}
	for _, d := range t.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: tensor %q has non-positive dim in %v", ErrStateMismatch, t.Name, t.Shape)
		}
	}
	if want := numel(t.Shape); want != len(t.Data) {
		return fmt.Errorf("%w: tensor %q shape %v wants %d values, has %d", ErrStateMismatch, t.Name, t.Shape, want, len(t.Data))
	}
	return nil
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
