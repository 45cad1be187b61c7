package models

import (
	"fmt"
	"slices"
)

// Model is an ordered parameter state for one architecture.
// Params keep the architecture's declaration order.
type Model struct {
	Arch   string
	Params []Tensor
}

// NumParams is the total number of scalar values across all tensors.
func (m *Model) NumParams() int {
	n := 0
	for _, p := range m.Params {
		n += p.Len()
	}
	return n
}

// Param returns the named tensor.
func (m *Model) Param(name string) (Tensor, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Tensor{}, false
}

// State returns the parameter tensors in declaration order.
func (m *Model) State() []Tensor {
	return m.Params
}

// LoadState copies state into the model. Names, order and shapes must match exactly.
func (m *Model) LoadState(state []Tensor) error {
	if len(state) != len(m.Params) {
		return fmt.Errorf("%w: arch=%q wants %d tensors, got %d", ErrStateMismatch, m.Arch, len(m.Params), len(state))
	}
	for i := range state {
		if err := state[i].Validate(); err != nil {
			return err
		}
		if !m.Params[i].SameLayout(state[i]) {
			return fmt.Errorf(
				"%w: tensor[%d] want %s%v got %s%v",
				ErrStateMismatch, i, m.Params[i].Name, m.Params[i].Shape, state[i].Name, state[i].Shape,
			)
		}
	}
	for i := range state {
		copy(m.Params[i].Data, state[i].Data)
	}
	return nil
}

// Equal reports bit-identical parameter state.
func (m *Model) Equal(o *Model) bool {
	if m.Arch != o.Arch || len(m.Params) != len(o.Params) {
		return false
	}
	for i := range m.Params {
		if !m.Params[i].SameLayout(o.Params[i]) || !slices.Equal(m.Params[i].Data, o.Params[i].Data) {
			return false
		}
	}
	return true
}
