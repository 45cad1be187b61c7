package checkpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/ensemblectl/internal/models"
)

var (
	ErrPathNotFound      = errors.New("checkpoint: path not found")
	ErrCorruptCheckpoint = errors.New("checkpoint: corrupt checkpoint")
	ErrInvalidInput      = errors.New("checkpoint: invalid write input")
)

// FormatVersion tags every meta.toml written by this package.
const FormatVersion = "ensemble.checkpoint.v1"

// Metadata carries every construction parameter needed to rebuild a model.
type Metadata struct {
	Architecture string
	NumChannels  int
	NumClasses   int
	SmallInputs  bool
	InputSize    int
}

func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Architecture) == "" {
		return errors.New("architecture is required")
	}
	if m.NumChannels <= 0 {
		return fmt.Errorf("n_channels must be positive, got %d", m.NumChannels)
	}
	if m.NumClasses <= 0 {
		return fmt.Errorf("num_classes must be positive, got %d", m.NumClasses)
	}
	if m.InputSize <= 0 {
		return fmt.Errorf("n_in must be positive, got %d", m.InputSize)
	}
	return nil
}

// Options are the factory options that reproduce the checkpointed layout.
func (m Metadata) Options() models.Options {
	return models.Options{NumClasses: m.NumClasses, SmallInputs: m.SmallInputs}
}

// Checkpoint is a decoded checkpoint file.
type Checkpoint struct {
	Metadata
	ParamCount int64
	StateHash  uint64
	State      []models.Tensor
}

// Restore builds a skeleton from the metadata and loads the state into it.
func (c Checkpoint) Restore(builder models.SkeletonBuilder) (*models.Model, error) {
	m, err := builder.Skeleton(c.Architecture, c.Options())
	if err != nil {
		return nil, fmt.Errorf("restore skeleton: %w", err)
	}
	if err := m.LoadState(c.State); err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}
	return m, nil
}
