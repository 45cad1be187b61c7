package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultArchitecture = "vgg16"
	DefaultNumChannels  = 3
	DefaultWorkers      = 1
	DefaultHistoryFile  = "CMDs/setup_ensemble.cmd"
)

var ErrInvalidConfig = errors.New("config: invalid ensemble config")

// Ensemble is the immutable description of one ensemble construction run.
type Ensemble struct {
	DestinationPath  string
	InputSize        int
	NumClasses       int
	NumModels        int
	Architecture     string
	NumChannels      int
	SmallInputs      bool
	OverrideExisting bool

	// Workers bounds concurrent member generation. Output does not depend on it.
	Workers int
}

// Defaults returns an Ensemble with every optional field set.
func Defaults() Ensemble {
	return Ensemble{
		Architecture: DefaultArchitecture,
		NumChannels:  DefaultNumChannels,
		Workers:      DefaultWorkers,
	}
}

func (e Ensemble) Validate() error {
	if strings.TrimSpace(e.DestinationPath) == "" {
		return fmt.Errorf("%w: destination_path is required", ErrInvalidConfig)
	}
	if !filepath.IsAbs(e.DestinationPath) {
		return fmt.Errorf("%w: destination_path must be absolute: %q", ErrInvalidConfig, e.DestinationPath)
	}
	if strings.TrimSpace(e.Architecture) == "" {
		return fmt.Errorf("%w: arch is required", ErrInvalidConfig)
	}
	positive := []struct {
		name  string
		value int
	}{
		{"n_in", e.InputSize},
		{"num_classes", e.NumClasses},
		{"num_models", e.NumModels},
		{"n_channels", e.NumChannels},
		{"workers", e.Workers},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.value)
		}
	}
	return nil
}

// File is the optional TOML options document. Unset keys stay nil so that
// only keys present in the file override defaults.
type File struct {
	Architecture      *string `toml:"arch"`
	NumChannels       *int    `toml:"n_channels"`
	SmallInputs       *bool   `toml:"small_inputs"`
	OverrideDirectory *bool   `toml:"override_directory"`
	Workers           *int    `toml:"workers"`
	HistoryFile       *string `toml:"history_file"`
	MetricsFile       *string `toml:"metrics_file"`
}

// LoadFile parses and validates an options document.
func LoadFile(path string) (File, error) {
	var f File
	if err := loadToml(path, &f); err != nil {
		return File{}, err
	}
	if err := ValidateFile(f); err != nil {
		return File{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return f, nil
}

// Apply copies every key present in f onto e.
func (f File) Apply(e *Ensemble) {
	if f.Architecture != nil {
		e.Architecture = strings.TrimSpace(*f.Architecture)
	}
	if f.NumChannels != nil {
		e.NumChannels = *f.NumChannels
	}
	if f.SmallInputs != nil {
		e.SmallInputs = *f.SmallInputs
	}
	if f.OverrideDirectory != nil {
		e.OverrideExisting = *f.OverrideDirectory
	}
	if f.Workers != nil {
		e.Workers = *f.Workers
	}
}

func ValidateFile(f File) error {
	if f.Architecture != nil && strings.TrimSpace(*f.Architecture) == "" {
		return fmt.Errorf("%w: arch must not be empty", ErrInvalidConfig)
	}
	if f.NumChannels != nil && *f.NumChannels <= 0 {
		return fmt.Errorf("%w: n_channels must be positive", ErrInvalidConfig)
	}
	if f.Workers != nil && *f.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if f.HistoryFile != nil && strings.TrimSpace(*f.HistoryFile) == "" {
		return fmt.Errorf("%w: history_file must not be empty", ErrInvalidConfig)
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
