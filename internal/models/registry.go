package models

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

var (
	ErrUnsupportedArchitecture = errors.New("models: unsupported architecture")
	ErrArchitectureExists      = errors.New("models: architecture already registered")
	ErrArchitectureNil         = errors.New("models: architecture is nil")
	ErrInvalidMetadata         = errors.New("models: invalid architecture metadata")
	ErrInvalidOptions          = errors.New("models: invalid construction options")
	ErrPretrainedUnavailable   = errors.New("models: pretrained weights are not available")
	ErrNilGenerator            = errors.New("models: nil random generator")
)

// Built-in architecture identifiers.
const (
	VGG11    = "vgg11"
	VGG11BN  = "vgg11_bn"
	VGG13    = "vgg13"
	VGG13BN  = "vgg13_bn"
	VGG16    = "vgg16"
	VGG16BN  = "vgg16_bn"
	VGG19    = "vgg19"
	VGG19BN  = "vgg19_bn"
	ResNet18 = "resnet18"
	ResNet34 = "resnet34"

	DefaultArchitecture = VGG16
)

// Every built-in stem consumes RGB input.
const inputChannels = 3

// ArchitectureMetadata is the identity and display data of one architecture.
type ArchitectureMetadata struct {
	ID          string
	Family      string
	Description string
}

// Options are the construction parameters handed to the factory.
type Options struct {
	NumClasses  int
	SmallInputs bool
	Pretrained  bool
}

// Architecture declares the parameter layout for a set of options.
type Architecture interface {
	Metadata() ArchitectureMetadata
	Params(opts Options) []ParamSpec
}

// Factory builds initialized models by architecture id.
type Factory interface {
	Supports(id string) bool
	Create(id string, opts Options, rng *rand.Rand) (*Model, error)
}

// SkeletonBuilder builds zero-valued models ready for LoadState.
type SkeletonBuilder interface {
	Skeleton(id string, opts Options) (*Model, error)
}

// Registry stores architectures by stable identifier.
type Registry struct {
	items map[string]Architecture
}

// NewRegistry creates an empty architecture registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Architecture)}
}

// Default returns a registry holding the closed built-in architecture set.
func Default() *Registry {
	r := NewRegistry()
	for _, depth := range []int{11, 13, 16, 19} {
		mustRegister(r, vgg{depth: depth})
		mustRegister(r, vgg{depth: depth, batchNorm: true})
	}
	mustRegister(r, resnet{depth: 18, blocks: [4]int{2, 2, 2, 2}})
	mustRegister(r, resnet{depth: 34, blocks: [4]int{3, 4, 6, 3}})
	return r
}

func mustRegister(r *Registry, arch Architecture) {
	if err := r.Register(arch); err != nil {
		panic(err)
	}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta ArchitectureMetadata) error {
	id := strings.TrimSpace(meta.ID)
	if id == "" || strings.TrimSpace(meta.Family) == "" {
		return fmt.Errorf("%w: id and family are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds an architecture to the registry.
func (r *Registry) Register(arch Architecture) error {
	if arch == nil {
		return ErrArchitectureNil
	}
	meta := arch.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}
	if _, ok := r.items[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrArchitectureExists, meta.ID)
	}
	r.items[meta.ID] = arch
	return nil
}

// Resolve returns an architecture by id.
func (r *Registry) Resolve(id string) (Architecture, bool) {
	arch, ok := r.items[id]
	return arch, ok
}

func (r *Registry) Supports(id string) bool {
	_, ok := r.items[id]
	return ok
}

// IDs returns the registered ids in lexical order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []ArchitectureMetadata {
	list := make([]ArchitectureMetadata, 0, len(r.items))
	for _, arch := range r.items {
		list = append(list, arch.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Create builds a model with every parameter drawn from rng in declaration order.
// The id is checked before rng is touched.
func (r *Registry) Create(id string, opts Options, rng *rand.Rand) (*Model, error) {
	m, specs, err := r.layout(id, opts)
	if err != nil {
		return nil, err
	}
	if opts.Pretrained {
		return nil, fmt.Errorf("%w: %s", ErrPretrainedUnavailable, id)
	}
	if rng == nil {
		return nil, ErrNilGenerator
	}
	for i, spec := range specs {
		spec.Init(m.Params[i], rng)
	}
	return m, nil
}

// Skeleton builds a zero-valued model with the layout Create would produce.
func (r *Registry) Skeleton(id string, opts Options) (*Model, error) {
	m, _, err := r.layout(id, opts)
	return m, err
}

func (r *Registry) layout(id string, opts Options) (*Model, []ParamSpec, error) {
	arch, ok := r.Resolve(id)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedArchitecture, id, strings.Join(r.IDs(), ", "))
	}
	if opts.NumClasses <= 0 {
		return nil, nil, fmt.Errorf("%w: num_classes=%d", ErrInvalidOptions, opts.NumClasses)
	}
	specs := arch.Params(opts)
	m := &Model{Arch: id, Params: make([]Tensor, len(specs))}
	for i, spec := range specs {
		m.Params[i] = NewTensor(spec.Name, spec.Shape...)
	}
	return m, specs, nil
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
