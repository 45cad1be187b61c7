package ensemble

import (
	"fmt"

	"github.com/danmuck/ensemblectl/internal/config"
	"github.com/danmuck/ensemblectl/internal/models"
	"github.com/danmuck/ensemblectl/internal/rng"
)

// Producer builds one deterministically initialized member model.
type Producer struct {
	factory models.Factory
	engine  rng.Engine
}

func NewProducer(factory models.Factory, engine rng.Engine) Producer {
	return Producer{factory: factory, engine: engine}
}

// Build returns the model for member index. The architecture is checked before
// a generator is derived, and the factory never receives pretrained=true.
func (p Producer) Build(index int, cfg config.Ensemble) (*models.Model, error) {
	if !p.factory.Supports(cfg.Architecture) {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedArchitecture, cfg.Architecture)
	}
	if index < 0 {
		return nil, fmt.Errorf("ensemble: negative member index %d", index)
	}
	gen := p.engine.Seeded(rng.MemberSeed(index))
	return p.factory.Create(cfg.Architecture, models.Options{
		NumClasses:  cfg.NumClasses,
		SmallInputs: cfg.SmallInputs,
		Pretrained:  false,
	}, gen)
}
