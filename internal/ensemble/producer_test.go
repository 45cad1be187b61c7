package ensemble

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/danmuck/ensemblectl/internal/config"
	"github.com/danmuck/ensemblectl/internal/models"
	"github.com/danmuck/ensemblectl/internal/models/modeltest"
	"github.com/danmuck/ensemblectl/internal/rng"
	"github.com/danmuck/ensemblectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

type recordingEngine struct {
	seeds []int64
}

func (e *recordingEngine) Seeded(seed int64) *rand.Rand {
	e.seeds = append(e.seeds, seed)
	return rng.MathRand{}.Seeded(seed)
}

type recordingFactory struct {
	models.Factory
	opts []models.Options
}

func (f *recordingFactory) Create(id string, opts models.Options, gen *rand.Rand) (*models.Model, error) {
	f.opts = append(f.opts, opts)
	return f.Factory.Create(id, opts, gen)
}

func tinyConfig(root string, n int) config.Ensemble {
	cfg := config.Defaults()
	cfg.DestinationPath = root
	cfg.InputSize = 32
	cfg.NumClasses = 10
	cfg.NumModels = n
	cfg.Architecture = modeltest.TinyID
	return cfg
}

func TestProducerSeedsWithIndex(t *testing.T) {
	testlog.Start(t)
	reg := modeltest.Registry()
	engine := &recordingEngine{}
	factory := &recordingFactory{Factory: reg}
	p := NewProducer(factory, engine)
	cfg := tinyConfig("/tmp/unused", 1)
	cfg.SmallInputs = true

	got, err := p.Build(5, cfg)
	require.NoError(t, err)
	require.Equal(t, []int64{5}, engine.seeds)
	require.Len(t, factory.opts, 1)
	require.False(t, factory.opts[0].Pretrained)
	require.True(t, factory.opts[0].SmallInputs)
	require.Equal(t, 10, factory.opts[0].NumClasses)

	want, err := reg.Create(modeltest.TinyID, models.Options{NumClasses: 10, SmallInputs: true}, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	require.True(t, got.Equal(want))
}

func TestProducerRejectsUnknownArchitectureBeforeSeeding(t *testing.T) {
	testlog.Start(t)
	engine := &recordingEngine{}
	p := NewProducer(modeltest.Registry(), engine)
	cfg := tinyConfig("/tmp/unused", 1)
	cfg.Architecture = "alexnet"

	_, err := p.Build(0, cfg)
	require.True(t, errors.Is(err, models.ErrUnsupportedArchitecture))
	require.Empty(t, engine.seeds)
}

func TestProducerDoesNotMutateConfig(t *testing.T) {
	testlog.Start(t)
	p := NewProducer(modeltest.Registry(), rng.MathRand{})
	cfg := tinyConfig("/tmp/unused", 2)
	before := cfg

	_, err := p.Build(1, cfg)
	require.NoError(t, err)
	require.Equal(t, before, cfg)
}
