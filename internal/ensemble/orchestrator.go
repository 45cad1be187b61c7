package ensemble

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/danmuck/ensemblectl/internal/checkpoint"
	"github.com/danmuck/ensemblectl/internal/config"
	"github.com/danmuck/ensemblectl/internal/layout"
	"github.com/danmuck/ensemblectl/internal/models"
	"github.com/danmuck/ensemblectl/internal/observability"
	"github.com/danmuck/ensemblectl/internal/rng"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Phase is the orchestrator lifecycle marker.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePreparing  Phase = "preparing"
	PhaseGenerating Phase = "generating"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// MemberResult describes one checkpointed member.
type MemberResult struct {
	Index  int
	Seed   int64
	Path   string
	Params int
	Bytes  int64
}

// Result is the outcome of a successful Build.
type Result struct {
	RunID   string
	Root    string
	Members []MemberResult
}

type Option func(*Orchestrator)

// WithLogger replaces the global logger as the base for run logs.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// Orchestrator drives ensemble construction into a destination directory.
type Orchestrator struct {
	producer Producer
	factory  models.Factory
	logger   zerolog.Logger

	mu    sync.Mutex
	phase Phase
	err   error
}

func NewOrchestrator(factory models.Factory, engine rng.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		producer: NewProducer(factory, engine),
		factory:  factory,
		logger:   log.Logger,
		phase:    PhaseIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Phase reports the current lifecycle phase and, when failed, the error.
func (o *Orchestrator) Phase() (Phase, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase, o.err
}

func (o *Orchestrator) setPhase(p Phase, err error) {
	o.mu.Lock()
	o.phase = p
	o.err = err
	o.mu.Unlock()
}

// Build prepares cfg.DestinationPath and checkpoints every member into it.
// The first failure aborts the run; members already written are left in place.
func (o *Orchestrator) Build(ctx context.Context, cfg config.Ensemble) (Result, error) {
	o.mu.Lock()
	if o.phase == PhasePreparing || o.phase == PhaseGenerating {
		o.mu.Unlock()
		return Result{}, ErrBusy
	}
	o.phase, o.err = PhasePreparing, nil
	o.mu.Unlock()

	res := Result{RunID: uuid.NewString(), Root: cfg.DestinationPath}
	logger := o.logger.With().
		Str("run_id", res.RunID).
		Str("arch", cfg.Architecture).
		Str("root", cfg.DestinationPath).
		Logger()

	fail := func(err error) (Result, error) {
		o.setPhase(PhaseFailed, err)
		observability.RecordRun(cfg.Architecture, false)
		logger.Error().Err(err).Msg("ensemble build failed")
		return Result{}, err
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}
	if !o.factory.Supports(cfg.Architecture) {
		return fail(fmt.Errorf("%w: %q", models.ErrUnsupportedArchitecture, cfg.Architecture))
	}
	if err := layout.Prepare(cfg.DestinationPath, cfg.OverrideExisting); err != nil {
		return fail(err)
	}
	logger.Info().
		Int("num_models", cfg.NumModels).
		Int("workers", cfg.Workers).
		Bool("override", cfg.OverrideExisting).
		Msg("ensemble root prepared")

	o.setPhase(PhaseGenerating, nil)
	res.Members = make([]MemberResult, cfg.NumModels)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.NumModels; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			member, err := o.member(i, cfg, logger)
			if err != nil {
				return err
			}
			res.Members[i] = member
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	o.setPhase(PhaseDone, nil)
	observability.RecordRun(cfg.Architecture, true)
	logger.Info().Int("members", len(res.Members)).Msg("ensemble build complete")
	return res, nil
}

func (o *Orchestrator) member(index int, cfg config.Ensemble, logger zerolog.Logger) (MemberResult, error) {
	seed := rng.MemberSeed(index)
	out := MemberResult{Index: index, Seed: seed}
	arch := cfg.Architecture

	failed := func(stage string, err error) (MemberResult, error) {
		observability.RecordMember(arch, 0, false)
		return MemberResult{}, &MemberError{Index: index, Stage: stage, Err: err}
	}

	start := time.Now()
	dir, err := layout.MemberDirectory(cfg.DestinationPath, index)
	if err != nil {
		return failed(observability.StageDirectory, err)
	}
	observability.RecordStage(arch, observability.StageDirectory, time.Since(start))

	start = time.Now()
	model, err := o.producer.Build(index, cfg)
	if err != nil {
		return failed(observability.StageBuild, err)
	}
	out.Params = model.NumParams()
	observability.RecordStage(arch, observability.StageBuild, time.Since(start))

	start = time.Now()
	out.Path = layout.CheckpointPath(cfg.DestinationPath, index)
	meta := checkpoint.Metadata{
		Architecture: arch,
		NumChannels:  cfg.NumChannels,
		NumClasses:   cfg.NumClasses,
		SmallInputs:  cfg.SmallInputs,
		InputSize:    cfg.InputSize,
	}
	if err := checkpoint.Write(out.Path, model, meta); err != nil {
		return failed(observability.StageCheckpoint, err)
	}
	if info, err := os.Stat(out.Path); err == nil {
		out.Bytes = info.Size()
		observability.RecordCheckpointBytes(arch, out.Bytes)
	}
	observability.RecordStage(arch, observability.StageCheckpoint, time.Since(start))
	observability.RecordMember(arch, out.Params, true)

	logger.Info().
		Int("member", index).
		Int64("seed", seed).
		Str("path", out.Path).
		Int("params", out.Params).
		Int64("bytes", out.Bytes).
		Str("dir", dir).
		Msg("member checkpointed")
	return out, nil
}
