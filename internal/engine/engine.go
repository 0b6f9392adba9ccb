// Package engine contains the frame update engine and the frame driver.
// This is the heartbeat of the benchmark.
//
// ARCHITECTURAL RULE: the Engine only mutates the participant it is handed.
// Participants share nothing, so any number of them may be updated at once.
package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/object"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/rules"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/optimization"
)

const tracerName = "github.com/MRamiBalles/ParallelGameStates/internal/engine"

// Mode selects how a frame update is executed.
type Mode int

const (
	// ModeSequential runs every pass as a plain loop on the calling goroutine.
	ModeSequential Mode = iota
	// ModeParallel splits objects, lights and texels across the shared pool.
	ModeParallel
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeParallel:
		return "parallel"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "sequential" or "parallel".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "sequential":
		return ModeSequential, nil
	case "parallel":
		return ModeParallel, nil
	}
	return 0, fmt.Errorf("unknown execution mode %q", s)
}

// Grain is the number of items handed to one forked task at each level.
type Grain struct {
	Objects int
	Lights  int
	Texels  int
}

// GrainFrom reads the grains out of an optimization preset.
func GrainFrom(cfg *optimization.Config) Grain {
	return Grain{
		Objects: cfg.ObjectGrain,
		Lights:  cfg.LightGrain,
		Texels:  cfg.TexelGrain,
	}
}

// LightObserver sees each object's light total after pass 2 and before
// pass 3 touches its texture. In parallel mode it is called from several
// goroutines at once.
type LightObserver interface {
	ObjectLit(participantID, objectIndex int, total float32)
}

// LightObserverFunc adapts a function to LightObserver.
type LightObserverFunc func(participantID, objectIndex int, total float32)

// ObjectLit calls f.
func (f LightObserverFunc) ObjectLit(participantID, objectIndex int, total float32) {
	f(participantID, objectIndex, total)
}

// Engine performs one frame update for a participant.
type Engine struct {
	mode     Mode
	pool     *Pool
	grain    Grain
	step     float32
	logger   *logger.Logger
	metrics  *metrics.Collector
	observer LightObserver
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode selects sequential or parallel execution.
func WithMode(m Mode) Option { return func(e *Engine) { e.mode = m } }

// WithPool sets the shared worker pool. Parallel mode without a pool runs
// everything inline.
func WithPool(p *Pool) Option { return func(e *Engine) { e.pool = p } }

// WithGrain overrides the task granularity.
func WithGrain(g Grain) Option { return func(e *Engine) { e.grain = g } }

// WithStep overrides the position step.
func WithStep(step float32) Option { return func(e *Engine) { e.step = step } }

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option { return func(e *Engine) { e.metrics = c } }

// WithLightObserver installs a hook called between pass 2 and pass 3.
func WithLightObserver(o LightObserver) Option { return func(e *Engine) { e.observer = o } }

// New creates an engine. Defaults: sequential, step 0.1, default grains.
func New(opts ...Option) *Engine {
	e := &Engine{
		mode:   ModeSequential,
		grain:  GrainFrom(optimization.DefaultConfig()),
		step:   rules.DefaultStep,
		logger: logger.Discard(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode reports the execution mode.
func (e *Engine) Mode() Mode { return e.mode }

// Pool returns the shared pool, possibly nil.
func (e *Engine) Pool() *Pool { return e.pool }

// Update advances one participant by one frame: position, light total and
// texture modulation for every object. A failed task aborts the update and
// its error is returned; the participant is then in an undefined state.
func (e *Engine) Update(ctx context.Context, p *participant.Participant) error {
	_, span := e.tracer.Start(ctx, "engine.Update", trace.WithAttributes(
		attribute.Int("participant.id", p.ID),
		attribute.String("mode", e.mode.String()),
		attribute.Int("objects", len(p.Objects)),
	))
	defer span.End()

	var err error
	if e.mode == ModeParallel {
		err = e.updateParallel(p)
	} else {
		err = runRange(func(_, _ int) error {
			e.updateSequential(p)
			return nil
		}, 0, len(p.Objects))
	}
	if err != nil {
		e.metrics.RecordTaskFailure()
		span.RecordError(err)
		e.logger.Error("participant update failed", "participant", p.ID, "err", err)
		return fmt.Errorf("update participant %d: %w", p.ID, err)
	}

	texels := 0
	if len(p.Objects) > 0 && p.Objects[0].Texture != nil {
		texels = p.Objects[0].Texture.Len()
	}
	e.metrics.RecordParticipantUpdate(len(p.Objects), len(p.Lights), texels)
	return nil
}

func (e *Engine) updateSequential(p *participant.Participant) {
	for i, obj := range p.Objects {
		advance(obj, e.step)
		total := illuminate(obj, p.Lights)
		e.observe(p.ID, i, total)
		modulate(obj, total)
	}
}

func (e *Engine) updateParallel(p *participant.Participant) error {
	return e.pool.For(len(p.Objects), e.grain.Objects, func(lo, hi int) error {
		for i := lo; i < hi; i++ {
			if err := e.updateObject(p, i, p.Objects[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) updateObject(p *participant.Participant, idx int, obj *object.GameObject) error {
	advance(obj, e.step)
	total, err := illuminateOn(e.pool, e.grain.Lights, obj, p.Lights)
	if err != nil {
		return err
	}
	e.observe(p.ID, idx, total)
	return modulateOn(e.pool, e.grain.Texels, obj, total)
}

func (e *Engine) observe(participantID, idx int, total float32) {
	if e.observer != nil {
		e.observer.ObjectLit(participantID, idx, total)
	}
}
