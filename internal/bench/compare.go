// Package bench runs the same population through both execution modes and
// checks that they agree.
package bench

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/engine"
	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
)

// DefaultTolerance is the relative difference allowed between modes.
const DefaultTolerance = 1e-5

// Options configures a comparison.
type Options struct {
	Frames    int
	Workers   int
	Grain     engine.Grain
	Step      float32
	Tolerance float64
	Logger    *logger.Logger

	// FrameLog receives the events of both runs when set.
	FrameLog   *events.FrameLog
	// OnRunStart is called with each mode's run id before its first frame.
	OnRunStart func(ctx context.Context, runID string, mode engine.Mode, workers int) error
}

// ModeResult is the timing of one mode.
type ModeResult struct {
	RunID   string            `json:"run_id"`
	Mode    string            `json:"mode"`
	Workers int               `json:"workers"`
	Summary engine.RunSummary `json:"summary"`
}

// Mismatch is the first value that differs beyond tolerance.
type Mismatch struct {
	Participant int     `json:"participant"`
	Object      int     `json:"object"`
	Field       string  `json:"field"`
	Sequential  float32 `json:"sequential"`
	Parallel    float32 `json:"parallel"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("participant %d object %d %s: sequential %g, parallel %g",
		m.Participant, m.Object, m.Field, m.Sequential, m.Parallel)
}

// Result is the outcome of a comparison.
type Result struct {
	Sequential ModeResult `json:"sequential"`
	Parallel   ModeResult `json:"parallel"`
	Speedup    float64    `json:"speedup"`
	Mismatch   *Mismatch  `json:"mismatch,omitempty"`
}

// Agree reports whether both modes produced the same state.
func (r Result) Agree() bool { return r.Mismatch == nil }

// Compare clones pop, runs one copy sequentially and the other in parallel,
// and diffs the final positions and textures. pop itself is not modified.
func Compare(ctx context.Context, pop participant.Population, opts Options) (Result, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	seqPop := pop.Clone()
	parPop := pop.Clone()

	seqEng := engine.New(
		engine.WithMode(engine.ModeSequential),
		engine.WithStep(opts.Step),
		engine.WithLogger(opts.Logger),
	)
	seq, err := runMode(ctx, seqEng, seqPop, opts)
	if err != nil {
		return Result{}, fmt.Errorf("sequential run: %w", err)
	}

	parEng := engine.New(
		engine.WithMode(engine.ModeParallel),
		engine.WithPool(engine.NewPool(opts.Workers)),
		engine.WithGrain(opts.Grain),
		engine.WithStep(opts.Step),
		engine.WithLogger(opts.Logger),
	)
	par, err := runMode(ctx, parEng, parPop, opts)
	if err != nil {
		return Result{}, fmt.Errorf("parallel run: %w", err)
	}

	res := Result{Sequential: seq, Parallel: par}
	if par.Summary.Total > 0 {
		res.Speedup = float64(seq.Summary.Total) / float64(par.Summary.Total)
	}
	res.Mismatch = Diff(seqPop, parPop, opts.Tolerance)
	return res, nil
}

func runMode(ctx context.Context, eng *engine.Engine, pop participant.Population, opts Options) (ModeResult, error) {
	runID := events.NewRunID()
	if opts.OnRunStart != nil {
		if err := opts.OnRunStart(ctx, runID, eng.Mode(), eng.Pool().Workers()); err != nil {
			return ModeResult{}, fmt.Errorf("record run: %w", err)
		}
	}

	start := time.Now()
	d := engine.NewDriver(eng, pop, nil,
		engine.WithFrames(opts.Frames),
		engine.WithDriverLogger(opts.Logger),
		engine.WithFrameLog(opts.FrameLog),
		engine.WithRunID(runID),
	)
	summary, err := d.Run(ctx)
	if err != nil {
		return ModeResult{}, err
	}
	opts.Logger.Info("Mode finished", "mode", eng.Mode(), "elapsed", time.Since(start))
	return ModeResult{
		RunID:   runID,
		Mode:    eng.Mode().String(),
		Workers: eng.Pool().Workers(),
		Summary: summary,
	}, nil
}

// Diff returns the first position or texel where a and b differ by more than
// tol relative to the larger magnitude, or nil. Values that are exactly equal,
// zeros included, always agree.
func Diff(a, b participant.Population, tol float64) *Mismatch {
	for pi := range a {
		for oi, ao := range a[pi].Objects {
			bo := b[pi].Objects[oi]
			fields := []struct {
				name string
				x, y float32
			}{
				{"position.x", ao.Position.X, bo.Position.X},
				{"position.y", ao.Position.Y, bo.Position.Y},
				{"position.z", ao.Position.Z, bo.Position.Z},
			}
			for _, f := range fields {
				if !within(f.x, f.y, tol) {
					return &Mismatch{Participant: a[pi].ID, Object: oi, Field: f.name, Sequential: f.x, Parallel: f.y}
				}
			}
			for k, v := range ao.Texture.Pixels {
				w := bo.Texture.Pixels[k]
				if !within(v, w, tol) {
					return &Mismatch{
						Participant: a[pi].ID,
						Object:      oi,
						Field:       fmt.Sprintf("texel[%d]", k),
						Sequential:  v,
						Parallel:    w,
					}
				}
			}
		}
	}
	return nil
}

func within(a, b float32, tol float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	return math.Abs(float64(a)-float64(b)) <= tol*scale
}
