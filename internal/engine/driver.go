package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
	"github.com/MRamiBalles/ParallelGameStates/internal/report"
)

// DefaultFrames is the frame count of a default run.
const DefaultFrames = 10

// RunSummary aggregates the frame timings of a run.
type RunSummary struct {
	Frames int
	Total  time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
}

func (s *RunSummary) add(d time.Duration) {
	s.Frames++
	s.Total += d
	if s.Frames == 1 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Mean = s.Total / time.Duration(s.Frames)
}

// Driver runs the frame loop over a population.
// It does NOT know how an object is updated - only frame order and timing.
type Driver struct {
	engine     *Engine
	population participant.Population
	sink       report.Sink

	frames     int
	timed      bool
	clock      io.Writer
	concurrent bool
	frameLog   *events.FrameLog
	runID      string
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithFrames sets the number of frames. Negative values mean zero.
func WithFrames(n int) DriverOption {
	return func(d *Driver) { d.frames = max(n, 0) }
}

// WithTiming enables the per-frame wall-clock line.
func WithTiming(on bool) DriverOption { return func(d *Driver) { d.timed = on } }

// WithClockOutput sets where the wall-clock lines go. Defaults to stdout.
func WithClockOutput(w io.Writer) DriverOption { return func(d *Driver) { d.clock = w } }

// WithConcurrentParticipants updates all participants of a frame at once
// through the engine's pool before reporting them in order.
func WithConcurrentParticipants(on bool) DriverOption {
	return func(d *Driver) { d.concurrent = on }
}

// WithFrameLog records run and frame events.
func WithFrameLog(fl *events.FrameLog) DriverOption { return func(d *Driver) { d.frameLog = fl } }

// WithRunID sets the id stamped on frame events.
func WithRunID(id string) DriverOption { return func(d *Driver) { d.runID = id } }

// WithDriverLogger sets the driver's logger.
func WithDriverLogger(l *logger.Logger) DriverOption { return func(d *Driver) { d.logger = l } }

// WithDriverMetrics sets the collector that receives frame latencies.
func WithDriverMetrics(c *metrics.Collector) DriverOption {
	return func(d *Driver) { d.metrics = c }
}

// NewDriver creates a frame driver. A nil sink discards reports.
func NewDriver(eng *Engine, pop participant.Population, sink report.Sink, opts ...DriverOption) *Driver {
	if sink == nil {
		sink = report.Discard
	}
	d := &Driver{
		engine:     eng,
		population: pop,
		sink:       sink,
		frames:     DefaultFrames,
		clock:      os.Stdout,
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runID == "" {
		d.runID = events.NewRunID()
	}
	return d
}

// RunID returns the id stamped on this driver's events.
func (d *Driver) RunID() string { return d.runID }

// Run validates the population and executes every frame. It stops at the
// first failed update or report, or when ctx is cancelled between frames.
func (d *Driver) Run(ctx context.Context) (RunSummary, error) {
	var summary RunSummary

	if err := d.population.Validate(); err != nil {
		return summary, fmt.Errorf("validate population: %w", err)
	}

	d.logger.Info("Run started",
		"run", d.runID,
		"mode", d.engine.Mode(),
		"workers", d.engine.Pool().Workers(),
		"participants", len(d.population),
		"frames", d.frames,
	)
	d.record(events.FrameEvent{Type: events.EventTypeRunStarted, Frame: -1})

	for frame := 0; frame < d.frames; frame++ {
		if err := ctx.Err(); err != nil {
			return summary, d.fail(frame, err)
		}

		elapsed, err := d.frame(ctx, frame)
		if err != nil {
			return summary, d.fail(frame, err)
		}
		summary.add(elapsed)
		d.metrics.RecordFrame(elapsed)

		if d.timed {
			fmt.Fprintf(d.clock, "Wall-clock time taken: %f seconds\n", elapsed.Seconds())
		}
		d.record(events.FrameEvent{
			Type:     events.EventTypeFrameCompleted,
			Frame:    frame,
			Duration: elapsed,
		})
		d.logger.Debug("Frame completed", "frame", frame, "elapsed", elapsed)
	}

	d.record(events.FrameEvent{Type: events.EventTypeRunFinished, Frame: -1, Duration: summary.Total})
	d.logger.Event(string(events.EventTypeRunFinished), d.runID,
		fmt.Sprintf("%d frames, total %v, mean %v", summary.Frames, summary.Total, summary.Mean))
	return summary, nil
}

// frame runs one frame and returns its wall-clock duration. The timed region
// covers the whole participant loop, reporting included.
func (d *Driver) frame(ctx context.Context, n int) (time.Duration, error) {
	ctx, span := d.engine.tracer.Start(ctx, "driver.Frame", trace.WithAttributes(
		attribute.Int("frame", n),
		attribute.Int("participants", len(d.population)),
	))
	defer span.End()

	start := time.Now()
	var err error
	if d.concurrent {
		err = d.frameConcurrent(ctx)
	} else {
		err = d.frameOrdered(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return time.Since(start), nil
}

func (d *Driver) frameOrdered(ctx context.Context) error {
	for _, p := range d.population {
		if err := d.engine.Update(ctx, p); err != nil {
			return err
		}
		if err := d.sink.Emit(p); err != nil {
			return fmt.Errorf("report participant %d: %w", p.ID, err)
		}
	}
	return nil
}

func (d *Driver) frameConcurrent(ctx context.Context) error {
	err := d.engine.Pool().For(len(d.population), 1, func(lo, hi int) error {
		for _, p := range d.population[lo:hi] {
			if err := d.engine.Update(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, p := range d.population {
		if err := d.sink.Emit(p); err != nil {
			return fmt.Errorf("report participant %d: %w", p.ID, err)
		}
	}
	return nil
}

func (d *Driver) fail(frame int, err error) error {
	d.record(events.FrameEvent{Type: events.EventTypeRunFailed, Frame: frame, Detail: err.Error()})
	d.logger.Error("Run failed", "run", d.runID, "frame", frame, "err", err)
	return fmt.Errorf("frame %d: %w", frame, err)
}

func (d *Driver) record(e events.FrameEvent) {
	if d.frameLog == nil {
		return
	}
	e.RunID = d.runID
	e.Mode = d.engine.Mode().String()
	e.Workers = d.engine.Pool().Workers()
	if e.Type == events.EventTypeFrameCompleted {
		e.Participants = len(d.population)
	}
	d.frameLog.Append(e)
}
