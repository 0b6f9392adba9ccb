package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/object"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/texture"
	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
	"github.com/MRamiBalles/ParallelGameStates/internal/report"
)

type orderSink struct {
	ids []int
}

func (s *orderSink) Emit(p *participant.Participant) error {
	s.ids = append(s.ids, p.ID)
	return nil
}

func TestDriverZeroFramesLeavesPopulationUntouched(t *testing.T) {
	pop := seededPopulation(1)
	before := pop.Clone()
	sink := &orderSink{}

	summary, err := NewDriver(parallelEngine(4), pop, sink, WithFrames(0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Frames != 0 || len(sink.ids) != 0 {
		t.Fatalf("zero-frame run did work: %+v, %d emits", summary, len(sink.ids))
	}
	for i := range pop {
		for j, obj := range pop[i].Objects {
			was := before[i].Objects[j]
			if obj.Position != was.Position {
				t.Fatalf("participant %d object %d moved", i, j)
			}
			for k := range obj.Texture.Pixels {
				if obj.Texture.Pixels[k] != was.Texture.Pixels[k] {
					t.Fatalf("participant %d object %d texel %d changed", i, j, k)
				}
			}
		}
	}
}

func TestDriverEmitsInParticipantOrder(t *testing.T) {
	for _, concurrent := range []bool{false, true} {
		pop := seededPopulation(2)
		sink := &orderSink{}
		d := NewDriver(parallelEngine(4), pop, sink,
			WithFrames(3),
			WithConcurrentParticipants(concurrent),
		)
		summary, err := d.Run(context.Background())
		if err != nil {
			t.Fatalf("concurrent=%v: %v", concurrent, err)
		}
		if summary.Frames != 3 {
			t.Errorf("concurrent=%v: frames = %d", concurrent, summary.Frames)
		}
		if len(sink.ids) != 3*len(pop) {
			t.Fatalf("concurrent=%v: %d emits", concurrent, len(sink.ids))
		}
		for i, id := range sink.ids {
			if id != i%len(pop) {
				t.Fatalf("concurrent=%v: emit %d was participant %d", concurrent, i, id)
			}
		}
	}
}

func TestDriverConcurrentMatchesOrdered(t *testing.T) {
	ordered := seededPopulation(8)
	concurrent := ordered.Clone()

	if _, err := NewDriver(New(), ordered, nil, WithFrames(2)).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	d := NewDriver(parallelEngine(8), concurrent, nil, WithFrames(2), WithConcurrentParticipants(true))
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertPopulationsAgree(t, concurrent, ordered)
}

func TestDriverTimedOutput(t *testing.T) {
	var clock, out bytes.Buffer
	pop := seededPopulation(4)[:1]

	d := NewDriver(New(), pop, report.NewConsole(&out),
		WithFrames(2),
		WithTiming(true),
		WithClockOutput(&clock),
	)
	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(clock.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d timing lines: %q", len(lines), clock.String())
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "Wall-clock time taken: ") || !strings.HasSuffix(l, " seconds") {
			t.Errorf("bad timing line %q", l)
		}
	}
	if got := strings.Count(out.String(), "Player ID: 0\n"); got != 2 {
		t.Errorf("report blocks = %d, want 2", got)
	}
	if summary.Min > summary.Mean || summary.Mean > summary.Max || summary.Total < summary.Max {
		t.Errorf("inconsistent summary %+v", summary)
	}
}

func TestDriverUntimedPrintsNoClock(t *testing.T) {
	var clock bytes.Buffer
	d := NewDriver(New(), seededPopulation(4), nil, WithFrames(1), WithClockOutput(&clock))
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if clock.Len() != 0 {
		t.Fatalf("untimed run printed %q", clock.String())
	}
}

func TestDriverRecordsFrameEvents(t *testing.T) {
	fl := events.NewFrameLog(nil)
	m := metrics.New()
	d := NewDriver(parallelEngine(2), seededPopulation(6), nil,
		WithFrames(3),
		WithFrameLog(fl),
		WithRunID("run-1"),
		WithDriverMetrics(m),
	)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := fl.GetByRun("run-1")
	if len(got) != 5 {
		t.Fatalf("got %d events, want 5", len(got))
	}
	if got[0].Type != events.EventTypeRunStarted || got[4].Type != events.EventTypeRunFinished {
		t.Errorf("run events out of place: %s ... %s", got[0].Type, got[4].Type)
	}
	for i, e := range got[1:4] {
		if e.Type != events.EventTypeFrameCompleted || e.Frame != i {
			t.Errorf("event %d = %s frame %d", i+1, e.Type, e.Frame)
		}
		if e.Mode != "parallel" || e.Workers != 2 || e.Participants != len(seededPopulation(6)) {
			t.Errorf("frame event missing run info: %+v", e)
		}
	}
	if m.FrameCount != 3 {
		t.Errorf("metrics frame count = %d", m.FrameCount)
	}
}

func TestDriverRejectsMismatchedTextures(t *testing.T) {
	pop := seededPopulation(1)
	pop[1].Objects[0].Texture = texture.New(3)
	sink := &orderSink{}

	_, err := NewDriver(New(), pop, sink, WithFrames(1)).Run(context.Background())
	if !errors.Is(err, participant.ErrTextureSizeMismatch) {
		t.Fatalf("err = %v, want ErrTextureSizeMismatch", err)
	}
	if len(sink.ids) != 0 {
		t.Fatalf("frames ran on an invalid population")
	}
}

func TestDriverRejectsMismatchedShape(t *testing.T) {
	pop := seededPopulation(1)
	pop[2].Objects = append(pop[2].Objects, object.New(geom.Vector3{}, geom.Vector3{}, texture.New(16)))

	_, err := NewDriver(New(), pop, nil).Run(context.Background())
	if !errors.Is(err, participant.ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestDriverStopsOnSinkError(t *testing.T) {
	boom := errors.New("stdout closed")
	fl := events.NewFrameLog(nil)
	sink := report.SinkFunc(func(*participant.Participant) error { return boom })

	_, err := NewDriver(New(), seededPopulation(1), sink, WithFrames(5), WithFrameLog(fl)).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want sink error", err)
	}
	if n := len(fl.GetByType(events.EventTypeRunFailed)); n != 1 {
		t.Errorf("failed events = %d", n)
	}
}

func TestDriverHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewDriver(New(), seededPopulation(1), nil, WithFrames(5)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary.Frames != 0 {
		t.Errorf("frames = %d after cancel", summary.Frames)
	}
}
