package events

import (
	"errors"
	"testing"
	"time"
)

type recordingPersister struct {
	got []FrameEvent
	err error
}

func (r *recordingPersister) Append(e FrameEvent) error {
	r.got = append(r.got, e)
	return r.err
}

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	fl := NewFrameLog(nil)
	e := fl.Append(FrameEvent{RunID: "r1", Type: EventTypeFrameCompleted, Frame: 0})

	if e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("event not stamped: %+v", e)
	}
	if len(fl.Replay()) != 1 {
		t.Fatalf("log length = %d", len(fl.Replay()))
	}
}

func TestPersisterWriteThroughInOrder(t *testing.T) {
	p := &recordingPersister{}
	fl := NewFrameLog(p)
	for i := 0; i < 5; i++ {
		fl.Append(FrameEvent{RunID: "r1", Type: EventTypeFrameCompleted, Frame: i, Duration: time.Millisecond})
	}
	if len(p.got) != 5 {
		t.Fatalf("persisted %d events", len(p.got))
	}
	for i, e := range p.got {
		if e.Frame != i {
			t.Fatalf("persisted frame %d at position %d", e.Frame, i)
		}
	}
}

func TestPersisterErrorsReported(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	fl := NewFrameLog(p)
	var failures int
	fl.OnPersistError(func(FrameEvent, error) { failures++ })

	fl.Append(FrameEvent{RunID: "r1", Type: EventTypeRunStarted, Frame: -1})
	if failures != 1 {
		t.Fatalf("failures = %d", failures)
	}
	if len(fl.Replay()) != 1 {
		t.Fatalf("event dropped after persist error")
	}
}

func TestFilters(t *testing.T) {
	fl := NewFrameLog(nil)
	fl.Append(FrameEvent{RunID: "a", Type: EventTypeRunStarted})
	fl.Append(FrameEvent{RunID: "a", Type: EventTypeFrameCompleted})
	fl.Append(FrameEvent{RunID: "b", Type: EventTypeFrameCompleted})

	if n := len(fl.GetByRun("a")); n != 2 {
		t.Errorf("GetByRun(a) = %d", n)
	}
	if n := len(fl.GetByType(EventTypeFrameCompleted)); n != 2 {
		t.Errorf("GetByType(frame) = %d", n)
	}

	newer, cursor := fl.Since(1)
	if len(newer) != 2 || cursor != 3 {
		t.Errorf("Since(1) = %d events, cursor %d", len(newer), cursor)
	}
	newer, cursor = fl.Since(cursor)
	if len(newer) != 0 || cursor != 3 {
		t.Errorf("Since(3) = %d events, cursor %d", len(newer), cursor)
	}
}

func TestIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateEventID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
