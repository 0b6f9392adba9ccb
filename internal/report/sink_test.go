package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/object"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/texture"
)

func testParticipant() *participant.Participant {
	objs := []*object.GameObject{
		object.New(geom.New(1, 2.5, 100), geom.Vector3{}, texture.New(1)),
		object.New(geom.New(0.1, 12.345678, 1e6), geom.Vector3{}, texture.New(1)),
	}
	return participant.New(7, objs, nil)
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	if err := c.Emit(testParticipant()); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	want := "Player ID: 7\n" +
		"Object 0: Position (1, 2.5, 100)\n" +
		"Object 1: Position (0.1, 12.3457, 1e+06)\n"
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestConsoleEmptyParticipant(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	if err := c.Emit(participant.New(0, nil, nil)); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if got := buf.String(); got != "Player ID: 0\n" {
		t.Errorf("got %q", got)
	}
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	var calls int
	count := SinkFunc(func(*participant.Participant) error { calls++; return nil })
	boom := errors.New("boom")
	fail := SinkFunc(func(*participant.Participant) error { return boom })

	m := Multi(count, nil, fail, count)
	err := m.Emit(testParticipant())
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestDiscard(t *testing.T) {
	if err := Discard.Emit(testParticipant()); err != nil {
		t.Fatalf("Discard returned %v", err)
	}
}
