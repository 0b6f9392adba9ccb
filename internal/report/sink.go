// Package report writes per-frame participant state to its consumers.
package report

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
)

// Sink receives every participant after its update, in participant order.
type Sink interface {
	Emit(p *participant.Participant) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(p *participant.Participant) error

// Emit calls f.
func (f SinkFunc) Emit(p *participant.Participant) error { return f(p) }

// Discard drops everything. Used by benchmarks that only want timings.
var Discard Sink = SinkFunc(func(*participant.Participant) error { return nil })

// Console prints the position report:
//
//	Player ID: 3
//	Object 0: Position (12.4, 7, 88.1)
type Console struct {
	mu  sync.Mutex
	w   *bufio.Writer
	buf []byte
}

// NewConsole creates a console sink over w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: bufio.NewWriterSize(w, 64*1024)}
}

// Emit writes one participant block and flushes it.
func (c *Console) Emit(p *participant.Participant) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.buf[:0]
	b = append(b, "Player ID: "...)
	b = strconv.AppendInt(b, int64(p.ID), 10)
	b = append(b, '\n')
	for i, obj := range p.Objects {
		b = append(b, "Object "...)
		b = strconv.AppendInt(b, int64(i), 10)
		b = append(b, ": Position ("...)
		b = appendFloat(b, obj.Position.X)
		b = append(b, ", "...)
		b = appendFloat(b, obj.Position.Y)
		b = append(b, ", "...)
		b = appendFloat(b, obj.Position.Z)
		b = append(b, ")\n"...)
	}
	c.buf = b

	if _, err := c.w.Write(b); err != nil {
		return err
	}
	return c.w.Flush()
}

// appendFloat formats with six significant digits, the default stream
// precision of the reference output.
func appendFloat(b []byte, v float32) []byte {
	return strconv.AppendFloat(b, float64(v), 'g', 6, 32)
}

// Multi fans every Emit out to all sinks and joins their errors.
func Multi(sinks ...Sink) Sink {
	flat := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			flat = append(flat, s)
		}
	}
	return multi(flat)
}

type multi []Sink

func (m multi) Emit(p *participant.Participant) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
