package storage

import (
	"context"
	"time"

	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
)

// EventPersister writes frame log events through to the run history.
// RUN_STARTED is ignored: the caller creates the run with its full shape
// before the driver starts.
type EventPersister struct {
	runs    RunRepository
	frames  FrameRepository
	metrics *metrics.Collector
	timeout time.Duration
}

// NewEventPersister creates a persister over the given repositories.
func NewEventPersister(runs RunRepository, frames FrameRepository, m *metrics.Collector) *EventPersister {
	return &EventPersister{
		runs:    runs,
		frames:  frames,
		metrics: m,
		timeout: 5 * time.Second,
	}
}

// Append implements events.EventPersister.
func (p *EventPersister) Append(e events.FrameEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var err error
	switch e.Type {
	case events.EventTypeFrameCompleted:
		err = p.frames.AppendFrame(ctx, FrameTiming{
			EventID:   e.ID,
			RunID:     e.RunID,
			Frame:     e.Frame,
			Duration:  e.Duration,
			Timestamp: e.Timestamp,
		})
		p.metrics.RecordPersist(err)
	case events.EventTypeRunFinished:
		err = p.runs.FinishRun(ctx, e.RunID, StatusFinished, "", e.Timestamp)
	case events.EventTypeRunFailed:
		err = p.runs.FinishRun(ctx, e.RunID, StatusFailed, e.Detail, e.Timestamp)
	}
	return err
}
