// Package events provides the run event log: an append-only record of run
// starts, completed frames and run ends, optionally written through to a
// persister.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a run event.
type EventType string

const (
	EventTypeRunStarted     EventType = "RUN_STARTED"
	EventTypeFrameCompleted EventType = "FRAME_COMPLETED"
	EventTypeRunFinished    EventType = "RUN_FINISHED"
	EventTypeRunFailed      EventType = "RUN_FAILED"
)

// FrameEvent represents an immutable record of something that happened in a run.
type FrameEvent struct {
	ID           string        `json:"id"`
	RunID        string        `json:"run_id"`
	Timestamp    time.Time     `json:"timestamp"`
	Type         EventType     `json:"type"`
	Frame        int           `json:"frame"`        // -1 for run-level events
	Mode         string        `json:"mode"`         // "sequential" or "parallel"
	Workers      int           `json:"workers"`      // pool size used
	Participants int           `json:"participants"` // participants updated
	Duration     time.Duration `json:"duration_ns"`
	Detail       string        `json:"detail,omitempty"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event FrameEvent) error
}

// ErrorHandler is told about persister failures. The log keeps the event
// either way.
type ErrorHandler func(event FrameEvent, err error)

// FrameLog is the in-memory append-only log of run events.
type FrameLog struct {
	mu        sync.RWMutex
	events    []FrameEvent
	persister EventPersister
	onError   ErrorHandler
}

// NewFrameLog creates a new log with an optional persister.
func NewFrameLog(persister EventPersister) *FrameLog {
	return &FrameLog{
		events:    make([]FrameEvent, 0),
		persister: persister,
	}
}

// OnPersistError registers a handler for persister failures.
func (fl *FrameLog) OnPersistError(h ErrorHandler) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.onError = h
}

// Append adds a new event to the log, filling ID and Timestamp when empty.
// Events are immutable once appended. The persister is called synchronously
// so stored frames keep their order.
func (fl *FrameLog) Append(event FrameEvent) FrameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.events = append(fl.events, event)

	if fl.persister != nil {
		if err := fl.persister.Append(event); err != nil && fl.onError != nil {
			fl.onError(event, err)
		}
	}
	return event
}

// GetByRun returns all events of one run.
func (fl *FrameLog) GetByRun(runID string) []FrameEvent {
	fl.mu.RLock()
	defer fl.mu.RUnlock()

	var result []FrameEvent
	for _, e := range fl.events {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of one type.
func (fl *FrameLog) GetByType(t EventType) []FrameEvent {
	fl.mu.RLock()
	defer fl.mu.RUnlock()

	var result []FrameEvent
	for _, e := range fl.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the full history.
func (fl *FrameLog) Replay() []FrameEvent {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	out := make([]FrameEvent, len(fl.events))
	copy(out, fl.events)
	return out
}

// Since returns the events appended after the first n, plus the new length.
// Pollers keep the returned length as their cursor.
func (fl *FrameLog) Since(n int) ([]FrameEvent, int) {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	if n >= len(fl.events) {
		return nil, len(fl.events)
	}
	out := make([]FrameEvent, len(fl.events)-n)
	copy(out, fl.events[n:])
	return out, len(fl.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}

// NewRunID creates a unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}
