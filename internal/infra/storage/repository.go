// Package storage provides the persistence layer for benchmark history.
// Only run metadata and frame timings are stored; participant state never is.
// This package implements the repository pattern to keep the engine free of SQL.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	StatusRunning  = "RUNNING"
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

// Run describes one benchmark invocation.
type Run struct {
	ID           string     `json:"id" db:"id"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	Status       string     `json:"status" db:"status"`
	Mode         string     `json:"mode" db:"mode"`
	Workers      int        `json:"workers" db:"workers"`
	Participants int        `json:"participants" db:"participants"`
	Objects      int        `json:"objects" db:"objects"`
	Lights       int        `json:"lights" db:"lights"`
	TextureSize  int        `json:"texture_size" db:"texture_size"`
	Frames       int        `json:"frames" db:"frames"`
	Detail       string     `json:"detail,omitempty" db:"detail"`
}

// FrameTiming is the wall-clock cost of one frame.
type FrameTiming struct {
	EventID   string        `json:"event_id" db:"event_id"`
	RunID     string        `json:"run_id" db:"run_id"`
	Frame     int           `json:"frame" db:"frame"`
	Duration  time.Duration `json:"duration_ns" db:"duration_ns"`
	Timestamp time.Time     `json:"timestamp" db:"timestamp"`
}

// RunRepository defines the interface for run metadata.
type RunRepository interface {
	// CreateRun records a run as RUNNING.
	CreateRun(ctx context.Context, run Run) error

	// FinishRun sets the final status and finish time.
	FinishRun(ctx context.Context, runID, status, detail string, at time.Time) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// FrameRepository defines the interface for per-frame timings.
type FrameRepository interface {
	// AppendFrame adds one frame timing.
	AppendFrame(ctx context.Context, timing FrameTiming) error

	// GetFrames retrieves all timings of a run in frame order.
	GetFrames(ctx context.Context, runID string) ([]FrameTiming, error)
}
