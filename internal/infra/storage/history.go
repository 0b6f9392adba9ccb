package storage

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// History rebuilds run statistics from the stored frame timings.
// The stored rows are the source of truth: stats = f(frames).
type History struct {
	runs   RunRepository
	frames FrameRepository
}

// NewHistory creates a history reader.
func NewHistory(runs RunRepository, frames FrameRepository) *History {
	return &History{runs: runs, frames: frames}
}

// RunStats summarizes one stored run.
type RunStats struct {
	Run    Run           `json:"run"`
	Frames int           `json:"frames"`
	Total  time.Duration `json:"total_ns"`
	Min    time.Duration `json:"min_ns"`
	Max    time.Duration `json:"max_ns"`
	Mean   time.Duration `json:"mean_ns"`
	Median time.Duration `json:"median_ns"`
}

// Stats loads a run and its frames and computes the summary.
func (h *History) Stats(ctx context.Context, runID string) (*RunStats, error) {
	run, err := h.runs.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	frames, err := h.frames.GetFrames(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get frames for run: %w", err)
	}
	stats := Summarize(frames)
	stats.Run = *run
	return &stats, nil
}

// Compare returns the mean-frame speedup of candidate over baseline.
func (h *History) Compare(ctx context.Context, baselineID, candidateID string) (float64, error) {
	base, err := h.Stats(ctx, baselineID)
	if err != nil {
		return 0, err
	}
	cand, err := h.Stats(ctx, candidateID)
	if err != nil {
		return 0, err
	}
	if cand.Mean == 0 {
		return 0, fmt.Errorf("run %s has no frame timings", candidateID)
	}
	return float64(base.Mean) / float64(cand.Mean), nil
}

// Summarize computes min, max, mean and median of the given timings.
func Summarize(frames []FrameTiming) RunStats {
	var s RunStats
	if len(frames) == 0 {
		return s
	}
	durations := make([]time.Duration, len(frames))
	for i, f := range frames {
		durations[i] = f.Duration
		s.Total += f.Duration
	}
	slices.Sort(durations)

	s.Frames = len(frames)
	s.Min = durations[0]
	s.Max = durations[len(durations)-1]
	s.Mean = s.Total / time.Duration(len(durations))
	mid := len(durations) / 2
	if len(durations)%2 == 0 {
		s.Median = (durations[mid-1] + durations[mid]) / 2
	} else {
		s.Median = durations[mid]
	}
	return s
}
