// Package optimization provides concurrency tuning for the update engine.
// Presets size the shared worker pool and the split granularity of each
// nested loop.
package optimization

import (
	"fmt"
	"runtime"
)

// Config holds tuned parameters for one run.
type Config struct {
	// Worker pool (total concurrency across all nesting levels)
	Workers int

	// Items per forked task at each loop level
	ObjectGrain int
	LightGrain  int
	TexelGrain  int

	// Stream buffers
	BroadcastBuffer  int
	ClientSendBuffer int
}

// Profile names accepted by ForProfile.
const (
	ProfileDefault = "default"
	ProfileStress  = "stress"
	ProfileLow     = "low"
)

// DefaultConfig returns sensible defaults for a benchmark machine.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		Workers: numCPU, // One per CPU; the work is CPU-bound

		ObjectGrain: 1,    // Objects are heavy (a whole texture each)
		LightGrain:  4,    // Light folds are tiny, keep chunks coarse
		TexelGrain:  8192, // 256x256 texture -> 8 chunks

		BroadcastBuffer:  256,
		ClientSendBuffer: 64,
	}
}

// StressTestConfig returns aggressive settings that oversplit every level.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		Workers: numCPU * 2,

		ObjectGrain: 1,
		LightGrain:  1,
		TexelGrain:  1024,

		BroadcastBuffer:  1024,
		ClientSendBuffer: 256,
	}
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	return &Config{
		Workers: 2,

		ObjectGrain: 4,
		LightGrain:  16,
		TexelGrain:  65536,

		BroadcastBuffer:  16,
		ClientSendBuffer: 8,
	}
}

// ForProfile resolves a preset by name.
func ForProfile(name string) (*Config, error) {
	switch name {
	case "", ProfileDefault:
		return DefaultConfig(), nil
	case ProfileStress:
		return StressTestConfig(), nil
	case ProfileLow:
		return LowResourceConfig(), nil
	}
	return nil, fmt.Errorf("unknown optimization profile %q", name)
}

// Recommendations provides suggestions based on observed metrics.
type Recommendations struct {
	IncreaseWorkers         bool
	CoarsenTexelGrain       bool
	IncreaseBroadcastBuffer bool
	Notes                   []string
}

// Analyze examines a metrics snapshot and returns optimization recommendations.
func Analyze(metrics map[string]interface{}) *Recommendations {
	rec := &Recommendations{
		Notes: make([]string, 0),
	}

	// Check frame latency
	if frame, ok := metrics["frame"].(map[string]interface{}); ok {
		if avgLat, ok := frame["avg_latency_ms"].(float64); ok && avgLat > 1000 {
			rec.IncreaseWorkers = true
			rec.Notes = append(rec.Notes, "Average frame latency exceeds 1s - increase workers")
		}
		maxLat, okMax := frame["max_latency_ms"].(float64)
		minLat, okMin := frame["min_latency_ms"].(float64)
		if okMax && okMin && minLat > 0 && maxLat > 4*minLat {
			rec.CoarsenTexelGrain = true
			rec.Notes = append(rec.Notes, "Frame latency jitter above 4x - coarsen texel grain to cut scheduling overhead")
		}
	}

	// Check stream back-pressure
	if stream, ok := metrics["stream"].(map[string]interface{}); ok {
		if dropped, ok := stream["dropped"].(int64); ok && dropped > 0 {
			rec.IncreaseBroadcastBuffer = true
			rec.Notes = append(rec.Notes, "Stream messages dropped - increase client send buffer")
		}
	}

	return rec
}

// ApplyRecommendations modifies config based on recommendations.
func ApplyRecommendations(config *Config, rec *Recommendations) *Config {
	if rec.IncreaseWorkers {
		config.Workers *= 2
	}
	if rec.CoarsenTexelGrain {
		config.TexelGrain *= 2
	}
	if rec.IncreaseBroadcastBuffer {
		config.BroadcastBuffer *= 2
		config.ClientSendBuffer *= 2
	}
	return config
}
