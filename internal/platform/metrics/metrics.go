// Package metrics provides observability for benchmark runs.
// Frame latency and per-unit work counters feed the optimization advisor.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Frame metrics
	FrameCount      int64
	FrameLatencySum int64 // nanoseconds
	FrameLatencyMax int64
	FrameLatencyMin int64
	LastFrameTime   time.Time

	// Work metrics
	ParticipantUpdates int64
	ObjectUpdates      int64
	LightEvaluations   int64
	TexelWrites        int64
	TaskFailures       int64

	// Stream metrics
	StreamClientsActive int64
	StreamMessagesOut   int64
	StreamDropped       int64
	StreamErrors        int64

	// Storage
	FramesPersisted int64
	PersistErrors   int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = New()

// New returns an empty collector. Tests use their own; the binaries share Get().
func New() *Collector {
	return &Collector{StartTime: time.Now()}
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordFrame records one completed frame across the whole population.
func (c *Collector) RecordFrame(latency time.Duration) {
	if c == nil {
		return
	}
	n := atomic.AddInt64(&c.FrameCount, 1)
	atomic.AddInt64(&c.FrameLatencySum, int64(latency))

	// Update max/min (non-atomic compare but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.FrameLatencyMax) {
		atomic.StoreInt64(&c.FrameLatencyMax, int64(latency))
	}
	if n == 1 || int64(latency) < atomic.LoadInt64(&c.FrameLatencyMin) {
		atomic.StoreInt64(&c.FrameLatencyMin, int64(latency))
	}

	c.mu.Lock()
	c.LastFrameTime = time.Now()
	c.mu.Unlock()
}

// RecordParticipantUpdate records the work done by one participant update.
func (c *Collector) RecordParticipantUpdate(objects, lights, texels int) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.ParticipantUpdates, 1)
	atomic.AddInt64(&c.ObjectUpdates, int64(objects))
	atomic.AddInt64(&c.LightEvaluations, int64(objects*lights))
	atomic.AddInt64(&c.TexelWrites, int64(objects*texels))
}

// RecordTaskFailure records a failed pool task.
func (c *Collector) RecordTaskFailure() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.TaskFailures, 1)
}

// RecordStreamClient records stream connection changes.
func (c *Collector) RecordStreamClient(delta int64) {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.StreamClientsActive, delta)
}

// RecordStreamMessage records an outgoing stream message, or a drop when the
// client's buffer was full.
func (c *Collector) RecordStreamMessage(dropped bool) {
	if c == nil {
		return
	}
	if dropped {
		atomic.AddInt64(&c.StreamDropped, 1)
		return
	}
	atomic.AddInt64(&c.StreamMessagesOut, 1)
}

// RecordStreamError records a stream error.
func (c *Collector) RecordStreamError() {
	if c == nil {
		return
	}
	atomic.AddInt64(&c.StreamErrors, 1)
}

// RecordPersist records a frame timing write.
func (c *Collector) RecordPersist(err error) {
	if c == nil {
		return
	}
	if err != nil {
		atomic.AddInt64(&c.PersistErrors, 1)
		return
	}
	atomic.AddInt64(&c.FramesPersisted, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	frameCount := atomic.LoadInt64(&c.FrameCount)

	var frameAvg float64
	if frameCount > 0 {
		frameAvg = float64(atomic.LoadInt64(&c.FrameLatencySum)) / float64(frameCount) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"frame": map[string]interface{}{
			"count":          frameCount,
			"avg_latency_ms": frameAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.FrameLatencyMax)) / 1e6,
			"min_latency_ms": float64(atomic.LoadInt64(&c.FrameLatencyMin)) / 1e6,
			"last_frame":     c.LastFrameTime.Format(time.RFC3339),
		},

		"work": map[string]interface{}{
			"participant_updates": atomic.LoadInt64(&c.ParticipantUpdates),
			"object_updates":      atomic.LoadInt64(&c.ObjectUpdates),
			"light_evaluations":   atomic.LoadInt64(&c.LightEvaluations),
			"texel_writes":        atomic.LoadInt64(&c.TexelWrites),
			"task_failures":       atomic.LoadInt64(&c.TaskFailures),
		},

		"stream": map[string]interface{}{
			"active_clients": atomic.LoadInt64(&c.StreamClientsActive),
			"messages_out":   atomic.LoadInt64(&c.StreamMessagesOut),
			"dropped":        atomic.LoadInt64(&c.StreamDropped),
			"errors":         atomic.LoadInt64(&c.StreamErrors),
		},

		"storage": map[string]interface{}{
			"frames_persisted": atomic.LoadInt64(&c.FramesPersisted),
			"errors":           atomic.LoadInt64(&c.PersistErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Frame metrics
		fmt.Fprintf(w, "# HELP gamebench_frame_count Total frames completed\n")
		fmt.Fprintf(w, "# TYPE gamebench_frame_count counter\n")
		fmt.Fprintf(w, "gamebench_frame_count %d\n\n", atomic.LoadInt64(&c.FrameCount))

		fmt.Fprintf(w, "# HELP gamebench_frame_latency_max_ms Maximum frame latency\n")
		fmt.Fprintf(w, "# TYPE gamebench_frame_latency_max_ms gauge\n")
		fmt.Fprintf(w, "gamebench_frame_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.FrameLatencyMax))/1e6)

		// Work metrics
		fmt.Fprintf(w, "# HELP gamebench_work_units_total Units of work executed\n")
		fmt.Fprintf(w, "# TYPE gamebench_work_units_total counter\n")
		fmt.Fprintf(w, "gamebench_work_units_total{unit=\"participant\"} %d\n", atomic.LoadInt64(&c.ParticipantUpdates))
		fmt.Fprintf(w, "gamebench_work_units_total{unit=\"object\"} %d\n", atomic.LoadInt64(&c.ObjectUpdates))
		fmt.Fprintf(w, "gamebench_work_units_total{unit=\"light\"} %d\n", atomic.LoadInt64(&c.LightEvaluations))
		fmt.Fprintf(w, "gamebench_work_units_total{unit=\"texel\"} %d\n\n", atomic.LoadInt64(&c.TexelWrites))

		fmt.Fprintf(w, "# HELP gamebench_task_failures Total failed pool tasks\n")
		fmt.Fprintf(w, "# TYPE gamebench_task_failures counter\n")
		fmt.Fprintf(w, "gamebench_task_failures %d\n\n", atomic.LoadInt64(&c.TaskFailures))

		// Stream metrics
		fmt.Fprintf(w, "# HELP gamebench_stream_clients Active stream clients\n")
		fmt.Fprintf(w, "# TYPE gamebench_stream_clients gauge\n")
		fmt.Fprintf(w, "gamebench_stream_clients %d\n\n", atomic.LoadInt64(&c.StreamClientsActive))

		fmt.Fprintf(w, "# HELP gamebench_stream_messages_total Stream messages by outcome\n")
		fmt.Fprintf(w, "# TYPE gamebench_stream_messages_total counter\n")
		fmt.Fprintf(w, "gamebench_stream_messages_total{outcome=\"sent\"} %d\n", atomic.LoadInt64(&c.StreamMessagesOut))
		fmt.Fprintf(w, "gamebench_stream_messages_total{outcome=\"dropped\"} %d\n\n", atomic.LoadInt64(&c.StreamDropped))

		fmt.Fprintf(w, "# HELP gamebench_frames_persisted Frame timings written to the results store\n")
		fmt.Fprintf(w, "# TYPE gamebench_frames_persisted counter\n")
		fmt.Fprintf(w, "gamebench_frames_persisted %d\n", atomic.LoadInt64(&c.FramesPersisted))
	}
}
