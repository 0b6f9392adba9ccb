// Package main - spectator
// Connects to a running benchmark's live stream and counts what it sees.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/network"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/config"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
)

// Stats tracks what arrived on the stream.
type Stats struct {
	Frames       int64            `json:"frames"`
	Snapshots    int64            `json:"snapshots"`
	FrameEvents  int64            `json:"frame_events"`
	ByEventType  map[string]int64 `json:"by_event_type"`
	DecodeErrors int64            `json:"decode_errors"`
	LastFrameMS  float64          `json:"last_frame_ms"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "Stream URL")
	duration := flag.Duration("duration", 0, "Stop after this long (0 = until the stream closes)")
	verbose := flag.Bool("v", false, "Log every frame event")
	out := flag.String("out", "", "Write the stats as JSON to this file")
	flag.Parse()

	appLogger := logger.New(os.Stderr, "info")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *serverURL, nil)
	if err != nil {
		stop()
		config.Exitf("spectator: connect %s: %v", *serverURL, err)
	}
	defer conn.Close()
	appLogger.Info("Connected", "url", *serverURL)

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	stats := &Stats{ByEventType: map[string]int64{}}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				appLogger.Warn("Stream ended", "err", err)
			}
			break
		}
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			record(stats, line, *verbose, appLogger)
		}
	}

	printResults(stats)
	if *out != "" {
		data, _ := json.MarshalIndent(stats, "", "  ")
		if err := os.WriteFile(*out, data, 0644); err != nil {
			appLogger.Warn("Failed to write stats file", "path", *out, "err", err)
		}
	}
}

func record(stats *Stats, line []byte, verbose bool, log *logger.Logger) {
	var msg network.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		stats.DecodeErrors++
		return
	}
	switch msg.Type {
	case network.MessageSnapshot:
		stats.Snapshots++
	case network.MessageFrameEvent:
		if msg.Event == nil {
			stats.DecodeErrors++
			return
		}
		stats.FrameEvents++
		stats.ByEventType[string(msg.Event.Type)]++
		if msg.Event.Type == events.EventTypeFrameCompleted {
			stats.Frames++
			stats.LastFrameMS = float64(msg.Event.Duration) / float64(time.Millisecond)
		}
		if verbose {
			log.Info("Frame event", "type", msg.Event.Type, "frame", msg.Event.Frame, "duration", msg.Event.Duration)
		}
	}
}

func printResults(stats *Stats) {
	fmt.Println("=========================================")
	fmt.Println("SPECTATOR SUMMARY")
	fmt.Println("=========================================")
	fmt.Printf("Snapshots:      %d\n", stats.Snapshots)
	fmt.Printf("Frame events:   %d\n", stats.FrameEvents)
	for t, n := range stats.ByEventType {
		fmt.Printf("  %-16s %d\n", t, n)
	}
	fmt.Printf("Frames timed:   %d\n", stats.Frames)
	if stats.Frames > 0 {
		fmt.Printf("Last frame:     %.2f ms\n", stats.LastFrameMS)
	}
	fmt.Printf("Decode errors:  %d\n", stats.DecodeErrors)
	fmt.Println("=========================================")
}
