package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
)

// Message types carried on the stream.
const (
	MessageSnapshot   = "snapshot"
	MessageFrameEvent = "frame_event"
)

// Message is the envelope of every stream message.
type Message struct {
	Type     string                `json:"type"`
	Snapshot *participant.Snapshot `json:"snapshot,omitempty"`
	Event    *events.FrameEvent    `json:"event,omitempty"`
}

// Hub maintains the set of active spectators and broadcasts messages to them.
// Broadcasting never blocks the frame loop: a message that does not fit in the
// hub or client buffers is dropped and counted.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
	metrics    *metrics.Collector
}

// NewHub initializes a new stream hub with the given broadcast buffer.
func NewHub(log *logger.Logger, m *metrics.Collector, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		broadcast:  make(chan []byte, buffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log,
		metrics:    m,
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordStreamClient(-1)
			}
			h.mu.Unlock()
			h.logger.Info("Stream hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordStreamClient(1)
			h.logger.Info("Spectator connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordStreamClient(-1)
				h.logger.Info("Spectator disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordStreamMessage(false)
				default:
					h.metrics.RecordStreamMessage(true)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of registered spectators.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Emit implements report.Sink by broadcasting the participant's snapshot.
func (h *Hub) Emit(p *participant.Participant) error {
	snap := p.Snapshot()
	h.publish(Message{Type: MessageSnapshot, Snapshot: &snap})
	return nil
}

// BroadcastFrameEvent serializes a frame event and queues it for all spectators.
func (h *Hub) BroadcastFrameEvent(event events.FrameEvent) {
	h.publish(Message{Type: MessageFrameEvent, Event: &event})
}

func (h *Hub) publish(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.metrics.RecordStreamError()
		h.logger.Error("Failed to serialize stream message", "type", msg.Type, "err", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.metrics.RecordStreamMessage(true)
	}
}

// StartEventPoller spawns a goroutine that polls the frame log and pushes new
// events to the hub, so the driver never waits on the stream.
func (h *Hub) StartEventPoller(ctx context.Context, frameLog *events.FrameLog, interval time.Duration) {
	go func() {
		poll := time.NewTicker(interval)
		defer poll.Stop()

		cursor := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-poll.C:
				var newEvents []events.FrameEvent
				newEvents, cursor = frameLog.Since(cursor)
				for _, event := range newEvents {
					h.BroadcastFrameEvent(event)
				}
			}
		}
	}()
}
