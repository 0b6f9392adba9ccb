package network

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
)

// Server exposes the spectator stream and the metrics endpoints.
type Server struct {
	hub        *Hub
	metrics    *metrics.Collector
	logger     *logger.Logger
	upgrader   websocket.Upgrader
	sendBuffer int
}

// NewServer creates a server around a running hub.
func NewServer(hub *Hub, m *metrics.Collector, log *logger.Logger, sendBuffer int) *Server {
	return &Server{
		hub:     hub,
		metrics: m,
		logger:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Spectators may connect from any local tool
			},
		},
		sendBuffer: sendBuffer,
	}
}

// Handler returns the routes: /ws, /metrics and /metrics/prometheus.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWs)
	mux.HandleFunc("/metrics", s.metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", s.metrics.PrometheusHandler())
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Stream server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// serveWs handles websocket requests from the peer.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.RecordStreamError()
		s.logger.Error("Failed to upgrade websocket connection", "err", err)
		return
	}

	client := NewClient(s.hub, conn, s.sendBuffer)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
