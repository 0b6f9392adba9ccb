// Package main is the entry point for the parallel game-state benchmark.
// It only handles dependency injection and run wiring.
// NO benchmark logic belongs here.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/ParallelGameStates/internal/engine"
	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/infra/storage"
	"github.com/MRamiBalles/ParallelGameStates/internal/network"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/config"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/metrics"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/optimization"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/otel"
	"github.com/MRamiBalles/ParallelGameStates/internal/population"
	"github.com/MRamiBalles/ParallelGameStates/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("gamebench: %v", err)
	}

	appLogger := logger.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error("Benchmark failed", "err", err)
		stop()
		config.Exitf("gamebench: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, appLogger *logger.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, "gamebench", cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			appLogger.Warn("Tracing shutdown failed", "err", err)
		}
	}()

	tuning, err := optimization.ForProfile(cfg.Profile)
	if err != nil {
		return err
	}
	if cfg.Workers > 0 {
		tuning.Workers = cfg.Workers
	}
	mode, err := engine.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = population.TimeSeed()
	}
	shape := population.Shape{
		Participants:          cfg.Participants,
		ObjectsPerParticipant: cfg.ObjectsPerParticipant,
		LightsPerParticipant:  cfg.LightsPerParticipant,
		TextureSize:           cfg.TextureSize,
		GridSize:              cfg.GridSize,
	}
	appLogger.Info("Building population", "seed", seed, "participants", shape.Participants,
		"objects", shape.ObjectsPerParticipant, "lights", shape.LightsPerParticipant, "texture", shape.TextureSize)
	pop := population.Build(population.NewSource(seed), shape)

	collector := metrics.Get()
	pool := engine.NewPool(tuning.Workers)
	eng := engine.New(
		engine.WithMode(mode),
		engine.WithPool(pool),
		engine.WithGrain(engine.GrainFrom(tuning)),
		engine.WithStep(cfg.Step),
		engine.WithLogger(appLogger.With("component", "engine")),
		engine.WithMetrics(collector),
	)

	runID := events.NewRunID()
	var sinks []report.Sink
	if cfg.Report {
		sinks = append(sinks, report.NewConsole(os.Stdout))
	}

	var persister events.EventPersister
	var history *storage.History
	if cfg.ResultsDB != "" {
		db, err := storage.InitSQLite(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer db.Close()
		p, h, err := openHistory(ctx, db, cfg, tuning.Workers, runID, collector)
		if err != nil {
			return err
		}
		persister, history = p, h
		appLogger.Info("Recording run history", "db", cfg.ResultsDB, "run", runID)
	}
	frameLog := events.NewFrameLog(persister)
	frameLog.OnPersistError(func(e events.FrameEvent, err error) {
		appLogger.Warn("Failed to persist frame event", "type", e.Type, "frame", e.Frame, "err", err)
	})

	if cfg.StreamAddr != "" {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		hub := network.NewHub(appLogger.With("component", "stream"), collector, tuning.BroadcastBuffer)
		go hub.Run(streamCtx)
		hub.StartEventPoller(streamCtx, frameLog, 100*time.Millisecond)
		server := network.NewServer(hub, collector, appLogger, tuning.ClientSendBuffer)
		go func() {
			if err := server.ListenAndServe(streamCtx, cfg.StreamAddr); err != nil {
				appLogger.Error("Stream server stopped", "err", err)
			}
		}()
		sinks = append(sinks, hub)
	}

	driver := engine.NewDriver(eng, pop, report.Multi(sinks...),
		engine.WithFrames(cfg.Frames),
		engine.WithTiming(cfg.Timed),
		engine.WithClockOutput(os.Stdout),
		engine.WithConcurrentParticipants(cfg.ConcurrentParticipants),
		engine.WithFrameLog(frameLog),
		engine.WithRunID(runID),
		engine.WithDriverLogger(appLogger.With("component", "driver")),
		engine.WithDriverMetrics(collector),
	)

	summary, err := driver.Run(ctx)
	if err != nil {
		return err
	}
	appLogger.Info("Benchmark complete",
		"frames", summary.Frames,
		"total", summary.Total,
		"min", summary.Min,
		"max", summary.Max,
		"mean", summary.Mean,
	)

	rec := optimization.Analyze(collector.Snapshot())
	for _, note := range rec.Notes {
		appLogger.Warn("Tuning recommendation", "profile", cfg.Profile, "note", note)
	}
	if len(rec.Notes) > 0 {
		suggested := *tuning
		optimization.ApplyRecommendations(&suggested, rec)
		appLogger.Info("Suggested tuning",
			"workers", suggested.Workers,
			"texel_grain", suggested.TexelGrain,
			"client_send_buffer", suggested.ClientSendBuffer,
		)
	}

	if history != nil {
		stats, err := history.Stats(ctx, runID)
		if err != nil {
			appLogger.Warn("Failed to read run history", "err", err)
		} else {
			appLogger.Info("Stored run", "run", runID, "frames", stats.Frames, "median", stats.Median)
		}
	}
	return nil
}

func openHistory(ctx context.Context, db *sql.DB, cfg config.Config, workers int, runID string, m *metrics.Collector) (events.EventPersister, *storage.History, error) {
	runs := storage.NewSQLiteRunRepository(db)
	frames := storage.NewSQLiteFrameRepository(db)
	err := runs.CreateRun(ctx, storage.Run{
		ID:           runID,
		StartedAt:    time.Now(),
		Mode:         cfg.Mode,
		Workers:      workers,
		Participants: cfg.Participants,
		Objects:      cfg.ObjectsPerParticipant,
		Lights:       cfg.LightsPerParticipant,
		TextureSize:  cfg.TextureSize,
		Frames:       cfg.Frames,
	})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewEventPersister(runs, frames, m), storage.NewHistory(runs, frames), nil
}
