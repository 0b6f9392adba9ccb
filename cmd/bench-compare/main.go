// Package main - bench-compare
// Runs one seeded population through the sequential and the parallel engine,
// prints both timings and the speedup, and fails when the results disagree.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/MRamiBalles/ParallelGameStates/internal/bench"
	"github.com/MRamiBalles/ParallelGameStates/internal/engine"
	"github.com/MRamiBalles/ParallelGameStates/internal/events"
	"github.com/MRamiBalles/ParallelGameStates/internal/infra/storage"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/config"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/logger"
	"github.com/MRamiBalles/ParallelGameStates/internal/platform/optimization"
	"github.com/MRamiBalles/ParallelGameStates/internal/population"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("bench-compare: %v", err)
	}

	// Flags override the environment for quick experiments.
	frames := flag.Int("frames", cfg.Frames, "Frames per mode")
	workers := flag.Int("workers", cfg.Workers, "Parallel pool size (0 = profile default)")
	profile := flag.String("profile", cfg.Profile, "Optimization profile: default, stress, low")
	seed := flag.Uint64("seed", cfg.Seed, "Population seed (0 = clock)")
	tolerance := flag.Float64("tolerance", bench.DefaultTolerance, "Relative tolerance between modes")
	out := flag.String("out", "", "Write the result as JSON to this file")
	baseline := flag.String("baseline", "", "Stored run id to compare the parallel run against (needs GAMEBENCH_RESULTS_DB)")
	flag.Parse()

	appLogger := logger.New(os.Stderr, cfg.LogLevel)

	tuning, err := optimization.ForProfile(*profile)
	if err != nil {
		config.Exitf("bench-compare: %v", err)
	}
	if *workers > 0 {
		tuning.Workers = *workers
	}
	if *seed == 0 {
		*seed = population.TimeSeed()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shape := population.Shape{
		Participants:          cfg.Participants,
		ObjectsPerParticipant: cfg.ObjectsPerParticipant,
		LightsPerParticipant:  cfg.LightsPerParticipant,
		TextureSize:           cfg.TextureSize,
		GridSize:              cfg.GridSize,
	}
	pop := population.Build(population.NewSource(*seed), shape)

	fmt.Println("=========================================")
	fmt.Println("SEQUENTIAL vs PARALLEL")
	fmt.Println("=========================================")
	fmt.Printf("Seed:         %d\n", *seed)
	fmt.Printf("Participants: %d x %d objects x %d lights\n", shape.Participants, shape.ObjectsPerParticipant, shape.LightsPerParticipant)
	fmt.Printf("Texture:      %dx%d\n", shape.TextureSize, shape.TextureSize)
	fmt.Printf("Frames:       %d\n", *frames)
	fmt.Printf("Workers:      %d (%s profile)\n", tuning.Workers, *profile)
	fmt.Println("=========================================")

	opts := bench.Options{
		Frames:    *frames,
		Workers:   tuning.Workers,
		Grain:     engine.GrainFrom(tuning),
		Step:      cfg.Step,
		Tolerance: *tolerance,
		Logger:    appLogger,
	}

	var history *storage.History
	if cfg.ResultsDB != "" {
		db, err := storage.InitSQLite(cfg.ResultsDB)
		if err != nil {
			stop()
			config.Exitf("bench-compare: %v", err)
		}
		defer db.Close()
		history = recordRuns(&opts, db, shape, *frames, appLogger)
		appLogger.Info("Recording run history", "db", cfg.ResultsDB)
	} else if *baseline != "" {
		appLogger.Warn("Ignoring -baseline without GAMEBENCH_RESULTS_DB", "baseline", *baseline)
	}

	res, err := bench.Compare(ctx, pop, opts)
	if err != nil {
		stop()
		config.Exitf("bench-compare: %v", err)
	}

	for _, m := range []bench.ModeResult{res.Sequential, res.Parallel} {
		fmt.Printf("%-10s total %-12v mean %-12v min %-12v max %v\n",
			m.Mode, m.Summary.Total, m.Summary.Mean, m.Summary.Min, m.Summary.Max)
	}
	fmt.Printf("Speedup:    %.2fx\n", res.Speedup)

	if history != nil {
		if stored, err := history.Compare(ctx, res.Sequential.RunID, res.Parallel.RunID); err != nil {
			appLogger.Warn("Failed to compare stored runs", "err", err)
		} else {
			fmt.Printf("Stored:     %.2fx mean frame (runs %s, %s)\n", stored, res.Sequential.RunID, res.Parallel.RunID)
		}
		if *baseline != "" {
			if vs, err := history.Compare(ctx, *baseline, res.Parallel.RunID); err != nil {
				appLogger.Warn("Failed to compare against baseline", "baseline", *baseline, "err", err)
			} else {
				fmt.Printf("Baseline:   %.2fx mean frame vs %s\n", vs, *baseline)
			}
		}
	}

	if *out != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			appLogger.Warn("Failed to encode result", "err", err)
		} else if err := os.WriteFile(*out, data, 0644); err != nil {
			appLogger.Warn("Failed to write result file", "path", *out, "err", err)
		} else {
			fmt.Printf("Results saved to %s\n", *out)
		}
	}

	fmt.Println("-----------------------------------------")
	if !res.Agree() {
		fmt.Printf("MISMATCH: %s\n", res.Mismatch)
		stop()
		os.Exit(1)
	}
	fmt.Println("OK: both modes agree within tolerance")
}

// recordRuns stores both mode runs and their frame timings in the results
// database and returns the history reader over them.
func recordRuns(opts *bench.Options, db *sql.DB, shape population.Shape, frames int, appLogger *logger.Logger) *storage.History {
	runs := storage.NewSQLiteRunRepository(db)
	timings := storage.NewSQLiteFrameRepository(db)

	frameLog := events.NewFrameLog(storage.NewEventPersister(runs, timings, nil))
	frameLog.OnPersistError(func(e events.FrameEvent, err error) {
		appLogger.Warn("Failed to persist event", "type", e.Type, "run", e.RunID, "err", err)
	})
	opts.FrameLog = frameLog
	opts.OnRunStart = func(ctx context.Context, runID string, mode engine.Mode, workers int) error {
		return runs.CreateRun(ctx, storage.Run{
			ID:           runID,
			StartedAt:    time.Now(),
			Mode:         mode.String(),
			Workers:      workers,
			Participants: shape.Participants,
			Objects:      shape.ObjectsPerParticipant,
			Lights:       shape.LightsPerParticipant,
			TextureSize:  shape.TextureSize,
			Frames:       frames,
		})
	}
	return storage.NewHistory(runs, timings)
}
