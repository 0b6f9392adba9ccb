package engine

import (
	"context"
	"runtime"
	"testing"

	"github.com/MRamiBalles/ParallelGameStates/internal/platform/optimization"
	"github.com/MRamiBalles/ParallelGameStates/internal/population"
)

func benchmarkUpdate(b *testing.B, eng *Engine) {
	shape := population.Shape{
		Participants:          1,
		ObjectsPerParticipant: 50,
		LightsPerParticipant:  10,
		TextureSize:           256,
		GridSize:              100,
	}
	p := population.Build(population.NewSource(1), shape)[0]
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := eng.Update(ctx, p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUpdateSequential(b *testing.B) {
	benchmarkUpdate(b, New())
}

func BenchmarkUpdateParallel(b *testing.B) {
	cfg := optimization.DefaultConfig()
	benchmarkUpdate(b, New(
		WithMode(ModeParallel),
		WithPool(NewPool(runtime.NumCPU())),
		WithGrain(GrainFrom(cfg)),
	))
}

func BenchmarkUpdateParallelStress(b *testing.B) {
	cfg := optimization.StressTestConfig()
	benchmarkUpdate(b, New(
		WithMode(ModeParallel),
		WithPool(NewPool(cfg.Workers)),
		WithGrain(GrainFrom(cfg)),
	))
}
