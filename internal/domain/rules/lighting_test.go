package rules

import (
	"math"
	"testing"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/light"
)

func TestPositionDeltaUsesCosSinCos(t *testing.T) {
	rot := geom.New(0, float32(math.Pi/2), float32(math.Pi))
	d := PositionDelta(rot, 0.1)

	if math.Abs(float64(d.X-0.1)) > 1e-6 {
		t.Errorf("X delta = %f, want 0.1 (cos 0)", d.X)
	}
	if math.Abs(float64(d.Y-0.1)) > 1e-6 {
		t.Errorf("Y delta = %f, want 0.1 (sin pi/2)", d.Y)
	}
	if math.Abs(float64(d.Z+0.1)) > 1e-6 {
		t.Errorf("Z delta = %f, want -0.1 (cos pi)", d.Z)
	}
}

func TestPositionDeltaTreatsDegreesAsRadians(t *testing.T) {
	// 90 "degrees" goes straight into cos, it is not converted first.
	d := PositionDelta(geom.New(90, 0, 0), 1)
	want := float32(math.Cos(90))
	if d.X != want {
		t.Fatalf("X delta = %f, want cos(90 rad) = %f", d.X, want)
	}
}

func TestLightContribution(t *testing.T) {
	tests := []struct {
		name      string
		position  geom.Vector3
		light     light.Light
		wantTotal float32
	}{
		{"zero distance", geom.New(0, 0, 0), light.New(geom.New(0, 0, 0), 1.0), 1.0},
		{"unit distance", geom.New(1, 0, 0), light.New(geom.New(0, 0, 0), 0.5), 0.25},
		{"3-4-5 triangle", geom.New(3, 4, 0), light.New(geom.New(0, 0, 0), 0.6), 0.1},
		{"dark light", geom.New(7, 7, 7), light.New(geom.New(1, 2, 3), 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LightContribution(tt.position, tt.light)
			if math.Abs(float64(got-tt.wantTotal)) > 1e-6 {
				t.Errorf("LightContribution = %f, want %f", got, tt.wantTotal)
			}
		})
	}
}

func TestSumLightOrderIndependent(t *testing.T) {
	pos := geom.New(10, 20, 30)
	lights := []light.Light{
		light.New(geom.New(0, 0, 0), 0.9),
		light.New(geom.New(50, 10, 5), 0.3),
		light.New(geom.New(99, 99, 99), 0.75),
		light.New(geom.New(10, 20, 31), 0.01),
	}
	reversed := make([]light.Light, len(lights))
	for i := range lights {
		reversed[len(lights)-1-i] = lights[i]
	}

	a := SumLight(pos, lights)
	b := SumLight(pos, reversed)
	if rel := math.Abs(float64(a-b)) / math.Abs(float64(a)); rel > 1e-5 {
		t.Fatalf("forward %f vs reversed %f, relative error %g", a, b, rel)
	}
}
