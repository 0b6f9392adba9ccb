// Package rules contains the pure calculation logic for the frame update.
// This package is PURE and must NOT import any infrastructure packages.
//
// Both execution modes call these functions so that positions come out
// bit-identical and only the order of the lighting sum may differ.
package rules

import (
	"math"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/light"
)

// DefaultStep scales the per-frame position advance.
const DefaultStep float32 = 0.1

// PositionDelta is the per-frame movement derived from an object's rotation.
// Rotation components are degrees but are passed to cos/sin unconverted.
func PositionDelta(rotation geom.Vector3, step float32) geom.Vector3 {
	return geom.Vector3{
		X: float32(math.Cos(float64(rotation.X))) * step,
		Y: float32(math.Sin(float64(rotation.Y))) * step,
		Z: float32(math.Cos(float64(rotation.Z))) * step,
	}
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b geom.Vector3) float32 {
	d := a.Sub(b)
	return float32(math.Sqrt(float64(d.X*d.X + d.Y*d.Y + d.Z*d.Z)))
}

// LightContribution is intensity / (distance + 1). The +1 keeps the result
// finite when the object sits on the light.
func LightContribution(position geom.Vector3, l light.Light) float32 {
	return l.Intensity / (Distance(position, l.Position) + 1)
}

// SumLight folds the contributions of every light in index order.
func SumLight(position geom.Vector3, lights []light.Light) float32 {
	var total float32
	for i := range lights {
		total += LightContribution(position, lights[i])
	}
	return total
}
