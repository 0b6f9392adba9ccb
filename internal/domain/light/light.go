// Package light defines stationary point lights.
// This package is PURE and must NOT import any infrastructure packages.
package light

import "github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"

// Light is a point source. Both fields are immutable after construction.
type Light struct {
	Position  geom.Vector3 `json:"position"`
	Intensity float32      `json:"intensity"` // [0,1) when generated
}

// New creates a light.
func New(position geom.Vector3, intensity float32) Light {
	return Light{Position: position, Intensity: intensity}
}
