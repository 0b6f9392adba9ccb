// Package object defines the per-frame updated game object.
// This package is PURE and must NOT import any infrastructure packages.
package object

import (
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/texture"
)

// GameObject is an entity with a position, a fixed rotation and an
// exclusively owned texture.
type GameObject struct {
	Position geom.Vector3     `json:"position"`
	Rotation geom.Vector3     `json:"rotation"` // degrees, never updated
	Texture  *texture.Texture `json:"texture"`
}

// New creates a game object. The texture is owned by the object from here on.
func New(position, rotation geom.Vector3, tex *texture.Texture) *GameObject {
	return &GameObject{
		Position: position,
		Rotation: rotation,
		Texture:  tex,
	}
}

// Move adds delta to the object's position.
func (o *GameObject) Move(delta geom.Vector3) {
	o.Position = o.Position.Add(delta)
}

// Clone returns a deep copy, texture included.
func (o *GameObject) Clone() *GameObject {
	c := *o
	if o.Texture != nil {
		c.Texture = o.Texture.Clone()
	}
	return &c
}
