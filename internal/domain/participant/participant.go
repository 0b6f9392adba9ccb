// Package participant defines a simulated player's game state and the
// population of them.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package participant

import (
	"errors"
	"fmt"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/light"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/object"
)

var (
	// ErrTextureSizeMismatch means an object's texture differs from the population's texture size.
	ErrTextureSizeMismatch = errors.New("texture size mismatch")
	// ErrShapeMismatch means participants disagree on object or light counts.
	ErrShapeMismatch = errors.New("participant shape mismatch")
)

// Participant owns a fixed set of objects and lights. Nothing is shared with
// other participants.
type Participant struct {
	ID      int                  `json:"id"`
	Objects []*object.GameObject `json:"objects"`
	Lights  []light.Light        `json:"lights"`
}

// New creates a participant from already constructed entities.
func New(id int, objects []*object.GameObject, lights []light.Light) *Participant {
	return &Participant{
		ID:      id,
		Objects: objects,
		Lights:  lights,
	}
}

// Snapshot is the read-only view handed to reporters.
type Snapshot struct {
	ID        int            `json:"id"`
	Positions []geom.Vector3 `json:"positions"`
}

// Snapshot copies the id and current object positions.
func (p *Participant) Snapshot() Snapshot {
	positions := make([]geom.Vector3, len(p.Objects))
	for i, obj := range p.Objects {
		positions[i] = obj.Position
	}
	return Snapshot{ID: p.ID, Positions: positions}
}

// Clone deep-copies the participant, textures included.
func (p *Participant) Clone() *Participant {
	objects := make([]*object.GameObject, len(p.Objects))
	for i, obj := range p.Objects {
		objects[i] = obj.Clone()
	}
	lights := make([]light.Light, len(p.Lights))
	copy(lights, p.Lights)
	return New(p.ID, objects, lights)
}

// Validate checks that every object owns a texture of the given size.
func (p *Participant) Validate(textureSize int) error {
	for i, obj := range p.Objects {
		if obj == nil || obj.Texture == nil {
			return fmt.Errorf("participant %d object %d: %w", p.ID, i, ErrTextureSizeMismatch)
		}
		if obj.Texture.Size != textureSize || obj.Texture.Len() != textureSize*textureSize {
			return fmt.Errorf("participant %d object %d has size %d, want %d: %w",
				p.ID, i, obj.Texture.Size, textureSize, ErrTextureSizeMismatch)
		}
	}
	return nil
}

// Population is the ordered set of participants for one run.
type Population []*Participant

// Counts returns the per-participant object and light counts of the first
// participant, or zeros for an empty population.
func (pop Population) Counts() (objects, lights int) {
	if len(pop) == 0 {
		return 0, 0
	}
	return len(pop[0].Objects), len(pop[0].Lights)
}

// TextureSize returns the texture size of the first object found.
func (pop Population) TextureSize() int {
	for _, p := range pop {
		for _, obj := range p.Objects {
			if obj != nil && obj.Texture != nil {
				return obj.Texture.Size
			}
		}
	}
	return 0
}

// Validate enforces the fixed-shape invariants: identical object and light
// counts per participant and identical texture sizes across all objects.
func (pop Population) Validate() error {
	objects, lights := pop.Counts()
	size := pop.TextureSize()
	for _, p := range pop {
		if len(p.Objects) != objects || len(p.Lights) != lights {
			return fmt.Errorf("participant %d has %d objects/%d lights, want %d/%d: %w",
				p.ID, len(p.Objects), len(p.Lights), objects, lights, ErrShapeMismatch)
		}
		if err := p.Validate(size); err != nil {
			return err
		}
	}
	return nil
}

// Clone deep-copies every participant.
func (pop Population) Clone() Population {
	out := make(Population, len(pop))
	for i, p := range pop {
		out[i] = p.Clone()
	}
	return out
}
