// Package population builds the participants for a run with pseudo-random
// initial state drawn from an explicitly passed source.
package population

import (
	"math/rand/v2"
	"time"

	"github.com/MRamiBalles/ParallelGameStates/internal/domain/geom"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/light"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/object"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/participant"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/texture"
)

// Source yields integers in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Shape describes how many entities to build and how large they are.
type Shape struct {
	Participants          int
	ObjectsPerParticipant int
	LightsPerParticipant  int
	TextureSize           int
	GridSize              int // positions are drawn from [0, GridSize)
}

// DefaultShape mirrors the classic benchmark constants.
func DefaultShape() Shape {
	return Shape{
		Participants:          100,
		ObjectsPerParticipant: 50,
		LightsPerParticipant:  10,
		TextureSize:           256,
		GridSize:              100,
	}
}

// NewSource returns a PCG-backed source for the given seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TimeSeed is the default, non-reproducible seed.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Build constructs participants 0..Participants-1 in order; inside each, the
// objects are built before the lights.
func Build(src Source, shape Shape) participant.Population {
	pop := make(participant.Population, 0, shape.Participants)
	for id := 0; id < shape.Participants; id++ {
		pop = append(pop, buildParticipant(src, id, shape))
	}
	return pop
}

func buildParticipant(src Source, id int, shape Shape) *participant.Participant {
	objects := make([]*object.GameObject, shape.ObjectsPerParticipant)
	for i := range objects {
		objects[i] = buildObject(src, shape)
	}
	lights := make([]light.Light, shape.LightsPerParticipant)
	for i := range lights {
		lights[i] = buildLight(src, shape.GridSize)
	}
	return participant.New(id, objects, lights)
}

// buildObject draws the texels first, then position and rotation.
func buildObject(src Source, shape Shape) *object.GameObject {
	tex := randomTexture(src, shape.TextureSize)
	position := randomVector(src, shape.GridSize)
	rotation := randomVector(src, 360)
	return object.New(position, rotation, tex)
}

func buildLight(src Source, grid int) light.Light {
	position := randomVector(src, grid)
	intensity := float32(src.IntN(100)) / 100
	return light.New(position, intensity)
}

func randomVector(src Source, n int) geom.Vector3 {
	x := float32(src.IntN(n))
	y := float32(src.IntN(n))
	z := float32(src.IntN(n))
	return geom.New(x, y, z)
}

func randomTexture(src Source, size int) *texture.Texture {
	tex := texture.New(size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			tex.Set(row, col, float32(src.IntN(256))/255)
		}
	}
	return tex
}
