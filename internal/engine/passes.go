package engine

import (
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/light"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/object"
	"github.com/MRamiBalles/ParallelGameStates/internal/domain/rules"
)

// Per-object frame passes. For one object they always run in order:
// advance -> illuminate -> modulate. Lighting is computed against the
// position advance just produced, not the position at frame start.

// advance is pass 1: position += step * (cos rx, sin ry, cos rz).
func advance(obj *object.GameObject, step float32) {
	obj.Move(rules.PositionDelta(obj.Rotation, step))
}

// illuminate is pass 2 run as a plain fold in light index order.
func illuminate(obj *object.GameObject, lights []light.Light) float32 {
	return rules.SumLight(obj.Position, lights)
}

// illuminateOn is pass 2 run as a pooled reduction. The result may differ
// from illuminate in the last bits because partials are summed per range.
func illuminateOn(pool *Pool, grain int, obj *object.GameObject, lights []light.Light) (float32, error) {
	pos := obj.Position
	return pool.Sum(len(lights), grain, func(lo, hi int) float32 {
		return rules.SumLight(pos, lights[lo:hi])
	})
}

// modulate is pass 3: every texel *= total.
func modulate(obj *object.GameObject, total float32) {
	obj.Texture.Scale(0, obj.Texture.Len(), total)
}

// modulateOn is pass 3 over the flattened texel range split across the pool.
// Each range is written by exactly one task.
func modulateOn(pool *Pool, grain int, obj *object.GameObject, total float32) error {
	tex := obj.Texture
	return pool.For(tex.Len(), grain, func(lo, hi int) error {
		tex.Scale(lo, hi, total)
		return nil
	})
}
