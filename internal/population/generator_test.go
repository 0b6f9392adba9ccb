package population

import (
	"testing"
)

// scriptedSource replays a fixed sequence of draws, wrapping around.
type scriptedSource struct {
	draws []int
	next  int
	calls []int
}

func (s *scriptedSource) IntN(n int) int {
	s.calls = append(s.calls, n)
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v % n
}

func TestBuildShape(t *testing.T) {
	shape := Shape{Participants: 3, ObjectsPerParticipant: 4, LightsPerParticipant: 2, TextureSize: 5, GridSize: 100}
	pop := Build(NewSource(42), shape)

	if len(pop) != 3 {
		t.Fatalf("participants = %d, want 3", len(pop))
	}
	for i, p := range pop {
		if p.ID != i {
			t.Errorf("participant %d has id %d", i, p.ID)
		}
		if len(p.Objects) != 4 || len(p.Lights) != 2 {
			t.Errorf("participant %d has %d objects/%d lights", i, len(p.Objects), len(p.Lights))
		}
		for j, obj := range p.Objects {
			if obj.Texture.Len() != 25 {
				t.Errorf("participant %d object %d texture has %d samples", i, j, obj.Texture.Len())
			}
		}
	}
	if err := pop.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBuildRanges(t *testing.T) {
	pop := Build(NewSource(7), Shape{Participants: 2, ObjectsPerParticipant: 10, LightsPerParticipant: 10, TextureSize: 8, GridSize: 100})

	for _, p := range pop {
		for _, obj := range p.Objects {
			for _, v := range []float32{obj.Position.X, obj.Position.Y, obj.Position.Z} {
				if v < 0 || v >= 100 {
					t.Fatalf("position component %f outside grid", v)
				}
			}
			for _, v := range []float32{obj.Rotation.X, obj.Rotation.Y, obj.Rotation.Z} {
				if v < 0 || v >= 360 {
					t.Fatalf("rotation component %f outside [0,360)", v)
				}
			}
			for _, px := range obj.Texture.Pixels {
				if px < 0 || px > 1 {
					t.Fatalf("texel %f outside [0,1]", px)
				}
			}
		}
		for _, l := range p.Lights {
			if l.Intensity < 0 || l.Intensity >= 1 {
				t.Fatalf("intensity %f outside [0,1)", l.Intensity)
			}
		}
	}
}

func TestBuildDrawOrder(t *testing.T) {
	src := &scriptedSource{draws: []int{3}}
	Build(src, Shape{Participants: 1, ObjectsPerParticipant: 1, LightsPerParticipant: 1, TextureSize: 2, GridSize: 50})

	// four texels, object position, rotation, then light position and intensity
	want := []int{256, 256, 256, 256, 50, 50, 50, 360, 360, 360, 50, 50, 50, 100}
	if len(src.calls) != len(want) {
		t.Fatalf("draws = %v, want %v", src.calls, want)
	}
	for i := range want {
		if src.calls[i] != want[i] {
			t.Fatalf("draw %d bound = %d, want %d (all: %v)", i, src.calls[i], want[i], src.calls)
		}
	}
}

func TestBuildScriptedValues(t *testing.T) {
	src := &scriptedSource{draws: []int{255, 1, 2, 3, 90, 180, 270, 4, 5, 6, 50}}
	pop := Build(src, Shape{Participants: 1, ObjectsPerParticipant: 1, LightsPerParticipant: 1, TextureSize: 1, GridSize: 10})

	obj := pop[0].Objects[0]
	if obj.Position.X != 1 || obj.Position.Y != 2 || obj.Position.Z != 3 {
		t.Errorf("position = %+v", obj.Position)
	}
	if obj.Rotation.X != 90 || obj.Rotation.Y != 180 || obj.Rotation.Z != 270 {
		t.Errorf("rotation = %+v", obj.Rotation)
	}
	if obj.Texture.Pixels[0] != 1 {
		t.Errorf("texel = %f, want 1", obj.Texture.Pixels[0])
	}
	l := pop[0].Lights[0]
	if l.Position.X != 4 || l.Position.Y != 5 || l.Position.Z != 6 || l.Intensity != 0.5 {
		t.Errorf("light = %+v", l)
	}
}

func TestSameSeedSamePopulation(t *testing.T) {
	shape := Shape{Participants: 2, ObjectsPerParticipant: 3, LightsPerParticipant: 2, TextureSize: 4, GridSize: 100}
	a := Build(NewSource(99), shape)
	b := Build(NewSource(99), shape)

	for i := range a {
		for j := range a[i].Objects {
			if a[i].Objects[j].Position != b[i].Objects[j].Position {
				t.Fatalf("participant %d object %d positions differ", i, j)
			}
		}
	}
}
