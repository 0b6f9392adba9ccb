package texture

import "testing"

func TestRowMajorLayout(t *testing.T) {
	tex := New(3)
	tex.Set(1, 2, 0.5)

	if tex.Index(1, 2) != 5 {
		t.Fatalf("Index(1,2) = %d, want 5", tex.Index(1, 2))
	}
	if tex.Pixels[5] != 0.5 || tex.At(1, 2) != 0.5 {
		t.Fatalf("sample not stored row-major: %v", tex.Pixels)
	}
}

func TestScaleRangeOnly(t *testing.T) {
	tex := Filled(2, 1)
	tex.Scale(1, 3, 4)

	want := []float32{1, 4, 4, 1}
	for i, v := range tex.Pixels {
		if v != want[i] {
			t.Fatalf("Pixels = %v, want %v", tex.Pixels, want)
		}
	}
}

func TestScaleDoesNotClamp(t *testing.T) {
	tex := Filled(1, 0.8)
	tex.Scale(0, 1, 3)
	if tex.At(0, 0) <= 1 {
		t.Fatalf("sample clamped to %f", tex.At(0, 0))
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := Filled(2, 0.25)
	b := a.Clone()
	b.Set(0, 0, 1)
	if a.At(0, 0) != 0.25 {
		t.Fatal("Clone shares pixel storage")
	}
}
