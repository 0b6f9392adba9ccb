// Package texture defines the dense brightness buffer owned by every object.
// This package is PURE and must NOT import any infrastructure packages.
package texture

// Texture is a Size x Size grid of brightness samples stored row-major in one
// contiguous slice. Pixels is never resized after construction.
//
// Samples start in [0,1] but are NOT clamped after modulation.
type Texture struct {
	Size   int       `json:"size"`
	Pixels []float32 `json:"-"`
}

// New allocates a zeroed texture.
func New(size int) *Texture {
	return &Texture{
		Size:   size,
		Pixels: make([]float32, size*size),
	}
}

// Filled allocates a texture with every sample set to v.
func Filled(size int, v float32) *Texture {
	t := New(size)
	for i := range t.Pixels {
		t.Pixels[i] = v
	}
	return t
}

// Len is the number of samples (Size*Size).
func (t *Texture) Len() int {
	return len(t.Pixels)
}

// Index flattens a (row, col) pair.
func (t *Texture) Index(row, col int) int {
	return row*t.Size + col
}

// At reads the sample at (row, col).
func (t *Texture) At(row, col int) float32 {
	return t.Pixels[t.Index(row, col)]
}

// Set writes the sample at (row, col).
func (t *Texture) Set(row, col int, v float32) {
	t.Pixels[t.Index(row, col)] = v
}

// Scale multiplies the samples in the flattened range [lo, hi) by k.
func (t *Texture) Scale(lo, hi int, k float32) {
	px := t.Pixels[lo:hi]
	for i := range px {
		px[i] *= k
	}
}

// Clone returns a deep copy.
func (t *Texture) Clone() *Texture {
	c := &Texture{Size: t.Size, Pixels: make([]float32, len(t.Pixels))}
	copy(c.Pixels, t.Pixels)
	return c
}
