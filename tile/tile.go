// Package tile provides a rectangular sub-volume descriptor used to scope
// computation to a region of interest within a larger 3D field.
//
// A Tile is a plain value: it is never mutated in place, only replaced
// wholesale when the region of interest changes.
package tile

import "fmt"

// Tile describes an axis-aligned rectangular sub-volume of a 3D field.
// Axis order is (z, y, x) throughout, matching the row-major storage of
// the vol package.
type Tile struct {
	// Lower is the inclusive lower corner of the tile in the parent field.
	Lower [3]int

	// Shape is the extent of the tile along each axis.
	Shape [3]int
}

// New creates a tile of the given shape anchored at the origin.
func New(shape [3]int) Tile {
	return Tile{Shape: shape}
}

// NewAt creates a tile of the given shape anchored at lower.
func NewAt(lower, shape [3]int) Tile {
	return Tile{Lower: lower, Shape: shape}
}

// Right returns the exclusive upper corner of the tile.
func (t Tile) Right() [3]int {
	var r [3]int
	for i := range r {
		r[i] = t.Lower[i] + t.Shape[i]
	}
	return r
}

// Size returns the number of voxels covered by the tile.
func (t Tile) Size() int {
	return t.Shape[0] * t.Shape[1] * t.Shape[2]
}

// Contains reports whether the tile lies entirely within a field of the
// given shape anchored at the origin.
func (t Tile) Contains(shape [3]int) bool {
	for i := range t.Shape {
		if t.Lower[i] < 0 || t.Lower[i]+t.Shape[i] > shape[i] {
			return false
		}
	}
	return true
}

// ZRange returns the absolute z positions of the tile's layers, one entry
// per layer. The depth-varying PSF variants evaluate their axial model at
// these positions.
func (t Tile) ZRange() []float64 {
	zs := make([]float64, t.Shape[0])
	for i := range zs {
		zs[i] = float64(t.Lower[0] + i)
	}
	return zs
}

// Coords returns per-axis coordinate vectors for the tile's lattice in
// transform index order. With centered=true the vectors hold the signed
// integer offsets from the lattice center, i.e. j - n/2 for index j, which
// places zero at index n/2 for both even and odd sizes. This is the grid
// the real-space kernels are evaluated on before the origin is shifted to
// index 0 for the transform.
//
// With centered=false the vectors hold the standard periodic frequency
// offsets: 0, 1, ..., n/2-1, -n/2, ..., -1.
func (t Tile) Coords(centered bool) (cz, cy, cx []float64) {
	axis := func(n int) []float64 {
		c := make([]float64, n)
		for j := range c {
			if centered {
				c[j] = float64(j - n/2)
			} else {
				k := j
				if k >= (n+1)/2 {
					k -= n
				}
				c[j] = float64(k)
			}
		}
		return c
	}
	return axis(t.Shape[0]), axis(t.Shape[1]), axis(t.Shape[2])
}

// String implements fmt.Stringer.
func (t Tile) String() string {
	return fmt.Sprintf("Tile(l=%v, shape=%v)", t.Lower, t.Shape)
}
