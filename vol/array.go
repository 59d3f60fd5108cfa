// Package vol provides dense 3D real and complex arrays with the handful
// of operations the PSF convolution engine needs: padding, origin
// shifting, elementwise products and layer views.
//
// Storage is flat row-major in (z, y, x) order, so a single z layer is a
// contiguous slice of the backing data. The types are deliberately small;
// this is support code, not a general array library.
package vol

import (
	"github.com/tphakala/simd/f64"

	"github.com/jkorpela/go-psf/tile"
)

// Array is a dense 3D float64 array.
type Array struct {
	Shape [3]int
	Data  []float64
}

// NewArray allocates a zeroed array of the given shape.
func NewArray(shape [3]int) *Array {
	return &Array{
		Shape: shape,
		Data:  make([]float64, shape[0]*shape[1]*shape[2]),
	}
}

// FromSlice wraps an existing flat slice. The slice length must equal the
// product of the shape; ownership transfers to the array.
func FromSlice(shape [3]int, data []float64) *Array {
	if len(data) != shape[0]*shape[1]*shape[2] {
		panic("vol: data length does not match shape")
	}
	return &Array{Shape: shape, Data: data}
}

// At returns the element at (z, y, x).
func (a *Array) At(z, y, x int) float64 {
	return a.Data[(z*a.Shape[1]+y)*a.Shape[2]+x]
}

// Set assigns the element at (z, y, x).
func (a *Array) Set(z, y, x int, v float64) {
	a.Data[(z*a.Shape[1]+y)*a.Shape[2]+x] = v
}

// Layer returns the contiguous backing slice of z layer i.
func (a *Array) Layer(i int) []float64 {
	n := a.Shape[1] * a.Shape[2]
	return a.Data[i*n : (i+1)*n]
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := NewArray(a.Shape)
	copy(out.Data, a.Data)
	return out
}

// Sum returns the sum of all elements.
func (a *Array) Sum() float64 {
	return f64.Sum(a.Data)
}

// Scale multiplies every element by s in place.
func (a *Array) Scale(s float64) {
	f64.Scale(a.Data, a.Data, s)
}

// ToComplex returns a complex copy of the array.
func (a *Array) ToComplex() *CArray {
	out := NewCArray(a.Shape)
	for i, v := range a.Data {
		out.Data[i] = complex(v, 0)
	}
	return out
}

// Extract copies the sub-volume addressed by t into a new array. The tile
// must lie within the array.
func (a *Array) Extract(t tile.Tile) *Array {
	out := NewArray(t.Shape)
	r := t.Right()
	for z := t.Lower[0]; z < r[0]; z++ {
		for y := t.Lower[1]; y < r[1]; y++ {
			src := (z*a.Shape[1] + y) * a.Shape[2]
			dst := ((z-t.Lower[0])*t.Shape[1] + (y - t.Lower[1])) * t.Shape[2]
			copy(out.Data[dst:dst+t.Shape[2]], a.Data[src+t.Lower[2]:src+r[2]])
		}
	}
	return out
}

// Insert copies src into the sub-volume of a addressed by t. Inverse of
// Extract.
func (a *Array) Insert(t tile.Tile, src *Array) {
	r := t.Right()
	for z := t.Lower[0]; z < r[0]; z++ {
		for y := t.Lower[1]; y < r[1]; y++ {
			dst := (z*a.Shape[1]+y)*a.Shape[2] + t.Lower[2]
			off := ((z-t.Lower[0])*t.Shape[1] + (y - t.Lower[1])) * t.Shape[2]
			copy(a.Data[dst:dst+t.Shape[2]], src.Data[off:off+t.Shape[2]])
		}
	}
}

// Pad embeds the array centered in a larger zeroed array of the target
// shape. The padding is symmetric; when the size difference along an axis
// is odd the extra element goes on the high side. For an even source size
// the subsequent origin shift is exact for any target size; this is why
// the analytic kernels round their support up to even.
func (a *Array) Pad(target [3]int) *Array {
	var lo [3]int
	for i := range target {
		d := target[i] - a.Shape[i]
		if d < 0 {
			panic("vol: pad target smaller than source")
		}
		lo[i] = d / 2
	}
	out := NewArray(target)
	out.Insert(tile.NewAt(lo, a.Shape), a)
	return out
}

// ShiftOrigin rolls the array so that the element at the lattice center
// (index n/2 along each axis) moves to index 0, the origin convention the
// forward transform assumes. It mirrors numpy's ifftshift and returns a
// new array.
func (a *Array) ShiftOrigin() *Array {
	out := NewArray(a.Shape)
	nz, ny, nx := a.Shape[0], a.Shape[1], a.Shape[2]
	sz, sy, sx := nz/2, ny/2, nx/2
	for z := 0; z < nz; z++ {
		zs := (z + sz) % nz
		for y := 0; y < ny; y++ {
			ys := (y + sy) % ny
			row := (z*ny + y) * nx
			src := (zs*ny + ys) * nx
			for x := 0; x < nx; x++ {
				out.Data[row+x] = a.Data[src+(x+sx)%nx]
			}
		}
	}
	return out
}
