package vol

import "github.com/tphakala/simd/c128"

// CArray is a dense 3D complex128 array, the frequency-domain counterpart
// of Array.
type CArray struct {
	Shape [3]int
	Data  []complex128
}

// NewCArray allocates a zeroed complex array of the given shape.
func NewCArray(shape [3]int) *CArray {
	return &CArray{
		Shape: shape,
		Data:  make([]complex128, shape[0]*shape[1]*shape[2]),
	}
}

// At returns the element at (z, y, x).
func (a *CArray) At(z, y, x int) complex128 {
	return a.Data[(z*a.Shape[1]+y)*a.Shape[2]+x]
}

// Set assigns the element at (z, y, x).
func (a *CArray) Set(z, y, x int, v complex128) {
	a.Data[(z*a.Shape[1]+y)*a.Shape[2]+x] = v
}

// Layer returns the contiguous backing slice of z layer i.
func (a *CArray) Layer(i int) []complex128 {
	n := a.Shape[1] * a.Shape[2]
	return a.Data[i*n : (i+1)*n]
}

// Clone returns a deep copy.
func (a *CArray) Clone() *CArray {
	out := NewCArray(a.Shape)
	copy(out.Data, a.Data)
	return out
}

// MulEq multiplies a elementwise by b in place. Shapes must match.
func (a *CArray) MulEq(b *CArray) {
	if a.Shape != b.Shape {
		panic("vol: shape mismatch in MulEq")
	}
	c128.Mul(a.Data, a.Data, b.Data)
}

// Mul returns the elementwise product of a and b.
func (a *CArray) Mul(b *CArray) *CArray {
	if a.Shape != b.Shape {
		panic("vol: shape mismatch in Mul")
	}
	out := NewCArray(a.Shape)
	c128.Mul(out.Data, a.Data, b.Data)
	return out
}

// Scale multiplies every element by s in place.
func (a *CArray) Scale(s float64) {
	c := complex(s, 0)
	for i := range a.Data {
		a.Data[i] *= c
	}
}

// Real returns the real part as a new Array.
func (a *CArray) Real() *Array {
	out := NewArray(a.Shape)
	for i, v := range a.Data {
		out.Data[i] = real(v)
	}
	return out
}
