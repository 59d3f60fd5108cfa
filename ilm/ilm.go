// Package ilm models smoothly varying background illumination as a
// separable polynomial field over the image volume. The fields pair with
// the point spread function during fits: the PSF explains the optics,
// the illumination field explains the slow brightness drift across the
// sample.
package ilm

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jkorpela/go-psf/internal/mathutil"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

var (
	// ErrBadCoeffs reports a coefficient slice of the wrong length.
	ErrBadCoeffs = errors.New("ilm: wrong coefficient count")

	// ErrShapeMismatch reports data of a different shape than the field.
	ErrShapeMismatch = errors.New("ilm: shape mismatch")
)

// field carries the machinery shared by the power and Legendre variants:
// a precomputed basis volume per term, the coefficients and the rendered
// background.
type field struct {
	shape  [3]int
	order  [3]int
	coeffs []float64
	basis  []*vol.Array

	active tile.Tile
	bkg    *vol.Array
}

func (f *field) init(shape, order [3]int, basis []*vol.Array) {
	f.shape = shape
	f.order = order
	f.basis = basis
	f.coeffs = make([]float64, len(basis))
	f.coeffs[0] = 1
	f.active = tile.New(shape)
	f.render()
}

// render rebuilds the full-shape background from the current
// coefficients.
func (f *field) render() {
	f.bkg = vol.NewArray(f.shape)
	for t, c := range f.coeffs {
		if c == 0 {
			continue
		}
		src := f.basis[t].Data
		for p := range f.bkg.Data {
			f.bkg.Data[p] += c * src[p]
		}
	}
}

// Order returns the per-axis term counts in (z, y, x) order.
func (f *field) Order() [3]int {
	return f.order
}

// Coeffs returns the coefficients in basis-term order.
func (f *field) Coeffs() []float64 {
	out := make([]float64, len(f.coeffs))
	copy(out, f.coeffs)
	return out
}

// Update replaces all coefficients and re-renders the background.
func (f *field) Update(coeffs []float64) error {
	if len(coeffs) != len(f.coeffs) {
		return fmt.Errorf("%w: got %d, want %d", ErrBadCoeffs, len(coeffs), len(f.coeffs))
	}
	copy(f.coeffs, coeffs)
	f.render()
	return nil
}

// SetTile selects the sub-volume returned by Field.
func (f *field) SetTile(t tile.Tile) {
	f.active = t
}

// Tile returns the active tile.
func (f *field) Tile() tile.Tile {
	return f.active
}

// Field returns the background over the active tile.
func (f *field) Field() *vol.Array {
	return f.bkg.Extract(f.active)
}

// FromData fits the coefficients to a measured volume by linear least
// squares over the basis and re-renders the background.
func (f *field) FromData(data *vol.Array) error {
	if data.Shape != f.shape {
		return fmt.Errorf("%w: data %v, field %v", ErrShapeMismatch, data.Shape, f.shape)
	}

	n := len(data.Data)
	a := mat.NewDense(n, len(f.basis), nil)
	for t, b := range f.basis {
		for p, v := range b.Data {
			a.Set(p, t, v)
		}
	}
	rhs := mat.NewVecDense(n, data.Data)

	var sol mat.VecDense
	if err := sol.SolveVec(a, rhs); err != nil {
		return fmt.Errorf("ilm: least squares fit: %w", err)
	}
	copy(f.coeffs, sol.RawVector().Data)
	f.render()
	return nil
}

// termExponents enumerates the per-axis exponent triples (z, y, x) in
// row-major order over the per-axis term counts.
func termExponents(order [3]int) [][3]int {
	terms := make([][3]int, 0, order[0]*order[1]*order[2])
	for i := 0; i < order[0]; i++ {
		for j := 0; j < order[1]; j++ {
			for k := 0; k < order[2]; k++ {
				terms = append(terms, [3]int{i, j, k})
			}
		}
	}
	return terms
}

// Polynomial3D is a background field in the plain power basis on
// coordinates scaled by the longest image axis.
type Polynomial3D struct {
	field
}

// NewPolynomial3D builds a power-basis field with order terms per (z, y,
// x) axis. The constant term starts at one, everything else at zero.
func NewPolynomial3D(shape, order [3]int) *Polynomial3D {
	maxDim := shape[0]
	if shape[1] > maxDim {
		maxDim = shape[1]
	}
	if shape[2] > maxDim {
		maxDim = shape[2]
	}
	scale := 1 / float64(maxDim)

	basis := make([]*vol.Array, 0, order[0]*order[1]*order[2])
	for _, e := range termExponents(order) {
		b := vol.NewArray(shape)
		p := 0
		for z := 0; z < shape[0]; z++ {
			bz := mathutil.Pow(float64(z)*scale, e[0])
			for y := 0; y < shape[1]; y++ {
				bzy := bz * mathutil.Pow(float64(y)*scale, e[1])
				for x := 0; x < shape[2]; x++ {
					b.Data[p] = bzy * mathutil.Pow(float64(x)*scale, e[2])
					p++
				}
			}
		}
		basis = append(basis, b)
	}

	f := &Polynomial3D{}
	f.init(shape, order, basis)
	return f
}

// LegendrePoly3D is a background field in the Legendre basis, each axis
// mapped onto [-1, 1]. The basis is orthogonal on the grid, which keeps
// high-order fits far better conditioned than raw powers.
type LegendrePoly3D struct {
	field
}

// NewLegendrePoly3D builds a Legendre-basis field with order terms per
// (z, y, x) axis.
func NewLegendrePoly3D(shape, order [3]int) *LegendrePoly3D {
	grids := [3][][]float64{}
	for d := 0; d < 3; d++ {
		grids[d] = make([][]float64, shape[d])
		for i := 0; i < shape[d]; i++ {
			x := -1.0
			if shape[d] > 1 {
				x = -1 + 2*float64(i)/float64(shape[d]-1)
			}
			grids[d][i] = mathutil.LegSeq(order[d], x)
		}
	}

	basis := make([]*vol.Array, 0, order[0]*order[1]*order[2])
	for _, e := range termExponents(order) {
		b := vol.NewArray(shape)
		p := 0
		for z := 0; z < shape[0]; z++ {
			bz := grids[0][z][e[0]]
			for y := 0; y < shape[1]; y++ {
				bzy := bz * grids[1][y][e[1]]
				for x := 0; x < shape[2]; x++ {
					b.Data[p] = bzy * grids[2][x][e[2]]
					p++
				}
			}
		}
		basis = append(basis, b)
	}

	f := &LegendrePoly3D{}
	f.init(shape, order, basis)
	return f
}
