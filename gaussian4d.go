package psf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jkorpela/go-psf/internal/mathutil"
)

// minPaddingRadius4D is the floor on the per-axis padding radius of the
// depth-varying variants. Sigma polynomials can dip arbitrarily close to
// zero mid-fit, and a sub-pixel support would collapse the kernel to a
// single voxel.
const minPaddingRadius4D = 2.1

const (
	memoSigma byte = 's'
	memoSkew  byte = 'w'
	memoKurt  byte = 'k'
)

type polyBasis int

const (
	basisPower polyBasis = iota
	basisLegendre
)

// axisNames returns the parameter names of one polynomial coefficient
// group, e.g. "psf-z-0" through "psf-z-2" for the axial sigma of order 3.
func axisNames(prefix string, order int) []string {
	names := make([]string, order)
	for j := range names {
		names[j] = fmt.Sprintf("%s-%d", prefix, j)
	}
	return names
}

// Gaussian4D is a Gaussian point spread function whose per-axis widths
// vary with depth as polynomials in the scaled coordinate z / zrange.
// The constant term of each polynomial is the width at z = 0 and the
// higher coefficients start at zero.
type Gaussian4D struct {
	base4D

	threshold float64
	zrange    float64
	basis     polyBasis
	groups    [3][]string
}

var _ PSF = (*Gaussian4D)(nil)

// NewGaussian4D builds a depth-varying Gaussian over a field of the
// given shape. sigmas holds the z = 0 widths per axis in (z, y, x)
// order; the polynomial order per axis comes from WithOrder.
func NewGaussian4D(shape [3]int, sigmas [3]float64, opts ...Option) (*Gaussian4D, error) {
	return newGaussian4D(shape, sigmas, basisPower, opts...)
}

// NewGaussian4DLeg is NewGaussian4D with the sigma polynomials expressed
// in the Legendre basis on z / zrange. The bases agree at order 1, and
// Legendre coefficients stay better conditioned during fits at higher
// orders.
func NewGaussian4DLeg(shape [3]int, sigmas [3]float64, opts ...Option) (*Gaussian4D, error) {
	return newGaussian4D(shape, sigmas, basisLegendre, opts...)
}

func newGaussian4D(shape [3]int, sigmas [3]float64, basis polyBasis, opts ...Option) (*Gaussian4D, error) {
	o := defaultOptions()
	o.apply(opts)

	p := &Gaussian4D{
		threshold: o.threshold,
		zrange:    o.zrange,
		basis:     basis,
	}

	var names []string
	var values []float64
	for d, prefix := range [3]string{"psf-z", "psf-y", "psf-x"} {
		if o.order[d] < 1 {
			return nil, fmt.Errorf("%w: order %v must be at least 1 per axis", ErrInvalidParams, o.order)
		}
		if sigmas[d] <= 0 {
			return nil, fmt.Errorf("%w: sigma %v must be positive", ErrInvalidParams, sigmas[d])
		}
		p.groups[d] = axisNames(prefix, o.order[d])
		names = append(names, p.groups[d]...)
		values = append(values, sigmas[d])
		values = append(values, make([]float64, o.order[d]-1)...)
	}

	params, err := newParamSet(names, values)
	if err != nil {
		return nil, err
	}
	if err := p.initBase4D(shape, params, p, o.backend); err != nil {
		return nil, err
	}
	return p, nil
}

// evalPoly evaluates one coefficient group at the scaled depth x.
func (p *Gaussian4D) evalPoly(coeffs []float64, x float64) float64 {
	if p.basis == basisLegendre {
		return mathutil.Legval(coeffs, x)
	}
	return mathutil.Polyval(coeffs, x)
}

// sigma returns the width of axis d (0 = z, 1 = y, 2 = x) at absolute
// depth z.
func (p *Gaussian4D) sigma(z float64, d int) float64 {
	return p.memoScalar(memoSigma, z, d, func() float64 {
		return p.evalPoly(p.params.Get(p.groups[d]...), z/p.zrange)
	})
}

func (p *Gaussian4D) paddingRadius(z float64) [3]float64 {
	var r [3]float64
	for d := range r {
		r[d] = math.Max(paddingRadius(p.sigma(z, d), p.threshold), minPaddingRadius4D)
	}
	return r
}

func (p *Gaussian4D) transverseLayer(cy, cx []float64, z float64) []float64 {
	sy, sx := p.sigma(z, 1), p.sigma(z, 2)
	r := p.memoPadding(z)
	py, px := r[1], r[2]

	layer := make([]float64, len(cy)*len(cx))
	for iy, ry := range cy {
		if math.Abs(ry) > py {
			continue
		}
		gy := math.Exp(-ry * ry / (2 * sy * sy))
		row := layer[iy*len(cx) : (iy+1)*len(cx)]
		for ix, rx := range cx {
			if math.Abs(rx) > px {
				continue
			}
			row[ix] = gy * math.Exp(-rx*rx/(2*sx*sx))
		}
	}
	return layer
}

func (p *Gaussian4D) axialWeights(zs []float64, zp float64) []float64 {
	s := p.sigma(zp, 0)
	w := make([]float64, len(zs))
	for i, z := range zs {
		dz := z - zp
		w[i] = math.Exp(-dz * dz / (2 * s * s))
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}
