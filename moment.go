package psf

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jkorpela/go-psf/internal/mathutil"
)

// skewBoundPoly bounds the skewness amplitude as an empirical function
// of the kurtosis amplitude, keeping the expanded kernel non-negative.
// Coefficients are in descending power order.
var skewBoundPoly = []float64{
	-1.142468e+04, 3.0939485e+03, -2.0283568e+02,
	-2.1047846e+01, 3.79808487e+00, 1.19679781e-02,
}

// GaussianMomentExpansion is a depth-varying Gaussian with tunable third
// and fourth moments. Each profile has the form
//
//	(1 + a*(3x - x^3) + b*(3 - 6x^2 + x^4)) * exp(-x^2/2)
//
// in the width-scaled coordinate x, where a and b derive from their own
// depth polynomials. The skewness amplitude is squashed through tanh and
// bounded by the kurtosis amplitude so the kernel stays a valid profile
// for any parameter values a fit may visit.
type GaussianMomentExpansion struct {
	Gaussian4D

	skewGroups [3][]string
	kurtGroups [3][]string
}

var _ PSF = (*GaussianMomentExpansion)(nil)

// NewGaussianMomentExpansion builds a moment-expanded depth-varying
// Gaussian. sigmas holds the z = 0 widths per axis in (z, y, x) order;
// WithOrder sets the sigma polynomial orders and WithMomentOrder the
// (skew, kurtosis) polynomial orders. All moment coefficients start at
// zero; the skew term then vanishes, but the squashed kurtosis amplitude
// rests at 1/12, so a fresh instance carries a slight fourth-moment
// correction over NewGaussian4D.
func NewGaussianMomentExpansion(shape [3]int, sigmas [3]float64, opts ...Option) (*GaussianMomentExpansion, error) {
	o := defaultOptions()
	o.apply(opts)

	m := &GaussianMomentExpansion{}
	m.threshold = o.threshold
	m.zrange = o.zrange
	m.basis = basisPower

	var names []string
	var values []float64
	for d, prefix := range [3]string{"psf-z", "psf-y", "psf-x"} {
		if o.order[d] < 1 {
			return nil, fmt.Errorf("%w: order %v must be at least 1 per axis", ErrInvalidParams, o.order)
		}
		if sigmas[d] <= 0 {
			return nil, fmt.Errorf("%w: sigma %v must be positive", ErrInvalidParams, sigmas[d])
		}
		m.groups[d] = axisNames(prefix, o.order[d])
		names = append(names, m.groups[d]...)
		values = append(values, sigmas[d])
		values = append(values, make([]float64, o.order[d]-1)...)
	}

	for i, moment := range [2]string{"skew", "kurt"} {
		if o.momentOrder[i] < 1 {
			return nil, fmt.Errorf("%w: moment order %v must be at least 1", ErrInvalidParams, o.momentOrder)
		}
		for d, axis := range [3]string{"z", "y", "x"} {
			group := axisNames(fmt.Sprintf("psf-%s-%s", moment, axis), o.momentOrder[i])
			names = append(names, group...)
			values = append(values, make([]float64, o.momentOrder[i])...)
			if moment == "skew" {
				m.skewGroups[d] = group
			} else {
				m.kurtGroups[d] = group
			}
		}
	}

	params, err := newParamSet(names, values)
	if err != nil {
		return nil, err
	}
	if err := m.initBase4D(shape, params, m, o.backend); err != nil {
		return nil, err
	}
	return m, nil
}

// kurtAmplitude returns the fourth-moment amplitude for direction d at
// absolute depth z. Direction 0 is the transverse rho profile and
// direction 1 the axial one. The tanh squash keeps the amplitude in
// (0, 1/6) regardless of the raw polynomial value.
func (m *GaussianMomentExpansion) kurtAmplitude(z float64, d int) float64 {
	return m.memoScalar(memoKurt, z, d, func() float64 {
		v := mathutil.Polyval(m.params.Get(m.kurtGroups[d]...), z)
		return (math.Tanh(v) + 1) / 12
	})
}

// skewAmplitude returns the third-moment amplitude for direction d at
// absolute depth z, limited to (-top, top) where top is the largest
// skewness the current kurtosis admits.
func (m *GaussianMomentExpansion) skewAmplitude(z float64, d int) float64 {
	return m.memoScalar(memoSkew, z, d, func() float64 {
		top := mathutil.PolyvalDesc(skewBoundPoly, m.kurtAmplitude(z, d))
		v := mathutil.Polyval(m.params.Get(m.skewGroups[d]...), z)
		return top*(math.Tanh(v)+1) - top
	})
}

func (m *GaussianMomentExpansion) moment(x, z float64, d int) float64 {
	skew := m.skewAmplitude(z, d) * (3*x - x*x*x)
	kurt := m.kurtAmplitude(z, d) * (3 - 6*x*x + x*x*x*x)
	return 1 + skew + kurt
}

func (m *GaussianMomentExpansion) transverseLayer(cy, cx []float64, z float64) []float64 {
	sy, sx := m.sigma(z, 1), m.sigma(z, 2)
	r := m.memoPadding(z)
	py, px := r[1], r[2]

	layer := make([]float64, len(cy)*len(cx))
	for iy, ry := range cy {
		if math.Abs(ry) > py {
			continue
		}
		ny := ry / sy
		row := layer[iy*len(cx) : (iy+1)*len(cx)]
		for ix, rx := range cx {
			if math.Abs(rx) > px {
				continue
			}
			nx := rx / sx
			rho := math.Sqrt(nx*nx + ny*ny)
			row[ix] = m.moment(rho, z, 0) * math.Exp(-rho*rho/2)
		}
	}
	return layer
}

func (m *GaussianMomentExpansion) axialWeights(zs []float64, zp float64) []float64 {
	s := m.sigma(zp, 0)
	w := make([]float64, len(zs))
	for i, z := range zs {
		x := (z - zp) / s
		w[i] = m.moment(x, zp, 1) * math.Exp(-x*x/2)
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}
