package psf

import (
	"math"

	"github.com/jkorpela/go-psf/vol"
)

// Parameter names of the static Gaussian variants.
const (
	ParamSigRho = "psf-sig-rho"
	ParamSigZ   = "psf-sig-z"
	ParamSigmaZ = "psf-sigz"
	ParamSigmaY = "psf-sigy"
	ParamSigmaX = "psf-sigx"
)

// paddingRadius is the distance at which a unit Gaussian of the given
// width falls below the accuracy threshold.
func paddingRadius(sigma, threshold float64) float64 {
	return math.Sqrt(-2 * math.Log(threshold) * sigma * sigma)
}

// AnisotropicGaussian is a 3D Gaussian PSF that is isotropic in the
// transverse plane: a single radial width couples the x and y axes, with
// an independent axial width. Parameter values are full widths; the
// Gaussian profile uses the half width value/2.
type AnisotropicGaussian struct {
	base3D
	threshold float64
}

var _ PSF = (*AnisotropicGaussian)(nil)

// NewAnisotropicGaussian creates the in-plane isotropic Gaussian PSF for
// an image of the given shape. sigmas holds the transverse and axial
// widths (rho, z).
func NewAnisotropicGaussian(shape [3]int, sigmas [2]float64, opts ...Option) (*AnisotropicGaussian, error) {
	o := defaultOptions()
	o.apply(opts)

	params, err := newParamSet(
		[]string{ParamSigRho, ParamSigZ},
		[]float64{sigmas[0], sigmas[1]},
	)
	if err != nil {
		return nil, err
	}

	g := &AnisotropicGaussian{threshold: o.threshold}
	if err := g.initBase3D(shape, params, g, o.backend); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *AnisotropicGaussian) realSpaceKernel(cz, cy, cx []float64) *vol.Array {
	v := g.params.Get()
	hrho, hz := v[0]/2, v[1]/2
	pad := g.paddingRadius()
	prSq := pad[1] * pad[1]

	out := vol.NewArray([3]int{len(cz), len(cy), len(cx)})
	for i, rz := range cz {
		if math.Abs(rz) > pad[0] {
			continue
		}
		zarg := (rz / hz) * (rz / hz)
		for j, ry := range cy {
			for k, rx := range cx {
				rhoSq := rx*rx + ry*ry
				if rhoSq > prSq {
					continue
				}
				out.Set(i, j, k, math.Exp(-(rhoSq/(hrho*hrho)+zarg)/2))
			}
		}
	}
	return out
}

func (g *AnisotropicGaussian) paddingRadius() [3]float64 {
	v := g.params.Get()
	pr := paddingRadius(v[0], g.threshold)
	pz := paddingRadius(v[1], g.threshold)
	return [3]float64{pz, pr, pr}
}

// AnisotropicGaussianXYZ is a 3D Gaussian PSF with three independent axis
// widths. Parameter values are full widths; the Gaussian profile uses the
// half width value/2.
type AnisotropicGaussianXYZ struct {
	base3D
	threshold float64
}

var _ PSF = (*AnisotropicGaussianXYZ)(nil)

// NewAnisotropicGaussianXYZ creates the fully anisotropic Gaussian PSF.
// sigmas holds the per-axis widths (z, y, x).
func NewAnisotropicGaussianXYZ(shape [3]int, sigmas [3]float64, opts ...Option) (*AnisotropicGaussianXYZ, error) {
	o := defaultOptions()
	o.apply(opts)

	params, err := newParamSet(
		[]string{ParamSigmaZ, ParamSigmaY, ParamSigmaX},
		[]float64{sigmas[0], sigmas[1], sigmas[2]},
	)
	if err != nil {
		return nil, err
	}

	g := &AnisotropicGaussianXYZ{threshold: o.threshold}
	if err := g.initBase3D(shape, params, g, o.backend); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *AnisotropicGaussianXYZ) realSpaceKernel(cz, cy, cx []float64) *vol.Array {
	v := g.params.Get()
	hz, hy, hx := v[0]/2, v[1]/2, v[2]/2
	pad := g.paddingRadius()

	out := vol.NewArray([3]int{len(cz), len(cy), len(cx)})
	for i, rz := range cz {
		if math.Abs(rz) > pad[0] {
			continue
		}
		zarg := (rz / hz) * (rz / hz)
		for j, ry := range cy {
			if math.Abs(ry) > pad[1] {
				continue
			}
			yarg := (ry / hy) * (ry / hy)
			for k, rx := range cx {
				if math.Abs(rx) > pad[2] {
					continue
				}
				xarg := (rx / hx) * (rx / hx)
				out.Set(i, j, k, math.Exp(-(zarg+yarg+xarg)/2))
			}
		}
	}
	return out
}

func (g *AnisotropicGaussianXYZ) paddingRadius() [3]float64 {
	v := g.params.Get()
	return [3]float64{
		paddingRadius(v[0], g.threshold),
		paddingRadius(v[1], g.threshold),
		paddingRadius(v[2], g.threshold),
	}
}
