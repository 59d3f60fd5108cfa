// Package psf models the optical point-spread function of a microscope
// and applies it to synthetic 3D image fields by FFT-based convolution.
//
// The package is the inner loop of a pipeline that fits model images to
// experimental volumetric microscopy data: a fitting framework constructs
// a PSF variant once, then repeatedly narrows the region of interest with
// SetTile and convolves candidate fields with Execute while an optimizer
// adjusts the parameters through Update.
//
// # Variants
//
//   - [AnisotropicGaussian]: 3D Gaussian, isotropic in the transverse
//     plane with an independent axial width.
//   - [AnisotropicGaussianXYZ]: 3D Gaussian with three independent axis
//     widths.
//   - [Gaussian4D]: depth-varying Gaussian whose per-axis widths are
//     polynomials in normalized depth. A Legendre-basis flavor is
//     available through [NewGaussian4DLeg].
//   - [GaussianMomentExpansion]: depth-varying Gaussian with skew and
//     kurtosis corrections for non-Gaussian asymmetry and heavy tails.
//   - [FromArray]: arbitrary tabulated kernel, one per z layer.
//   - [Identity]: delta kernel that returns fields unchanged.
//
// The depth-varying variants assume the kernel separates into a per-layer
// transverse profile and an axial weighting. Convolution is then a 2D
// transform per layer followed by an explicit weighted sum across
// neighboring layers; the axial direction is not shift invariant and
// cannot be captured by a single 3D transform.
//
// # Quick start
//
//	p, err := psf.NewAnisotropicGaussian([3]int{32, 64, 64}, [2]float64{2.0, 4.0})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.SetTile(tile.NewAt([3]int{0, 16, 16}, [3]int{32, 32, 32})); err != nil {
//	    log.Fatal(err)
//	}
//	blurred, err := p.Execute(field)
//
// Frequency-domain kernels are cached per tile shape and invalidated
// precisely when parameters or the tile geometry change, so the
// per-Execute cost is one forward and one inverse transform.
//
// Transforms run on a backend from the spectral package; by default the
// planned backend with the default configuration is shared by all
// variants, and WithBackend injects an explicit one.
package psf
