// Package spectral provides the Fourier transform backends behind the PSF
// convolution engine: a reference implementation that is always available
// and an optimized, planned implementation that amortizes planning cost
// across process runs through a persisted plan cache ("wisdom").
//
// Both backends satisfy the same Backend contract. The reference backend
// normalizes its inverse transform by the array size; the planned backend
// does not, and callers needing the conventional normalization must apply
// Normalize (or Normalize2 for layer-wise transforms) explicitly. The PSF
// engine always pairs Inverse with Normalize, so results are identical
// across backends.
package spectral

import (
	"github.com/jkorpela/go-psf/logging"
	"github.com/jkorpela/go-psf/vol"
)

// Backend performs in-place multi-dimensional Fourier transforms over
// complex 3D arrays. Implementations are selected once at process start
// and injected into every consumer.
type Backend interface {
	// Forward transforms the array over all three axes in place.
	Forward(a *vol.CArray)

	// Inverse applies the inverse transform over all three axes in
	// place. Whether the result carries the 1/N factor depends on the
	// backend; apply Normalize for backend-independent results.
	Inverse(a *vol.CArray)

	// Forward2 transforms each z layer over the (y, x) axes in place.
	Forward2(a *vol.CArray)

	// Inverse2 applies the layer-wise inverse transform in place.
	Inverse2(a *vol.CArray)

	// Normalize applies the 1/N inverse-transform factor for the full
	// 3D transform if the backend does not fold it in itself.
	Normalize(a *vol.CArray)

	// Normalize2 is Normalize for the layer-wise 2D transform.
	Normalize2(a *vol.CArray)

	// Name identifies the backend implementation.
	Name() string

	// Close releases backend resources and persists tuning data. It is
	// the process-exit hook for the plan cache; call it once when the
	// backend is no longer needed.
	Close() error
}

// New selects a backend for the given configuration. Selection happens
// once; the planned backend is preferred and the reference backend is the
// fallback. A missing or corrupt wisdom file is a soft failure: it is
// logged and the planned backend regenerates the file on Close.
func New(cfg Config) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ForceReference {
		logging.Info("spectral: using reference transform backend", logging.Fields{
			"reason": "planned backend disabled by configuration",
		})
		return NewReference(), nil
	}

	return NewPlanned(cfg), nil
}

// lineParams describes the independent 1D lines of a 3D array along one
// axis: the transform length, the number of lines, the element stride
// within a line, and the base offset of line i.
func lineParams(shape [3]int, axis int) (n, count, stride int, base func(int) int) {
	nz, ny, nx := shape[0], shape[1], shape[2]
	switch axis {
	case 0:
		return nz, ny * nx, ny * nx, func(i int) int { return i }
	case 1:
		return ny, nz * nx, nx, func(i int) int { return (i/nx)*ny*nx + i%nx }
	default:
		return nx, nz * ny, 1, func(i int) int { return i * nx }
	}
}

// gather copies line (base, stride, n) of data into dst.
func gather(dst, data []complex128, base, stride, n int) {
	if stride == 1 {
		copy(dst, data[base:base+n])
		return
	}
	for j := 0; j < n; j++ {
		dst[j] = data[base+j*stride]
	}
}

// scatter copies src back into line (base, stride, n) of data.
func scatter(data, src []complex128, base, stride, n int) {
	if stride == 1 {
		copy(data[base:base+n], src)
		return
	}
	for j := 0; j < n; j++ {
		data[base+j*stride] = src[j]
	}
}
