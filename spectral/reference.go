package spectral

import (
	"github.com/mjibson/go-dsp/fft"

	"github.com/jkorpela/go-psf/vol"
)

// Reference is the always-available transform backend built on
// github.com/mjibson/go-dsp. It transforms one axis at a time and, per
// the standard convention, folds the 1/N factor into the inverse
// transform, so its Normalize methods are no-ops.
type Reference struct{}

// NewReference creates the reference backend.
func NewReference() *Reference {
	return &Reference{}
}

func (r *Reference) transform(a *vol.CArray, axes []int, inverse bool) {
	for _, axis := range axes {
		n, count, stride, base := lineParams(a.Shape, axis)
		line := make([]complex128, n)
		for i := 0; i < count; i++ {
			gather(line, a.Data, base(i), stride, n)
			var out []complex128
			if inverse {
				out = fft.IFFT(line)
			} else {
				out = fft.FFT(line)
			}
			scatter(a.Data, out, base(i), stride, n)
		}
	}
}

// Forward transforms all three axes in place.
func (r *Reference) Forward(a *vol.CArray) {
	r.transform(a, []int{0, 1, 2}, false)
}

// Inverse applies the normalized inverse transform over all three axes.
// go-dsp divides by the length along each axis, so the combined factor is
// the conventional 1/N.
func (r *Reference) Inverse(a *vol.CArray) {
	r.transform(a, []int{0, 1, 2}, true)
}

// Forward2 transforms the (y, x) axes of every z layer in place.
func (r *Reference) Forward2(a *vol.CArray) {
	r.transform(a, []int{1, 2}, false)
}

// Inverse2 applies the normalized layer-wise inverse transform.
func (r *Reference) Inverse2(a *vol.CArray) {
	r.transform(a, []int{1, 2}, true)
}

// Normalize is a no-op: the inverse transform is already normalized.
func (r *Reference) Normalize(a *vol.CArray) {}

// Normalize2 is a no-op: the inverse transform is already normalized.
func (r *Reference) Normalize2(a *vol.CArray) {}

// Name identifies the backend.
func (r *Reference) Name() string { return "reference" }

// Close is a no-op; the reference backend holds no resources.
func (r *Reference) Close() error { return nil }
