package psf

import (
	"fmt"

	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// Identity is the delta-kernel PSF: Execute returns the field unchanged.
// It stands in wherever a PSF is required but no blurring is wanted, and
// anchors the round-trip tests of the convolution engine.
type Identity struct {
	active tile.Tile
	fft    spectral.Backend
}

var _ PSF = (*Identity)(nil)

// NewIdentity creates the identity PSF.
func NewIdentity(opts ...Option) *Identity {
	o := defaultOptions()
	o.apply(opts)
	return &Identity{fft: o.backend}
}

// Params returns no names; the identity has no free parameters.
func (p *Identity) Params() []string { return nil }

// Values returns no values. Asking for any name by value panics per the
// interface contract.
func (p *Identity) Values(names ...string) []float64 {
	if len(names) > 0 {
		panic(fmt.Sprintf("psf: unknown parameter %q", names[0]))
	}
	return nil
}

// Update is a no-op on the identity.
func (p *Identity) Update([]string, []float64) error { return nil }

// SetTile replaces the active tile; any shape is acceptable.
func (p *Identity) SetTile(t tile.Tile) error {
	p.active = t
	return nil
}

// Tile returns the active tile.
func (p *Identity) Tile() tile.Tile { return p.active }

// Execute returns a copy of the field, bit for bit.
func (p *Identity) Execute(field *vol.Array) (*vol.Array, error) {
	if field.Shape != p.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, p.active.Shape)
	}
	return field.Clone(), nil
}

// ExecuteSpectrum inverse transforms the field; the delta kernel's
// spectrum is all ones, so nothing else is applied.
func (p *Identity) ExecuteSpectrum(field *vol.CArray) (*vol.Array, error) {
	if field.Shape != p.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, p.active.Shape)
	}
	spec := field.Clone()
	p.fft.Inverse(spec)
	p.fft.Normalize(spec)
	return spec.Real(), nil
}

// PaddingSize returns the single-voxel support of the delta kernel.
func (p *Identity) PaddingSize(float64) [3]float64 {
	return [3]float64{1, 1, 1}
}

// MinSupport returns the single-voxel support.
func (p *Identity) MinSupport() [3]int {
	return [3]int{1, 1, 1}
}
