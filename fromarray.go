package psf

import (
	"fmt"

	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// FromArray is a tabulated point spread function: one measured or
// precomputed kernel per image layer, centered on its support. The
// kernels do not need to be normalized. Unlike the analytic variants the
// tables are immutable, so Update always fails.
type FromArray struct {
	stack  *vol.Stack
	fft    spectral.Backend
	active tile.Tile

	kernels map[int]*vol.CArray
	memoed  [3]int
	builds  int
}

var _ PSF = (*FromArray)(nil)

// NewFromArray builds a tabulated PSF over a field of the given shape.
// The stack must hold one kernel per z layer of the full image.
func NewFromArray(shape [3]int, stack *vol.Stack, opts ...Option) (*FromArray, error) {
	if len(stack.Kernels) != shape[0] {
		return nil, fmt.Errorf("%w: %d kernels for %d layers", ErrInvalidParams, len(stack.Kernels), shape[0])
	}
	o := defaultOptions()
	o.apply(opts)

	p := &FromArray{
		stack:   stack,
		fft:     o.backend,
		kernels: make(map[int]*vol.CArray),
	}
	if err := p.SetTile(tile.New(shape)); err != nil {
		return nil, err
	}
	return p, nil
}

// Params returns nil: a tabulated PSF exposes no fit parameters.
func (p *FromArray) Params() []string { return nil }

// Values returns nil: a tabulated PSF exposes no fit parameters. Asking
// for any name by value panics per the interface contract.
func (p *FromArray) Values(names ...string) []float64 {
	if len(names) > 0 {
		panic(fmt.Sprintf("psf: unknown parameter %q", names[0]))
	}
	return nil
}

// Update always fails with ErrImmutable.
func (p *FromArray) Update(names []string, values []float64) error {
	return fmt.Errorf("%w: tabulated kernels cannot be updated", ErrImmutable)
}

// SetTile replaces the active tile. Cached frequency kernels survive as
// long as the tile shape stays the same, since they depend only on the
// kernel table and the target shape.
func (p *FromArray) SetTile(t tile.Tile) error {
	for d := range t.Shape {
		if t.Shape[d] < p.stack.Support[d] {
			return fmt.Errorf("%w: tile %v, support %v", ErrSupportTooSmall, t.Shape, p.stack.Support)
		}
	}
	if t.Shape != p.memoed {
		p.kernels = make(map[int]*vol.CArray)
		p.memoed = t.Shape
	}
	p.active = t
	return nil
}

// Tile returns the active tile.
func (p *FromArray) Tile() tile.Tile {
	return p.active
}

// kernelFor returns layer z's kernel padded to the active tile shape,
// shifted to place its center at the origin, transformed and normalized
// to unit DC.
func (p *FromArray) kernelFor(z int) *vol.CArray {
	if k, ok := p.kernels[z]; ok {
		return k
	}
	k := p.stack.Kernel(z).Pad(p.active.Shape).ShiftOrigin().ToComplex()
	p.fft.Forward(k)
	k.Scale(1 / (real(k.Data[0]) + epsDC))
	p.kernels[z] = k
	p.builds++
	return k
}

// Execute convolves each layer of the field with that layer's tabulated
// kernel. Every layer costs a full-volume convolution of which one slice
// is kept, so tabulated execution is the slow path by construction.
func (p *FromArray) Execute(field *vol.Array) (*vol.Array, error) {
	if field.Shape != p.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, p.active.Shape)
	}
	spec := field.ToComplex()
	p.fft.Forward(spec)
	return p.convolve(spec)
}

// ExecuteSpectrum convolves with an already transformed field.
func (p *FromArray) ExecuteSpectrum(field *vol.CArray) (*vol.Array, error) {
	if field.Shape != p.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, p.active.Shape)
	}
	return p.convolve(field)
}

func (p *FromArray) convolve(spec *vol.CArray) (*vol.Array, error) {
	out := vol.NewArray(p.active.Shape)
	for i := 0; i < p.active.Shape[0]; i++ {
		z := p.active.Lower[0] + i
		if z < 0 || z >= len(p.stack.Kernels) {
			return nil, fmt.Errorf("%w: layer %d outside kernel table", ErrSupportTooSmall, z)
		}
		conv := spec.Mul(p.kernelFor(z))
		p.fft.Inverse(conv)
		p.fft.Normalize(conv)
		copy(out.Layer(i), conv.Real().Layer(i))
	}
	return out, nil
}

// PaddingSize returns the kernel support, which does not vary with
// depth.
func (p *FromArray) PaddingSize(z float64) [3]float64 {
	return [3]float64{
		float64(p.stack.Support[0]),
		float64(p.stack.Support[1]),
		float64(p.stack.Support[2]),
	}
}

// MinSupport returns the kernel support.
func (p *FromArray) MinSupport() [3]int {
	return p.stack.Support
}
