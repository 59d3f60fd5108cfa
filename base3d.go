package psf

import (
	"fmt"
	"math"

	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// kernelModel is the capability interface of the static 3D variants: an
// analytic real-space kernel over a centered lattice and a per-axis
// padding radius derived from the current parameter values.
type kernelModel interface {
	realSpaceKernel(cz, cy, cx []float64) *vol.Array
	paddingRadius() [3]float64
}

// kernelEntry tags a cached frequency kernel with the parameter
// generation it was built under.
type kernelEntry struct {
	gen    uint64
	kernel *vol.CArray
}

// base3D holds the shared state machine of the static 3D variants:
// parameter bookkeeping, minimum-support tracking and the per-tile-shape
// frequency kernel cache.
type base3D struct {
	shape  [3]int
	params *paramSet
	fft    spectral.Backend
	model  kernelModel

	active tile.Tile

	// gen is bumped on every parameter update; cache entries carry the
	// generation they were computed under and are rebuilt when stale.
	gen        uint64
	minSupport [3]int
	minRPSF    *vol.Array
	kernels    map[[3]int]kernelEntry

	// builds counts kernel constructions, for cache instrumentation.
	builds int
}

// initBase3D wires the model, computes the initial support and kernel and
// activates the full-shape tile.
func (b *base3D) initBase3D(shape [3]int, params *paramSet, model kernelModel, fft spectral.Backend) error {
	b.shape = shape
	b.params = params
	b.model = model
	b.fft = fft
	b.kernels = make(map[[3]int]kernelEntry)
	b.rebuildSupport()
	return b.SetTile(tile.New(shape))
}

// rebuildSupport recomputes the minimum support and evaluates the
// real-space kernel on it. The support is the rounded-up padding radius,
// forced even so the padding arithmetic in kernelFor stays exact.
func (b *base3D) rebuildSupport() {
	pad := b.model.paddingRadius()
	for i := range b.minSupport {
		s := int(math.Ceil(pad[i]))
		s += s % 2
		b.minSupport[i] = s
	}
	cz, cy, cx := tile.New(b.minSupport).Coords(true)
	b.minRPSF = b.model.realSpaceKernel(cz, cy, cx)
}

// kernelFor returns the frequency kernel for a tile shape, building and
// caching it when absent or stale.
func (b *base3D) kernelFor(shape [3]int) *vol.CArray {
	if e, ok := b.kernels[shape]; ok && e.gen == b.gen {
		return e.kernel
	}

	// Pad the minimum-support kernel to the tile shape, move the lattice
	// center to index 0 and transform. The DC component then carries the
	// kernel integral; dividing by it makes the convolution energy
	// preserving.
	rpsf := b.minRPSF.Pad(shape).ShiftOrigin()
	k := rpsf.ToComplex()
	b.fft.Forward(k)
	dc := real(k.Data[0])
	k.Scale(1 / (dc + epsDC))

	b.kernels[shape] = kernelEntry{gen: b.gen, kernel: k}
	b.builds++
	return k
}

// Params returns the ordered parameter names.
func (b *base3D) Params() []string {
	return b.params.Names()
}

// Values returns the named parameter values, or all values in order.
func (b *base3D) Values(names ...string) []float64 {
	return b.params.Get(names...)
}

// Update overwrites the named parameter values, recomputes the minimum
// support and invalidates all cached kernels. An update that would grow
// the support beyond the active tile is rejected whole and leaves the
// previous values in place; the caller must set a larger tile first.
func (b *base3D) Update(names []string, values []float64) error {
	prev := b.params.Get()
	if err := b.params.Set(names, values); err != nil {
		return err
	}
	b.rebuildSupport()
	for i := range b.active.Shape {
		if b.active.Shape[i] < b.minSupport[i] {
			support := b.minSupport
			b.params.Set(b.params.Names(), prev)
			b.rebuildSupport()
			return fmt.Errorf("%w: tile shape %v, support %v after update", ErrSupportTooSmall, b.active.Shape, support)
		}
	}
	b.gen++
	return nil
}

// SetTile replaces the active tile after checking it against the minimum
// support. The kernel for the new shape is built immediately so the first
// Execute is not surprised by planning cost.
func (b *base3D) SetTile(t tile.Tile) error {
	for i := range t.Shape {
		if t.Shape[i] < b.minSupport[i] {
			return fmt.Errorf("%w: tile shape %v, support %v", ErrSupportTooSmall, t.Shape, b.minSupport)
		}
	}
	b.active = t
	b.kernelFor(t.Shape)
	return nil
}

// Tile returns the active tile.
func (b *base3D) Tile() tile.Tile {
	return b.active
}

// Execute convolves the kernel with a real-space field of the active
// tile's shape.
func (b *base3D) Execute(field *vol.Array) (*vol.Array, error) {
	if field.Shape != b.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, b.active.Shape)
	}
	spec := field.ToComplex()
	b.fft.Forward(spec)
	return b.convolve(spec)
}

// ExecuteSpectrum convolves the kernel with an already-transformed field.
func (b *base3D) ExecuteSpectrum(field *vol.CArray) (*vol.Array, error) {
	if field.Shape != b.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, b.active.Shape)
	}
	return b.convolve(field.Clone())
}

func (b *base3D) convolve(spec *vol.CArray) (*vol.Array, error) {
	spec.MulEq(b.kernelFor(b.active.Shape))
	b.fft.Inverse(spec)
	b.fft.Normalize(spec)
	return spec.Real(), nil
}

// PaddingSize returns the per-axis padding radius; the static variants
// have no depth dependence.
func (b *base3D) PaddingSize(_ float64) [3]float64 {
	return b.model.paddingRadius()
}

// MinSupport returns the smallest tile shape the kernel accepts.
func (b *base3D) MinSupport() [3]int {
	return b.minSupport
}
