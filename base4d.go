package psf

import (
	"fmt"

	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// layerModel is the capability interface of the depth-varying variants:
// a transverse kernel per depth, a normalized axial weighting and a
// depth-dependent padding radius. Under the separability assumption
// these three pieces fully determine the 4D kernel.
type layerModel interface {
	// transverseLayer evaluates the x-y kernel for absolute depth z on
	// the tile's periodic (origin at index 0) coordinate grids,
	// returning a row-major (y, x) layer.
	transverseLayer(cy, cx []float64, z float64) []float64

	// axialWeights returns the axial kernel evaluated at the absolute
	// layer positions zs for an output layer at zp, normalized to sum
	// to one.
	axialWeights(zs []float64, zp float64) []float64

	// paddingRadius returns the per-axis (z, y, x) half-width at
	// absolute depth z.
	paddingRadius(z float64) [3]float64
}

// Memoization keys for per-depth scalar and vector lookups. They are
// re-queried on every layer of every Execute, so the derived values are
// cached and tagged with the parameter generation.
type scalarKey struct {
	kind byte
	z    float64
	d    int
}

type memoFloat struct {
	gen uint64
	v   float64
}

type memoVec struct {
	gen uint64
	v   [3]float64
}

type axialKey struct {
	zp, z0 float64
	n      int
}

type memoWeights struct {
	gen uint64
	w   []float64
}

// base4D holds the shared machinery of the depth-varying variants. The
// x-y convolution runs through per-layer 2D transforms with kernels
// cached per tile; the z direction is applied as an explicit weighted sum
// over neighboring layers, since the axial kernel is not shift invariant.
type base4D struct {
	shape  [3]int
	params *paramSet
	fft    spectral.Backend
	model  layerModel

	active tile.Tile

	gen     uint64
	layers  map[tile.Tile]kernelEntry
	scalars map[scalarKey]memoFloat
	padding map[float64]memoVec
	axial   map[axialKey]memoWeights

	builds int
}

func (b *base4D) initBase4D(shape [3]int, params *paramSet, model layerModel, fft spectral.Backend) error {
	b.shape = shape
	b.params = params
	b.model = model
	b.fft = fft
	b.layers = make(map[tile.Tile]kernelEntry)
	b.scalars = make(map[scalarKey]memoFloat)
	b.padding = make(map[float64]memoVec)
	b.axial = make(map[axialKey]memoWeights)
	return b.SetTile(tile.New(shape))
}

// layersFor returns the stacked per-layer frequency kernels for a tile,
// keyed on tile identity since the absolute z positions matter, not just
// the shape.
func (b *base4D) layersFor(t tile.Tile) *vol.CArray {
	if e, ok := b.layers[t]; ok && e.gen == b.gen {
		return e.kernel
	}

	_, cy, cx := t.Coords(false)
	zs := t.ZRange()

	rpsf := vol.NewArray(t.Shape)
	for i, z := range zs {
		copy(rpsf.Layer(i), b.model.transverseLayer(cy, cx, z))
	}

	k := rpsf.ToComplex()
	b.fft.Forward2(k)

	// Normalize each slice individually: layer i's DC carries that
	// layer's kernel integral.
	for i := range zs {
		layer := k.Layer(i)
		scale := complex(1/(real(layer[0])+epsDC), 0)
		for p := range layer {
			layer[p] *= scale
		}
	}

	b.layers[t] = kernelEntry{gen: b.gen, kernel: k}
	b.builds++
	return k
}

func (b *base4D) memoScalar(kind byte, z float64, d int, compute func() float64) float64 {
	k := scalarKey{kind: kind, z: z, d: d}
	if m, ok := b.scalars[k]; ok && m.gen == b.gen {
		return m.v
	}
	v := compute()
	b.scalars[k] = memoFloat{gen: b.gen, v: v}
	return v
}

func (b *base4D) memoPadding(z float64) [3]float64 {
	if m, ok := b.padding[z]; ok && m.gen == b.gen {
		return m.v
	}
	v := b.model.paddingRadius(z)
	b.padding[z] = memoVec{gen: b.gen, v: v}
	return v
}

func (b *base4D) axialFor(zs []float64, zp float64) []float64 {
	k := axialKey{zp: zp, z0: zs[0], n: len(zs)}
	if m, ok := b.axial[k]; ok && m.gen == b.gen {
		return m.w
	}
	w := b.model.axialWeights(zs, zp)
	b.axial[k] = memoWeights{gen: b.gen, w: w}
	return w
}

// Params returns the ordered parameter names.
func (b *base4D) Params() []string {
	return b.params.Names()
}

// Values returns the named parameter values, or all values in order.
func (b *base4D) Values(names ...string) []float64 {
	return b.params.Get(names...)
}

// Update overwrites the named parameter values and invalidates every
// cached kernel and memoized lookup.
func (b *base4D) Update(names []string, values []float64) error {
	if err := b.params.Set(names, values); err != nil {
		return err
	}
	b.gen++
	return nil
}

// SetTile replaces the active tile and builds (or recalls) its layer
// kernels. The transverse kernels span the whole tile, so any tile shape
// is acceptable.
func (b *base4D) SetTile(t tile.Tile) error {
	b.active = t
	b.layersFor(t)
	return nil
}

// Tile returns the active tile.
func (b *base4D) Tile() tile.Tile {
	return b.active
}

// Execute convolves the depth-varying kernel with a real-space field of
// the active tile's shape.
func (b *base4D) Execute(field *vol.Array) (*vol.Array, error) {
	if field.Shape != b.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, b.active.Shape)
	}
	spec := field.ToComplex()
	b.fft.Forward2(spec)
	return b.convolve(spec)
}

// ExecuteSpectrum convolves with a field whose z layers have already
// been 2D transformed.
func (b *base4D) ExecuteSpectrum(field *vol.CArray) (*vol.Array, error) {
	if field.Shape != b.active.Shape {
		return nil, fmt.Errorf("%w: field %v, tile %v", ErrShapeMismatch, field.Shape, b.active.Shape)
	}
	return b.convolve(field.Clone())
}

// convolve applies the transverse kernels in the frequency domain, comes
// back to real space layer by layer and finishes with the axial weighted
// sum over each output layer's padding neighborhood.
func (b *base4D) convolve(spec *vol.CArray) (*vol.Array, error) {
	spec.MulEq(b.layersFor(b.active))
	b.fft.Inverse2(spec)
	b.fft.Normalize2(spec)
	cov := spec.Real()

	zs := b.active.ZRange()
	out := vol.NewArray(b.active.Shape)
	for i := range zs {
		radius := b.memoPadding(zs[i])[0]

		lo := i
		for lo > 0 && zs[i]-zs[lo-1] <= radius {
			lo--
		}
		hi := i + 1
		for hi < len(zs) && zs[hi]-zs[i] <= radius {
			hi++
		}

		w := b.axialFor(zs[lo:hi], zs[i])
		dst := out.Layer(i)
		for j := lo; j < hi; j++ {
			wj := w[j-lo]
			src := cov.Layer(j)
			for p := range dst {
				dst[p] += wj * src[p]
			}
		}
	}
	return out, nil
}

// PaddingSize returns the per-axis padding radius at absolute depth z.
func (b *base4D) PaddingSize(z float64) [3]float64 {
	return b.memoPadding(z)
}

// MinSupport reports no static constraint: the transverse kernels span
// whatever tile is active and the axial support adapts to its depth.
func (b *base4D) MinSupport() [3]int {
	return [3]int{1, 1, 1}
}
