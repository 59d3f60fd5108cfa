package psf

import (
	"errors"
	"sync"

	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// PSF is the contract every point-spread-function variant satisfies. The
// lifecycle is construct, then any interleaving of Update, SetTile and
// Execute; kernels are rebuilt lazily when parameters or tile geometry
// change.
type PSF interface {
	// Params returns the ordered parameter names.
	Params() []string

	// Values returns the values of the named parameters, or all values
	// in parameter order when called without names. Unknown names are a
	// contract violation and panic.
	Values(names ...string) []float64

	// Update overwrites the named parameter values. Partial updates are
	// allowed: only the named entries change. All cached kernels are
	// invalidated.
	Update(names []string, values []float64) error

	// SetTile replaces the active sub-volume. It fails with
	// ErrSupportTooSmall when any tile dimension is below the kernel's
	// minimum support. Kernels are memoized per tile geometry, so
	// switching back to a previously seen tile is free.
	SetTile(t tile.Tile) error

	// Tile returns the active tile.
	Tile() tile.Tile

	// Execute convolves the PSF with a real-space field of the active
	// tile's shape and returns the result. It fails with
	// ErrShapeMismatch when the shapes disagree.
	Execute(field *vol.Array) (*vol.Array, error)

	// ExecuteSpectrum is Execute for a field that has already been
	// forward transformed (fully for the 3D variants, layer-wise for
	// the depth-varying ones). The input is not modified.
	ExecuteSpectrum(field *vol.CArray) (*vol.Array, error)

	// PaddingSize returns the per-axis half-width (z, y, x) beyond
	// which the kernel is treated as zero. The depth-varying variants
	// evaluate it at absolute depth z; the static ones ignore z.
	PaddingSize(z float64) [3]float64

	// MinSupport returns the smallest tile shape the kernel accepts.
	MinSupport() [3]int
}

// Sentinel errors returned by PSF operations.
var (
	// ErrSupportTooSmall indicates a tile smaller than the kernel's
	// minimum support in at least one dimension.
	ErrSupportTooSmall = errors.New("psf: tile smaller than kernel support")

	// ErrShapeMismatch indicates a field whose shape disagrees with the
	// active tile.
	ErrShapeMismatch = errors.New("psf: field shape does not match tile")

	// ErrInvalidParams indicates mismatched parameter names and values
	// or an unknown parameter name.
	ErrInvalidParams = errors.New("psf: invalid parameters")

	// ErrImmutable indicates an update on a variant without free
	// parameters.
	ErrImmutable = errors.New("psf: variant parameters are immutable")
)

// DefaultErrorThreshold is the kernel accuracy threshold: the padding
// radius is where a unit-amplitude Gaussian falls below this value. The
// default corresponds to one gray level of an 8-bit image.
const DefaultErrorThreshold = 1.0 / 255

// epsDC guards the unity normalization against an all-zero kernel.
const epsDC = 1e-15

// sharedBackend is the process-wide transform backend used when no
// explicit one is injected. It is created once, on first use.
var sharedBackend = sync.OnceValue(func() spectral.Backend {
	b, err := spectral.New(spectral.DefaultConfig())
	if err != nil {
		// DefaultConfig always validates.
		panic(err)
	}
	return b
})

// options collects the knobs shared by the variant constructors.
type options struct {
	backend     spectral.Backend
	threshold   float64
	zrange      float64
	order       [3]int
	momentOrder [2]int
}

func defaultOptions() options {
	return options{
		threshold:   DefaultErrorThreshold,
		zrange:      128,
		order:       [3]int{1, 1, 1},
		momentOrder: [2]int{3, 3},
	}
}

func (o *options) apply(opts []Option) {
	for _, opt := range opts {
		opt(o)
	}
	if o.backend == nil {
		o.backend = sharedBackend()
	}
}

// Option configures a PSF variant at construction.
type Option func(*options)

// WithBackend injects the transform backend. All variants default to a
// shared planned backend with the default configuration.
func WithBackend(b spectral.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithErrorThreshold overrides the kernel accuracy threshold that
// determines the padding radius.
func WithErrorThreshold(e float64) Option {
	return func(o *options) { o.threshold = e }
}

// WithZRange sets the depth normalization range of the depth-varying
// variants: their polynomials are evaluated at z/zrange.
func WithZRange(zrange float64) Option {
	return func(o *options) { o.zrange = zrange }
}

// WithOrder sets the per-axis (z, y, x) polynomial order of the
// depth-varying variants.
func WithOrder(order [3]int) Option {
	return func(o *options) { o.order = order }
}

// WithMomentOrder sets the (skew, kurtosis) polynomial orders of the
// moment-expansion variant.
func WithMomentOrder(order [2]int) Option {
	return func(o *options) { o.momentOrder = order }
}
