package psf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkorpela/go-psf/internal/testutil"
	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// gaussianKernel evaluates a centered separable Gaussian on the given
// support, with half widths hz, hy, hx.
func gaussianKernel(support [3]int, hz, hy, hx float64) *vol.Array {
	cz, cy, cx := tile.New(support).Coords(true)
	out := vol.NewArray(support)
	for i, rz := range cz {
		for j, ry := range cy {
			for k, rx := range cx {
				arg := (rz/hz)*(rz/hz) + (ry/hy)*(ry/hy) + (rx/hx)*(rx/hx)
				out.Set(i, j, k, math.Exp(-arg/2))
			}
		}
	}
	return out
}

// uniformStack repeats one kernel for every layer.
func uniformStack(layers int, k *vol.Array) *vol.Stack {
	kernels := make([]*vol.Array, layers)
	for i := range kernels {
		kernels[i] = k.Clone()
	}
	return vol.NewStack(kernels)
}

func testFromArray(t *testing.T, stack *vol.Stack) *FromArray {
	t.Helper()
	p, err := NewFromArray(testShape, stack, WithBackend(spectral.NewReference()))
	require.NoError(t, err)
	return p
}

// TestFromArray_MatchesAnalytic verifies a tabulated copy of the static
// Gaussian kernel blurs identically to the analytic variant.
func TestFromArray_MatchesAnalytic(t *testing.T) {
	backend := spectral.NewReference()
	widths := [3]float64{4.0, 3.0, 3.0}
	analytic, err := NewAnisotropicGaussianXYZ(testShape, widths, WithBackend(backend))
	require.NoError(t, err)

	// Tabulate the exact kernel the analytic variant evaluates on its
	// minimum support.
	tabulated := testFromArray(t, uniformStack(testShape[0], analytic.minRPSF))

	field := impulseField(testShape, [3]int{8, 16, 16})
	want, err := analytic.Execute(field)
	require.NoError(t, err)
	got, err := tabulated.Execute(field)
	require.NoError(t, err)

	// With identical kernels on every layer the per-layer application
	// reduces to one shared convolution.
	testutil.AssertMaxAbsDiff(t, want.Data, got.Data, 1e-12)
}

// TestFromArray_UnnormalizedTablesAccepted verifies the unity DC scaling
// handles kernels of arbitrary magnitude.
func TestFromArray_UnnormalizedTablesAccepted(t *testing.T) {
	k := gaussianKernel([3]int{6, 6, 6}, 2, 1.5, 1.5)
	k.Scale(37.5)
	p := testFromArray(t, uniformStack(testShape[0], k))

	out, err := p.Execute(impulseField(testShape, [3]int{8, 16, 16}))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, out.Sum(), fluxTolerance)
}

// TestFromArray_Immutable verifies Update always fails.
func TestFromArray_Immutable(t *testing.T) {
	p := testFromArray(t, uniformStack(testShape[0], gaussianKernel([3]int{4, 4, 4}, 1, 1, 1)))

	err := p.Update([]string{"anything"}, []float64{1})
	assert.ErrorIs(t, err, ErrImmutable)
	assert.Nil(t, p.Params())
	assert.Nil(t, p.Values())
}

// TestFromArray_SupportPolicing verifies tiles below the kernel support
// are rejected.
func TestFromArray_SupportPolicing(t *testing.T) {
	support := [3]int{6, 8, 8}
	p := testFromArray(t, uniformStack(testShape[0], gaussianKernel(support, 2, 2, 2)))

	assert.Equal(t, support, p.MinSupport())
	assert.Equal(t, [3]float64{6, 8, 8}, p.PaddingSize(0))

	err := p.SetTile(tile.New([3]int{6, 8, 7}))
	assert.ErrorIs(t, err, ErrSupportTooSmall)
}

// TestFromArray_LayerOutsideTable verifies execution fails when the tile
// reaches past the tabulated layers.
func TestFromArray_LayerOutsideTable(t *testing.T) {
	p := testFromArray(t, uniformStack(testShape[0], gaussianKernel([3]int{4, 4, 4}, 1, 1, 1)))

	past := tile.NewAt([3]int{10, 0, 0}, [3]int{8, 32, 32})
	require.NoError(t, p.SetTile(past))

	_, err := p.Execute(vol.NewArray([3]int{8, 32, 32}))
	assert.ErrorIs(t, err, ErrSupportTooSmall)
}

// TestFromArray_KernelCache verifies per-layer kernels are memoized for
// a tile shape and dropped when the shape changes.
func TestFromArray_KernelCache(t *testing.T) {
	p := testFromArray(t, uniformStack(testShape[0], gaussianKernel([3]int{4, 4, 4}, 1, 1, 1)))
	field := impulseField(testShape, [3]int{8, 16, 16})

	_, err := p.Execute(field)
	require.NoError(t, err)
	builds := p.builds
	assert.Equal(t, testShape[0], builds, "one kernel per layer on first run")

	_, err = p.Execute(field)
	require.NoError(t, err)
	assert.Equal(t, builds, p.builds, "second run hits the memo")

	// A new tile shape drops the memo and the next run rebuilds every
	// layer at the new padding.
	require.NoError(t, p.SetTile(tile.New([3]int{16, 16, 16})))
	_, err = p.Execute(vol.NewArray([3]int{16, 16, 16}))
	require.NoError(t, err)
	assert.Equal(t, 2*testShape[0], p.builds, "shape change clears the memo")
}

// TestFromArray_LayerCountMismatch verifies constructor validation.
func TestFromArray_LayerCountMismatch(t *testing.T) {
	short := uniformStack(testShape[0]-1, gaussianKernel([3]int{4, 4, 4}, 1, 1, 1))

	_, err := NewFromArray(testShape, short, WithBackend(spectral.NewReference()))
	assert.ErrorIs(t, err, ErrInvalidParams)
}
