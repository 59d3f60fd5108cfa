package ilm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkorpela/go-psf/internal/testutil"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

const (
	fitTolerance   = 1e-8
	fieldTolerance = 1e-10
)

var testShape = [3]int{8, 12, 12}

// TestPolynomial3D_FreshFieldIsFlat verifies the initial state: unit
// constant term, flat background.
func TestPolynomial3D_FreshFieldIsFlat(t *testing.T) {
	f := NewPolynomial3D(testShape, [3]int{2, 2, 2})

	assert.Len(t, f.Coeffs(), 8)
	assert.Equal(t, 1.0, f.Coeffs()[0])
	testutil.AssertAllInRange(t, f.Field().Data, 1, 1)
}

// TestPolynomial3D_FitRecoversExactField verifies least squares recovers
// coefficients when the data lies in the basis span.
func TestPolynomial3D_FitRecoversExactField(t *testing.T) {
	order := [3]int{2, 2, 2}
	truth := NewPolynomial3D(testShape, order)
	want := []float64{3.7, 0.5, -0.2, 0, 0.8, 0, 0, 0.1}
	require.NoError(t, truth.Update(want))

	fitted := NewPolynomial3D(testShape, order)
	require.NoError(t, fitted.FromData(truth.Field()))

	for i, c := range fitted.Coeffs() {
		assert.InDelta(t, want[i], c, fitTolerance, "coefficient %d", i)
	}
	testutil.AssertMaxAbsDiff(t, truth.Field().Data, fitted.Field().Data, fitTolerance)
}

// TestPolynomial3D_FitNoisyConstant verifies the constant term absorbs a
// flat field regardless of noise structure in the residual.
func TestPolynomial3D_FitNoisyConstant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := vol.NewArray(testShape)
	for i := range data.Data {
		data.Data[i] = 2.5 + 0.01*rng.NormFloat64()
	}

	f := NewPolynomial3D(testShape, [3]int{1, 1, 1})
	require.NoError(t, f.FromData(data))

	assert.InDelta(t, 2.5, f.Coeffs()[0], 0.01)
}

// TestPolynomial3D_Validation verifies coefficient and shape policing.
func TestPolynomial3D_Validation(t *testing.T) {
	f := NewPolynomial3D(testShape, [3]int{1, 1, 1})

	assert.ErrorIs(t, f.Update([]float64{1, 2}), ErrBadCoeffs)
	assert.ErrorIs(t, f.FromData(vol.NewArray([3]int{2, 2, 2})), ErrShapeMismatch)
}

// TestPolynomial3D_TileExtraction verifies Field follows the active
// tile.
func TestPolynomial3D_TileExtraction(t *testing.T) {
	f := NewPolynomial3D(testShape, [3]int{1, 2, 1})
	require.NoError(t, f.Update([]float64{1, 2}))

	sub := tile.NewAt([3]int{2, 4, 3}, [3]int{2, 4, 4})
	f.SetTile(sub)
	got := f.Field()

	require.Equal(t, sub.Shape, got.Shape)
	assert.Equal(t, sub, f.Tile())

	full := NewPolynomial3D(testShape, [3]int{1, 2, 1})
	require.NoError(t, full.Update([]float64{1, 2}))
	want := full.Field().Extract(sub)
	testutil.AssertMaxAbsDiff(t, want.Data, got.Data, fieldTolerance)
}

// TestLegendrePoly3D_MatchesPowerAtOrderOne verifies the bases coincide
// for the constant term.
func TestLegendrePoly3D_MatchesPowerAtOrderOne(t *testing.T) {
	order := [3]int{1, 1, 1}
	leg := NewLegendrePoly3D(testShape, order)
	pow := NewPolynomial3D(testShape, order)
	require.NoError(t, leg.Update([]float64{4.2}))
	require.NoError(t, pow.Update([]float64{4.2}))

	testutil.AssertMaxAbsDiff(t, pow.Field().Data, leg.Field().Data, fieldTolerance)
}

// TestLegendrePoly3D_LinearTermEndpoints verifies the degree-one basis
// spans [-1, 1] across each axis.
func TestLegendrePoly3D_LinearTermEndpoints(t *testing.T) {
	// Single linear term along x: coefficients (z, y, x) = (0, 0, 1).
	f := NewLegendrePoly3D(testShape, [3]int{1, 1, 2})
	require.NoError(t, f.Update([]float64{0, 1}))

	got := f.Field()
	assert.InDelta(t, -1.0, got.At(0, 0, 0), fieldTolerance)
	assert.InDelta(t, 1.0, got.At(0, 0, testShape[2]-1), fieldTolerance)
	assert.InDelta(t, got.At(4, 6, 3), got.At(0, 0, 3), fieldTolerance,
		"x term must not vary along z or y")
}

// TestLegendrePoly3D_FitRecovery verifies least squares in the Legendre
// basis.
func TestLegendrePoly3D_FitRecovery(t *testing.T) {
	order := [3]int{2, 2, 2}
	truth := NewLegendrePoly3D(testShape, order)
	want := []float64{2.0, -0.3, 0.7, 0, 0, 0.25, 0, 0}
	require.NoError(t, truth.Update(want))

	fitted := NewLegendrePoly3D(testShape, order)
	require.NoError(t, fitted.FromData(truth.Field()))

	for i, c := range fitted.Coeffs() {
		assert.InDelta(t, want[i], c, fitTolerance, "coefficient %d", i)
	}
}
