package psf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkorpela/go-psf/internal/testutil"
	"github.com/jkorpela/go-psf/spectral"
	"github.com/jkorpela/go-psf/tile"
	"github.com/jkorpela/go-psf/vol"
)

// TestIdentity_ExecuteIsExactCopy verifies the delta kernel returns the
// field bit for bit.
func TestIdentity_ExecuteIsExactCopy(t *testing.T) {
	p := NewIdentity(WithBackend(spectral.NewReference()))
	require.NoError(t, p.SetTile(tile.New([3]int{4, 8, 8})))

	field := vol.NewArray([3]int{4, 8, 8})
	for i := range field.Data {
		field.Data[i] = float64(i) * 0.37
	}

	out, err := p.Execute(field)
	require.NoError(t, err)

	assert.Equal(t, field.Data, out.Data)
	out.Data[0] = -1
	assert.Zero(t, field.Data[0], "output must not alias the input")
}

// TestIdentity_SpectrumRoundTrip verifies the spectrum path inverts the
// transform and nothing else.
func TestIdentity_SpectrumRoundTrip(t *testing.T) {
	backend := spectral.NewReference()
	p := NewIdentity(WithBackend(backend))
	require.NoError(t, p.SetTile(tile.New([3]int{4, 8, 8})))

	field := impulseField([3]int{4, 8, 8}, [3]int{2, 3, 5})
	spec := field.ToComplex()
	backend.Forward(spec)

	out, err := p.ExecuteSpectrum(spec)
	require.NoError(t, err)

	testutil.AssertMaxAbsDiff(t, field.Data, out.Data, 1e-10)
}

// TestIdentity_NoParameters verifies the trivial parameter surface.
func TestIdentity_NoParameters(t *testing.T) {
	p := NewIdentity(WithBackend(spectral.NewReference()))

	assert.Nil(t, p.Params())
	assert.Nil(t, p.Values())
	assert.NoError(t, p.Update(nil, nil))
	assert.Equal(t, [3]int{1, 1, 1}, p.MinSupport())
}

// TestIdentity_ShapeMismatch verifies field shape policing.
func TestIdentity_ShapeMismatch(t *testing.T) {
	p := NewIdentity(WithBackend(spectral.NewReference()))
	require.NoError(t, p.SetTile(tile.New([3]int{4, 8, 8})))

	_, err := p.Execute(vol.NewArray([3]int{4, 8, 9}))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
