package spectral

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkorpela/go-psf/internal/testutil"
	"github.com/jkorpela/go-psf/vol"
)

const (
	// Transform tolerances. Non-power-of-two lengths go through
	// Bluestein's algorithm in the reference backend, which costs a few
	// digits relative to the radix-2 path.
	roundTripTolerance = 1e-9
	agreementTolerance = 1e-9

	testSeed = 12345
)

// randomVolume fills a complex array with reproducible noise.
func randomVolume(shape [3]int) *vol.CArray {
	rng := rand.New(rand.NewSource(testSeed))
	a := vol.NewCArray(shape)
	for i := range a.Data {
		a.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return a
}

func newTestPlanned(t *testing.T) *Planned {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Effort = EffortFast
	cfg.Threads = 2
	p := NewPlanned(cfg)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// TestReference_ForwardImpulse verifies the flat spectrum of a unit
// impulse at the origin.
func TestReference_ForwardImpulse(t *testing.T) {
	a := vol.NewCArray([3]int{4, 4, 4})
	a.Data[0] = 1

	NewReference().Forward(a)

	for i, v := range a.Data {
		assert.InDelta(t, 1.0, real(v), roundTripTolerance, "bin %d", i)
		assert.InDelta(t, 0.0, imag(v), roundTripTolerance, "bin %d", i)
	}
}

// TestBackends_RoundTrip verifies Forward then Inverse+Normalize is the
// identity for both backends on even, odd and mixed shapes.
func TestBackends_RoundTrip(t *testing.T) {
	shapes := [][3]int{
		{4, 4, 4},
		{5, 5, 5},
		{3, 8, 6},
	}

	backends := map[string]Backend{
		"reference": NewReference(),
		"planned":   newTestPlanned(t),
	}

	for name, b := range backends {
		for _, shape := range shapes {
			t.Run(name+"_"+tileName(shape), func(t *testing.T) {
				orig := randomVolume(shape)
				a := orig.Clone()

				b.Forward(a)
				b.Inverse(a)
				b.Normalize(a)

				testutil.AssertComplexClose(t, orig.Data, a.Data, roundTripTolerance)
			})
		}
	}
}

// TestBackends_ForwardAgreement verifies the planned and reference
// backends produce the same spectrum.
func TestBackends_ForwardAgreement(t *testing.T) {
	shape := [3]int{5, 6, 7}
	ref := randomVolume(shape)
	opt := ref.Clone()

	NewReference().Forward(ref)
	newTestPlanned(t).Forward(opt)

	testutil.AssertComplexClose(t, ref.Data, opt.Data, agreementTolerance)
}

// TestBackends_LayerwiseAgreement verifies Forward2 agreement and that
// layer-wise transforms leave other layers untouched.
func TestBackends_LayerwiseAgreement(t *testing.T) {
	shape := [3]int{3, 6, 5}
	ref := randomVolume(shape)
	opt := ref.Clone()

	NewReference().Forward2(ref)
	p := newTestPlanned(t)
	p.Forward2(opt)

	testutil.AssertComplexClose(t, ref.Data, opt.Data, agreementTolerance)

	// A layer-wise transform must not mix z layers.
	a := vol.NewCArray(shape)
	a.Layer(1)[0] = 1
	p.Forward2(a)
	for i, v := range a.Layer(0) {
		assert.Equal(t, complex128(0), v, "layer 0 bin %d", i)
	}
	for i, v := range a.Layer(2) {
		assert.Equal(t, complex128(0), v, "layer 2 bin %d", i)
	}
}

// TestPlanned_LayerwiseRoundTrip verifies Inverse2+Normalize2 undoes
// Forward2.
func TestPlanned_LayerwiseRoundTrip(t *testing.T) {
	orig := randomVolume([3]int{2, 8, 8})
	a := orig.Clone()
	p := newTestPlanned(t)

	p.Forward2(a)
	p.Inverse2(a)
	p.Normalize2(a)

	testutil.AssertComplexClose(t, orig.Data, a.Data, roundTripTolerance)
}

// TestWisdom_RoundTrip verifies planned lengths survive a save and load
// cycle through the cache file.
func TestWisdom_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisdom.gob")

	w := newWisdom(path)
	w.record(64)
	w.record(48)
	w.record(64)
	require.NoError(t, w.save())

	w2 := newWisdom(path)
	require.NoError(t, w2.load())
	assert.Equal(t, []int{48, 64}, w2.lengths())
}

// TestWisdom_MissingFileIsNotAnError verifies first-run behavior.
func TestWisdom_MissingFileIsNotAnError(t *testing.T) {
	w := newWisdom(filepath.Join(t.TempDir(), "absent.gob"))

	assert.NoError(t, w.load())
	assert.Empty(t, w.lengths())
}

// TestWisdom_CorruptFile verifies a bad blob is surfaced so the backend
// can regenerate it.
func TestWisdom_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisdom.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob blob"), 0o644))

	w := newWisdom(path)
	assert.Error(t, w.load())
}

// TestPlanned_WisdomAccumulates verifies transform lengths reach the
// cache file on Close.
func TestPlanned_WisdomAccumulates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisdom.gob")
	cfg := DefaultConfig()
	cfg.Effort = EffortFast
	cfg.Threads = 1
	cfg.WisdomPath = path

	p := NewPlanned(cfg)
	p.Forward(randomVolume([3]int{4, 6, 8}))
	require.NoError(t, p.Close())

	w := newWisdom(path)
	require.NoError(t, w.load())
	assert.Equal(t, []int{4, 6, 8}, w.lengths())
}

// TestBufferCache_ReuseAndEviction verifies the keep-alive policy.
func TestBufferCache_ReuseAndEviction(t *testing.T) {
	now := time.Unix(0, 0)
	c := newBufferCache(30 * time.Second)
	c.now = func() time.Time { return now }

	buf := c.get(16)
	buf[0] = 42
	c.put(buf)

	// Within the window the same buffer comes back, zeroed.
	got := c.get(16)
	assert.Same(t, &buf[0], &got[0], "buffer not reused")
	assert.Equal(t, complex128(0), got[0], "reused buffer not cleared")
	c.put(got)

	// Past the window it is dropped.
	now = now.Add(time.Minute)
	fresh := c.get(16)
	assert.NotSame(t, &buf[0], &fresh[0], "stale buffer survived eviction")
}

// TestConfig_Validate verifies parameter policing.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"explicit_threads", func(c *Config) { c.Threads = 4 }, false},
		{"negative_threads", func(c *Config) { c.Threads = -1 }, true},
		{"negative_keepalive", func(c *Config) { c.KeepAlive = -time.Second }, true},
		{"unknown_effort", func(c *Config) { c.Effort = Effort(99) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestNew_BackendSelection verifies the ForceReference escape hatch.
func TestNew_BackendSelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Effort = EffortFast

	b, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "planned", b.Name())
	_ = b.Close()

	cfg.ForceReference = true
	b, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "reference", b.Name())
}

// tileName formats a shape for subtest names.
func tileName(shape [3]int) string {
	return fmt.Sprintf("%dx%dx%d", shape[0], shape[1], shape[2])
}
