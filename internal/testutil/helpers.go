// Package testutil provides reusable test helper functions for volume
// and kernel tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	SumTolerance     = 1e-6
	KernelTolerance  = 1e-12
)

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertSum verifies that the elements sum to the expected value.
func AssertSum(t *testing.T, s []float64, expected, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, v := range s {
		sum += v
	}
	return assert.InDelta(t, expected, sum, tolerance,
		"sum = %f, want %f", sum, expected)
}

// AssertMaxAbsDiff verifies that two slices of equal length agree
// elementwise within tolerance, reporting the worst offender.
func AssertMaxAbsDiff(t *testing.T, want, got []float64, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Equal(t, len(want), len(got), "slice lengths differ") {
		return false
	}
	worst, at := 0.0, 0
	for i := range want {
		if d := math.Abs(want[i] - got[i]); d > worst {
			worst, at = d, i
		}
	}
	return assert.LessOrEqual(t, worst, tolerance,
		"max abs diff %e at index %d exceeds tolerance %e (want %f, got %f)",
		worst, at, tolerance, want[at], got[at])
}

// AssertComplexClose verifies that two complex slices agree elementwise
// within tolerance on both parts.
func AssertComplexClose(t *testing.T, want, got []complex128, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Equal(t, len(want), len(got), "slice lengths differ") {
		return false
	}
	for i := range want {
		d := want[i] - got[i]
		if math.Abs(real(d)) > tolerance || math.Abs(imag(d)) > tolerance {
			return assert.Fail(t, "complex values differ",
				"index %d: want %v, got %v (tolerance %e)", i, want[i], got[i], tolerance)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// Impulse returns a flat volume of the given element count with a single
// unit spike at index idx.
func Impulse(n, idx int) []float64 {
	s := make([]float64, n)
	s[idx] = 1
	return s
}
