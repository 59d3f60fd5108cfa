// Package mathutil provides polynomial evaluation helpers shared by the
// PSF parameter models and the background-field module.
package mathutil

// Polyval evaluates a polynomial with coefficients in ascending order
// (coeffs[0] is the constant term) at x using Horner's scheme.
func Polyval(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

// PolyvalDesc evaluates a polynomial with coefficients in descending
// order (coeffs[0] is the highest-degree term) at x.
func PolyvalDesc(coeffs []float64, x float64) float64 {
	v := 0.0
	for _, c := range coeffs {
		v = v*x + c
	}
	return v
}

// Legval evaluates a Legendre series with coefficients in ascending
// degree order at x using Clenshaw recurrence.
func Legval(coeffs []float64, x float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}
	// Clenshaw downward recurrence for the three-term Legendre relation
	// (k+1) P_{k+1} = (2k+1) x P_k - k P_{k-1}.
	var b1, b2 float64
	for k := len(coeffs) - 1; k >= 0; k-- {
		fk := float64(k)
		b := coeffs[k] + (2*fk+1)/(fk+1)*x*b1 - (fk+1)/(fk+2)*b2
		b2, b1 = b1, b
	}
	return b1
}

// LegBasis evaluates the single Legendre polynomial P_n at x.
func LegBasis(n int, x float64) float64 {
	coeffs := make([]float64, n+1)
	coeffs[n] = 1
	return Legval(coeffs, x)
}

// LegSeq returns P_0(x) through P_{n-1}(x) using the upward three-term
// recurrence.
func LegSeq(n int, x float64) []float64 {
	out := make([]float64, n)
	if n > 0 {
		out[0] = 1
	}
	if n > 1 {
		out[1] = x
	}
	for k := 2; k < n; k++ {
		fk := float64(k)
		out[k] = ((2*fk-1)*x*out[k-1] - (fk-1)*out[k-2]) / fk
	}
	return out
}

// Pow raises x to a non-negative integer power by repeated squaring.
func Pow(x float64, n int) float64 {
	v := 1.0
	for n > 0 {
		if n&1 == 1 {
			v *= x
		}
		x *= x
		n >>= 1
	}
	return v
}
