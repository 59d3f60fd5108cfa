package psf

import "fmt"

// paramSet stores ordered named parameter values with partial update by
// name, the parameter plumbing shared by every parametric variant.
type paramSet struct {
	names  []string
	index  map[string]int
	values []float64
}

func newParamSet(names []string, values []float64) (*paramSet, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d values", ErrInvalidParams, len(names), len(values))
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := index[n]; dup {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidParams, n)
		}
		index[n] = i
	}
	p := &paramSet{
		names:  append([]string(nil), names...),
		index:  index,
		values: append([]float64(nil), values...),
	}
	return p, nil
}

// Names returns the parameter names in order.
func (p *paramSet) Names() []string {
	return append([]string(nil), p.names...)
}

// Get returns the values of the named parameters, or all values in order
// when called without names. Asking for a name the set does not hold is a
// contract violation and panics; otherwise a typo would read back as a
// plausible zero.
func (p *paramSet) Get(names ...string) []float64 {
	if len(names) == 0 {
		return append([]float64(nil), p.values...)
	}
	out := make([]float64, len(names))
	for i, n := range names {
		j, ok := p.index[n]
		if !ok {
			panic(fmt.Sprintf("psf: unknown parameter %q", n))
		}
		out[i] = p.values[j]
	}
	return out
}

// Set overwrites the named entries. Unknown names and length mismatches
// reject the whole update; no entry is changed on error.
func (p *paramSet) Set(names []string, values []float64) error {
	if len(names) != len(values) {
		return fmt.Errorf("%w: %d names for %d values", ErrInvalidParams, len(names), len(values))
	}
	for _, n := range names {
		if _, ok := p.index[n]; !ok {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParams, n)
		}
	}
	for i, n := range names {
		p.values[p.index[n]] = values[i]
	}
	return nil
}
