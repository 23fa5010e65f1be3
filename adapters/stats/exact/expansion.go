package exact

import (
	"math"
	"sort"
)

// Error-free floating-point accumulation for the permutation-count tables.
// The recursive null-distribution construction adds and subtracts
// combinatorially large counts thousands of times; naive float64 addition
// silently loses the low-order bits long before the table is normalized.
// Each table entry is therefore kept as an unevaluated multi-component sum
// whose components add back to the true value with zero rounding error.

// FastTwoSum computes the exact sum of a and b as a (hi, lo) pair.
// Requires |a| >= |b|; hi is the rounded sum and lo the rounding error,
// so hi + lo == a + b exactly.
func FastTwoSum(a, b float64) (hi, lo float64) {
	hi = a + b
	lo = b - (hi - a)
	return hi, lo
}

// TwoSum computes the exact sum of a and b without any ordering assumption.
func TwoSum(a, b float64) (hi, lo float64) {
	hi = a + b
	bv := hi - a
	av := hi - bv
	lo = (a - av) + (b - bv)
	return hi, lo
}

// Expansion is a multi-component representation of a real number: an
// unevaluated sum of float64 components that together carry the value
// without rounding error. Low-order components come first; the final
// component is the leading approximation.
type Expansion []float64

// New wraps a single float64 as a one-component expansion.
func New(v float64) Expansion {
	return Expansion{v}
}

// Sum folds an arbitrary sequence of float64 values into an exact expansion.
// Terms are processed in descending magnitude; every two-term combination
// goes through an error-free transform and any non-zero low-order residue
// is carried forward instead of discarded.
func Sum(values ...float64) Expansion {
	switch len(values) {
	case 0:
		return Expansion{0}
	case 1:
		return Expansion{values[0]}
	}
	g := make([]float64, len(values))
	copy(g, values)
	sort.Slice(g, func(i, j int) bool {
		return math.Abs(g[i]) > math.Abs(g[j])
	})

	var low Expansion
	q, r := FastTwoSum(g[0], g[1])
	if r != 0 {
		low = append(low, r)
	}
	for _, v := range g[2:] {
		q, r = TwoSum(q, v)
		if r != 0 {
			low = append(low, r)
		}
	}
	return append(low, q)
}

// Add merges two expansions into a new exact expansion. Neither operand is
// mutated.
func (e Expansion) Add(other Expansion) Expansion {
	merged := make([]float64, 0, len(e)+len(other))
	merged = append(merged, e...)
	merged = append(merged, other...)
	return Sum(merged...)
}

// Neg returns the component-wise negation, which negates the value exactly.
func (e Expansion) Neg() Expansion {
	out := make(Expansion, len(e))
	for i, c := range e {
		out[i] = -c
	}
	return out
}

// Approx collapses the expansion to the closest single float64. Components
// are accumulated low-order first so small residues are not absorbed
// prematurely.
func (e Expansion) Approx() float64 {
	s := 0.0
	for _, c := range e {
		s += c
	}
	return s
}
