package nulldist

import (
	"gorhythm/adapters/stats/exact"
)

// mergeGroup folds one group into the lower-half cumulative frequency table
// of the permutation null, following the Harding recursion. m is the size of
// the group being merged, n the combined size of all larger groups still to
// its right, and ceiling = floor(M/2) bounds the table.
//
// The table is an arena-scoped buffer owned by the calculator: it is mutated
// in place here during the one-time construction phase and never escapes.
// Every update combines two entries through the exact expansion sum, never
// plain float64 addition, so precision survives repeated merges.
func mergeGroup(m, n, ceiling int, table []exact.Expansion) {
	p := m + n
	if p > ceiling {
		p = ceiling
	}
	// Descending subtractive pass over offsets derived from n.
	for t := n + 1; t <= p; t++ {
		for u := ceiling; u >= t; u-- {
			table[u] = table[u].Add(table[u-t].Neg())
		}
	}
	q := m
	if q > ceiling {
		q = ceiling
	}
	// Ascending additive pass over offsets derived from m.
	for s := 1; s <= q; s++ {
		for u := s; u <= ceiling; u++ {
			table[u] = table[u].Add(table[u-s])
		}
	}
}

// lowerHalfCumulative runs the recursion across all groups, smallest first,
// and returns the lower half of the cumulative frequency distribution as
// plain float64 values. sizes must be sorted ascending.
func lowerHalfCumulative(sizes []int, ceiling int) []float64 {
	table := make([]exact.Expansion, ceiling+1)
	for i := range table {
		table[i] = exact.New(1)
	}

	// Tail sums: for group j, the combined size of every larger group.
	k := len(sizes)
	tails := make([]int, k-1)
	acc := 0
	for i := k - 1; i >= 1; i-- {
		acc += sizes[i]
		tails[i-1] = acc
	}
	for j := 0; j < k-1; j++ {
		mergeGroup(sizes[j], tails[j], ceiling, table)
	}

	out := make([]float64, ceiling+1)
	for i, e := range table {
		out[i] = e.Approx()
	}
	return out
}
