package engine

import (
	"sort"
)

// benjaminiHochberg applies the step-up false-discovery-rate adjustment to a
// p-value collection, returning adjusted values in the input order. Standard
// BH: sort ascending, scale by n/rank, take the running minimum from the
// largest rank down, cap at 1.
func benjaminiHochberg(p []float64) []float64 {
	n := len(p)
	if n == 0 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return p[order[a]] < p[order[b]]
	})

	adj := make([]float64, n)
	running := 1.0
	for rank := n - 1; rank >= 0; rank-- {
		v := p[order[rank]] * float64(n) / float64(rank+1)
		if v < running {
			running = v
		}
		adj[order[rank]] = running
	}
	return adj
}
