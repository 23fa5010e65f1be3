package nulldist

import (
	"math"
	"sort"

	"gorhythm/domain/rhythm"
)

// Build computes the permutation null distribution of the rank-concordance
// statistic for a design. The exact path constructs the full upper-tail
// p-value table for every half-integer statistic from 0 to M; when the
// largest group's log-factorial permutation bound risks float64 overflow
// (or forceNormal is set), the normal approximation is stored instead.
//
// Runs once per design; the result is immutable.
func Build(design rhythm.ExperimentDesign, forceNormal bool) rhythm.NullDistribution {
	tim := design.GroupSizes
	nn := design.TotalValues()
	m := design.MaxStatistic()

	maxGroup := 0
	for _, g := range tim {
		if g > maxGroup {
			maxGroup = g
		}
	}

	// Overflow guard: bound on log(permutation count) for the exact path.
	lgTotal, _ := math.Lgamma(float64(nn))
	lgLargest, _ := math.Lgamma(float64(maxGroup) + 1)
	maxNLP := lgTotal - lgLargest
	limit := math.Log(math.MaxFloat64)
	useNormal := forceNormal || maxNLP > limit-1

	dist := rhythm.NullDistribution{
		Exact:  !useNormal,
		Max:    m,
		Mean:   float64(m) / 2,
		StdDev: normalStdDev(tim, nn),
	}
	if useNormal {
		return dist
	}

	dist.P = exactUpperTail(tim, m)
	return dist
}

// normalStdDev derives the approximation's standard deviation from the
// group-size second moments:
// Var = (nn^2*(2nn+3) - sum(t_i^2*(2t_i+3))) / 72.
func normalStdDev(tim []int, nn int) float64 {
	groupTerm := 0.0
	for _, t := range tim {
		groupTerm += float64(t*t) * float64(2*t+3)
	}
	variance := (float64(nn*nn)*float64(2*nn+3) - groupTerm) / 72
	return math.Sqrt(variance)
}

// exactUpperTail produces the upper-tail p-value table indexed by
// half-integer statistic (index k = statistic k/2, k = 0..2M).
func exactUpperTail(tim []int, m int) []float64 {
	// No cross-group pairs: the statistic is identically zero.
	if m == 0 {
		return []float64{1}
	}

	sizes := make([]int, len(tim))
	copy(sizes, tim)
	sort.Ints(sizes)

	ceiling := m / 2
	lower := lowerHalfCumulative(sizes, ceiling)

	// Extend symmetrically to the full range of integer statistics,
	// ascending. An odd maximum mirrors around a doubled midpoint; an even
	// maximum splits the midpoint mass between the halves.
	asc := make([]float64, 0, m+1)
	asc = append(asc, lower...)
	if m%2 == 1 {
		for i := ceiling - 1; i >= 0; i-- {
			asc = append(asc, 2*lower[ceiling]-lower[i])
		}
		asc = append(asc, 2*lower[ceiling])
	} else {
		mid := lower[ceiling-1] + lower[ceiling]
		for i := ceiling - 2; i >= 0; i-- {
			asc = append(asc, mid-lower[i])
		}
		asc = append(asc, mid)
	}

	// Upper-tail cumulative counts at integer statistics 0..M.
	tail := make([]float64, m+1)
	for j := 0; j <= m; j++ {
		tail[j] = asc[m-j]
	}
	total := tail[0]

	// Interpolate the half-integer points by averaging adjacent integer
	// cumulative frequencies, then normalize everything by the total mass.
	p := make([]float64, 2*m+1)
	for k := 0; k <= 2*m; k++ {
		if k%2 == 0 {
			p[k] = tail[k/2] / total
		} else {
			p[k] = (tail[(k-1)/2] + tail[(k+1)/2]) / 2 / total
		}
	}
	return p
}
