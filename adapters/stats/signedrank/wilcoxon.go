package signedrank

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"gorhythm/internal/errors"
)

// One-sample Wilcoxon signed-rank inference for the amplitude estimate.
// The point estimate and confidence interval come straight from the
// Walsh-average definition (median of all pairwise averages; interval
// endpoints at the signed-rank critical order statistics), so no parity
// with any particular statistical package is implied.

// exactLimit bounds the sample size for the exact null distribution; beyond
// it the normal approximation takes over.
const exactLimit = 25

// Result holds the signed-rank test outcome for one sample.
type Result struct {
	Statistic float64 // W+, the sum of positive signed ranks
	PValue    float64 // two-sided
	Estimate  float64 // Hodges-Lehmann pseudomedian
	Lower     float64 // confidence interval lower bound
	Upper     float64 // confidence interval upper bound
	N         int     // non-zero sample size used by the test
	Exact     bool    // whether the exact null distribution was used
}

// Test runs a one-sample signed-rank test against location zero.
// Non-finite entries are dropped; exact zeros are discarded from the rank
// sum (wilcox zero handling). confidence is the two-sided interval level,
// e.g. 0.95.
func Test(sample []float64, confidence float64) (Result, error) {
	if confidence <= 0 || confidence >= 1 {
		return Result{}, errors.InvalidInput("confidence must be in (0, 1)")
	}
	finite := make([]float64, 0, len(sample))
	for _, v := range sample {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	nonzero := make([]float64, 0, len(finite))
	for _, v := range finite {
		if v != 0 {
			nonzero = append(nonzero, v)
		}
	}
	if len(nonzero) == 0 {
		return Result{}, errors.InsufficientData("signed-rank test requires at least one non-zero value")
	}

	n := len(nonzero)
	abs := make([]float64, n)
	for i, v := range nonzero {
		abs[i] = math.Abs(v)
	}
	ranks := rankData(abs)

	wPlus := 0.0
	tied := hasTies(abs)
	for i, v := range nonzero {
		if v > 0 {
			wPlus += ranks[i]
		}
	}

	exact := n <= exactLimit && !tied
	var pValue float64
	if exact {
		pValue = exactTwoSided(int(wPlus), n)
	} else {
		pValue = normalTwoSided(wPlus, n, abs)
	}

	walsh := walshAverages(finite)
	estimate, _ := stats.Median(walsh)
	lower, upper := confidenceBounds(walsh, len(finite), confidence, exact)

	return Result{
		Statistic: wPlus,
		PValue:    pValue,
		Estimate:  estimate,
		Lower:     lower,
		Upper:     upper,
		N:         n,
		Exact:     exact,
	}, nil
}

// nullCounts returns the exact null frequencies of W+ for sample size n:
// counts[s] arrangements of sign assignments summing the chosen ranks to s.
func nullCounts(n int) []float64 {
	maxSum := n * (n + 1) / 2
	counts := make([]float64, maxSum+1)
	counts[0] = 1
	for r := 1; r <= n; r++ {
		for s := maxSum; s >= r; s-- {
			counts[s] += counts[s-r]
		}
	}
	return counts
}

// exactTwoSided computes the two-sided p-value from the exact distribution.
func exactTwoSided(w, n int) float64 {
	counts := nullCounts(n)
	total := math.Pow(2, float64(n))
	lower, upper := 0.0, 0.0
	for s, c := range counts {
		if s <= w {
			lower += c
		}
		if s >= w {
			upper += c
		}
	}
	p := 2 * math.Min(lower/total, upper/total)
	if p > 1 {
		p = 1
	}
	return p
}

// normalTwoSided applies the large-sample normal approximation with tie
// correction.
func normalTwoSided(w float64, n int, abs []float64) float64 {
	fn := float64(n)
	mean := fn * (fn + 1) / 4
	variance := fn * (fn + 1) * (2*fn + 1) / 24
	variance -= tieCorrection(abs)
	if variance <= 0 {
		return 1
	}
	dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(variance)}
	p := 2 * dist.Survival(math.Abs(w-mean))
	if p > 1 {
		p = 1
	}
	return p
}

// tieCorrection returns sum(t^3 - t)/48 over tie groups of |x|.
func tieCorrection(abs []float64) float64 {
	sorted := make([]float64, len(abs))
	copy(sorted, abs)
	sort.Float64s(sorted)
	correction := 0.0
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		t := float64(j - i)
		correction += (t*t*t - t) / 48
		i = j
	}
	return correction
}

// walshAverages returns all pairwise averages (i <= j, self-pairs included).
func walshAverages(z []float64) []float64 {
	out := make([]float64, 0, len(z)*(len(z)+1)/2)
	for i := 0; i < len(z); i++ {
		for j := i; j < len(z); j++ {
			out = append(out, (z[i]+z[j])/2)
		}
	}
	return out
}

// confidenceBounds picks the interval endpoints from the ordered Walsh
// averages at the signed-rank critical index for the requested level.
func confidenceBounds(walsh []float64, n int, confidence float64, exact bool) (float64, float64) {
	sorted := make([]float64, len(walsh))
	copy(sorted, walsh)
	sort.Float64s(sorted)

	alpha := 1 - confidence
	k := criticalIndex(n, alpha/2, exact)
	if k < 0 {
		k = 0
	}
	if k >= len(sorted) {
		k = len(sorted) - 1
	}
	return sorted[k], sorted[len(sorted)-1-k]
}

// criticalIndex returns the largest k with P(W+ <= k) <= alpha under the
// null for sample size n.
func criticalIndex(n int, alpha float64, exact bool) int {
	if exact {
		counts := nullCounts(n)
		total := math.Pow(2, float64(n))
		cum := 0.0
		k := -1
		for s, c := range counts {
			cum += c
			if cum/total <= alpha {
				k = s
			} else {
				break
			}
		}
		return k
	}
	fn := float64(n)
	mean := fn * (fn + 1) / 4
	sd := math.Sqrt(fn * (fn + 1) * (2*fn + 1) / 24)
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	return int(math.Floor(mean + dist.Quantile(alpha)*sd))
}

// rankData converts values to ranks (1-based), averaging ties.
func rankData(data []float64) []float64 {
	n := len(data)
	type pair struct {
		value float64
		index int
	}
	pairs := make([]pair, n)
	for i, val := range data {
		pairs[i] = pair{value: val, index: i}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value < pairs[j].value
	})

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i + 1
		for j < n && pairs[j].value == pairs[i].value {
			j++
		}
		avgRank := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[pairs[k].index] = avgRank
		}
		i = j
	}
	return ranks
}

func hasTies(values []float64) bool {
	seen := make(map[float64]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return true
		}
		seen[v] = true
	}
	return false
}
