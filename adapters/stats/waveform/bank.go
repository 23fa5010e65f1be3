package waveform

import (
	"math"
	"sort"

	"gorhythm/domain/core"
	"gorhythm/domain/rhythm"
)

// Build constructs the reference waveform bank for every candidate period in
// the design. For each period and each half-integer phase lag, a reference
// cosine is sampled at every timepoint, rank-encoded, replicated per group,
// and converted into a pairwise sign-concordance row under the canonical
// pair ordering. A parallel signed-cosine row per lag supports amplitude
// estimation later.
//
// The canonical ordering — pairs (i, j) with i < j, i ascending then j,
// value sign(x[j]-x[i]) — is the same one the statistic evaluator applies to
// measurements; it is what keeps the inner products aligned with the null
// distribution's statistic indexing, balanced or not.
func Build(design rhythm.ExperimentDesign) rhythm.WaveformBank {
	designHash := design.Hash()
	models := make([]rhythm.PeriodModel, 0, len(design.Periods))
	for _, period := range design.Periods {
		models = append(models, buildPeriod(design, designHash, period))
	}
	return rhythm.WaveformBank{Models: models}
}

func buildPeriod(design rhythm.ExperimentDesign, designHash core.DesignHash, period int) rhythm.PeriodModel {
	timepoints := design.Timepoints()
	step := 2 * math.Pi / float64(period)

	theta := make([]float64, timepoints)
	for i := range theta {
		theta[i] = float64(i) * step
	}

	// Signed-cosine rows span only whole cycles.
	cycles := timepoints / period
	span := cycles * period

	concordance := make([][]float64, period)
	signCos := make([][]float64, period)
	cos := make([]float64, timepoints)
	for lag := 0; lag < period; lag++ {
		// Half-integer phase shift: lag index j shifts by j/2 timepoints.
		delta := float64(lag) * step / 2
		for i := range theta {
			cos[i] = math.Cos(theta[i] + delta)
		}
		replicated := repeatPerGroup(rankData(cos), design.GroupSizes)
		concordance[lag] = concordanceRow(replicated)
		signCos[lag] = signRow(cos[:span], design.GroupSizes[:span])
	}

	return rhythm.PeriodModel{
		Period:      period,
		FamilyID:    core.ComputeFamilyID(designHash, period),
		Concordance: concordance,
		SignCos:     signCos,
	}
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

// repeatPerGroup replicates each timepoint value by its group size, mapping
// timepoint-level encodings onto measurement slots.
func repeatPerGroup(values []float64, groupSizes []int) []float64 {
	total := 0
	for _, g := range groupSizes {
		total += g
	}
	out := make([]float64, 0, total)
	for t, v := range values {
		for r := 0; r < groupSizes[t]; r++ {
			out = append(out, v)
		}
	}
	return out
}

// concordanceRow encodes all pairwise rank comparisons in canonical order.
func concordanceRow(x []float64) []float64 {
	n := len(x)
	row := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			row = append(row, sign(x[j]-x[i]))
		}
	}
	return row
}

// signRow replicates the sign of the raw cosine per group across the
// whole-cycle span.
func signRow(cos []float64, groupSizes []int) []float64 {
	signs := make([]float64, len(cos))
	for i, v := range cos {
		signs[i] = sign(v)
	}
	return repeatPerGroup(signs, groupSizes)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
