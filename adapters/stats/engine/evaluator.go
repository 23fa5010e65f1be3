package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"gorhythm/domain/rhythm"
)

// measurementConcordance encodes one molecule's pairwise rank comparisons in
// the canonical ordering: pairs (i, j) with i < j, value sign(z[j]-z[i]).
// Pairs touching a missing measurement are NaN so the statistic can skip
// them instead of propagating the gap.
func measurementConcordance(z rhythm.MeasurementVector) []float64 {
	n := len(z)
	row := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if z.Missing(i) || z.Missing(j) {
				row = append(row, math.NaN())
				continue
			}
			row = append(row, sign(z[j]-z[i]))
		}
	}
	return row
}

// scoreLags evaluates the rank-concordance statistic and its two-tailed
// p-value for every phase lag of one period model.
func scoreLags(foos []float64, model rhythm.PeriodModel, null rhythm.NullDistribution) []rhythm.LagScore {
	scores := make([]rhythm.LagScore, model.Lags())
	for lag := range scores {
		scores[lag] = scoreLag(foos, model.Concordance[lag], null)
	}
	return scores
}

func scoreLag(foos, ref []float64, null rhythm.NullDistribution) rhythm.LagScore {
	s := 0.0
	for k, f := range foos {
		if math.IsNaN(f) {
			continue
		}
		s += f * ref[k]
	}
	// No directional evidence at all.
	if s == 0 {
		return rhythm.LagScore{P: 1, S: 0, Tau: 0}
	}

	m := float64(null.Max)
	magnitude := (math.Abs(s) + m) / 2

	var p float64
	if null.Exact {
		p = 2 * null.UpperTail(2*int(magnitude))
	} else {
		dist := distuv.Normal{Mu: null.Mean, Sigma: null.StdDev}
		p = 2 * dist.Survival(magnitude-0.5)
	}
	if p > 1 {
		p = 1
	}
	return rhythm.LagScore{P: p, S: s, Tau: s / m}
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
