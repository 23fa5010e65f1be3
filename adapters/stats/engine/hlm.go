package engine

import (
	"math"

	"github.com/montanaflynn/stats"
)

// hodgesLehmann returns the robust location estimate: the median of all
// pairwise averages of the sample, self-pairs included. Non-finite entries
// are excluded rather than propagated; an all-missing sample yields NaN.
func hodgesLehmann(z []float64) float64 {
	finite := make([]float64, 0, len(z))
	for _, v := range z {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	walsh := make([]float64, 0, len(finite)*(len(finite)+1)/2)
	for i := 0; i < len(finite); i++ {
		for j := i; j < len(finite); j++ {
			walsh = append(walsh, (finite[i]+finite[j])/2)
		}
	}
	med, err := stats.Median(walsh)
	if err != nil {
		return math.NaN()
	}
	return med
}
