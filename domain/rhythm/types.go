package rhythm

import (
	"fmt"
	"math"
	"strings"

	"gorhythm/domain/core"
	"gorhythm/internal/errors"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// ExperimentDesign is the immutable description of a time-course layout:
// how many replicate measurements exist at each timepoint, the sampling
// interval between timepoints, and the candidate periods to test.
//
// GroupSizes holds one entry per timepoint (the replicate count at that
// timepoint); unbalanced designs are supported. Periods are expressed as a
// positive number of timepoints per cycle.
type ExperimentDesign struct {
	GroupSizes []int   `json:"group_sizes"`
	Replicates int     `json:"replicates"`
	Interval   float64 `json:"interval"`
	Periods    []int   `json:"periods"`
}

// NewExperimentDesign builds a balanced design: `timepoints` groups of
// `replicates` values each. Candidate periods longer than the experiment are
// dropped; a zero or negative period is a caller contract violation.
func NewExperimentDesign(timepoints, replicates int, interval float64, periods []int) (ExperimentDesign, error) {
	if timepoints <= 0 {
		return ExperimentDesign{}, errors.ConfigInvalid(fmt.Sprintf("timepoints must be positive, got %d", timepoints))
	}
	if replicates <= 0 {
		return ExperimentDesign{}, errors.ConfigInvalid(fmt.Sprintf("replicates must be positive, got %d", replicates))
	}
	sizes := make([]int, timepoints)
	for i := range sizes {
		sizes[i] = replicates
	}
	return NewUnbalancedDesign(sizes, replicates, interval, periods)
}

// NewUnbalancedDesign builds a design from an explicit per-timepoint
// replicate-count sequence.
func NewUnbalancedDesign(groupSizes []int, replicates int, interval float64, periods []int) (ExperimentDesign, error) {
	if len(groupSizes) < 2 {
		return ExperimentDesign{}, errors.ConfigInvalid("design needs at least two timepoints to form cross-group pairs")
	}
	total := 0
	for i, g := range groupSizes {
		if g <= 0 {
			return ExperimentDesign{}, errors.ConfigInvalid(fmt.Sprintf("group size at timepoint %d must be positive, got %d", i, g))
		}
		total += g
	}
	if total <= 0 {
		return ExperimentDesign{}, errors.ConfigInvalid("design contains no measurement slots")
	}
	if interval <= 0 {
		return ExperimentDesign{}, errors.ConfigInvalid(fmt.Sprintf("sampling interval must be positive, got %g", interval))
	}
	kept := make([]int, 0, len(periods))
	for _, p := range periods {
		if p <= 0 {
			return ExperimentDesign{}, errors.ConfigInvalid(fmt.Sprintf("candidate period must be positive, got %d", p))
		}
		// Periods longer than the experiment carry no testable cycle.
		if p <= len(groupSizes) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ExperimentDesign{}, errors.ConfigInvalid("no candidate period fits within the experiment")
	}
	sizes := make([]int, len(groupSizes))
	copy(sizes, groupSizes)
	return ExperimentDesign{
		GroupSizes: sizes,
		Replicates: replicates,
		Interval:   interval,
		Periods:    kept,
	}, nil
}

// Timepoints returns the number of experimental timepoints.
func (d ExperimentDesign) Timepoints() int { return len(d.GroupSizes) }

// TotalValues returns the number of measurement slots (timepoints x replicates).
func (d ExperimentDesign) TotalValues() int {
	n := 0
	for _, g := range d.GroupSizes {
		n += g
	}
	return n
}

// MaxStatistic returns M, the largest achievable rank-concordance statistic:
// the number of cross-group measurement pairs.
func (d ExperimentDesign) MaxStatistic() int {
	nn := d.TotalValues()
	sq := 0
	for _, g := range d.GroupSizes {
		sq += g * g
	}
	return (nn*nn - sq) / 2
}

// PairCount returns the number of ordered measurement pairs (i<j) in the
// canonical comparison ordering.
func (d ExperimentDesign) PairCount() int {
	nn := d.TotalValues()
	return nn * (nn - 1) / 2
}

// Hash fingerprints the design parameters. Two identical designs always
// produce identical hashes, which makes table reuse and determinism checks
// cheap for callers.
func (d ExperimentDesign) Hash() core.DesignHash {
	var data strings.Builder
	fmt.Fprintf(&data, "groups=%v/reps=%d/interval=%g/periods=%v", d.GroupSizes, d.Replicates, d.Interval, d.Periods)
	return core.NewDesignHash([]byte(data.String()))
}

// ============================================================================
// DERIVED CONFIGURATION (built once, shared read-only)
// ============================================================================

// NullDistribution is the permutation null of the rank-concordance statistic
// for one design. In exact mode P holds upper-tail p-values indexed by
// half-integer statistic value (index k corresponds to statistic k/2, for
// k = 0..2M). In normal mode Mean/StdDev parameterize the approximation.
type NullDistribution struct {
	Exact  bool
	P      []float64
	Mean   float64
	StdDev float64
	Max    int // M, the maximum possible statistic
}

// UpperTail returns the upper-tail p-value at half-integer statistic index k
// (statistic value k/2). Out-of-range indices clamp to the tail.
func (n NullDistribution) UpperTail(k int) float64 {
	if !n.Exact || len(n.P) == 0 {
		return math.NaN()
	}
	if k < 0 {
		k = 0
	}
	if k >= len(n.P) {
		k = len(n.P) - 1
	}
	return n.P[k]
}

// PeriodModel holds the reference waveform encodings for one candidate
// period: a concordance row per lag over the canonical pair ordering, and a
// signed-cosine row per lag for amplitude estimation.
type PeriodModel struct {
	Period      int
	FamilyID    core.FamilyID
	Concordance [][]float64 // [lag][pair index], entries in {-1, 0, +1}
	SignCos     [][]float64 // [lag][measurement slot], entries in {-1, 0, +1}
}

// Lags returns the number of phase lags scanned for this period.
func (m PeriodModel) Lags() int { return len(m.Concordance) }

// WaveformBank holds one PeriodModel per candidate period, in candidate order.
type WaveformBank struct {
	Models []PeriodModel
}

// DesignConfig is the immutable aggregate every per-molecule computation
// shares: the design, its null distribution, and its waveform bank. Built
// once per design; never mutated afterwards, so it is safe for concurrent
// read-only use without locks.
type DesignConfig struct {
	Design      ExperimentDesign
	Null        NullDistribution
	Bank        WaveformBank
	Fingerprint core.DesignHash
}

// ============================================================================
// PER-MOLECULE INPUT / OUTPUT
// ============================================================================

// MeasurementVector is one molecule's ordered values across
// timepoints x replicates. Missing entries are NaN; the vector is never
// mutated by the engine.
type MeasurementVector []float64

// Missing reports whether the value at slot i is absent.
func (v MeasurementVector) Missing(i int) bool {
	return math.IsNaN(v[i])
}

// Molecule couples a measurement vector with its identity for batch screens.
type Molecule struct {
	Key    core.MoleculeKey
	Values MeasurementVector
}

// LagScore is the evaluator output for a single phase lag:
// two-tailed p-value, raw statistic S, and tau = S/M.
type LagScore struct {
	P   float64
	S   float64
	Tau float64
}

// MoleculeResult is the selected optimal model for one molecule. Period and
// Lag are scaled by the design's sampling interval. Amplitude is floored at
// zero; zero means no detectable rhythm. AmpCI and AmpPValue are present
// only when amplitude inference was requested.
type MoleculeResult struct {
	Key       core.MoleculeKey
	AdjP      float64
	Period    float64
	Lag       float64
	Amplitude float64
	Tau       float64
	AmpCI     *[2]float64
	AmpPValue *float64
}
