package engine

import (
	"fmt"
	"math"

	"gorhythm/adapters/stats/nulldist"
	"gorhythm/adapters/stats/signedrank"
	"gorhythm/adapters/stats/waveform"
	"gorhythm/domain/core"
	"gorhythm/domain/rhythm"
	"gorhythm/internal/errors"
)

// RhythmEngine runs the per-molecule rhythmicity pipeline against a shared
// immutable design configuration. One engine serves any number of molecules
// concurrently: Screen is a pure function of (measurement vector, config).
type RhythmEngine struct {
	cfg  *rhythm.DesignConfig
	opts Options
}

// Options controls optional engine behavior.
type Options struct {
	// AmplitudeCI requests a signed-rank confidence interval and p-value for
	// the selected amplitude.
	AmplitudeCI bool
	// Confidence is the two-sided interval level; defaults to 0.95.
	Confidence float64
}

// BuildDesignConfig runs the one-time setup pipeline: design -> null
// distribution -> waveform bank. The returned aggregate is immutable and
// safe to share across goroutines.
func BuildDesignConfig(design rhythm.ExperimentDesign, forceNormal bool) *rhythm.DesignConfig {
	return &rhythm.DesignConfig{
		Design:      design,
		Null:        nulldist.Build(design, forceNormal),
		Bank:        waveform.Build(design),
		Fingerprint: design.Hash(),
	}
}

// New creates an engine over a built design configuration.
func New(cfg *rhythm.DesignConfig, opts Options) *RhythmEngine {
	if opts.Confidence == 0 {
		opts.Confidence = 0.95
	}
	return &RhythmEngine{cfg: cfg, opts: opts}
}

// Config exposes the shared design configuration.
func (e *RhythmEngine) Config() *rhythm.DesignConfig { return e.cfg }

// ScoreLags runs the statistic evaluator alone for one candidate period,
// returning the {p-value, S, tau} triple per phase lag.
func (e *RhythmEngine) ScoreLags(z rhythm.MeasurementVector, periodIdx int) ([]rhythm.LagScore, error) {
	if err := e.checkVector(z); err != nil {
		return nil, err
	}
	if periodIdx < 0 || periodIdx >= len(e.cfg.Bank.Models) {
		return nil, errors.InvalidInput(fmt.Sprintf("period index %d out of range", periodIdx))
	}
	foos := measurementConcordance(z)
	return scoreLags(foos, e.cfg.Bank.Models[periodIdx], e.cfg.Null), nil
}

// Screen evaluates every lag of every candidate period, applies the BH
// false-discovery-rate adjustment across the molecule's p-value set, and
// selects the best-fitting period and phase with its amplitude estimate.
func (e *RhythmEngine) Screen(key core.MoleculeKey, z rhythm.MeasurementVector) (rhythm.MoleculeResult, error) {
	if err := e.checkVector(z); err != nil {
		return rhythm.MoleculeResult{}, err
	}

	foos := measurementConcordance(z)
	models := e.cfg.Bank.Models

	type lagRef struct {
		periodIdx int
		lagIdx    int
	}
	var (
		refs  []lagRef
		pvals []float64
	)
	scores := make([][]rhythm.LagScore, len(models))
	for pi, model := range models {
		scores[pi] = scoreLags(foos, model, e.cfg.Null)
		for li := range scores[pi] {
			refs = append(refs, lagRef{periodIdx: pi, lagIdx: li})
			pvals = append(pvals, scores[pi][li].P)
		}
	}

	adj := benjaminiHochberg(pvals)

	// Per-family minima: each candidate period's lags form one FDR family,
	// and the winning family carries the molecule's adjusted p-value.
	familyMin := make(map[core.FamilyID]float64, len(models))
	for idx, ref := range refs {
		fam := models[ref.periodIdx].FamilyID
		if cur, ok := familyMin[fam]; !ok || adj[idx] < cur {
			familyMin[fam] = adj[idx]
		}
	}
	adjMin := math.Inf(1)
	for _, v := range familyMin {
		if v < adjMin {
			adjMin = v
		}
	}

	// Among the lags tied at the minimum adjusted p-value, the largest
	// amplitude wins; ties on amplitude keep the earliest lag in scan order
	// (strict comparison below).
	best := struct {
		period    int
		lag       float64
		amplitude float64
		tau       float64
		products  []float64
	}{}
	for idx, ref := range refs {
		if adj[idx] != adjMin {
			continue
		}
		model := models[ref.periodIdx]
		sc := scores[ref.periodIdx][ref.lagIdx]
		amplitude, lag, products := e.amplitude(z, model, ref.lagIdx, sc.S)
		if amplitude > best.amplitude {
			best.period = model.Period
			best.lag = lag
			best.amplitude = amplitude
			best.tau = math.Abs(sc.Tau)
			best.products = products
		}
	}

	result := rhythm.MoleculeResult{
		Key:       key,
		AdjP:      adjMin,
		Period:    e.cfg.Design.Interval * float64(best.period),
		Lag:       e.cfg.Design.Interval * best.lag,
		Amplitude: math.Max(0, best.amplitude),
		Tau:       best.tau,
	}

	if e.opts.AmplitudeCI && best.products != nil {
		if sr, err := signedrank.Test(best.products, e.opts.Confidence); err == nil {
			ci := [2]float64{sr.Lower, sr.Upper}
			result.AmpCI = &ci
			p := sr.PValue
			result.AmpPValue = &p
		}
	}
	return result, nil
}

// amplitude estimates the rhythm amplitude for one (period, lag) model:
// center via Hodges-Lehmann, rescale, multiply by sign(S) and the reference
// signed cosine, then take the Hodges-Lehmann location of the product.
// Also derives the phase lag in timepoint units.
func (e *RhythmEngine) amplitude(z rhythm.MeasurementVector, model rhythm.PeriodModel, lagIdx int, s float64) (float64, float64, []float64) {
	signCos := model.SignCos[lagIdx]
	n := len(signCos)

	direction := 1.0
	if s < 0 {
		direction = -1
	}
	center := hodgesLehmann(z[:n])

	products := make([]float64, n)
	for i := range products {
		if z.Missing(i) {
			products[i] = math.NaN()
			continue
		}
		products[i] = direction * (z[i] - center) * math.Sqrt2 * signCos[i]
	}

	per := float64(model.Period)
	lag := math.Mod(per+(1-direction)*per/4-float64(lagIdx)/2, per)
	return hodgesLehmann(products), lag, products
}

func (e *RhythmEngine) checkVector(z rhythm.MeasurementVector) error {
	want := e.cfg.Design.TotalValues()
	if len(z) != want {
		return errors.InvalidInput(fmt.Sprintf("measurement vector has %d slots, design requires %d", len(z), want))
	}
	return nil
}
