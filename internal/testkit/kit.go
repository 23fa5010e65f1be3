package testkit

import (
	"math"
	"math/rand"

	"gorhythm/domain/rhythm"
)

// Deterministic synthetic measurement tracks for the rhythmicity pipeline.
// Every generator is seeded explicitly so tests stay reproducible.

// CosineTrack samples a cosine of the given period across the design's
// timepoints, replicated per group, with optional seeded Gaussian noise.
// lagTimepoints shifts the phase in timepoint units (0 = peak at t0).
func CosineTrack(design rhythm.ExperimentDesign, period int, lagTimepoints, amplitude, noise float64, seed int64) rhythm.MeasurementVector {
	rng := rand.New(rand.NewSource(seed))
	step := 2 * math.Pi / float64(period)

	values := make(rhythm.MeasurementVector, 0, design.TotalValues())
	for t, g := range design.GroupSizes {
		base := amplitude * math.Cos((float64(t)-lagTimepoints)*step)
		for r := 0; r < g; r++ {
			v := base
			if noise > 0 {
				v += rng.NormFloat64() * noise
			}
			values = append(values, v)
		}
	}
	return values
}

// FlatTrack returns a constant measurement vector: no rhythm by construction.
func FlatTrack(design rhythm.ExperimentDesign, value float64) rhythm.MeasurementVector {
	values := make(rhythm.MeasurementVector, design.TotalValues())
	for i := range values {
		values[i] = value
	}
	return values
}

// NoiseTrack returns seeded Gaussian noise with no periodic structure.
func NoiseTrack(design rhythm.ExperimentDesign, sd float64, seed int64) rhythm.MeasurementVector {
	rng := rand.New(rand.NewSource(seed))
	values := make(rhythm.MeasurementVector, design.TotalValues())
	for i := range values {
		values[i] = rng.NormFloat64() * sd
	}
	return values
}

// WithMissing returns a copy of the vector with the given slots set missing.
func WithMissing(v rhythm.MeasurementVector, slots ...int) rhythm.MeasurementVector {
	out := make(rhythm.MeasurementVector, len(v))
	copy(out, v)
	for _, i := range slots {
		out[i] = math.NaN()
	}
	return out
}
