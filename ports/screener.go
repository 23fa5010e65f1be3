package ports

import (
	"gorhythm/domain/core"
	"gorhythm/domain/rhythm"
)

// Screener runs the complete per-molecule rhythmicity pipeline against a
// shared design configuration. Implementations must be pure: identical
// inputs always produce identical results, with no cross-call state.
type Screener interface {
	Screen(key core.MoleculeKey, values rhythm.MeasurementVector) (rhythm.MoleculeResult, error)
}
