package waveform

import (
	"math"
	"testing"

	"gorhythm/domain/rhythm"
)

func mustDesign(t *testing.T, groupSizes []int, replicates int, periods []int) rhythm.ExperimentDesign {
	t.Helper()
	design, err := rhythm.NewUnbalancedDesign(groupSizes, replicates, 1, periods)
	if err != nil {
		t.Fatalf("design construction failed: %v", err)
	}
	return design
}

// referenceConcordance is a direct, independent encoding of the lag-0
// reference: cosine sampled per timepoint, replicated per group, all pairs
// (i<j) compared by value.
func referenceConcordance(design rhythm.ExperimentDesign, period int, lag float64) []float64 {
	step := 2 * math.Pi / float64(period)
	var replicated []float64
	for tp, g := range design.GroupSizes {
		v := math.Cos(float64(tp)*step + lag*step/2)
		for r := 0; r < g; r++ {
			replicated = append(replicated, v)
		}
	}
	var row []float64
	for i := 0; i < len(replicated)-1; i++ {
		for j := i + 1; j < len(replicated); j++ {
			switch {
			case replicated[j] > replicated[i]:
				row = append(row, 1)
			case replicated[j] < replicated[i]:
				row = append(row, -1)
			default:
				row = append(row, 0)
			}
		}
	}
	return row
}

func TestLagZeroMatchesDirectEncoding(t *testing.T) {
	design := mustDesign(t, []int{3, 3, 3, 3}, 3, []int{4})
	bank := Build(design)
	if len(bank.Models) != 1 {
		t.Fatalf("expected one period model, got %d", len(bank.Models))
	}
	model := bank.Models[0]

	want := referenceConcordance(design, 4, 0)
	got := model.Concordance[0]
	if len(got) != design.PairCount() {
		t.Fatalf("concordance row length %d, want %d", len(got), design.PairCount())
	}
	for k := range want {
		if got[k] != want[k] {
			t.Errorf("pair %d: concordance %g, want %g", k, got[k], want[k])
		}
	}
}

func TestEveryLagMatchesDirectEncoding(t *testing.T) {
	design := mustDesign(t, []int{2, 2, 2, 2, 2, 2}, 2, []int{6})
	model := Build(design).Models[0]

	for lag := 0; lag < model.Lags(); lag++ {
		want := referenceConcordance(design, 6, float64(lag))
		got := model.Concordance[lag]
		for k := range want {
			if got[k] != want[k] {
				t.Errorf("lag %d pair %d: concordance %g, want %g", lag, k, got[k], want[k])
			}
		}
	}
}

func TestUnbalancedGroupsKeepCanonicalAlignment(t *testing.T) {
	design := mustDesign(t, []int{2, 3, 2, 3}, 3, []int{4})
	model := Build(design).Models[0]

	for lag := 0; lag < model.Lags(); lag++ {
		if len(model.Concordance[lag]) != design.PairCount() {
			t.Fatalf("lag %d: row length %d, want %d", lag, len(model.Concordance[lag]), design.PairCount())
		}
		want := referenceConcordance(design, 4, float64(lag))
		for k := range want {
			if model.Concordance[lag][k] != want[k] {
				t.Errorf("lag %d pair %d: concordance %g, want %g", lag, k, model.Concordance[lag][k], want[k])
			}
		}
	}
}

func TestLagColumnsDiffer(t *testing.T) {
	design := mustDesign(t, []int{3, 3, 3, 3}, 3, []int{4})
	model := Build(design).Models[0]

	if model.Lags() != 4 {
		t.Fatalf("lag count = %d, want 4", model.Lags())
	}
	for a := 0; a < model.Lags(); a++ {
		for b := a + 1; b < model.Lags(); b++ {
			same := true
			for k := range model.Concordance[a] {
				if model.Concordance[a][k] != model.Concordance[b][k] {
					same = false
					break
				}
			}
			if same {
				t.Errorf("lags %d and %d produced identical concordance columns", a, b)
			}
		}
	}
}

func TestSignCosSpansWholeCycles(t *testing.T) {
	// 6 timepoints, period 4: only one whole cycle (4 timepoints) is used
	// for the signed-cosine rows.
	design := mustDesign(t, []int{2, 2, 2, 2, 2, 2}, 2, []int{4})
	model := Build(design).Models[0]

	wantSlots := 0
	for _, g := range design.GroupSizes[:4] {
		wantSlots += g
	}
	for lag := range model.SignCos {
		if len(model.SignCos[lag]) != wantSlots {
			t.Errorf("lag %d: signed-cosine row length %d, want %d", lag, len(model.SignCos[lag]), wantSlots)
		}
		for i, v := range model.SignCos[lag] {
			if v != 1 && v != -1 && v != 0 {
				t.Errorf("lag %d slot %d: signed cosine %g not in {-1, 0, 1}", lag, i, v)
			}
		}
	}
}

func TestMultiplePeriods(t *testing.T) {
	design := mustDesign(t, []int{2, 2, 2, 2, 2, 2}, 2, []int{4, 6})
	bank := Build(design)
	if len(bank.Models) != 2 {
		t.Fatalf("expected two period models, got %d", len(bank.Models))
	}
	if bank.Models[0].Period != 4 || bank.Models[1].Period != 6 {
		t.Errorf("periods = %d, %d; want 4, 6", bank.Models[0].Period, bank.Models[1].Period)
	}
	if bank.Models[0].FamilyID == bank.Models[1].FamilyID {
		t.Error("distinct periods must map to distinct FDR families")
	}
	if bank.Models[0].FamilyID == "" {
		t.Error("family ID must be populated")
	}
}
