package nulldist

import (
	"math"
	"testing"

	"gorhythm/domain/rhythm"
)

func mustDesign(t *testing.T, timepoints, replicates int) rhythm.ExperimentDesign {
	t.Helper()
	design, err := rhythm.NewExperimentDesign(timepoints, replicates, 1, []int{timepoints})
	if err != nil {
		t.Fatalf("design construction failed: %v", err)
	}
	return design
}

// bruteForceUpperTail enumerates every permutation of distinct ranks across
// the design's slots and tallies the concordant cross-group pair count,
// returning upper-tail probabilities at each integer statistic 0..M.
func bruteForceUpperTail(groupSizes []int) []float64 {
	groups := make([]int, 0)
	for g, size := range groupSizes {
		for r := 0; r < size; r++ {
			groups = append(groups, g)
		}
	}
	n := len(groups)

	m := 0
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if groups[i] != groups[j] {
				m++
			}
		}
	}

	counts := make([]float64, m+1)
	total := 0.0
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	var visit func(k int)
	visit = func(k int) {
		if k == n {
			stat := 0
			for i := 0; i < n-1; i++ {
				for j := i + 1; j < n; j++ {
					if groups[i] != groups[j] && perm[j] > perm[i] {
						stat++
					}
				}
			}
			counts[stat]++
			total++
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			visit(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	visit(0)

	tail := make([]float64, m+1)
	cum := 0.0
	for j := m; j >= 0; j-- {
		cum += counts[j]
		tail[j] = cum / total
	}
	return tail
}

func TestExactMatchesBruteForceTwoGroups(t *testing.T) {
	design := mustDesign(t, 2, 2)
	dist := Build(design, false)
	if !dist.Exact {
		t.Fatal("expected exact mode for a minimal design")
	}

	want := bruteForceUpperTail(design.GroupSizes)
	if dist.Max != len(want)-1 {
		t.Fatalf("max statistic = %d, want %d", dist.Max, len(want)-1)
	}
	for j := 0; j <= dist.Max; j++ {
		got := dist.UpperTail(2 * j)
		if math.Abs(got-want[j]) > 1e-12 {
			t.Errorf("p at statistic %d = %g, want %g", j, got, want[j])
		}
	}
}

func TestExactMatchesBruteForceThreeGroups(t *testing.T) {
	design := mustDesign(t, 3, 2)
	dist := Build(design, false)

	want := bruteForceUpperTail(design.GroupSizes)
	for j := 0; j <= dist.Max; j++ {
		got := dist.UpperTail(2 * j)
		if math.Abs(got-want[j]) > 1e-12 {
			t.Errorf("p at statistic %d = %g, want %g", j, got, want[j])
		}
	}
}

func TestExactMatchesBruteForceUnbalanced(t *testing.T) {
	design, err := rhythm.NewUnbalancedDesign([]int{2, 3}, 3, 1, []int{2})
	if err != nil {
		t.Fatalf("unbalanced design: %v", err)
	}
	dist := Build(design, false)

	want := bruteForceUpperTail(design.GroupSizes)
	for j := 0; j <= dist.Max; j++ {
		got := dist.UpperTail(2 * j)
		if math.Abs(got-want[j]) > 1e-12 {
			t.Errorf("p at statistic %d = %g, want %g", j, got, want[j])
		}
	}
}

func TestExactTableInvariants(t *testing.T) {
	designs := []rhythm.ExperimentDesign{
		mustDesign(t, 2, 2),
		mustDesign(t, 4, 3),
		mustDesign(t, 6, 2),
	}
	for _, design := range designs {
		dist := Build(design, false)
		if !dist.Exact {
			t.Fatalf("expected exact mode for %v", design.GroupSizes)
		}
		if len(dist.P) != 2*dist.Max+1 {
			t.Fatalf("table size %d, want %d", len(dist.P), 2*dist.Max+1)
		}
		if dist.P[0] != 1 {
			t.Errorf("p at statistic 0 = %g, want 1", dist.P[0])
		}
		for k, p := range dist.P {
			if p <= 0 || p > 1 {
				t.Errorf("p[%d] = %g out of (0, 1]", k, p)
			}
			if k > 0 && p > dist.P[k-1]+1e-15 {
				t.Errorf("p not monotone at index %d: %g > %g", k, p, dist.P[k-1])
			}
		}
	}
}

func TestHalfIntegerInterpolation(t *testing.T) {
	dist := Build(mustDesign(t, 4, 2), false)
	for j := 0; j < dist.Max; j++ {
		want := (dist.P[2*j] + dist.P[2*j+2]) / 2
		if math.Abs(dist.P[2*j+1]-want) > 1e-15 {
			t.Errorf("half-integer p at %g = %g, want midpoint %g", float64(j)+0.5, dist.P[2*j+1], want)
		}
	}
}

func TestSingleGroupYieldsTrivialTable(t *testing.T) {
	// Constructors refuse single-timepoint designs, but the builder must
	// still resolve one to the trivial table rather than fail.
	design := rhythm.ExperimentDesign{GroupSizes: []int{3}, Replicates: 3, Interval: 1, Periods: []int{1}}
	dist := Build(design, false)
	if !dist.Exact {
		t.Fatal("expected exact mode")
	}
	if dist.Max != 0 {
		t.Fatalf("max statistic = %d, want 0", dist.Max)
	}
	if len(dist.P) != 1 || dist.P[0] != 1 {
		t.Fatalf("table = %v, want [1]", dist.P)
	}
	if got := dist.UpperTail(0); got != 1 {
		t.Errorf("upper tail at 0 = %g, want 1", got)
	}
}

func TestForceNormal(t *testing.T) {
	design := mustDesign(t, 4, 3)
	dist := Build(design, true)
	if dist.Exact {
		t.Fatal("forceNormal must disable the exact table")
	}
	if len(dist.P) != 0 {
		t.Errorf("normal mode should carry no table, got %d entries", len(dist.P))
	}
	if want := float64(dist.Max) / 2; dist.Mean != want {
		t.Errorf("mean = %g, want M/2 = %g", dist.Mean, want)
	}
	if dist.StdDev <= 0 {
		t.Errorf("standard deviation = %g, want positive", dist.StdDev)
	}
}

// Normal approximation should agree with the exact table on ordering across
// the statistic range for a small design.
func TestNormalAgreesWithExactOrdering(t *testing.T) {
	design := mustDesign(t, 4, 3)
	exactDist := Build(design, false)
	normDist := Build(design, true)

	prevExact, prevNorm := 1.0, 1.0
	for j := 1; j <= exactDist.Max; j++ {
		pe := exactDist.UpperTail(2 * j)
		z := (float64(j) - normDist.Mean) / normDist.StdDev
		pn := 0.5 * math.Erfc(z/math.Sqrt2)
		if pe > prevExact+1e-12 || pn > prevNorm+1e-12 {
			t.Fatalf("tail probabilities not jointly decreasing at statistic %d", j)
		}
		prevExact, prevNorm = pe, pn
	}
}
