package dice

import (
	"math/rand/v2"
	"testing"
)

func newSeededEngine(seed uint64) *Engine {
	return New(rand.New(rand.NewPCG(seed, seed)))
}

func TestRollInvariants(t *testing.T) {
	t.Parallel()
	specs := []PoolSpec{
		{Modifier: 0, BonusDice: 0, PenaltyDice: 0},
		{Modifier: 1, BonusDice: 2, PenaltyDice: 0},
		{Modifier: -1, BonusDice: 0, PenaltyDice: 3},
		{Modifier: 2, BonusDice: 1, PenaltyDice: 1},
	}
	e := newSeededEngine(42)
	for _, spec := range specs {
		for i := 0; i < 200; i++ {
			res := e.Roll(spec)
			net := spec.BonusDice - spec.PenaltyDice
			abs := net
			if abs < 0 {
				abs = -abs
			}
			wantCount := 2 + abs
			if len(res.AllRolls) != wantCount {
				t.Fatalf("spec %+v: len(AllRolls) = %d, want %d", spec, len(res.AllRolls), wantCount)
			}
			if len(res.KeptRolls) != 2 {
				t.Fatalf("spec %+v: len(KeptRolls) = %d, want 2", spec, len(res.KeptRolls))
			}
			if len(res.DroppedRolls) > 0 {
				if net >= 0 {
					if sliceMin(res.KeptRolls) < sliceMax(res.DroppedRolls) {
						t.Fatalf("spec %+v: min(kept)=%d < max(dropped)=%d with net>=0", spec, sliceMin(res.KeptRolls), sliceMax(res.DroppedRolls))
					}
				} else {
					if sliceMax(res.KeptRolls) > sliceMin(res.DroppedRolls) {
						t.Fatalf("spec %+v: max(kept)=%d > min(dropped)=%d with net<0", spec, sliceMax(res.KeptRolls), sliceMin(res.DroppedRolls))
					}
				}
			}
			wantTotal := res.KeptRolls[0] + res.KeptRolls[1] + spec.Modifier
			if res.Total != wantTotal {
				t.Fatalf("spec %+v: Total = %d, want %d", spec, res.Total, wantTotal)
			}
			if want := bucket(res.Total); res.Outcome != want {
				t.Fatalf("total %d: Outcome = %q, want %q", res.Total, res.Outcome, want)
			}
		}
	}
}

func TestFormula(t *testing.T) {
	t.Parallel()
	tests := []struct {
		net  int
		want string
	}{
		{0, "2d6"},
		{1, "3d6kh2"},
		{-2, "4d6kl2"},
	}
	for _, tt := range tests {
		if got := Formula(tt.net); got != tt.want {
			t.Errorf("Formula(%d) = %q, want %q", tt.net, got, tt.want)
		}
	}
}

func sliceMin(xs []int) int {
	m := xs[0]
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

func sliceMax(xs []int) int {
	m := xs[0]
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
