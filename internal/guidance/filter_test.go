package guidance

import (
	"math"
	"testing"
)

func targetsClose(a, b Target, tol float64) bool {
	return math.Abs(a.Lat-b.Lat) <= tol &&
		math.Abs(a.Lon-b.Lon) <= tol &&
		math.Abs(a.Alt-b.Alt) <= tol
}

func TestFilterAlphaOnePassesThrough(t *testing.T) {
	var f TargetFilter
	inputs := []Target{
		{10.0, 20.0, 50},
		{10.1, 20.1, 60},
		{9.9, 19.9, 40},
	}
	for _, in := range inputs {
		if got := f.Apply(in, 1.0); got != in {
			t.Errorf("alpha=1: Apply(%v) = %v", in, got)
		}
	}
}

func TestFilterAlphaZeroFreezesAfterFirst(t *testing.T) {
	var f TargetFilter
	first := Target{10.0, 20.0, 50}
	if got := f.Apply(first, 0.0); got != first {
		t.Fatalf("first apply = %v, want input", got)
	}
	for _, in := range []Target{{11, 21, 60}, {12, 22, 70}} {
		if got := f.Apply(in, 0.0); got != first {
			t.Errorf("alpha=0: output moved to %v", got)
		}
	}
}

func TestFilterConvergesToward(t *testing.T) {
	var f TargetFilter
	f.Apply(Target{10.0, 20.0, 50}, 0.5)
	got := f.Apply(Target{10.2, 20.2, 70}, 0.5)
	want := Target{10.1, 20.1, 60}
	if !targetsClose(got, want, 1e-12) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilterResetDropsHistory(t *testing.T) {
	var f TargetFilter
	f.Apply(Target{10.0, 20.0, 50}, 0.5)
	f.Apply(Target{10.2, 20.2, 70}, 0.5)
	f.Reset()
	in := Target{30.0, 40.0, 80}
	if got := f.Apply(in, 0.5); got != in {
		t.Errorf("post-reset apply = %v, want input %v exactly", got, in)
	}
}

func TestFilterNegativeAlphaClamped(t *testing.T) {
	var f TargetFilter
	first := Target{10.0, 20.0, 50}
	f.Apply(first, -0.5)
	if got := f.Apply(Target{11, 21, 60}, -0.5); got != first {
		t.Errorf("negative alpha must behave as 0: got %v", got)
	}
}
