package simtime

import (
	"math"
	"testing"
)

func TestStepsRoundsToNearest(t *testing.T) {
	res := Resolution(0.1)

	if got := Timestamp(1.0).Steps(res); got != 10 {
		t.Fatalf("expected 10 steps for 1.0ms at 0.1ms, got %d", got)
	}
	// 0.1 is not exactly representable; rounding must absorb the error.
	if got := Timestamp(0.30000000000000004).Steps(res); got != 3 {
		t.Fatalf("expected 3 steps, got %d", got)
	}
}

func TestFromStepsRoundTrip(t *testing.T) {
	res := Resolution(0.5)
	for _, steps := range []int64{0, 1, 7, 1000} {
		ts := FromSteps(steps, res)
		if got := ts.Steps(res); got != steps {
			t.Fatalf("round trip failed for %d steps: got %d", steps, got)
		}
	}
}

func TestSentinelIsNotFinite(t *testing.T) {
	if Sentinel().IsFinite() {
		t.Fatalf("sentinel must not be finite")
	}
	if !Timestamp(3.5).IsFinite() {
		t.Fatalf("3.5ms should be finite")
	}
	if Timestamp(math.Inf(1)).IsFinite() {
		t.Fatalf("+Inf should not be finite")
	}
}

func TestSnapToStep(t *testing.T) {
	snapped, steps := SnapToStep(1.3, Resolution(1.0))
	if steps != 1 {
		t.Fatalf("expected 1 step, got %d", steps)
	}
	if snapped != 1.0 {
		t.Fatalf("expected snap to 1.0, got %g", snapped)
	}

	snapped, steps = SnapToStep(2.0, Resolution(0.1))
	if steps != 20 || math.Abs(snapped-2.0) > 1e-12 {
		t.Fatalf("expected 20 steps at 2.0ms, got %d at %g", steps, snapped)
	}
}
