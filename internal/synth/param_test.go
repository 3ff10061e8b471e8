package synth

import (
	"math"
	"testing"
)

func almost(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestAutomationDefault(t *testing.T) {
	a := newAutomation(440)
	if got := a.valueAt(0); got != 440 {
		t.Errorf("valueAt(0) = %v, want default 440", got)
	}
	if got := a.valueAt(1000); got != 440 {
		t.Errorf("valueAt(1000) = %v, want default 440", got)
	}
}

func TestAutomationSetValue(t *testing.T) {
	a := newAutomation(1)
	a.insert(event{kind: evSet, value: 0.25, time: 5})
	if got := a.valueAt(4.99); got != 1 {
		t.Errorf("before set: %v, want 1", got)
	}
	if got := a.valueAt(5); got != 0.25 {
		t.Errorf("at set: %v, want 0.25", got)
	}
	if got := a.valueAt(100); got != 0.25 {
		t.Errorf("after set: %v, want 0.25", got)
	}
}

func TestAutomationExponentialRamp(t *testing.T) {
	// Floor at t=0, ramp to 0.5 arriving t=2: the fade-in curve.
	a := newAutomation(1)
	a.insert(event{kind: evSet, value: 0.001, time: 0})
	a.insert(event{kind: evRamp, value: 0.5, time: 2})

	if got := a.valueAt(0); got != 0.001 {
		t.Errorf("ramp start: %v, want 0.001", got)
	}
	// Midpoint of an exponential ramp is the geometric mean.
	want := math.Sqrt(0.001 * 0.5)
	if got := a.valueAt(1); !almost(got, want, 1e-9) {
		t.Errorf("ramp midpoint: %v, want %v", got, want)
	}
	if got := a.valueAt(2); got != 0.5 {
		t.Errorf("ramp end: %v, want 0.5", got)
	}
	if got := a.valueAt(3); got != 0.5 {
		t.Errorf("after ramp: %v, want 0.5", got)
	}
}

func TestAutomationRampMonotonic(t *testing.T) {
	a := newAutomation(1)
	a.insert(event{kind: evSet, value: 0.001, time: 0})
	a.insert(event{kind: evRamp, value: 1, time: 10})
	prev := 0.0
	for i := 0; i <= 100; i++ {
		tt := float64(i) / 10
		v := a.valueAt(tt)
		if v < prev {
			t.Fatalf("ramp not monotonic at t=%v: %v < %v", tt, v, prev)
		}
		prev = v
	}
}

func TestAutomationFullEnvelope(t *testing.T) {
	// The shape the engine schedules: floor, fade-in, hold, fade-out.
	a := newAutomation(1)
	a.insert(event{kind: evSet, value: 0.001, time: 0})
	a.insert(event{kind: evRamp, value: 0.5, time: 2})
	a.insert(event{kind: evSet, value: 0.5, time: 58})
	a.insert(event{kind: evRamp, value: 0.001, time: 60})

	if got := a.valueAt(30); got != 0.5 {
		t.Errorf("sustain: %v, want 0.5", got)
	}
	if got := a.valueAt(59); !almost(got, math.Sqrt(0.5*0.001), 1e-9) {
		t.Errorf("fade-out midpoint: %v", got)
	}
	if got := a.valueAt(60); got != 0.001 {
		t.Errorf("fade-out end: %v, want floor", got)
	}
}

func TestAutomationSetTarget(t *testing.T) {
	a := newAutomation(1)
	a.insert(event{kind: evSet, value: 1, time: 0})
	a.insert(event{kind: evTarget, value: 0, time: 2, tc: 1})

	if got := a.valueAt(2); !almost(got, 1, 1e-9) {
		t.Errorf("target start: %v, want 1", got)
	}
	want := math.Exp(-1) // 1 -> 0 after one time constant
	if got := a.valueAt(3); !almost(got, want, 1e-9) {
		t.Errorf("one tc later: %v, want %v", got, want)
	}
	if got := a.valueAt(20); !almost(got, 0, 1e-6) {
		t.Errorf("long after: %v, want ~0", got)
	}
}

func TestAutomationInsertKeepsOrder(t *testing.T) {
	a := newAutomation(1)
	a.insert(event{kind: evSet, value: 3, time: 30})
	a.insert(event{kind: evSet, value: 1, time: 10})
	a.insert(event{kind: evSet, value: 2, time: 20})

	for i := 1; i < len(a.events); i++ {
		if a.events[i].time < a.events[i-1].time {
			t.Fatalf("events out of order: %+v", a.events)
		}
	}
	if got := a.valueAt(25); got != 2 {
		t.Errorf("valueAt(25) = %v, want 2", got)
	}
}

func TestAutomationRampWithoutAnchorHolds(t *testing.T) {
	a := newAutomation(0.3)
	a.insert(event{kind: evRamp, value: 1, time: 10})
	if got := a.valueAt(5); got != 0.3 {
		t.Errorf("mid-ramp with no anchor: %v, want default hold", got)
	}
	if got := a.valueAt(10); got != 1 {
		t.Errorf("ramp end: %v, want 1", got)
	}
}

func TestExpInterpDegenerate(t *testing.T) {
	// Zero-length ramp jumps to the target.
	if got := expInterp(0.1, 0.9, 5, 5, 5); got != 0.9 {
		t.Errorf("zero-length ramp: %v, want 0.9", got)
	}
	// Non-positive endpoint holds instead of going complex.
	if got := expInterp(0, 0.9, 0, 1, 0.5); got != 0 {
		t.Errorf("zero start: %v, want hold at 0", got)
	}
}
