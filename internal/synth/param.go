package synth

import "math"

type eventKind int

const (
	evSet eventKind = iota
	evRamp
	evTarget
)

// event is one scheduled automation point. For evSet and evTarget, time is
// when the event takes effect; for evRamp it is when the ramp arrives at its
// value.
type event struct {
	kind  eventKind
	value float64
	time  float64
	tc    float64 // evTarget only
}

// automation is the scheduled value timeline of one audio parameter,
// following the usual web-audio semantics: set pins a value, ramp approaches
// it exponentially from the previous event, target decays toward it with a
// time constant. Not self-locking; the owning backend serializes access.
type automation struct {
	def    float64
	events []event
}

func newAutomation(def float64) *automation {
	return &automation{def: def}
}

// insert adds an event keeping the timeline time-ordered. Events sharing a
// timestamp keep insertion order.
func (a *automation) insert(e event) {
	i := len(a.events)
	for i > 0 && a.events[i-1].time > e.time {
		i--
	}
	a.events = append(a.events, event{})
	copy(a.events[i+1:], a.events[i:])
	a.events[i] = e
}

// valueAt evaluates the timeline at time t.
func (a *automation) valueAt(t float64) float64 {
	val := a.def
	anchorT := math.Inf(-1)
	var target *event

	for i := range a.events {
		e := &a.events[i]
		if e.kind == evRamp && e.time > t {
			// Mid-ramp: interpolate from the previous event toward e. A ramp
			// with no preceding event holds the current value until it lands.
			if math.IsInf(anchorT, -1) || t <= anchorT {
				return val
			}
			return expInterp(val, e.value, anchorT, e.time, t)
		}
		if e.time > t {
			break
		}
		switch e.kind {
		case evSet, evRamp:
			val = e.value
			anchorT = e.time
			target = nil
		case evTarget:
			target = e
			if anchorT < e.time {
				anchorT = e.time
			}
		}
	}

	if target != nil {
		return target.value + (val-target.value)*math.Exp(-(t-target.time)/target.tc)
	}
	return val
}

// expInterp computes the exponential ramp value between (t0, v0) and
// (t1, v1) at time t. Falls back to a hold when the endpoints would make the
// exponential undefined.
func expInterp(v0, v1, t0, t1, t float64) float64 {
	if t1 <= t0 {
		return v1
	}
	if v0 <= 0 || v1 <= 0 {
		return v0
	}
	frac := (t - t0) / (t1 - t0)
	return v0 * math.Pow(v1/v0, frac)
}
