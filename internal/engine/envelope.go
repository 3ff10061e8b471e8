package engine

import "github.com/satindergrewal/binaura/internal/preset"

// GainFloor is the minimum linear gain target. Exponential ramps are
// undefined at zero, so fades land here instead of true silence.
const GainFloor = 0.001

// volumeRampTime is the ramp length for live volume changes.
const volumeRampTime = 0.1

// NormalizeVolume maps a 0-100 volume to the linear gain target,
// clamped to [GainFloor, 1].
func NormalizeVolume(volume float64) float64 {
	g := volume / 100
	if g < GainFloor {
		return GainFloor
	}
	if g > 1 {
		return 1
	}
	return g
}

// envelope is the scheduled gain curve of one session, anchored at t0 on the
// backend clock.
type envelope struct {
	t0     float64
	target float64 // steady-state linear gain
	fadeIn float64 // seconds
	// stopAt is the absolute auto-stop time; zero means indefinite.
	stopAt    float64
	fadeOut   float64
	rampStart float64 // fade-out begin, stopAt - fadeOut
}

// planEnvelope computes the curve for the given settings starting at t0.
func planEnvelope(t0 float64, s preset.Settings) envelope {
	e := envelope{
		t0:     t0,
		target: NormalizeVolume(s.Volume),
		fadeIn: s.FadeIn,
	}
	if s.Duration > 0 {
		e.stopAt = t0 + s.Duration*60
		e.fadeOut = s.FadeOut
		e.rampStart = e.stopAt - s.FadeOut
		if e.rampStart < t0 {
			e.rampStart = t0
		}
	}
	return e
}

// apply programs the full curve onto one gain parameter: floor at t0, an
// exponential rise to the target over the fade-in, and, for finite sessions,
// a symmetric fall reaching the floor exactly at the stop time.
func (e envelope) apply(gain Param) {
	p := gain
	p.SetValueAtTime(GainFloor, e.t0)
	p.ExponentialRampToValueAtTime(e.target, e.t0+e.fadeIn)
	if e.stopAt > 0 {
		p.SetValueAtTime(e.target, e.rampStart)
		p.ExponentialRampToValueAtTime(GainFloor, e.stopAt)
	}
}

// schedule applies the curve to both channels and arms the auto-stop on the
// oscillators. Prior schedules on previously torn-down nodes are moot; fresh
// nodes carry only this plan.
func (e envelope) schedule(g *toneGraph) {
	e.apply(g.leftGain.Gain())
	e.apply(g.rightGain.Gain())
	if e.stopAt > 0 {
		g.leftOsc.Stop(e.stopAt)
		g.rightOsc.Stop(e.stopAt)
	}
}

// retarget moves both channels to a new steady-state target over a short
// fixed ramp. For a finite session whose fade-out has not yet begun, the
// fade-out anchor is rescheduled at the new target so the gain curve stays
// continuous through rampStart; the auto-stop time itself never moves.
func (e *envelope) retarget(g *toneGraph, now, volume float64) {
	target := NormalizeVolume(volume)
	reanchor := e.stopAt > 0 && now+volumeRampTime <= e.rampStart
	for _, p := range []Param{g.leftGain.Gain(), g.rightGain.Gain()} {
		cur := p.Value()
		if cur < GainFloor {
			cur = GainFloor
		}
		p.SetValueAtTime(cur, now)
		p.ExponentialRampToValueAtTime(target, now+volumeRampTime)
		if reanchor {
			p.SetValueAtTime(target, e.rampStart)
			p.ExponentialRampToValueAtTime(GainFloor, e.stopAt)
		}
	}
	e.target = target
}
