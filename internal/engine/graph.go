package engine

import (
	"fmt"
	"log"
)

// toneGraph owns the live audio nodes of one session: per channel an
// oscillator feeding a gain feeding a fixed hard panner into the destination.
// The graph is built whole or not at all; a wiring failure unwinds every node
// allocated so far.
type toneGraph struct {
	leftOsc, rightOsc   Oscillator
	leftGain, rightGain Gain
	leftPan, rightPan   Panner
}

// buildToneGraph allocates and wires both channels. leftFreq carries the base
// frequency, rightFreq carries base plus beat offset. Oscillators are not
// started; the caller starts them after wiring so no sound escapes before the
// envelope is in place.
func buildToneGraph(b Backend, leftFreq, rightFreq float64) (*toneGraph, error) {
	g := &toneGraph{}
	if err := g.buildChannel(b, leftFreq, -1, &g.leftOsc, &g.leftGain, &g.leftPan); err != nil {
		g.teardown()
		return nil, err
	}
	if err := g.buildChannel(b, rightFreq, 1, &g.rightOsc, &g.rightGain, &g.rightPan); err != nil {
		g.teardown()
		return nil, err
	}
	return g, nil
}

func (g *toneGraph) buildChannel(b Backend, freq, pan float64, osc *Oscillator, gain *Gain, panner *Panner) error {
	o, err := b.NewOscillator()
	if err != nil {
		return fmt.Errorf("oscillator: %w", err)
	}
	*osc = o
	o.SetWaveform(WaveSine)
	o.Frequency().SetValueAtTime(freq, b.Now())

	gn, err := b.NewGain()
	if err != nil {
		return fmt.Errorf("gain: %w", err)
	}
	*gain = gn

	p, err := b.NewPanner(pan)
	if err != nil {
		return fmt.Errorf("panner: %w", err)
	}
	*panner = p

	if err := o.Connect(gn); err != nil {
		return fmt.Errorf("wire oscillator->gain: %w", err)
	}
	if err := gn.Connect(p); err != nil {
		return fmt.Errorf("wire gain->panner: %w", err)
	}
	if err := p.Connect(b.Destination()); err != nil {
		return fmt.Errorf("wire panner->destination: %w", err)
	}
	return nil
}

// start begins sample generation on both oscillators at time at.
func (g *toneGraph) start(at float64) {
	g.leftOsc.Start(at)
	g.rightOsc.Start(at)
}

// teardown releases the graph in shutdown order: stop generators, disconnect
// generators, disconnect gains, disconnect panners, drop the handles. Stop is
// idempotent on the backend contract, and each step runs even when an earlier
// one fails, so a partial graph tears down the same way as a live one.
func (g *toneGraph) teardown() {
	if g.leftOsc != nil {
		safeStep("stop left oscillator", func() { g.leftOsc.Stop(0) })
	}
	if g.rightOsc != nil {
		safeStep("stop right oscillator", func() { g.rightOsc.Stop(0) })
	}
	if g.leftOsc != nil {
		safeStep("disconnect left oscillator", g.leftOsc.Disconnect)
	}
	if g.rightOsc != nil {
		safeStep("disconnect right oscillator", g.rightOsc.Disconnect)
	}
	if g.leftGain != nil {
		safeStep("disconnect left gain", g.leftGain.Disconnect)
	}
	if g.rightGain != nil {
		safeStep("disconnect right gain", g.rightGain.Disconnect)
	}
	if g.leftPan != nil {
		safeStep("disconnect left panner", g.leftPan.Disconnect)
	}
	if g.rightPan != nil {
		safeStep("disconnect right panner", g.rightPan.Disconnect)
	}
	g.leftOsc, g.rightOsc = nil, nil
	g.leftGain, g.rightGain = nil, nil
	g.leftPan, g.rightPan = nil, nil
}

// safeStep runs one teardown step, logging instead of propagating a panic so
// the remaining steps still run.
func safeStep(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Teardown %s: non-fatal: %v", name, r)
		}
	}()
	fn()
}
