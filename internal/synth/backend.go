// Package synth is a software implementation of the engine's audio backend:
// a scheduled stereo rendering graph producing interleaved int16 PCM frames
// in real time. Oscillators are phase-accumulator generators; parameters
// follow scheduled automation timelines; the graph clock is seconds of audio
// rendered, so it is monotonic and immune to wall-clock adjustments.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/satindergrewal/binaura/internal/audio"
	"github.com/satindergrewal/binaura/internal/engine"
)

var errClosed = errors.New("synth backend closed")

// Backend renders its node graph to 20 ms PCM frames. Create with New, drive
// with Run, consume Frames. Starts suspended: the clock does not advance and
// silence is emitted until Resume.
type Backend struct {
	mu    sync.Mutex
	state engine.ContextState
	clock float64 // seconds of audio rendered
	oscs  []*oscillator
	dest  destNode

	frameCh chan []int16
}

// New creates a suspended backend.
func New() *Backend {
	return &Backend{
		state:   engine.StateSuspended,
		frameCh: make(chan []int16, 100),
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each). Closed when
// Run ends.
func (b *Backend) Frames() <-chan []int16 {
	return b.frameCh
}

// State reports the backend lifecycle state.
func (b *Backend) State() engine.ContextState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Resume leaves the suspended state. Fails if the backend is closed or the
// context is already cancelled.
func (b *Backend) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == engine.StateClosed {
		return errClosed
	}
	b.state = engine.StateRunning
	return nil
}

// Suspend halts the clock; the render loop emits silence until Resume.
func (b *Backend) Suspend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == engine.StateRunning {
		b.state = engine.StateSuspended
	}
}

// Now returns the graph clock in seconds.
func (b *Backend) Now() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

// Close is terminal: the render loop ends and node constructors fail.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = engine.StateClosed
	return nil
}

// NewOscillator allocates a sine generator node.
func (b *Backend) NewOscillator() (engine.Oscillator, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == engine.StateClosed {
		return nil, errClosed
	}
	o := &oscillator{
		b:       b,
		wave:    engine.WaveSine,
		freq:    &param{b: b, a: newAutomation(440)},
		startAt: math.Inf(1),
	}
	b.oscs = append(b.oscs, o)
	return o, nil
}

// NewGain allocates an amplitude node with unity gain.
func (b *Backend) NewGain() (engine.Gain, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == engine.StateClosed {
		return nil, errClosed
	}
	return &gainNode{b: b, gain: &param{b: b, a: newAutomation(1)}}, nil
}

// NewPanner allocates a fixed stereo position node; pan is -1 (hard left) to
// 1 (hard right).
func (b *Backend) NewPanner(pan float64) (engine.Panner, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == engine.StateClosed {
		return nil, errClosed
	}
	if pan < -1 || pan > 1 {
		return nil, fmt.Errorf("pan %v outside [-1, 1]", pan)
	}
	return &pannerNode{b: b, pan: pan}, nil
}

// Destination returns the terminal mix node.
func (b *Backend) Destination() engine.Node {
	return &b.dest
}

// Run renders frames at real-time rate until ctx is cancelled or the backend
// is closed. Blocks; run in a goroutine.
func (b *Backend) Run(ctx context.Context) {
	defer close(b.frameCh)

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, ok := b.renderFrame()
		if !ok {
			return
		}
		select {
		case b.frameCh <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// renderFrame produces one 20 ms frame. Returns ok=false once closed.
func (b *Backend) renderFrame() ([]int16, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case engine.StateClosed:
		return nil, false
	case engine.StateSuspended:
		return audio.SilentFrame(), true
	}

	b.pruneOscillators()

	mixL := make([]float64, audio.FrameSize)
	mixR := make([]float64, audio.FrameSize)

	for _, o := range b.oscs {
		gains, pan, routed := b.route(o)
		step := 1.0 / audio.SampleRate
		for i := 0; i < audio.FrameSize; i++ {
			t := b.clock + float64(i)*step
			if !o.runningAt(t) {
				continue
			}
			f := o.freq.a.valueAt(t)
			s := o.sample()
			o.advance(f * step)
			if !routed {
				continue
			}
			for _, g := range gains {
				s *= g.gain.a.valueAt(t)
			}
			mixL[i] += s * (1 - pan) / 2
			mixR[i] += s * (1 + pan) / 2
		}
	}

	frame := make([]int16, audio.FrameSamples)
	for i := 0; i < audio.FrameSize; i++ {
		frame[i*2] = audio.FloatToPCM(mixL[i])
		frame[i*2+1] = audio.FloatToPCM(mixR[i])
	}
	b.clock += audio.FrameDuration.Seconds()
	return frame, true
}

// pruneOscillators drops generators whose stop time has passed, so a
// long-lived backend does not accumulate dead nodes across sessions. Caller
// holds the lock.
func (b *Backend) pruneOscillators() {
	kept := b.oscs[:0]
	for _, o := range b.oscs {
		if o.stopped && o.stopAt <= b.clock {
			continue
		}
		kept = append(kept, o)
	}
	for i := len(kept); i < len(b.oscs); i++ {
		b.oscs[i] = nil
	}
	b.oscs = kept
}

// route walks an oscillator's chain to the destination, collecting gain
// stages and the stereo position. A chain that does not reach the
// destination is inaudible but still advances phase.
func (b *Backend) route(o *oscillator) (gains []*gainNode, pan float64, ok bool) {
	n := o.out
	for hops := 0; n != nil && hops < 8; hops++ {
		switch v := n.(type) {
		case *gainNode:
			gains = append(gains, v)
			n = v.out
		case *pannerNode:
			pan = v.pan
			n = v.out
		case *destNode:
			return gains, pan, true
		default:
			return nil, 0, false
		}
	}
	return nil, 0, false
}

// --- nodes ---

// param adapts an automation timeline to the engine.Param contract,
// serializing on the backend lock.
type param struct {
	b *Backend
	a *automation
}

func (p *param) SetValueAtTime(value, at float64) {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.a.insert(event{kind: evSet, value: value, time: at})
}

func (p *param) ExponentialRampToValueAtTime(value, end float64) {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	if value <= 0 {
		log.Printf("Synth: exponential ramp target %v clamped to positive floor", value)
		value = 1e-4
	}
	p.a.insert(event{kind: evRamp, value: value, time: end})
}

func (p *param) SetTargetAtTime(target, start, timeConstant float64) {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.a.insert(event{kind: evTarget, value: target, time: start, tc: timeConstant})
}

func (p *param) Value() float64 {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	return p.a.valueAt(p.b.clock)
}

type oscillator struct {
	b       *Backend
	out     engine.Node
	wave    engine.Waveform
	freq    *param
	phase   float64
	startAt float64 // +Inf until Start
	stopAt  float64
	stopped bool // stopAt armed
}

func (o *oscillator) Connect(dst engine.Node) error {
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	if o.b.state == engine.StateClosed {
		return errClosed
	}
	o.out = dst
	return nil
}

func (o *oscillator) Disconnect() {
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	o.out = nil
}

func (o *oscillator) SetWaveform(w engine.Waveform) {
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	o.wave = w
}

func (o *oscillator) Frequency() engine.Param { return o.freq }

func (o *oscillator) Start(at float64) {
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	if at < o.b.clock {
		at = o.b.clock
	}
	if o.startAt == math.Inf(1) {
		o.startAt = at
	}
}

func (o *oscillator) Stop(at float64) {
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	if at < o.b.clock {
		at = o.b.clock
	}
	if o.stopped && o.stopAt <= o.b.clock {
		return // already ended; stop is idempotent
	}
	o.stopAt = at
	o.stopped = true
}

// runningAt reports whether the generator produces samples at time t. Caller
// holds the backend lock.
func (o *oscillator) runningAt(t float64) bool {
	if t < o.startAt {
		return false
	}
	if o.stopped && t >= o.stopAt {
		return false
	}
	return true
}

// sample evaluates the waveform at the current phase.
func (o *oscillator) sample() float64 {
	switch o.wave {
	case engine.WaveSquare:
		if o.phase < 0.5 {
			return 1
		}
		return -1
	case engine.WaveTriangle:
		return 1 - 4*math.Abs(o.phase-0.5)
	case engine.WaveSawtooth:
		return 2*o.phase - 1
	default:
		return math.Sin(2 * math.Pi * o.phase)
	}
}

// advance moves the phase accumulator by one sample step, wrapping at 1.
func (o *oscillator) advance(step float64) {
	_, o.phase = math.Modf(o.phase + step)
}

type gainNode struct {
	b    *Backend
	out  engine.Node
	gain *param
}

func (g *gainNode) Connect(dst engine.Node) error {
	g.b.mu.Lock()
	defer g.b.mu.Unlock()
	if g.b.state == engine.StateClosed {
		return errClosed
	}
	g.out = dst
	return nil
}

func (g *gainNode) Disconnect() {
	g.b.mu.Lock()
	defer g.b.mu.Unlock()
	g.out = nil
}

func (g *gainNode) Gain() engine.Param { return g.gain }

type pannerNode struct {
	b   *Backend
	out engine.Node
	pan float64
}

func (p *pannerNode) Connect(dst engine.Node) error {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	if p.b.state == engine.StateClosed {
		return errClosed
	}
	p.out = dst
	return nil
}

func (p *pannerNode) Disconnect() {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.out = nil
}

type destNode struct{}

func (*destNode) Connect(engine.Node) error { return nil }
func (*destNode) Disconnect()               {}
