package engine

import "context"

// ContextState is the lifecycle state of an audio backend.
type ContextState int

const (
	StateSuspended ContextState = iota
	StateRunning
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Waveform selects an oscillator shape. Binaural synthesis only ever uses
// sine (beat perception needs pure tones), but the backend contract keeps the
// knob explicit.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveSquare   Waveform = "square"
	WaveTriangle Waveform = "triangle"
	WaveSawtooth Waveform = "sawtooth"
)

// Param is a scheduled audio parameter. All times are in seconds on the
// backend's own monotonic clock (Backend.Now).
type Param interface {
	// SetValueAtTime pins the parameter to value at time at.
	SetValueAtTime(value, at float64)
	// ExponentialRampToValueAtTime ramps exponentially from the previous
	// event's value to value, arriving at time end. The target must be
	// non-zero for the curve to be defined.
	ExponentialRampToValueAtTime(value, end float64)
	// SetTargetAtTime starts an exponential approach toward target at time
	// start with the given time constant.
	SetTargetAtTime(target, start, timeConstant float64)
	// Value returns the parameter's current value.
	Value() float64
}

// Node is a routable element of the rendering graph.
type Node interface {
	// Connect routes this node's output into dst.
	Connect(dst Node) error
	// Disconnect severs all outgoing routes. Safe to call repeatedly and
	// after the backend closed.
	Disconnect()
}

// Oscillator is a tone generator node.
type Oscillator interface {
	Node
	SetWaveform(w Waveform)
	Frequency() Param
	// Start schedules sample generation from time at. Times in the past are
	// treated as now.
	Start(at float64)
	// Stop schedules the generator to end at time at, clamped to now if
	// already past. Idempotent: stopping a stopped oscillator is a no-op.
	Stop(at float64)
}

// Gain is an amplitude-scaling node.
type Gain interface {
	Node
	Gain() Param
}

// Panner is a fixed stereo position node. Pan is set at construction; the
// engine only ever needs hard left and hard right.
type Panner interface {
	Node
}

// Backend is the real-time audio subsystem the engine schedules against.
// Implementations: synth.Backend (software renderer) for production, a
// recording fake for tests.
type Backend interface {
	// State reports the backend lifecycle state.
	State() ContextState
	// Resume leaves the suspended state. May block on the host audio device,
	// hence the context.
	Resume(ctx context.Context) error
	// Now returns the backend's monotonic clock in seconds. All scheduling
	// times are relative to this clock, never wall time.
	Now() float64

	NewOscillator() (Oscillator, error)
	NewGain() (Gain, error)
	// NewPanner creates a fixed panner; pan is -1 (hard left) to 1 (hard
	// right).
	NewPanner(pan float64) (Panner, error)
	// Destination is the terminal mix node.
	Destination() Node

	// Close releases the backend. Terminal; all node constructors fail
	// afterwards.
	Close() error
}
