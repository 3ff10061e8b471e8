// Package engine drives binaural tone sessions against an injected real-time
// audio backend. It owns at most one live session at a time: starting a new
// tone while one is playing tears the old graph down completely before the
// new one is built.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/satindergrewal/binaura/internal/preset"
)

// Snapshot is a read-only view of the session state.
type Snapshot struct {
	Playing   bool             `json:"playing"`
	SessionID string           `json:"session_id,omitempty"`
	Preset    *preset.Preset   `json:"preset,omitempty"`
	Settings  *preset.Settings `json:"settings,omitempty"`
	// StartedAt and StopAt are backend-clock seconds. StopAt is zero when no
	// auto-stop is scheduled.
	StartedAt float64 `json:"started_at,omitempty"`
	StopAt    float64 `json:"stop_at,omitempty"`
}

// Engine is the session controller. All methods are safe for concurrent use;
// they serialize on one mutex so a Start racing a Stop can never leave
// dangling graph references.
type Engine struct {
	mu        sync.Mutex
	backend   Backend
	graph     *toneGraph
	destroyed bool

	sessionID string
	cur       *preset.Preset
	curSet    *preset.Settings
	env       envelope
	startedAt float64
	stopAt    float64
}

// New creates an engine bound to the given backend. The backend handle is
// owned by the engine from here on and is closed by Destroy.
func New(backend Backend) (*Engine, error) {
	if backend == nil {
		return nil, ErrUnsupportedBackend
	}
	return &Engine{backend: backend}, nil
}

// Start validates the inputs, replaces any live session, and begins playing
// the preset. It may await a backend resume when the audio subsystem is
// suspended; no other part blocks. On failure nothing is left allocated and
// the previous state is already gone (replacement teardown is unconditional).
func (e *Engine) Start(ctx context.Context, p preset.Preset, s preset.Settings) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrContextUnavailable
	}

	// At most one audible session: the old graph is fully gone before the
	// new one exists.
	e.stopLocked()

	if e.backend.State() == StateSuspended {
		if err := e.backend.Resume(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrResumeFailed, err)
		}
	}

	leftFreq := p.BaseFrequency
	rightFreq := p.BaseFrequency + p.BinauralBeat

	g, err := buildToneGraph(e.backend, leftFreq, rightFreq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	// Construction, then start, then envelope: the gain sits at the floor
	// before any sample is audible.
	t0 := e.backend.Now()
	env := planEnvelope(t0, s)
	g.start(t0)
	env.schedule(g)

	e.graph = g
	e.sessionID = uuid.NewString()
	e.cur = &p
	e.curSet = &s
	e.env = env
	e.startedAt = t0
	e.stopAt = env.stopAt

	log.Printf("Session %s: %s at %.1f Hz (beat %.1f Hz), volume %.0f",
		e.sessionID, p.ID, leftFreq, p.BinauralBeat, s.Volume)
	return nil
}

// Stop tears down the live session. Idempotent: stopping an idle engine does
// nothing. Usable even after Destroy.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// stopLocked tears down and clears the session state. Caller holds mu.
func (e *Engine) stopLocked() {
	if e.graph == nil {
		return
	}
	e.graph.teardown()
	e.graph = nil
	log.Printf("Session %s: stopped", e.sessionID)
	e.sessionID = ""
	e.cur = nil
	e.curSet = nil
	e.env = envelope{}
	e.startedAt = 0
	e.stopAt = 0
}

// SetVolume ramps the live session to a new volume over a short fixed ramp.
// A scheduled fade-out is re-anchored at the new level so the curve stays
// continuous; the auto-stop time never moves. Fails when nothing is playing.
func (e *Engine) SetVolume(volume float64) error {
	if volume < 0 || volume > preset.MaxVolume {
		return fmt.Errorf("%w: volume %.1f outside [0, %.0f]",
			preset.ErrInvalidSettings, volume, preset.MaxVolume)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrContextUnavailable
	}
	if e.graph == nil {
		return ErrVolumeAdjust
	}
	e.env.retarget(e.graph, e.backend.Now(), volume)
	if e.curSet != nil {
		updated := *e.curSet
		updated.Volume = volume
		e.curSet = &updated
	}
	return nil
}

// State returns a snapshot of the session. Never blocks on audio; scheduled
// auto-stops are graph-level, so Playing stays true after one fires until
// Stop is called.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := Snapshot{
		Playing:   e.graph != nil,
		SessionID: e.sessionID,
		StartedAt: e.startedAt,
		StopAt:    e.stopAt,
	}
	if e.cur != nil {
		p := *e.cur
		snap.Preset = &p
	}
	if e.curSet != nil {
		s := *e.curSet
		snap.Settings = &s
	}
	return snap
}

// Destroy stops any session and closes the backend handle. Terminal and
// idempotent; after Destroy every Start or SetVolume fails with
// ErrContextUnavailable.
func (e *Engine) Destroy() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}
	e.stopLocked()
	if err := e.backend.Close(); err != nil {
		log.Printf("Backend close: non-fatal: %v", err)
	}
	e.destroyed = true
}
