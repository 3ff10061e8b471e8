package engine

import "errors"

// Engine failure taxonomy. Validation errors are preset.ErrInvalidPreset and
// preset.ErrInvalidSettings; everything else lives here. Callers match with
// errors.Is.
var (
	// ErrUnsupportedBackend: no audio backend was supplied at construction.
	ErrUnsupportedBackend = errors.New("no audio backend available")
	// ErrContextUnavailable: the engine was used after Destroy.
	ErrContextUnavailable = errors.New("audio context unavailable")
	// ErrResumeFailed: the backend could not leave the suspended state.
	ErrResumeFailed = errors.New("audio context resume failed")
	// ErrStartFailed: graph construction or wiring failed. Whatever was
	// partially built has already been torn down.
	ErrStartFailed = errors.New("tone start failed")
	// ErrVolumeAdjust: volume was changed while no session is playing.
	ErrVolumeAdjust = errors.New("volume adjust failed: not playing")
)
