package preset

import (
	"errors"
	"fmt"
)

// Validation errors. Callers match with errors.Is.
var (
	ErrInvalidPreset   = errors.New("invalid preset")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Frequency and settings ranges accepted by the engine.
const (
	MinBaseFrequency = 1.0
	MaxBaseFrequency = 20000.0
	MaxBinauralBeat  = 100.0
	MaxVolume        = 100.0
	MaxDuration      = 480.0 // minutes
	MaxFade          = 60.0  // seconds
)

// Category groups presets by tradition. The engine treats all categories
// identically; the value is carried for callers.
type Category string

const (
	CategorySolfeggio Category = "solfeggio"
	CategoryRife      Category = "rife"
	CategoryBrainwave Category = "brainwave"
	CategoryPlanetary Category = "planetary"
	CategoryChakra    Category = "chakra"
	CategoryCustom    Category = "custom"
)

// IsValidCategory reports whether c is a known preset category.
func IsValidCategory(c Category) bool {
	switch c {
	case CategorySolfeggio, CategoryRife, CategoryBrainwave,
		CategoryPlanetary, CategoryChakra, CategoryCustom:
		return true
	}
	return false
}

// Preset describes one binaural tone: the carrier frequency on the left
// channel and the beat offset added to the right channel.
type Preset struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Category      Category          `json:"category"`
	BaseFrequency float64           `json:"base_frequency"` // Hz
	BinauralBeat  float64           `json:"binaural_beat"`  // Hz, 0 = monaural
	Description   string            `json:"description,omitempty"`
	Benefits      []string          `json:"benefits,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Validate checks the preset invariants. It is pure and allocates nothing on
// the happy path; the engine calls it before touching any audio resource.
func (p Preset) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPreset)
	}
	if p.BaseFrequency < MinBaseFrequency || p.BaseFrequency > MaxBaseFrequency {
		return fmt.Errorf("%w: base frequency %.2f Hz outside [%.0f, %.0f]",
			ErrInvalidPreset, p.BaseFrequency, MinBaseFrequency, MaxBaseFrequency)
	}
	if p.BinauralBeat < 0 || p.BinauralBeat > MaxBinauralBeat {
		return fmt.Errorf("%w: binaural beat %.2f Hz outside [0, %.0f]",
			ErrInvalidPreset, p.BinauralBeat, MaxBinauralBeat)
	}
	return nil
}

// Settings controls one playback session.
type Settings struct {
	Volume   float64 `json:"volume"`   // 0-100
	Duration float64 `json:"duration"` // minutes, 0 = play until stopped
	FadeIn   float64 `json:"fade_in"`  // seconds
	FadeOut  float64 `json:"fade_out"` // seconds
}

// Validate range-checks all four fields together.
func (s Settings) Validate() error {
	if s.Volume < 0 || s.Volume > MaxVolume {
		return fmt.Errorf("%w: volume %.1f outside [0, %.0f]",
			ErrInvalidSettings, s.Volume, MaxVolume)
	}
	if s.Duration < 0 || s.Duration > MaxDuration {
		return fmt.Errorf("%w: duration %.1f min outside [0, %.0f]",
			ErrInvalidSettings, s.Duration, MaxDuration)
	}
	if s.FadeIn < 0 || s.FadeIn > MaxFade {
		return fmt.Errorf("%w: fade-in %.1f s outside [0, %.0f]",
			ErrInvalidSettings, s.FadeIn, MaxFade)
	}
	if s.FadeOut < 0 || s.FadeOut > MaxFade {
		return fmt.Errorf("%w: fade-out %.1f s outside [0, %.0f]",
			ErrInvalidSettings, s.FadeOut, MaxFade)
	}
	return nil
}
