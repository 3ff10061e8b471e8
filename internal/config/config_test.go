package config

import (
	"os"
	"testing"
)

func clearEnv() {
	for _, k := range []string{
		"BINAURA_PORT", "BINAURA_MP3_BITRATE", "BINAURA_LOCAL_PLAYBACK",
		"BINAURA_DEFAULT_VOLUME", "BINAURA_DEFAULT_FADE_IN", "BINAURA_DEFAULT_FADE_OUT",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv()

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.MP3Bitrate != 192 {
		t.Errorf("MP3Bitrate = %d, want 192", cfg.MP3Bitrate)
	}
	if cfg.LocalPlayback {
		t.Error("LocalPlayback = true, want false by default")
	}
	if cfg.DefaultVolume != 50 {
		t.Errorf("DefaultVolume = %v, want 50", cfg.DefaultVolume)
	}
	if cfg.DefaultFadeIn != 2 {
		t.Errorf("DefaultFadeIn = %v, want 2", cfg.DefaultFadeIn)
	}
	if cfg.DefaultFadeOut != 2 {
		t.Errorf("DefaultFadeOut = %v, want 2", cfg.DefaultFadeOut)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BINAURA_PORT", "3000")
	t.Setenv("BINAURA_MP3_BITRATE", "128")
	t.Setenv("BINAURA_LOCAL_PLAYBACK", "true")
	t.Setenv("BINAURA_DEFAULT_VOLUME", "75.5")
	t.Setenv("BINAURA_DEFAULT_FADE_IN", "0.5")
	t.Setenv("BINAURA_DEFAULT_FADE_OUT", "10")

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.MP3Bitrate != 128 {
		t.Errorf("MP3Bitrate = %d, want 128", cfg.MP3Bitrate)
	}
	if !cfg.LocalPlayback {
		t.Error("LocalPlayback = false, want true")
	}
	if cfg.DefaultVolume != 75.5 {
		t.Errorf("DefaultVolume = %v, want 75.5", cfg.DefaultVolume)
	}
	if cfg.DefaultFadeIn != 0.5 {
		t.Errorf("DefaultFadeIn = %v, want 0.5", cfg.DefaultFadeIn)
	}
	if cfg.DefaultFadeOut != 10 {
		t.Errorf("DefaultFadeOut = %v, want 10", cfg.DefaultFadeOut)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("BINAURA_PORT", "not-a-number")
	t.Setenv("BINAURA_LOCAL_PLAYBACK", "maybe")
	t.Setenv("BINAURA_DEFAULT_VOLUME", "loud")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want fallback 8080", cfg.Port)
	}
	if cfg.LocalPlayback {
		t.Error("LocalPlayback = true, want fallback false")
	}
	if cfg.DefaultVolume != 50 {
		t.Errorf("DefaultVolume = %v, want fallback 50", cfg.DefaultVolume)
	}
}
