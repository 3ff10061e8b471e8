package config

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Streaming
	MP3Bitrate int // kbit/s for the HTTP stream encoder

	// Local output
	LocalPlayback bool // play on the host audio device as well

	// Session defaults, used when a start request omits settings
	DefaultVolume  float64 // 0-100
	DefaultFadeIn  float64 // seconds
	DefaultFadeOut float64 // seconds
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:           envInt("BINAURA_PORT", 8080),
		MP3Bitrate:     envInt("BINAURA_MP3_BITRATE", 192),
		LocalPlayback:  envBool("BINAURA_LOCAL_PLAYBACK", false),
		DefaultVolume:  envFloat("BINAURA_DEFAULT_VOLUME", 50),
		DefaultFadeIn:  envFloat("BINAURA_DEFAULT_FADE_IN", 2),
		DefaultFadeOut: envFloat("BINAURA_DEFAULT_FADE_OUT", 2),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
