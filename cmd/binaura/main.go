package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/satindergrewal/binaura/internal/config"
	"github.com/satindergrewal/binaura/internal/engine"
	"github.com/satindergrewal/binaura/internal/playback"
	"github.com/satindergrewal/binaura/internal/preset"
	"github.com/satindergrewal/binaura/internal/stream"
	"github.com/satindergrewal/binaura/internal/synth"
)

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("binaura starting up...")

	// Software rendering backend: produces 20ms PCM frames in real time.
	backend := synth.New()
	go backend.Run(ctx)

	eng, err := engine.New(backend)
	if err != nil {
		log.Fatalf("Engine init: %v", err)
	}
	defer eng.Destroy()

	// Broadcaster: fan-out rendered frames to all listeners
	broadcaster := stream.NewBroadcaster()
	go broadcaster.Run(ctx, backend.Frames())

	// Optional local speaker output
	if cfg.LocalPlayback {
		speaker, err := playback.NewSpeaker(broadcaster)
		if err != nil {
			log.Printf("Local playback unavailable: %v", err)
		} else {
			speaker.Start()
			defer speaker.Close()
			log.Println("Local playback enabled")
		}
	}

	webrtcHandler := stream.NewWebRTCHandler(broadcaster)

	// HTTP routes
	mux := http.NewServeMux()

	// Audio streams
	mux.Handle("/stream", stream.NewHTTPHandler(broadcaster, cfg.MP3Bitrate))
	mux.Handle("/offer", webrtcHandler)

	// API endpoints
	mux.HandleFunc("/api/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Preset   preset.Preset    `json:"preset"`
			Settings *preset.Settings `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		settings := preset.Settings{
			Volume:  cfg.DefaultVolume,
			FadeIn:  cfg.DefaultFadeIn,
			FadeOut: cfg.DefaultFadeOut,
		}
		if req.Settings != nil {
			settings = *req.Settings
		}

		if err := eng.Start(r.Context(), req.Preset, settings); err != nil {
			http.Error(w, err.Error(), startErrorStatus(err))
			return
		}
		writeJSON(w, map[string]any{"ok": true, "state": eng.State()})
	})

	mux.HandleFunc("/api/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		eng.Stop()
		writeJSON(w, map[string]any{"ok": true})
	})

	mux.HandleFunc("/api/volume", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Volume float64 `json:"volume"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err := eng.SetVolume(req.Volume); err != nil {
			http.Error(w, err.Error(), startErrorStatus(err))
			return
		}
		writeJSON(w, map[string]any{"ok": true, "volume": req.Volume})
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		snap := eng.State()
		writeJSON(w, map[string]any{
			"session":          snap,
			"backend_state":    backend.State().String(),
			"backend_clock":    backend.Now(),
			"http_listeners":   broadcaster.ListenerCount(),
			"webrtc_listeners": webrtcHandler.PeerCount(),
			"frames_broadcast": broadcaster.FramesBroadcast(),
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("binaura live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(v)
}

// startErrorStatus maps engine errors onto HTTP status codes.
func startErrorStatus(err error) int {
	switch {
	case errors.Is(err, preset.ErrInvalidPreset), errors.Is(err, preset.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrVolumeAdjust):
		return http.StatusConflict
	case errors.Is(err, engine.ErrContextUnavailable):
		return http.StatusGone
	case errors.Is(err, engine.ErrResumeFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
