// Package playback plays broadcast frames on the local audio device via oto.
package playback

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/satindergrewal/binaura/internal/audio"
	"github.com/satindergrewal/binaura/internal/stream"
)

// Speaker pulls PCM frames from a broadcaster listener and feeds them to the
// host audio device. The device pulls via Read; when no frame is ready the
// speaker pads with silence rather than stalling the device.
type Speaker struct {
	ctx      *oto.Context
	player   *oto.Player
	listener *stream.Listener
	b        *stream.Broadcaster
	leftover []byte

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSpeaker opens the host audio device and subscribes to the broadcaster.
func NewSpeaker(b *stream.Broadcaster) (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	s := &Speaker{
		ctx:      ctx,
		b:        b,
		listener: b.Subscribe(),
	}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// Read fills p with interleaved little-endian int16 PCM. Called by the audio
// device; never blocks on the broadcaster.
func (s *Speaker) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.leftover) == 0 {
			select {
			case frame, ok := <-s.listener.C:
				if !ok {
					break
				}
				s.leftover = audio.SamplesToBytes(frame)
			default:
			}
			if len(s.leftover) == 0 {
				for i := n; i < len(p); i++ {
					p[i] = 0
				}
				return len(p), nil
			}
		}
		c := copy(p[n:], s.leftover)
		s.leftover = s.leftover[c:]
		n += c
	}
	return n, nil
}

// Start begins playback. Safe to call repeatedly.
func (s *Speaker) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started && !s.closed {
		s.player.Play()
		s.started = true
	}
}

// Close stops playback and unsubscribes from the broadcaster. Idempotent.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.started = false
	s.b.Unsubscribe(s.listener)
	return s.player.Close()
}
