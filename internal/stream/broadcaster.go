package stream

import (
	"context"
	"sync"

	"github.com/satindergrewal/binaura/internal/audio"
)

// listenerBuffer is the per-listener frame buffer: ~3 seconds at 20ms/frame.
const listenerBuffer = 150

// Broadcaster fans rendered PCM frames from the synth backend out to N
// listeners. The renderer emits frames continuously (silence when no session
// is live), so a connected listener always hears a steady stream.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	frames    uint64
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	C    chan []int16 // buffered channel of 20ms PCM frames
	done chan struct{}
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	close(l.done)
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// FramesBroadcast returns the total number of frames fanned out so far.
func (b *Broadcaster) FramesBroadcast() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frames
}

// Run reads frames from source and fans out to all listeners. Slow listeners
// get frames dropped rather than blocking the broadcast. Blocks until ctx is
// cancelled or source closes.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			if len(frame) != audio.FrameSamples {
				continue
			}
			b.mu.Lock()
			b.frames++
			for l := range b.listeners {
				select {
				case l.C <- frame:
				default:
					// listener too slow, drop frame to keep broadcast moving
				}
			}
			b.mu.Unlock()
		}
	}
}
