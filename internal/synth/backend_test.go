package synth

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/satindergrewal/binaura/internal/audio"
	"github.com/satindergrewal/binaura/internal/engine"
	"github.com/satindergrewal/binaura/internal/preset"
)

// buildChain wires osc -> gain -> pan -> destination and starts the
// oscillator immediately.
func buildChain(t *testing.T, b *Backend, freq, pan float64) (engine.Oscillator, engine.Gain) {
	t.Helper()
	o, err := b.NewOscillator()
	if err != nil {
		t.Fatalf("NewOscillator: %v", err)
	}
	o.Frequency().SetValueAtTime(freq, 0)
	g, err := b.NewGain()
	if err != nil {
		t.Fatalf("NewGain: %v", err)
	}
	p, err := b.NewPanner(pan)
	if err != nil {
		t.Fatalf("NewPanner: %v", err)
	}
	if err := o.Connect(g); err != nil {
		t.Fatalf("osc.Connect: %v", err)
	}
	if err := g.Connect(p); err != nil {
		t.Fatalf("gain.Connect: %v", err)
	}
	if err := p.Connect(b.Destination()); err != nil {
		t.Fatalf("pan.Connect: %v", err)
	}
	o.Start(0)
	return o, g
}

func resume(t *testing.T, b *Backend) {
	t.Helper()
	if err := b.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
}

// frameEnergy returns per-channel mean absolute amplitude.
func frameEnergy(frame []int16) (left, right float64) {
	for i := 0; i < len(frame); i += 2 {
		left += math.Abs(float64(frame[i]))
		right += math.Abs(float64(frame[i+1]))
	}
	n := float64(len(frame) / 2)
	return left / n, right / n
}

func TestBackendStartsSuspended(t *testing.T) {
	b := New()
	if got := b.State(); got != engine.StateSuspended {
		t.Errorf("initial state = %v, want suspended", got)
	}
	buildChain(t, b, 440, -1)

	frame, ok := b.renderFrame()
	if !ok {
		t.Fatal("renderFrame reported closed")
	}
	if l, r := frameEnergy(frame); l != 0 || r != 0 {
		t.Errorf("suspended backend produced sound: L=%v R=%v", l, r)
	}
	if b.Now() != 0 {
		t.Errorf("clock advanced while suspended: %v", b.Now())
	}
}

func TestBackendClockAdvances(t *testing.T) {
	b := New()
	resume(t, b)
	for i := 0; i < 5; i++ {
		b.renderFrame()
	}
	want := 5 * audio.FrameDuration.Seconds()
	if got := b.Now(); !almost(got, want, 1e-9) {
		t.Errorf("clock = %v, want %v", got, want)
	}
}

func TestHardPanSeparation(t *testing.T) {
	b := New()
	resume(t, b)
	buildChain(t, b, 440, -1) // hard left

	frame, _ := b.renderFrame()
	l, r := frameEnergy(frame)
	if l == 0 {
		t.Error("hard-left tone silent on left channel")
	}
	if r != 0 {
		t.Errorf("hard-left tone leaked to right channel: %v", r)
	}

	b2 := New()
	resume(t, b2)
	buildChain(t, b2, 440, 1) // hard right
	frame2, _ := b2.renderFrame()
	l2, r2 := frameEnergy(frame2)
	if r2 == 0 {
		t.Error("hard-right tone silent on right channel")
	}
	if l2 != 0 {
		t.Errorf("hard-right tone leaked to left channel: %v", l2)
	}
}

func TestBinauralPair(t *testing.T) {
	b := New()
	resume(t, b)
	buildChain(t, b, 528, -1)
	buildChain(t, b, 534, 1)

	// Render one second and count left-channel zero crossings: a 528 Hz sine
	// crosses zero 1056 times per second.
	crossings := 0
	var prev int16
	frames := int(time.Second / audio.FrameDuration)
	for n := 0; n < frames; n++ {
		frame, _ := b.renderFrame()
		for i := 0; i < len(frame); i += 2 {
			s := frame[i]
			if (prev < 0 && s >= 0) || (prev > 0 && s <= 0) {
				crossings++
			}
			if s != 0 {
				prev = s
			}
		}
	}
	want := 2 * 528
	if crossings < want-6 || crossings > want+6 {
		t.Errorf("left channel zero crossings = %d, want ~%d", crossings, want)
	}
}

func TestGainScalesOutput(t *testing.T) {
	b := New()
	resume(t, b)
	_, g := buildChain(t, b, 440, -1)

	frame, _ := b.renderFrame()
	full, _ := frameEnergy(frame)

	g.Gain().SetValueAtTime(0.5, b.Now())
	frame, _ = b.renderFrame()
	half, _ := frameEnergy(frame)

	if ratio := half / full; !almost(ratio, 0.5, 0.02) {
		t.Errorf("half-gain energy ratio = %v, want ~0.5", ratio)
	}
}

func TestOscillatorStopSilences(t *testing.T) {
	b := New()
	resume(t, b)
	o, _ := buildChain(t, b, 440, -1)

	frame, _ := b.renderFrame()
	if l, _ := frameEnergy(frame); l == 0 {
		t.Fatal("no sound before stop")
	}

	o.Stop(b.Now())
	frame, _ = b.renderFrame()
	if l, _ := frameEnergy(frame); l != 0 {
		t.Errorf("sound after stop: %v", l)
	}
	// Second stop is a no-op.
	o.Stop(b.Now())
}

func TestScheduledStop(t *testing.T) {
	b := New()
	resume(t, b)
	o, _ := buildChain(t, b, 440, -1)

	// Stop two frames ahead.
	o.Stop(b.Now() + 2*audio.FrameDuration.Seconds())

	frame, _ := b.renderFrame()
	if l, _ := frameEnergy(frame); l == 0 {
		t.Error("silent before scheduled stop")
	}
	b.renderFrame() // second frame crosses the boundary
	frame, _ = b.renderFrame()
	if l, _ := frameEnergy(frame); l != 0 {
		t.Errorf("sound after scheduled stop: %v", l)
	}
}

func TestDisconnectedChainIsSilent(t *testing.T) {
	b := New()
	resume(t, b)
	o, g := buildChain(t, b, 440, -1)
	_ = o
	g.Disconnect()

	frame, _ := b.renderFrame()
	if l, r := frameEnergy(frame); l != 0 || r != 0 {
		t.Errorf("disconnected chain audible: L=%v R=%v", l, r)
	}
}

func TestCloseIsTerminal(t *testing.T) {
	b := New()
	resume(t, b)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := b.State(); got != engine.StateClosed {
		t.Errorf("state after close = %v, want closed", got)
	}
	if _, err := b.NewOscillator(); err == nil {
		t.Error("NewOscillator succeeded after close")
	}
	if _, err := b.NewGain(); err == nil {
		t.Error("NewGain succeeded after close")
	}
	if _, err := b.NewPanner(0); err == nil {
		t.Error("NewPanner succeeded after close")
	}
	if err := b.Resume(context.Background()); err == nil {
		t.Error("Resume succeeded after close")
	}
	if _, ok := b.renderFrame(); ok {
		t.Error("renderFrame kept going after close")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	b := New()
	resume(t, b)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	// Drain at least one frame, then cancel.
	select {
	case <-b.Frames():
	case <-time.After(2 * time.Second):
		t.Fatal("no frame produced")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
}

func TestRunStopsOnClose(t *testing.T) {
	b := New()
	resume(t, b)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background())
		close(done)
	}()

	select {
	case <-b.Frames():
	case <-time.After(2 * time.Second):
		t.Fatal("no frame produced")
	}
	b.Close()

	// Drain until the channel closes.
	go func() {
		for range b.Frames() {
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after Close")
	}
}

func TestRepeatedSessionsReleaseOscillators(t *testing.T) {
	b := New()
	resume(t, b)
	eng, err := engine.New(b)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	p := preset.Preset{
		ID:            "cycle",
		Category:      preset.CategoryCustom,
		BaseFrequency: 440,
		BinauralBeat:  4,
	}
	s := preset.Settings{Volume: 50}

	for i := 0; i < 100; i++ {
		if err := eng.Start(context.Background(), p, s); err != nil {
			t.Fatalf("Start cycle %d: %v", i, err)
		}
		eng.Stop()
	}

	// One frame gives the renderer a chance to drop ended generators.
	b.renderFrame()
	b.mu.Lock()
	retained := len(b.oscs)
	b.mu.Unlock()
	if retained != 0 {
		t.Errorf("oscillators retained after 100 start/stop cycles: %d, want 0", retained)
	}

	// A live session keeps exactly its own pair.
	if err := eng.Start(context.Background(), p, s); err != nil {
		t.Fatalf("final Start: %v", err)
	}
	frame, _ := b.renderFrame()
	if l, r := frameEnergy(frame); l == 0 || r == 0 {
		t.Error("live session silent after prior sessions were pruned")
	}
	b.mu.Lock()
	retained = len(b.oscs)
	b.mu.Unlock()
	if retained != 2 {
		t.Errorf("live oscillators = %d, want 2", retained)
	}
	eng.Stop()
}

func TestPannerRange(t *testing.T) {
	b := New()
	if _, err := b.NewPanner(-1.5); err == nil {
		t.Error("NewPanner accepted pan outside [-1, 1]")
	}
}
