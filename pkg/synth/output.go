package synth

import (
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Output plays a Stream on the default audio device through Ebitengine.
type Output struct {
	player *audio.Player
	stream *Stream
	muted  bool
	mu     sync.Mutex
}

// audioContext returns the process-wide Ebitengine audio context, creating
// it on first use. Ebitengine allows only one context per process.
func audioContext() *audio.Context {
	if ctx := audio.CurrentContext(); ctx != nil {
		return ctx
	}
	return audio.NewContext(SampleRate)
}

// NewOutput prepares stream for playback. Call Play to start it.
func NewOutput(stream *Stream) (*Output, error) {
	player, err := audioContext().NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}
	return &Output{player: player, stream: stream}, nil
}

// Play starts or resumes playback.
func (o *Output) Play() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.player.Play()
}

// IsPlaying reports whether the device is consuming the stream.
func (o *Output) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player.IsPlaying()
}

// Position returns how much of the stream the device has played.
func (o *Output) Position() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player.Position()
}

// SetMuted mutes or unmutes the output. The stream keeps rendering.
func (o *Output) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.muted = muted
	if muted {
		o.player.SetVolume(0)
	} else {
		o.player.SetVolume(1)
	}
}

// IsMuted reports whether the output is muted.
func (o *Output) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// Close stops the stream and releases the player.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stream.Stop()
	return o.player.Close()
}
