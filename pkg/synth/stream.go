// Package synth renders decoded tracks to audio. Tracks are dispatched by
// playback.Player and the resulting channel voice messages drive a
// go-meltysynth software synthesizer.
package synth

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/midity/pkg/logger"
	"github.com/zurustar/midity/pkg/playback"
	"github.com/zurustar/midity/pkg/smf"
)

// SampleRate is the audio sample rate used for synthesis.
const SampleRate = 44100

// blockFrames is how many frames are rendered between two dispatches, which
// bounds the timing error of an event to about 1.5 ms.
const blockFrames = 64

// Renderer is the part of meltysynth.Synthesizer that a Stream drives.
type Renderer interface {
	ProcessMidiMessage(channel, command, data1, data2 int32)
	Render(left, right []float32)
	NoteOffAll(immediate bool)
}

var _ Renderer = (*meltysynth.Synthesizer)(nil)

// Options configures a Stream.
type Options struct {
	// Loop repeats every track at its own loop length.
	Loop bool
	// Filter selects the events sent to the synthesizer. Only channel voice
	// messages are ever sent; nil sends all of them.
	Filter playback.Filter
}

// Stream implements io.Reader, producing 16-bit little-endian stereo PCM
// at SampleRate. It is safe to read from the audio goroutine while another
// goroutine calls Stop or Position.
type Stream struct {
	synth   Renderer
	players []*playback.Player
	loop    bool
	length  float64 // seconds of the longest track

	frames  int64
	stopped bool
	left    []float32
	right   []float32
	mu      sync.Mutex
}

// NewStream creates a synthesizer from sf and a Stream playing tracks on it.
func NewStream(sf *meltysynth.SoundFont, tracks []smf.Track, opts Options) (*Stream, error) {
	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synthesizer, err := meltysynth.NewSynthesizer(sf, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	return NewStreamWithRenderer(synthesizer, tracks, opts), nil
}

// NewStreamWithRenderer creates a Stream playing tracks on r.
func NewStreamWithRenderer(r Renderer, tracks []smf.Track, opts Options) *Stream {
	filter := opts.Filter
	if filter == nil {
		filter = playback.ChannelVoiceEvents
	}

	s := &Stream{synth: r, loop: opts.Loop}
	for i := range tracks {
		track := &tracks[i]
		s.players = append(s.players, playback.NewPlayer(track,
			playback.WithLoop(opts.Loop),
			playback.WithFilter(filter),
		))
		s.length = max(s.length, track.DurationSeconds())
	}

	logger.GetLogger().Debug("Stream created",
		"tracks", len(tracks), "loop", opts.Loop, "length", s.length)
	return s
}

// Read renders len(p)/4 frames of audio.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		clear(p)
		return len(p), nil
	}

	// 16-bit stereo = 4 bytes per frame
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	left, right := s.left[:frames], s.right[:frames]

	for offset := 0; offset < frames; {
		n := min(blockFrames, frames-offset)
		s.dispatch(float64(s.frames) / SampleRate)
		s.synth.Render(left[offset:offset+n], right[offset:offset+n])
		s.frames += int64(n)
		offset += n
	}

	for i := range frames {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}

	return frames * 4, nil
}

// dispatch sends every event due by seconds to the synthesizer.
func (s *Stream) dispatch(seconds float64) {
	for _, p := range s.players {
		p.Advance(seconds, s.send)
	}
}

func (s *Stream) send(e smf.Event) {
	cv, ok := e.(smf.ChannelVoice)
	if !ok {
		return
	}
	s.synth.ProcessMidiMessage(int32(cv.Channel()), int32(cv.Command()), int32(cv.Data1), int32(cv.Data2))
}

// Stop silences the synthesizer and makes Read return silence.
func (s *Stream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.synth.NoteOffAll(true)
	}
	s.stopped = true
}

// Position returns the playback clock in seconds.
func (s *Stream) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.frames) / SampleRate
}

// Length returns the duration of the longest track in seconds.
func (s *Stream) Length() float64 {
	return s.length
}

// Done reports whether a non-looping stream has played past its longest
// track. A looping stream is never done.
func (s *Stream) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped || (!s.loop && float64(s.frames)/SampleRate >= s.length)
}

// clamp restricts a value to the range [lo, hi].
func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
