package synth

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/zurustar/midity/pkg/playback"
	"github.com/zurustar/midity/pkg/smf"
)

type message struct {
	frame                          int64
	channel, command, data1, data2 int32
}

// fakeRenderer records messages and renders a constant level.
type fakeRenderer struct {
	level    float32
	frames   int64
	messages []message
	offAll   int
}

func (f *fakeRenderer) ProcessMidiMessage(channel, command, data1, data2 int32) {
	f.messages = append(f.messages, message{f.frames, channel, command, data1, data2})
}

func (f *fakeRenderer) Render(left, right []float32) {
	for i := range left {
		left[i] = f.level
		right[i] = -f.level
	}
	f.frames += int64(len(left))
}

func (f *fakeRenderer) NoteOffAll(bool) { f.offAll++ }

// testTrack plays C4 on channel 2 for one beat at 120 BPM, 96 ticks per
// quarter, with a one bar loop of 2 s.
func testTrack() smf.Track {
	return smf.Track{
		Name:                "piano",
		TempoBPM:            120,
		TicksPerQuarterNote: 96,
		DurationTicks:       384,
		Events: []smf.Event{
			smf.TrackName{Name: "piano"},
			smf.ChannelVoice{At: smf.At{Time: 0}, Status: 0x91, Data1: 60, Data2: 100},
			smf.ChannelVoice{At: smf.At{Time: 96, Delta: 96}, Status: 0x81, Data1: 60, Data2: 64},
		},
	}
}

func render(t *testing.T, s *Stream, seconds float64) []byte {
	t.Helper()
	buf := make([]byte, int(seconds*SampleRate)*4)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return buf
}

func TestStreamDispatchesEvents(t *testing.T) {
	fake := &fakeRenderer{}
	s := NewStreamWithRenderer(fake, []smf.Track{testTrack()}, Options{})

	render(t, s, 1)

	if len(fake.messages) != 2 {
		t.Fatalf("expected 2 messages, got %+v", fake.messages)
	}
	on, off := fake.messages[0], fake.messages[1]
	if on != (message{0, 1, 0x90, 60, 100}) {
		t.Errorf("note-on = %+v", on)
	}
	if off.channel != 1 || off.command != 0x80 || off.data1 != 60 {
		t.Errorf("note-off = %+v", off)
	}
	// The note-off is due at 0.5 s and is sent before the first block that
	// starts at or after it.
	due := int64(SampleRate / 2)
	if off.frame < due || off.frame >= due+blockFrames {
		t.Errorf("note-off sent at frame %d, want within one block after %d", off.frame, due)
	}
}

func TestStreamLoop(t *testing.T) {
	t.Run("looping repeats the track", func(t *testing.T) {
		fake := &fakeRenderer{}
		s := NewStreamWithRenderer(fake, []smf.Track{testTrack()}, Options{Loop: true})
		render(t, s, 4.6)
		if len(fake.messages) != 6 {
			t.Errorf("expected 3 laps of 2 messages, got %d", len(fake.messages))
		}
		if s.Done() {
			t.Error("a looping stream is never done")
		}
	})

	t.Run("without loop the stream ends", func(t *testing.T) {
		fake := &fakeRenderer{}
		s := NewStreamWithRenderer(fake, []smf.Track{testTrack()}, Options{})
		if s.Length() != 2 {
			t.Errorf("Length() = %v, want 2", s.Length())
		}
		render(t, s, 1)
		if s.Done() {
			t.Error("stream should not be done at 1 s")
		}
		render(t, s, 1.5)
		if !s.Done() {
			t.Error("stream should be done after 2.5 s")
		}
		if len(fake.messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(fake.messages))
		}
		if s.Position() != 2.5 {
			t.Errorf("Position() = %v, want 2.5", s.Position())
		}
	})
}

func TestStreamFilter(t *testing.T) {
	track := testTrack()
	track.Events = append(track.Events,
		smf.ChannelVoice{At: smf.At{Time: 100, Delta: 4}, Status: 0xB1, Data1: 7, Data2: 80})

	fake := &fakeRenderer{}
	s := NewStreamWithRenderer(fake, []smf.Track{track}, Options{Filter: playback.ControlChangeEvents})
	render(t, s, 1)

	if len(fake.messages) != 1 || fake.messages[0].command != 0xB0 || fake.messages[0].data2 != 80 {
		t.Errorf("messages = %+v", fake.messages)
	}
}

func TestStreamPCM(t *testing.T) {
	fake := &fakeRenderer{level: 2}
	s := NewStreamWithRenderer(fake, nil, Options{})

	buf := make([]byte, 8)
	n, err := s.Read(buf)
	if err != nil || n != 8 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	for i := 0; i < 8; i += 4 {
		l := int16(binary.LittleEndian.Uint16(buf[i:]))
		r := int16(binary.LittleEndian.Uint16(buf[i+2:]))
		if l != 32767 || r != -32767 {
			t.Errorf("frame %d = (%d, %d), want clamped (32767, -32767)", i/4, l, r)
		}
	}

	// A partial frame is not rendered.
	if n, _ := s.Read(make([]byte, 3)); n != 0 {
		t.Errorf("Read of 3 bytes = %d, want 0", n)
	}
}

func TestStreamStop(t *testing.T) {
	fake := &fakeRenderer{level: 0.5}
	s := NewStreamWithRenderer(fake, []smf.Track{testTrack()}, Options{Loop: true})
	render(t, s, 0.1)

	s.Stop()
	s.Stop()
	if fake.offAll != 1 {
		t.Errorf("NoteOffAll called %d times, want 1", fake.offAll)
	}
	if !s.Done() {
		t.Error("a stopped stream is done")
	}

	buf := render(t, s, 0.01)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d after Stop, want silence", i, b)
		}
	}
}

func TestNewStreamWithSoundFont(t *testing.T) {
	sf, err := LoadSoundFont(findSoundFont(t))
	if err != nil {
		t.Fatalf("LoadSoundFont failed: %v", err)
	}

	s, err := NewStream(sf, []smf.Track{testTrack()}, Options{})
	if err != nil {
		t.Fatalf("NewStream failed: %v", err)
	}

	buf := render(t, s, 0.25)
	silent := true
	for _, b := range buf {
		if b != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Error("expected audible output while the note is held")
	}
}

// findSoundFont looks for the default SoundFont next to the repository.
func findSoundFont(t *testing.T) string {
	t.Helper()

	paths := []string{
		"../../GeneralUser-GS.sf2",
		"GeneralUser-GS.sf2",
	}
	if env := os.Getenv("SOUNDFONT"); env != "" {
		paths = append([]string{env}, paths...)
	}

	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return absPath
		}
	}

	t.Skip("SoundFont file not found")
	return ""
}
