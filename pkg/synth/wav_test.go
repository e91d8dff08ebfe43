package synth

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"
	"github.com/zurustar/midity/pkg/smf"
)

// createWAV opens a file for WriteWAV in a temporary directory.
func createWAV(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("Failed to create output file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteWAV(t *testing.T) {
	fake := &fakeRenderer{level: 0.25}
	s := NewStreamWithRenderer(fake, []smf.Track{testTrack()}, Options{})

	f := createWAV(t)
	frames, err := WriteWAV(f, s, 0.5)
	if err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if frames != SampleRate/2 {
		t.Errorf("wrote %d frames, want %d", frames, SampleRate/2)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	dataSize := int64(SampleRate/2) * wavBlockAlign
	if int64(len(data)) != wavHeaderSize+dataSize {
		t.Fatalf("file size = %d, want %d", len(data), wavHeaderSize+dataSize)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Errorf("bad chunk tags: %q", data[:40])
	}
	if got := binary.LittleEndian.Uint32(data[4:]); int64(got) != 36+dataSize {
		t.Errorf("RIFF size = %d, want %d", got, 36+dataSize)
	}
	if got := binary.LittleEndian.Uint32(data[40:]); int64(got) != dataSize {
		t.Errorf("data chunk size = %d, want %d", got, dataSize)
	}
	if got := binary.LittleEndian.Uint16(data[22:]); got != wavChannels {
		t.Errorf("channels = %d, want %d", got, wavChannels)
	}
	if got := binary.LittleEndian.Uint32(data[24:]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}

	// The file must be readable by a real decoder.
	stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if stream.Length() != dataSize {
		t.Errorf("decoded length = %d, want %d", stream.Length(), dataSize)
	}

	left := int16(binary.LittleEndian.Uint16(data[wavHeaderSize:]))
	right := int16(binary.LittleEndian.Uint16(data[wavHeaderSize+2:]))
	if left != int16(fake.level*32767) || right != -int16(fake.level*32767) {
		t.Errorf("first frame = (%d, %d)", left, right)
	}
}

func TestWriteWAVSpansChunks(t *testing.T) {
	s := NewStreamWithRenderer(&fakeRenderer{level: 0.5}, nil, Options{})

	// 11025 frames: two full encoder chunks and a partial one
	f := createWAV(t)
	frames, err := WriteWAV(f, s, 0.25)
	if err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	if frames != SampleRate/4 {
		t.Errorf("wrote %d frames, want %d", frames, SampleRate/4)
	}
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if want := int64(wavHeaderSize + SampleRate/4*wavBlockAlign); info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}
}

func TestWriteWAVErrors(t *testing.T) {
	s := NewStreamWithRenderer(&fakeRenderer{}, nil, Options{})

	tests := []struct {
		name    string
		src     io.Reader
		seconds float64
	}{
		{"negative duration", s, -1},
		{"zero duration", s, 0},
		{"beyond the WAV size limit", s, 1e9},
		{"source runs dry", bytes.NewReader(nil), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := WriteWAV(createWAV(t), tt.src, tt.seconds); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadSoundFontErrors(t *testing.T) {
	if _, err := LoadSoundFont(""); !errors.Is(err, ErrNoSoundFont) {
		t.Errorf("expected ErrNoSoundFont, got %v", err)
	}
	if _, err := LoadSoundFont("/nonexistent/path/to/soundfont.sf2"); !errors.Is(err, ErrSoundFontNotFound) {
		t.Errorf("expected ErrSoundFontNotFound, got %v", err)
	}
}
