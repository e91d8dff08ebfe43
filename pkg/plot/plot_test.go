package plot

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"github.com/zurustar/midity/pkg/playback"
	"github.com/zurustar/midity/pkg/smf"
)

// testTrack is 60 BPM with 128 ticks per quarter, so one bar is 4 s. A C4
// plays from 0 s to 1 s, an E4 from 2 s to 3 s, and CC1 ramps from 0 to 127
// over the first 4 s.
func testTrack() *smf.Track {
	cv := func(tick uint32, status, d1, d2 byte) smf.Event {
		return smf.ChannelVoice{At: smf.At{Time: tick}, Status: status, Data1: d1, Data2: d2}
	}
	return &smf.Track{
		Name:                "lead",
		TempoBPM:            60,
		TicksPerQuarterNote: 128,
		DurationTicks:       512,
		Events: []smf.Event{
			cv(0, 0xB0, 1, 0),
			cv(0, 0x90, 60, 127),
			cv(128, 0x80, 60, 0),
			cv(256, 0x90, 64, 127),
			cv(384, 0x80, 64, 0),
			cv(511, 0xB0, 1, 127),
		},
	}
}

func TestSample(t *testing.T) {
	tr := testTrack()

	t.Run("cc", func(t *testing.T) {
		s := Sample(tr, playback.Control{Mode: playback.ModeCC, Controller: 1}, 8)
		if s.Name != "lead" {
			t.Errorf("Name = %q", s.Name)
		}
		if len(s.Times) != 8 || len(s.Values) != 8 {
			t.Fatalf("got %d times and %d values", len(s.Times), len(s.Values))
		}
		for i, want := range []float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5} {
			if s.Times[i] != want {
				t.Errorf("Times[%d] = %v, want %v", i, s.Times[i], want)
			}
		}
		for i := 1; i < len(s.Values); i++ {
			if s.Values[i] < s.Values[i-1] {
				t.Errorf("CC ramp not monotonic: %v", s.Values)
				break
			}
		}
		if len(s.Markers) != 2 || s.Markers[0] != 0 || s.Markers[1] != 2 {
			t.Errorf("Markers = %v, want [0 2]", s.Markers)
		}
	})

	t.Run("note filter limits markers", func(t *testing.T) {
		nf, err := playback.ParseNoteFilter("E4")
		if err != nil {
			t.Fatal(err)
		}
		c := playback.Control{Mode: playback.ModeEnvelope, Filter: nf, Envelope: playback.Envelope{Sustain: 1}}
		s := Sample(tr, c, 4)
		if len(s.Markers) != 1 || s.Markers[0] != 2 {
			t.Errorf("Markers = %v, want [2]", s.Markers)
		}
		// sampled at 0, 1, 2, 3: E4 starts at 2 s and is released exactly at 3 s
		want := []float64{0, 0, 1, 1}
		for i := range want {
			if math.Abs(s.Values[i]-want[i]) > 1e-9 {
				t.Errorf("Values = %v, want %v", s.Values, want)
				break
			}
		}
	})

	t.Run("no samples", func(t *testing.T) {
		s := Sample(tr, playback.Control{}, 0)
		if len(s.Values) != 0 || len(s.Markers) != 0 {
			t.Errorf("expected empty series, got %+v", s)
		}
	})
}

func TestRender(t *testing.T) {
	tr := testTrack()
	series := []Series{
		Sample(tr, playback.Control{Mode: playback.ModeCC, Controller: 1}, 50),
		{Name: "flat", Times: []float64{0, 4}, Values: []float64{0.5, 0.5}},
	}

	var buf bytes.Buffer
	if err := Render(&buf, series, Options{Width: 320, Height: 200, Title: "CC1"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("image size = %dx%d, want 320x200", b.Dx(), b.Dy())
	}

	r, g, b, _ := img.At(1, 1).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("background at (1,1) = %x,%x,%x, want white", r, g, b)
	}
}

func TestRenderErrors(t *testing.T) {
	var buf bytes.Buffer

	if err := Render(&buf, nil, DefaultOptions); !errors.Is(err, ErrNoSeries) {
		t.Errorf("expected ErrNoSeries, got %v", err)
	}

	series := []Series{{Times: []float64{0}, Values: []float64{0}}}
	if err := Render(&buf, series, Options{Width: 50, Height: 400}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestExtent(t *testing.T) {
	series := []Series{
		{Times: []float64{0, 1.5}, Markers: []float64{3}},
		{Times: []float64{0, 2}},
	}
	if got := extent(series, Options{}); got != 3 {
		t.Errorf("extent() = %v, want 3", got)
	}
	if got := extent(series, Options{Duration: 8}); got != 8 {
		t.Errorf("extent() with Duration = %v, want 8", got)
	}
	if got := extent([]Series{{}}, Options{}); got != 1 {
		t.Errorf("extent() of empty series = %v, want 1", got)
	}
}
