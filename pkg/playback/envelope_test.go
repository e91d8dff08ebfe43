package playback

import (
	"errors"
	"math"
	"testing"
)

func TestEnvelopeLevel(t *testing.T) {
	env := Envelope{Attack: 0.5, Decay: 0.5, Sustain: 0.5, Release: 1}

	tests := []struct {
		name        string
		env         Envelope
		on, release float64
		want        float64
	}{
		{"attack start", env, 0, 0, 0},
		{"attack middle", env, 0.25, 0, 0.5},
		{"decay start", env, 0.5, 0, 1},
		{"decay middle", env, 0.75, 0, 0.75},
		{"sustain", env, 3, 0, 0.5},
		{"release", env, 3, 0.25, 0.25},
		{"release floor", env, 3, 2, 0},
		{"released during attack", env, 0.25, 0.25, 0.25},
		{"zero attack", Envelope{Decay: 1, Sustain: 0.5, Release: 1}, 0, 0, 1},
		{"zero attack and decay", Envelope{Sustain: 0.8, Release: 1}, 0, 0, 0.8},
		{"zero release held", Envelope{Sustain: 0.8}, 5, 0, 0.8},
		{"zero release released", Envelope{Sustain: 0.8}, 5, 0.001, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.env.Level(tt.on, tt.release)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Level(%v, %v) = %v, want %v", tt.on, tt.release, got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("Level produced %v", got)
			}
		})
	}
}

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope("0.01, 0.2,0.6,0.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env != DefaultEnvelope {
		t.Errorf("ParseEnvelope = %+v, want %+v", env, DefaultEnvelope)
	}
	if env.String() != "0.01,0.2,0.6,0.3" {
		t.Errorf("String() = %q", env.String())
	}

	for _, in := range []string{"", "1,2,3", "a,b,c,d", "0,0,1.5,0", "-1,0,0.5,0"} {
		if _, err := ParseEnvelope(in); !errors.Is(err, ErrInvalidEnvelope) {
			t.Errorf("ParseEnvelope(%q) error = %v, want ErrInvalidEnvelope", in, err)
		}
	}
}
