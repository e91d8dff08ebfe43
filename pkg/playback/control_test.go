package playback

import (
	"errors"
	"testing"
)

func TestControlValue(t *testing.T) {
	track := newTrack(512,
		cc(0, 1, 0),
		noteOn(0, 60, 127),
		cc(256, 1, 127),
		noteOff(256, 60),
	)

	tests := []struct {
		name    string
		control Control
		at      float64
		want    float64
	}{
		{"cc", Control{Mode: ModeCC, Controller: 1}, 1, 0.5},
		{"cc wraps", Control{Mode: ModeCC, Controller: 1}, 4 + 1, 0.5},
		{"cc wraps many laps", Control{Mode: ModeCC, Controller: 1}, 40 + 1, 0.5},
		{"envelope", Control{Mode: ModeEnvelope, Filter: AllNotes, Envelope: Envelope{Sustain: 0.5, Release: 4}}, 3, 0.25},
		{"envelope wraps", Control{Mode: ModeEnvelope, Filter: AllNotes, Envelope: Envelope{Sustain: 0.5, Release: 4}}, 7, 0.25},
		{"curve", Control{Mode: ModeCurve, Filter: AllNotes, Curve: Keyframes{{0, 0}, {4, 1}}}, 1, 0.25},
		{"curve wraps", Control{Mode: ModeCurve, Filter: AllNotes, Curve: Keyframes{{0, 0}, {4, 1}}}, 5, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.control.Value(track, tt.at); !approx(got, tt.want) {
				t.Errorf("Value(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}

	if got := (Control{}).Value(nil, 1); got != 0 {
		t.Errorf("nil track = %v", got)
	}
	if got := (Control{}).Value(newTrack(0), 1); got != 0 {
		t.Errorf("empty track = %v", got)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"", ModeCC},
		{"cc", ModeCC},
		{"Envelope", ModeEnvelope},
		{"adsr", ModeEnvelope},
		{"curve", ModeCurve},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseMode("lfo"); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode, got %v", err)
	}
	if ModeCurve.String() != "curve" || Mode(9).String() != "Mode(9)" {
		t.Error("unexpected Mode.String output")
	}
}
