package playback

import (
	"errors"
	"testing"

	"github.com/zurustar/midity/pkg/smf"
)

func TestNoteFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter NoteFilter
		event  smf.ChannelVoice
		want   bool
	}{
		{"all notes on", AllNotes, noteOn(0, 60, 100), true},
		{"all notes off", AllNotes, noteOff(0, 60), true},
		{"all notes ignores cc", AllNotes, cc(0, 60, 100), false},
		{"pitch and octave", NoteFilter{Pitch: 0, Octave: 4}, noteOn(0, 60, 100), true},
		{"wrong octave", NoteFilter{Pitch: 0, Octave: 4}, noteOn(0, 72, 100), false},
		{"wrong pitch", NoteFilter{Pitch: 1, Octave: 4}, noteOn(0, 60, 100), false},
		{"any octave", NoteFilter{Pitch: 9, AnyOctave: true}, noteOn(0, 21, 100), true},
		{"any pitch", NoteFilter{Octave: -1, AnyPitch: true}, noteOn(0, 11, 100), true},
		{"lowest octave", NoteFilter{Pitch: 0, Octave: -1}, noteOn(0, 0, 100), true},
		{"velocity zero note-on", NoteFilter{Pitch: 0, Octave: 4}, cv(0, smf.NoteOn, 60, 0), true},
		{"program change", AllNotes, cv(0, smf.ProgramChange, 60, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.event); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestParseNoteFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    NoteFilter
		str     string
		wantErr bool
	}{
		{"all", AllNotes, "all", false},
		{"*", AllNotes, "all", false},
		{"**", AllNotes, "all", false},
		{"C4", NoteFilter{Pitch: 0, Octave: 4}, "C4", false},
		{"c#4", NoteFilter{Pitch: 1, Octave: 4}, "C#4", false},
		{"Eb2", NoteFilter{Pitch: 3, Octave: 2}, "D#2", false},
		{"Cb3", NoteFilter{Pitch: 11, Octave: 3}, "B3", false},
		{"A", NoteFilter{Pitch: 9, AnyOctave: true}, "A*", false},
		{"G#*", NoteFilter{Pitch: 8, AnyOctave: true}, "G#*", false},
		{"*-1", NoteFilter{Octave: -1, AnyPitch: true}, "*-1", false},
		{"H4", NoteFilter{}, "", true},
		{"C11", NoteFilter{}, "", true},
		{"C#x", NoteFilter{}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNoteFilter(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidNoteFilter) {
					t.Fatalf("expected ErrInvalidNoteFilter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseNoteFilter(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}
