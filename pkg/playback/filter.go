package playback

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zurustar/midity/pkg/smf"
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteFilter selects note messages by pitch class and octave. Octaves
// follow the convention octave = note/12 - 1, so note 60 is C4.
type NoteFilter struct {
	Pitch     int // 0 (C) to 11 (B)
	Octave    int // -1 to 10
	AnyPitch  bool
	AnyOctave bool
}

// AllNotes matches every note message.
var AllNotes = NoteFilter{AnyPitch: true, AnyOctave: true}

// Match reports whether e is a note-on or note-off the filter selects.
func (f NoteFilter) Match(e smf.ChannelVoice) bool {
	if !e.IsNote() {
		return false
	}
	note := int(e.Data1)
	if !f.AnyPitch && note%12 != f.Pitch {
		return false
	}
	if !f.AnyOctave && note/12-1 != f.Octave {
		return false
	}
	return true
}

func (f NoteFilter) String() string {
	if f.AnyPitch && f.AnyOctave {
		return "all"
	}
	pitch, octave := "*", "*"
	if !f.AnyPitch && f.Pitch >= 0 && f.Pitch < 12 {
		pitch = pitchNames[f.Pitch]
	}
	if !f.AnyOctave {
		octave = strconv.Itoa(f.Octave)
	}
	return pitch + octave
}

// ParseNoteFilter parses filters such as "C#4", "Eb*", "*3", "A" (any
// octave) and "all".
func ParseNoteFilter(s string) (NoteFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") || s == "*" {
		return AllNotes, nil
	}

	var f NoteFilter
	rest := s
	if rest[0] == '*' {
		f.AnyPitch = true
		rest = rest[1:]
	} else {
		base := strings.IndexByte("C D EF G A B", byte(strings.ToUpper(rest[:1])[0]))
		if base < 0 || rest[0] == ' ' {
			return NoteFilter{}, fmt.Errorf("%w: %q", ErrInvalidNoteFilter, s)
		}
		rest = rest[1:]
		if len(rest) > 0 {
			switch rest[0] {
			case '#':
				base++
				rest = rest[1:]
			case 'b':
				base--
				rest = rest[1:]
			}
		}
		f.Pitch = (base + 12) % 12
	}

	switch rest {
	case "", "*":
		f.AnyOctave = true
	default:
		octave, err := strconv.Atoi(rest)
		if err != nil || octave < -1 || octave > 10 {
			return NoteFilter{}, fmt.Errorf("%w: %q", ErrInvalidNoteFilter, s)
		}
		f.Octave = octave
	}

	if f.AnyPitch && f.AnyOctave {
		return AllNotes, nil
	}
	return f, nil
}
