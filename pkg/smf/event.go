package smf

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
)

// Kind identifies an event variant.
type Kind uint8

const (
	KindChannelVoice Kind = iota
	KindText
	KindTrackName
	KindLyric
	KindMarker
	KindCue
	KindTempo
	KindSequenceNumber
	KindChannelPrefix
	KindKey
	KindTimeSignature
	KindSMPTEOffset
	KindSequencerSpecific
	KindEndOfTrack
	KindUnknown
)

var kindNames = [...]string{
	KindChannelVoice:      "ChannelVoice",
	KindText:              "Text",
	KindTrackName:         "TrackName",
	KindLyric:             "Lyric",
	KindMarker:            "Marker",
	KindCue:               "Cue",
	KindTempo:             "Tempo",
	KindSequenceNumber:    "SequenceNumber",
	KindChannelPrefix:     "ChannelPrefix",
	KindKey:               "Key",
	KindTimeSignature:     "TimeSignature",
	KindSMPTEOffset:       "SMPTEOffset",
	KindSequencerSpecific: "SequencerSpecific",
	KindEndOfTrack:        "EndOfTrack",
	KindUnknown:           "Unknown",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is one entry of a track. The set of implementations is closed:
// each variant below declares sealed itself, so embedding At does not make
// a type an Event.
type Event interface {
	// Tick is the absolute position from the start of the track.
	Tick() uint32
	// DeltaTicks is the distance from the previous event in the track.
	DeltaTicks() uint32
	Kind() Kind
	sealed()
}

// At carries the timing shared by every event.
type At struct {
	Time  uint32 // absolute tick
	Delta uint32 // ticks since the previous event
}

func (a At) Tick() uint32       { return a.Time }
func (a At) DeltaTicks() uint32 { return a.Delta }

// MIDI channel voice commands (status high nibble).
const (
	NoteOff         byte = 0x80
	NoteOn          byte = 0x90
	PolyPressure    byte = 0xA0
	ControlChange   byte = 0xB0
	ProgramChange   byte = 0xC0
	ChannelPressure byte = 0xD0
	PitchBend       byte = 0xE0
)

// ChannelVoice is a note, controller, program or pressure message.
// Data2 is zero for program change and channel pressure, which carry a
// single data byte on the wire.
type ChannelVoice struct {
	At
	Status byte
	Data1  byte
	Data2  byte
}

func (ChannelVoice) Kind() Kind { return KindChannelVoice }
func (ChannelVoice) sealed()    {}

// Command returns the status high nibble.
func (e ChannelVoice) Command() byte { return e.Status & 0xF0 }

// Channel returns the zero-based MIDI channel.
func (e ChannelVoice) Channel() uint8 { return e.Status & 0x0F }

// IsNoteOn reports a note-on with non-zero velocity.
func (e ChannelVoice) IsNoteOn() bool {
	return e.Command() == NoteOn && e.Data2 > 0
}

// IsNoteOff reports a note-off, including the note-on with zero velocity form.
func (e ChannelVoice) IsNoteOff() bool {
	return e.Command() == NoteOff || (e.Command() == NoteOn && e.Data2 == 0)
}

// IsNote reports either note-on or note-off.
func (e ChannelVoice) IsNote() bool {
	c := e.Command()
	return c == NoteOn || c == NoteOff
}

// IsControlChange reports a CC message.
func (e ChannelVoice) IsControlChange() bool { return e.Command() == ControlChange }

// HasData2 reports whether the command carries a second data byte.
func (e ChannelVoice) HasData2() bool { return hasData2(e.Status) }

func hasData2(status byte) bool {
	c := status & 0xF0
	return c != ProgramChange && c != ChannelPressure
}

// Message returns the wire form as a gomidi message.
func (e ChannelVoice) Message() midi.Message {
	if e.HasData2() {
		return midi.Message{e.Status, e.Data1, e.Data2}
	}
	return midi.Message{e.Status, e.Data1}
}

func (e ChannelVoice) String() string {
	return e.Message().String()
}

// Text is a generic text meta event (0x01).
type Text struct {
	At
	Text string
}

func (Text) Kind() Kind { return KindText }
func (Text) sealed()    {}

// TrackName is the sequence/track name meta event (0x03).
type TrackName struct {
	At
	Name string
}

func (TrackName) Kind() Kind { return KindTrackName }
func (TrackName) sealed()    {}

// Lyric is a lyric meta event (0x05).
type Lyric struct {
	At
	Text string
}

func (Lyric) Kind() Kind { return KindLyric }
func (Lyric) sealed()    {}

// Marker is a marker meta event (0x06).
type Marker struct {
	At
	Text string
}

func (Marker) Kind() Kind { return KindMarker }
func (Marker) sealed()    {}

// Cue is a cue point meta event (0x07).
type Cue struct {
	At
	Text string
}

func (Cue) Kind() Kind { return KindCue }
func (Cue) sealed()    {}

// Tempo is a set-tempo meta event (0x51).
type Tempo struct {
	At
	MicrosPerQuarter uint32
}

func (Tempo) Kind() Kind { return KindTempo }
func (Tempo) sealed()    {}

// BPM converts the tempo to quarter notes per minute. A zero tempo yields 0.
func (e Tempo) BPM() float64 {
	if e.MicrosPerQuarter == 0 {
		return 0
	}
	return 60_000_000 / float64(e.MicrosPerQuarter)
}

// SequenceNumber is meta event 0x00.
type SequenceNumber struct {
	At
	Number [2]byte
}

func (SequenceNumber) Kind() Kind { return KindSequenceNumber }
func (SequenceNumber) sealed()    {}

// ChannelPrefix is meta event 0x20.
type ChannelPrefix struct {
	At
	Value byte
}

func (ChannelPrefix) Kind() Kind { return KindChannelPrefix }
func (ChannelPrefix) sealed()    {}

// Key is the key signature meta event (0x59).
type Key struct {
	At
	SharpsFlats int8 // negative for flats
	Major       bool
}

func (Key) Kind() Kind { return KindKey }
func (Key) sealed()    {}

// TimeSignature is meta event 0x58.
type TimeSignature struct {
	At
	Numerator               byte
	DenominatorPow2         byte
	ClocksPerClick          byte
	ThirtySecondsPerQuarter byte
}

func (TimeSignature) Kind() Kind { return KindTimeSignature }
func (TimeSignature) sealed()    {}

// SMPTEOffset is meta event 0x54.
type SMPTEOffset struct {
	At
	Bytes [5]byte
}

func (SMPTEOffset) Kind() Kind { return KindSMPTEOffset }
func (SMPTEOffset) sealed()    {}

// SequencerSpecific is meta event 0x7F.
type SequencerSpecific struct {
	At
	Bytes []byte
}

func (SequencerSpecific) Kind() Kind { return KindSequencerSpecific }
func (SequencerSpecific) sealed()    {}

// EndOfTrack is meta event 0x2F.
type EndOfTrack struct {
	At
}

func (EndOfTrack) Kind() Kind { return KindEndOfTrack }
func (EndOfTrack) sealed()    {}

// Unknown holds an unrecognized meta event or a SysEx block verbatim.
// Status is 0xFF for meta events (Type is the sub-type) and 0xF0/0xF7 for SysEx.
type Unknown struct {
	At
	Status byte
	Type   byte
	Bytes  []byte
}

func (Unknown) Kind() Kind { return KindUnknown }
func (Unknown) sealed()    {}

// Describe returns a short human readable form of any event.
func Describe(e Event) string {
	switch ev := e.(type) {
	case ChannelVoice:
		return ev.String()
	case Text:
		return fmt.Sprintf("Text %q", ev.Text)
	case TrackName:
		return fmt.Sprintf("TrackName %q", ev.Name)
	case Lyric:
		return fmt.Sprintf("Lyric %q", ev.Text)
	case Marker:
		return fmt.Sprintf("Marker %q", ev.Text)
	case Cue:
		return fmt.Sprintf("Cue %q", ev.Text)
	case Tempo:
		return fmt.Sprintf("Tempo %d us/qn (%.2f BPM)", ev.MicrosPerQuarter, ev.BPM())
	case SequenceNumber:
		return fmt.Sprintf("SequenceNumber %d", int(ev.Number[0])<<8|int(ev.Number[1]))
	case ChannelPrefix:
		return fmt.Sprintf("ChannelPrefix %d", ev.Value)
	case Key:
		mode := "minor"
		if ev.Major {
			mode = "major"
		}
		return fmt.Sprintf("Key %+d %s", ev.SharpsFlats, mode)
	case TimeSignature:
		return fmt.Sprintf("TimeSignature %d/%d", ev.Numerator, 1<<ev.DenominatorPow2)
	case SMPTEOffset:
		return fmt.Sprintf("SMPTEOffset % X", ev.Bytes[:])
	case SequencerSpecific:
		return fmt.Sprintf("SequencerSpecific % X", ev.Bytes)
	case EndOfTrack:
		return "EndOfTrack"
	case Unknown:
		if ev.Status == 0xFF {
			return fmt.Sprintf("Meta 0x%02X % X", ev.Type, ev.Bytes)
		}
		return fmt.Sprintf("SysEx 0x%02X % X", ev.Status, ev.Bytes)
	default:
		return e.Kind().String()
	}
}

// withTiming returns a copy of e with its At replaced.
func withTiming(e Event, at At) Event {
	switch ev := e.(type) {
	case ChannelVoice:
		ev.At = at
		return ev
	case Text:
		ev.At = at
		return ev
	case TrackName:
		ev.At = at
		return ev
	case Lyric:
		ev.At = at
		return ev
	case Marker:
		ev.At = at
		return ev
	case Cue:
		ev.At = at
		return ev
	case Tempo:
		ev.At = at
		return ev
	case SequenceNumber:
		ev.At = at
		return ev
	case ChannelPrefix:
		ev.At = at
		return ev
	case Key:
		ev.At = at
		return ev
	case TimeSignature:
		ev.At = at
		return ev
	case SMPTEOffset:
		ev.At = at
		return ev
	case SequencerSpecific:
		ev.At = at
		return ev
	case EndOfTrack:
		ev.At = at
		return ev
	case Unknown:
		ev.At = at
		return ev
	default:
		return e
	}
}
