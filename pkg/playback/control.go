package playback

import (
	"fmt"
	"strings"

	"github.com/zurustar/midity/pkg/smf"
)

// Mode selects which calculator a Control uses.
type Mode int

const (
	ModeCC Mode = iota
	ModeEnvelope
	ModeCurve
)

func (m Mode) String() string {
	switch m {
	case ModeCC:
		return "cc"
	case ModeEnvelope:
		return "envelope"
	case ModeCurve:
		return "curve"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "cc", "envelope" or "curve".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cc":
		return ModeCC, nil
	case "envelope", "env", "adsr":
		return ModeEnvelope, nil
	case "curve":
		return ModeCurve, nil
	}
	return ModeCC, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Control binds a calculator to its parameters, the way an animated
// property is bound to one aspect of a MIDI track.
type Control struct {
	Mode       Mode
	Controller uint8      // ModeCC
	Filter     NoteFilter // ModeEnvelope and ModeCurve
	Envelope   Envelope   // ModeEnvelope
	Curve      Curve      // ModeCurve
}

// Value samples the control at seconds. Time is folded into one loop of the
// track first, so a control keeps repeating for as long as the track loops.
func (c Control) Value(track *smf.Track, seconds float64) float64 {
	if track == nil || len(track.Events) == 0 {
		return 0
	}
	t := track.WrapSeconds(seconds)
	switch c.Mode {
	case ModeEnvelope:
		return SampleNoteEnvelope(track, c.Filter, c.Envelope, t)
	case ModeCurve:
		return SampleNoteCurve(track, c.Filter, c.Curve, t)
	default:
		return SampleCC(track, c.Controller, t)
	}
}
