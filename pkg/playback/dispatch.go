package playback

import (
	"fmt"

	"github.com/zurustar/midity/pkg/smf"
)

// Filter selects which events a Player hands to its emit callback.
// Events rejected by the filter are still consumed by the cursor.
type Filter func(e smf.Event) bool

// Preset filters.
var (
	// AllEvents emits every event, meta events included.
	AllEvents Filter = func(smf.Event) bool { return true }

	// NoteEvents emits note-on and note-off messages only.
	NoteEvents Filter = func(e smf.Event) bool {
		cv, ok := e.(smf.ChannelVoice)
		return ok && cv.IsNote()
	}

	// ChannelVoiceEvents emits every channel voice message.
	ChannelVoiceEvents Filter = func(e smf.Event) bool {
		return e.Kind() == smf.KindChannelVoice
	}

	// ControlChangeEvents emits control change messages only.
	ControlChangeEvents Filter = func(e smf.Event) bool {
		cv, ok := e.(smf.ChannelVoice)
		return ok && cv.IsControlChange()
	}
)

// NoteFilterEvents emits the note messages that nf matches.
func NoteFilterEvents(nf NoteFilter) Filter {
	return func(e smf.Event) bool {
		cv, ok := e.(smf.ChannelVoice)
		return ok && nf.Match(cv)
	}
}

// ParseFilter maps a preset name to its Filter. The notes preset keeps
// only the note messages nf matches.
func ParseFilter(name string, nf NoteFilter) (Filter, error) {
	switch name {
	case "", "all":
		return AllEvents, nil
	case "notes", "note":
		if nf == AllNotes {
			return NoteEvents, nil
		}
		return NoteFilterEvents(nf), nil
	case "voice", "channel":
		return ChannelVoiceEvents, nil
	case "cc", "control":
		return ControlChangeEvents, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, name)
}

// Events collects emitted events into a slice.
//
//	var got playback.Events
//	p.Advance(t, got.Append)
type Events []smf.Event

// Append adds e to the collection. Its signature matches the emit
// callback of Player.
func (ev *Events) Append(e smf.Event) {
	*ev = append(*ev, e)
}
