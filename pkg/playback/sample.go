package playback

import (
	"math"

	"github.com/zurustar/midity/pkg/smf"
)

// queryTick converts seconds to a fractional tick, snapping values that
// land within rounding error of a whole tick onto it so that queries at an
// event's own time see that event.
func queryTick(track *smf.Track, seconds float64) float64 {
	tick := track.FractionalTicks(seconds)
	if r := math.Round(tick); math.Abs(tick-r) < 1e-6 {
		return r
	}
	return tick
}

// normalized maps a 7-bit data byte onto [0, 1].
func normalized(b byte) float64 {
	return float64(b) / 127
}

// ccAround returns the last control change for controller at or before
// tick and the first one after it. Missing events are reported as false.
func ccAround(events []smf.Event, controller uint8, tick float64) (e0, e1 smf.ChannelVoice, ok0, ok1 bool) {
	for _, e := range events {
		cv, ok := e.(smf.ChannelVoice)
		if !ok || !cv.IsControlChange() || cv.Data1 != controller {
			continue
		}
		if float64(cv.Tick()) > tick {
			return e0, cv, ok0, true
		}
		e0, ok0 = cv, true
	}
	return e0, e1, ok0, false
}

// notesBefore returns the indices of the last note-on and last note-off
// matching filter at or before tick, or -1.
func notesBefore(events []smf.Event, filter NoteFilter, tick float64) (on, off int) {
	on, off = -1, -1
	for i, e := range events {
		if float64(e.Tick()) > tick {
			break
		}
		cv, ok := e.(smf.ChannelVoice)
		if !ok || !filter.Match(cv) {
			continue
		}
		if cv.IsNoteOn() {
			on = i
		} else {
			off = i
		}
	}
	return on, off
}

// SampleCC returns the value of a control change controller at seconds,
// normalized to [0, 1] and interpolated linearly between consecutive
// messages. Before the first message it is 0; after the last it holds.
func SampleCC(track *smf.Track, controller uint8, seconds float64) float64 {
	if track == nil {
		return 0
	}
	tick := queryTick(track, seconds)
	e0, e1, ok0, ok1 := ccAround(track.Events, controller, tick)
	if !ok0 {
		return 0
	}
	v0 := normalized(e0.Data2)
	if !ok1 {
		return v0
	}

	t0, t1 := float64(e0.Tick()), float64(e1.Tick())
	frac := (tick - t0) / (t1 - t0)
	frac = min(1, max(0, frac))
	return v0 + (normalized(e1.Data2)-v0)*frac
}

// SampleNoteEnvelope returns env applied to the most recent note matching
// filter, scaled by its velocity. A note still held reports its attack,
// decay or sustain level; once its note-off has passed the level decays
// over the release time. With no note-on yet the value is 0.
func SampleNoteEnvelope(track *smf.Track, filter NoteFilter, env Envelope, seconds float64) float64 {
	if track == nil {
		return 0
	}
	on, off := notesBefore(track.Events, filter, queryTick(track, seconds))
	if on < 0 {
		return 0
	}
	noteOn := track.Events[on].(smf.ChannelVoice)

	onTime := track.SecondsFromTicks(noteOn.Tick())
	offTime := seconds
	if off > on {
		offTime = track.SecondsFromTicks(track.Events[off].Tick())
	}

	level := env.Level(max(0, offTime-onTime), max(0, seconds-offTime))
	return level * normalized(noteOn.Data2)
}

// SampleNoteCurve evaluates curve at the time since the most recent note-on
// matching filter, scaled by its velocity. With no note-on yet, or a nil
// curve, the value is 0.
func SampleNoteCurve(track *smf.Track, filter NoteFilter, curve Curve, seconds float64) float64 {
	if track == nil || curve == nil {
		return 0
	}
	on, _ := notesBefore(track.Events, filter, queryTick(track, seconds))
	if on < 0 {
		return 0
	}
	noteOn := track.Events[on].(smf.ChannelVoice)

	onTime := track.SecondsFromTicks(noteOn.Tick())
	return curve.Evaluate(max(0, seconds-onTime)) * normalized(noteOn.Data2)
}
