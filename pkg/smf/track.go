package smf

import "math"

// Track is one decoded MTrk chunk together with the timing constants used
// to convert between ticks and seconds. A Track is not modified after Load
// and may be shared by any number of players.
//
// The tempo is fixed: later tempo events stay in Events as data but never
// change TempoBPM.
type Track struct {
	Name                string
	TempoBPM            float64
	DurationTicks       uint32 // last event tick rounded up to a whole 4/4 bar
	TicksPerQuarterNote uint16
	Events              []Event
}

func (t *Track) ticksPerSecond() float64 {
	return t.TempoBPM / 60 * float64(t.TicksPerQuarterNote)
}

// FractionalTicks converts seconds to ticks without truncation.
func (t *Track) FractionalTicks(seconds float64) float64 {
	return seconds * t.ticksPerSecond()
}

// TicksFromSeconds converts seconds to a whole tick, truncating toward zero.
// Negative times map to 0 and overflow saturates.
func (t *Track) TicksFromSeconds(seconds float64) uint32 {
	ticks := t.FractionalTicks(seconds)
	switch {
	case !(ticks > 0):
		return 0
	case ticks >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(ticks)
}

// SecondsFromTicks converts a tick position to seconds.
func (t *Track) SecondsFromTicks(tick uint32) float64 {
	return float64(tick) * 60 / (t.TempoBPM * float64(t.TicksPerQuarterNote))
}

// DurationSeconds is the length of the bar-quantized track in seconds.
func (t *Track) DurationSeconds() float64 {
	return float64(t.DurationTicks) / t.TempoBPM * 60 / float64(t.TicksPerQuarterNote)
}

// WrapSeconds folds seconds into one loop of the track. Tracks with zero
// duration are returned unchanged.
func (t *Track) WrapSeconds(seconds float64) float64 {
	d := t.DurationSeconds()
	if !(d > 0) {
		return seconds
	}
	w := math.Mod(seconds, d)
	if w < 0 {
		w += d
	}
	return w
}
