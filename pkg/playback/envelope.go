package playback

import (
	"fmt"
	"strconv"
	"strings"
)

// Envelope is an ADSR shape. Attack, Decay and Release are durations in
// seconds; Sustain is a level in [0, 1]. A zero-length phase is
// instantaneous: zero attack starts at full level, zero decay drops straight
// to Sustain and zero release silences the note as soon as it ends.
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultEnvelope is a short pluck with a held tail.
var DefaultEnvelope = Envelope{Attack: 0.01, Decay: 0.2, Sustain: 0.6, Release: 0.3}

// Level returns the envelope level given how long the note has been held
// (onElapsed) and how long it has been released (releaseElapsed).
func (env Envelope) Level(onElapsed, releaseElapsed float64) float64 {
	var level float64
	switch {
	case onElapsed < env.Attack:
		level = onElapsed / env.Attack
	case onElapsed < env.Attack+env.Decay:
		level = 1 - (onElapsed-env.Attack)/env.Decay*(1-env.Sustain)
	default:
		level = env.Sustain
	}

	if releaseElapsed > 0 {
		if env.Release > 0 {
			level -= releaseElapsed / env.Release
		} else {
			level = 0
		}
	}
	return max(0, level)
}

// ParseEnvelope parses "attack,decay,sustain,release".
func ParseEnvelope(s string) (Envelope, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Envelope{}, fmt.Errorf("%w: want 4 values, got %q", ErrInvalidEnvelope, s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || f < 0 {
			return Envelope{}, fmt.Errorf("%w: %q", ErrInvalidEnvelope, part)
		}
		v[i] = f
	}
	if v[2] > 1 {
		return Envelope{}, fmt.Errorf("%w: sustain %v exceeds 1", ErrInvalidEnvelope, v[2])
	}
	return Envelope{Attack: v[0], Decay: v[1], Sustain: v[2], Release: v[3]}, nil
}

func (env Envelope) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", env.Attack, env.Decay, env.Sustain, env.Release)
}
