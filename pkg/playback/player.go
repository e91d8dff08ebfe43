// Package playback drives decoded tracks over continuous time: a cursor
// based Player for discrete event dispatch, and stateless calculators for
// CC, envelope and curve values at an arbitrary query time.
package playback

import (
	"github.com/zurustar/midity/pkg/logger"
	"github.com/zurustar/midity/pkg/smf"
)

// Player is a forward cursor over the events of one track.
//
// When looping, playback time is unbounded and lap n of the track covers
// ticks [n*DurationTicks, (n+1)*DurationTicks). The cursor remembers the lap
// it is in, so long sessions do not drift from the track's loop points.
//
// A Player is not safe for concurrent use. Several players may share the
// same Track.
type Player struct {
	track  *smf.Track
	loop   bool
	filter Filter

	head     int    // index of the next pending event
	lapBase  uint64 // absolute tick of the start of the cursor's lap
	lastTick uint32 // tick the cursor was last moved to
}

// Option configures a Player.
type Option func(*Player)

// WithLoop enables or disables wrapping at the end of the track.
// Looping is on by default and is always off for tracks of zero duration.
func WithLoop(loop bool) Option {
	return func(p *Player) {
		p.loop = loop
	}
}

// WithFilter selects which events are emitted. The default is AllEvents.
func WithFilter(f Filter) Option {
	return func(p *Player) {
		if f != nil {
			p.filter = f
		}
	}
}

// NewPlayer returns a Player positioned at the start of track.
func NewPlayer(track *smf.Track, opts ...Option) *Player {
	p := &Player{
		track:  track,
		loop:   true,
		filter: AllEvents,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Track returns the track the player reads from.
func (p *Player) Track() *smf.Track {
	return p.track
}

// HeadIndex returns the index of the next event the cursor will emit.
// It equals the number of events once a non-looping player is exhausted.
func (p *Player) HeadIndex() int {
	return p.head
}

// LastTick returns the absolute tick the cursor was last moved to.
func (p *Player) LastTick() uint32 {
	return p.lastTick
}

func (p *Player) looping() bool {
	return p.loop && p.track.DurationTicks > 0
}

func (p *Player) events() []smf.Event {
	if p.track == nil {
		return nil
	}
	return p.track.Events
}

// ResetHead moves the cursor to seconds without emitting anything. Events
// stamped exactly at the target stay pending, so the next Advance to the
// same time emits them.
func (p *Player) ResetHead(seconds float64) {
	events := p.events()
	if len(events) == 0 {
		return
	}

	target := p.track.TicksFromSeconds(seconds)
	p.lastTick = target
	p.lapBase = 0
	local := uint64(target)
	if p.looping() {
		d := uint64(p.track.DurationTicks)
		p.lapBase = local / d * d
		local -= p.lapBase
		// Events on the loop point of the previous lap share the target.
		if local == 0 && p.lapBase > 0 && events[len(events)-1].Tick() == p.track.DurationTicks {
			p.lapBase -= d
			local = d
		}
	}

	p.head = 0
	for p.head < len(events) && uint64(events[p.head].Tick()) < local {
		p.head++
	}
	if p.head == len(events) && p.looping() {
		p.head = 0
		p.lapBase += uint64(p.track.DurationTicks)
	}

	logger.GetLogger().Debug("Player head reset",
		"track", p.track.Name, "tick", target, "head", p.head, "lapBase", p.lapBase)
}

// Advance emits, in stored order, every pending event whose tick is at or
// before seconds, crossing loop boundaries as needed. Time is expected to
// move forward between calls; a call with an earlier time emits nothing.
func (p *Player) Advance(seconds float64, emit func(smf.Event)) {
	events := p.events()
	if len(events) == 0 {
		return
	}

	target := p.track.TicksFromSeconds(seconds)
	for p.head < len(events) {
		e := events[p.head]
		if p.lapBase+uint64(e.Tick()) > uint64(target) {
			break
		}
		if p.filter(e) {
			emit(e)
		}
		p.head++
		if p.head == len(events) && p.looping() {
			p.head = 0
			p.lapBase += uint64(p.track.DurationTicks)
		}
	}
	if target > p.lastTick {
		p.lastTick = target
	}
}

// TriggerRange emits every event inside the half-open time interval
// [prev, cur) without touching the cursor. When looping, an interval that
// runs past the end of the track continues from its start, and an interval
// with cur < prev is taken to have wrapped once.
//
// Consecutive calls over adjacent intervals emit each event exactly once;
// an event on a shared boundary belongs to the later call.
func (p *Player) TriggerRange(prev, cur float64, emit func(smf.Event)) {
	events := p.events()
	if len(events) == 0 {
		return
	}

	t0 := uint64(p.track.TicksFromSeconds(prev))
	t1 := uint64(p.track.TicksFromSeconds(cur))

	if !p.looping() {
		p.emitRange(t0, t1, false, emit)
		return
	}

	d := uint64(p.track.DurationTicks)
	if t1 < t0 {
		t1 += d * (t0/d + 1)
	}
	base := t0 / d * d
	t0 -= base
	t1 -= base

	for t1 >= d {
		p.emitRange(t0, d, true, emit)
		t0 = 0
		t1 -= d
	}
	p.emitRange(t0, t1, false, emit)
}

// emitRange emits the events with from <= tick < to. A range closing a lap
// also takes events stamped exactly at the loop point.
func (p *Player) emitRange(from, to uint64, closesLap bool, emit func(smf.Event)) {
	for _, e := range p.track.Events {
		tick := uint64(e.Tick())
		if tick < from {
			continue
		}
		if tick > to || (tick == to && !closesLap) {
			break
		}
		if p.filter(e) {
			emit(e)
		}
	}
}
