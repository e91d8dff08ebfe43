package smf

import (
	"fmt"
	"os"
	"sort"

	"github.com/zurustar/midity/pkg/logger"
)

const (
	headerMagic  = "MThd"
	trackMagic   = "MTrk"
	headerLength = 6

	// DefaultTempoBPM is used when a file carries no tempo event.
	DefaultTempoBPM = 120.0
)

type options struct {
	encoding TextEncoding
}

// Option configures Load.
type Option func(*options)

// WithTextEncoding selects how text meta events are decoded.
func WithTextEncoding(e TextEncoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

// LoadFile reads path and decodes it with Load.
func LoadFile(path string, opts ...Option) ([]Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read MIDI file: %w", err)
	}
	return Load(data, opts...)
}

// Load decodes a complete Standard MIDI File. Any structural problem aborts
// the whole load with a *FormatError; there is no partial result.
func Load(data []byte, opts ...Option) ([]Track, error) {
	o := options{encoding: EncodingRaw}
	for _, opt := range opts {
		opt(&o)
	}

	r := NewReader(data)
	r.SetTextEncoding(o.encoding)

	magic, err := r.ReadFixedChars(4)
	if err != nil {
		return nil, formatErr(r.Position(), "header chunk", err)
	}
	if magic != headerMagic {
		return nil, formatErr(0, fmt.Sprintf("can't find header chunk (got %q)", magic), nil)
	}

	length, err := r.ReadBEUint32()
	if err != nil {
		return nil, formatErr(r.Position(), "header length", err)
	}
	if length != headerLength {
		return nil, formatErr(4, fmt.Sprintf("length of header chunk must be 6, got %d", length), nil)
	}

	// Format (unused)
	if err := r.Advance(2); err != nil {
		return nil, formatErr(r.Position(), "header format", err)
	}

	trackCount, err := r.ReadBEUint16()
	if err != nil {
		return nil, formatErr(r.Position(), "track count", err)
	}

	division, err := r.ReadBEUint16()
	if err != nil {
		return nil, formatErr(r.Position(), "division", err)
	}
	if division&0x8000 != 0 {
		return nil, formatErr(12, "SMPTE time code is not supported", nil)
	}
	if division == 0 {
		return nil, formatErr(12, "ticks per quarter note must be non-zero", nil)
	}

	log := logger.GetLogger()
	log.Debug("SMF header", "tracks", trackCount, "ticksPerQuarterNote", division)

	tracks := make([]Track, 0, trackCount)
	var tempo *float64
	for i := 0; i < int(trackCount); i++ {
		t, err := readTrack(r, division, &tempo)
		if err != nil {
			return nil, err
		}
		log.Debug("SMF track decoded",
			"index", i,
			"name", t.Name,
			"events", len(t.Events),
			"tempo", t.TempoBPM,
			"durationTicks", t.DurationTicks)
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// readTrack decodes one MTrk chunk. tempo holds the first tempo seen in the
// file so far and is shared across tracks.
func readTrack(r *Reader, tpqn uint16, tempo **float64) (Track, error) {
	start := r.Position()
	magic, err := r.ReadFixedChars(4)
	if err != nil {
		return Track{}, formatErr(start, "track chunk", err)
	}
	if magic != trackMagic {
		return Track{}, formatErr(start, fmt.Sprintf("can't find track chunk (got %q)", magic), nil)
	}

	length, err := r.ReadBEUint32()
	if err != nil {
		return Track{}, formatErr(r.Position(), "track length", err)
	}
	end := r.Position() + int(length)

	var (
		events   []Event
		allTicks uint32
		status   byte
	)
	for r.Position() < end {
		offset := r.Position()
		delta, err := r.ReadVarint()
		if err != nil {
			return Track{}, formatErr(offset, "delta time", err)
		}
		allTicks += delta
		at := At{Time: allTicks, Delta: delta}

		next, err := r.PeekByte()
		if err != nil {
			return Track{}, formatErr(r.Position(), "status byte", err)
		}
		if next&0x80 != 0 {
			if status, err = r.ReadByte(); err != nil {
				return Track{}, formatErr(r.Position(), "status byte", err)
			}
		} else if status == 0 {
			return Track{}, formatErr(r.Position(), "data byte without running status", nil)
		}

		var ev Event
		switch {
		case status == 0xFF:
			ev, err = readMetaEvent(r, at)
		case status == 0xF0:
			ev, err = readSysExEvent(r, at)
		case status == 0xF7:
			ev, err = readEscapeEvent(r, at)
		case status >= 0xF1:
			return Track{}, formatErr(offset, fmt.Sprintf("unsupported status byte 0x%02X", status), nil)
		default:
			ev, err = readChannelVoiceEvent(r, at, status)
		}
		if err != nil {
			return Track{}, formatErr(r.Position(), "event", err)
		}
		events = append(events, ev)
	}

	sortEvents(events)

	t := Track{
		TicksPerQuarterNote: tpqn,
		Events:              events,
	}
	var named bool
	for _, e := range events {
		switch ev := e.(type) {
		case TrackName:
			if !named {
				t.Name = ev.Name
				named = true
			}
		case Tempo:
			if *tempo == nil && ev.MicrosPerQuarter != 0 {
				bpm := ev.BPM()
				*tempo = &bpm
			}
		}
	}
	t.TempoBPM = DefaultTempoBPM
	if *tempo != nil {
		t.TempoBPM = **tempo
	}
	t.DurationTicks = quantizeToBar(lastTick(events), tpqn)
	return t, nil
}

func readMetaEvent(r *Reader, at At) (Event, error) {
	typ, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch typ {
	case 0x01, 0x03, 0x05, 0x06, 0x07:
		text, err := r.ReadText()
		if err != nil {
			return nil, err
		}
		switch typ {
		case 0x01:
			return Text{At: at, Text: text}, nil
		case 0x03:
			return TrackName{At: at, Name: text}, nil
		case 0x05:
			return Lyric{At: at, Text: text}, nil
		case 0x06:
			return Marker{At: at, Text: text}, nil
		default:
			return Cue{At: at, Text: text}, nil
		}
	case 0x51:
		n, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		if n > 4 {
			return nil, fmt.Errorf("tempo payload of %d bytes", n)
		}
		v, err := r.ReadBEUint(int(n))
		if err != nil {
			return nil, err
		}
		return Tempo{At: at, MicrosPerQuarter: v}, nil
	}

	payload, err := readPayload(r)
	if err != nil {
		return nil, err
	}
	switch typ {
	case 0x00:
		e := SequenceNumber{At: at}
		copy(e.Number[:], payload)
		return e, nil
	case 0x20:
		e := ChannelPrefix{At: at}
		if len(payload) > 0 {
			e.Value = payload[0]
		}
		return e, nil
	case 0x2F:
		return EndOfTrack{At: at}, nil
	case 0x54:
		e := SMPTEOffset{At: at}
		copy(e.Bytes[:], payload)
		return e, nil
	case 0x58:
		var b [4]byte
		copy(b[:], payload)
		return TimeSignature{
			At:                      at,
			Numerator:               b[0],
			DenominatorPow2:         b[1],
			ClocksPerClick:          b[2],
			ThirtySecondsPerQuarter: b[3],
		}, nil
	case 0x59:
		var b [2]byte
		copy(b[:], payload)
		return Key{At: at, SharpsFlats: int8(b[0]), Major: b[1] == 0}, nil
	case 0x7F:
		return SequencerSpecific{At: at, Bytes: payload}, nil
	default:
		return Unknown{At: at, Status: 0xFF, Type: typ, Bytes: payload}, nil
	}
}

func readPayload(r *Reader) ([]byte, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// readSysExEvent consumes bytes up to and including the terminating 0xF7.
func readSysExEvent(r *Reader, at At) (Event, error) {
	var data []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		data = append(data, b)
		if b == 0xF7 {
			return Unknown{At: at, Status: 0xF0, Bytes: data}, nil
		}
	}
}

// readEscapeEvent reads an 0xF7 escape block, which is always length-prefixed.
func readEscapeEvent(r *Reader, at At) (Event, error) {
	payload, err := readPayload(r)
	if err != nil {
		return nil, err
	}
	return Unknown{At: at, Status: 0xF7, Bytes: payload}, nil
}

func readChannelVoiceEvent(r *Reader, at At, status byte) (Event, error) {
	d1, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	var d2 byte
	if hasData2(status) {
		if d2, err = r.ReadByte(); err != nil {
			return nil, err
		}
	}
	return ChannelVoice{At: at, Status: status, Data1: d1, Data2: d2}, nil
}

// sortEvents orders events by tick, keeping decode order for ties, and
// refreshes the delta of every event that moved.
func sortEvents(events []Event) {
	if sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Tick() < events[j].Tick() }) {
		return
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Tick() < events[j].Tick() })
	var prev uint32
	for i, e := range events {
		events[i] = withTiming(e, At{Time: e.Tick(), Delta: e.Tick() - prev})
		prev = e.Tick()
	}
}

func lastTick(events []Event) uint32 {
	var last uint32
	for _, e := range events {
		if e.Tick() > last {
			last = e.Tick()
		}
	}
	return last
}

// quantizeToBar rounds ticks up to the next whole 4/4 bar.
func quantizeToBar(ticks uint32, tpqn uint16) uint32 {
	bar := uint32(tpqn) * 4
	if bar == 0 {
		return 0
	}
	bars := (uint64(ticks) + uint64(bar) - 1) / uint64(bar)
	return uint32(bars * uint64(bar))
}
