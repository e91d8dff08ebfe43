package playback

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Curve maps the time since a note-on, in seconds, to a value.
type Curve interface {
	Evaluate(t float64) float64
}

// CurveFunc adapts an ordinary function to Curve.
type CurveFunc func(t float64) float64

func (f CurveFunc) Evaluate(t float64) float64 { return f(t) }

// Keyframe is one control point of a Keyframes curve.
type Keyframe struct {
	Time  float64
	Value float64
}

// Keyframes is a piecewise-linear curve through points sorted by Time. It
// holds the first value before the first point and the last value after the
// last one. An empty curve evaluates to 0.
type Keyframes []Keyframe

func (k Keyframes) Evaluate(t float64) float64 {
	if len(k) == 0 {
		return 0
	}
	if t <= k[0].Time {
		return k[0].Value
	}
	last := k[len(k)-1]
	if t >= last.Time {
		return last.Value
	}

	i, _ := slices.BinarySearchFunc(k, t, func(kf Keyframe, t float64) int {
		return cmp.Compare(kf.Time, t)
	})
	// k[i-1].Time < t <= k[i].Time
	a, b := k[i-1], k[i]
	return a.Value + (b.Value-a.Value)*(t-a.Time)/(b.Time-a.Time)
}

// ParseKeyframes parses "time:value,time:value,...". Points are sorted by
// time; points sharing a time keep their input order.
func ParseKeyframes(s string) (Keyframes, error) {
	var k Keyframes
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ts, vs, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not time:value", ErrInvalidCurve, part)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurve, part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(vs), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurve, part)
		}
		k = append(k, Keyframe{Time: t, Value: v})
	}
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: no keyframes in %q", ErrInvalidCurve, s)
	}
	slices.SortStableFunc(k, func(a, b Keyframe) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return k, nil
}
