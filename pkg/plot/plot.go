// Package plot draws sampled control values as a PNG chart.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/zurustar/midity/pkg/playback"
	"github.com/zurustar/midity/pkg/smf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	// ErrNoSeries is returned when there is nothing to draw.
	ErrNoSeries = errors.New("no series to plot")
	// ErrInvalidSize is returned for images too small to hold the chart.
	ErrInvalidSize = errors.New("invalid plot size")
)

const margin = 40.0

// Series is one sampled control. Values lie in [0, 1] and are drawn against
// Times (seconds). Markers are note-on times drawn as vertical lines.
type Series struct {
	Name    string
	Times   []float64
	Values  []float64
	Markers []float64
}

// Options controls the chart layout.
type Options struct {
	Width    int
	Height   int
	Title    string
	Duration float64 // x axis extent in seconds; 0 fits the series
}

// DefaultOptions is an 800x400 chart fitted to its series.
var DefaultOptions = Options{Width: 800, Height: 400}

var palette = []color.RGBA{
	{0x4e, 0x79, 0xa7, 0xff},
	{0xf2, 0x8e, 0x2b, 0xff},
	{0xe1, 0x57, 0x59, 0xff},
	{0x59, 0xa1, 0x4f, 0xff},
	{0xb0, 0x7a, 0xa1, 0xff},
	{0x76, 0xb7, 0xb2, 0xff},
}

func seriesColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

var (
	fontOnce sync.Once
	fontData *truetype.Font
	fontErr  error
)

func labelFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		fontData, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("failed to parse label font: %w", fontErr)
	}
	return truetype.NewFace(fontData, &truetype.Options{Size: size}), nil
}

// Sample evaluates control at n evenly spaced times across one loop of
// track. Markers hold the note-on times the control's note filter selects;
// a CC control marks every note-on.
func Sample(track *smf.Track, control playback.Control, n int) Series {
	s := Series{Name: track.Name}
	if n < 1 {
		return s
	}

	d := track.DurationSeconds()
	s.Times = make([]float64, n)
	s.Values = make([]float64, n)
	for i := 0; i < n; i++ {
		t := d * float64(i) / float64(n)
		s.Times[i] = t
		s.Values[i] = control.Value(track, t)
	}

	filter := control.Filter
	if control.Mode == playback.ModeCC {
		filter = playback.AllNotes
	}
	for _, e := range track.Events {
		cv, ok := e.(smf.ChannelVoice)
		if ok && cv.IsNoteOn() && filter.Match(cv) {
			s.Markers = append(s.Markers, track.SecondsFromTicks(cv.Tick()))
		}
	}
	return s
}

// extent returns the x axis length: opts.Duration, or the latest sample
// or marker time.
func extent(series []Series, opts Options) float64 {
	if opts.Duration > 0 {
		return opts.Duration
	}
	var d float64
	for _, s := range series {
		for _, t := range s.Times {
			d = max(d, t)
		}
		for _, t := range s.Markers {
			d = max(d, t)
		}
	}
	if d == 0 {
		return 1
	}
	return d
}

// Render draws series and writes the chart to w as PNG.
func Render(w io.Writer, series []Series, opts Options) error {
	if len(series) == 0 {
		return ErrNoSeries
	}
	if opts.Width <= 2*margin || opts.Height <= 2*margin {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, opts.Width, opts.Height)
	}

	face, err := labelFace(11)
	if err != nil {
		return err
	}

	width, height := float64(opts.Width), float64(opts.Height)
	plotW, plotH := width-2*margin, height-2*margin
	duration := extent(series, opts)

	x := func(t float64) float64 { return margin + t/duration*plotW }
	y := func(v float64) float64 { return margin + (1-clamp01(v))*plotH }

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	drawGrid(dc, duration, x, y)

	for i, s := range series {
		c := seriesColor(i)

		dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 0x40)
		dc.SetLineWidth(1)
		for _, t := range s.Markers {
			if t > duration {
				continue
			}
			dc.DrawLine(x(t), y(0), x(t), y(1))
			dc.Stroke()
		}

		dc.SetColor(c)
		dc.SetLineWidth(2)
		for j, m := 0, min(len(s.Times), len(s.Values)); j < m; j++ {
			px, py := x(s.Times[j]), y(s.Values[j])
			if j == 0 {
				dc.MoveTo(px, py)
			} else {
				dc.LineTo(px, py)
			}
		}
		dc.Stroke()

		if s.Name != "" {
			dc.DrawStringAnchored(s.Name, width-margin, margin+float64(i)*14, 1, 1)
		}
	}

	if opts.Title != "" {
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(opts.Title, margin, margin/2, 0, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// drawGrid draws the axes with labels at 0, 0.5 and 1 and one tick per
// second (or per tenth of the extent for long charts).
func drawGrid(dc *gg.Context, duration float64, x, y func(float64) float64) {
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.SetLineWidth(0.5)
	for _, v := range []float64{0, 0.5, 1} {
		dc.DrawLine(x(0), y(v), x(duration), y(v))
		dc.Stroke()
	}

	step := 1.0
	if duration > 10 {
		step = math.Ceil(duration / 10)
	}
	dc.SetRGB(0.3, 0.3, 0.3)
	for t := 0.0; t <= duration+1e-9; t += step {
		dc.DrawStringAnchored(fmt.Sprintf("%gs", t), x(t), y(0)+6, 0.5, 1)
	}
	for _, v := range []float64{0, 0.5, 1} {
		dc.DrawStringAnchored(fmt.Sprintf("%g", v), x(0)-6, y(v), 1, 0.5)
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(x(0), y(0), x(duration), y(0))
	dc.DrawLine(x(0), y(0), x(0), y(1))
	dc.Stroke()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return min(max(v, 0), 1)
}
