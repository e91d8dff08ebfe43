// Package report formats decoded tracks, events and sampled values as
// terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/zurustar/midity/pkg/smf"
)

var (
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4e79a7"))
)

// barWidth is the number of cells a value of 1 fills in Samples.
const barWidth = 20

// newTable returns a table with the common look. Columns listed in numeric
// are right aligned.
func newTable(numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func write(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Tracks writes one row per track: name, timing constants, loop length and
// event counts.
func Tracks(w io.Writer, tracks []smf.Track) error {
	t := newTable(0, 2, 3, 4, 5, 6, 7).
		Headers("#", "Name", "BPM", "TPQN", "Ticks", "Seconds", "Events", "Notes")

	for i := range tracks {
		tr := &tracks[i]
		var notes int
		for _, e := range tr.Events {
			if cv, ok := e.(smf.ChannelVoice); ok && cv.IsNoteOn() {
				notes++
			}
		}
		t.Row(
			strconv.Itoa(i),
			tr.Name,
			strconv.FormatFloat(tr.TempoBPM, 'f', 2, 64),
			strconv.Itoa(int(tr.TicksPerQuarterNote)),
			strconv.FormatUint(uint64(tr.DurationTicks), 10),
			seconds(tr.DurationSeconds()),
			strconv.Itoa(len(tr.Events)),
			strconv.Itoa(notes),
		)
	}
	return write(w, t.Render())
}

// Events writes the events of track in order. A positive limit caps the
// number of rows; the remainder is summarized below the table.
func Events(w io.Writer, track *smf.Track, limit int) error {
	t := newTable(0, 1).Headers("Tick", "Seconds", "Kind", "Event")

	events := track.Events
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	for _, e := range events {
		t.Row(
			strconv.FormatUint(uint64(e.Tick()), 10),
			seconds(track.SecondsFromTicks(e.Tick())),
			e.Kind().String(),
			smf.Describe(e),
		)
	}
	if err := write(w, t.Render()); err != nil {
		return err
	}
	if rest := len(track.Events) - len(events); rest > 0 {
		return write(w, dimStyle.Render(fmt.Sprintf("... %d more events", rest)))
	}
	return nil
}

// SampleRow is one sampled control value.
type SampleRow struct {
	Track string
	Time  float64
	Value float64
}

// Samples writes sampled values with a bar proportional to each value.
func Samples(w io.Writer, rows []SampleRow) error {
	t := newTable(1, 2).Headers("Track", "Seconds", "Value", "")

	for _, r := range rows {
		n := int(min(max(r.Value, 0), 1) * barWidth)
		t.Row(
			r.Track,
			seconds(r.Time),
			strconv.FormatFloat(r.Value, 'f', 4, 64),
			barStyle.Render(strings.Repeat("█", n)),
		)
	}
	return write(w, t.Render())
}
