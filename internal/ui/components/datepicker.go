package components

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termcal/internal/i18n"
)

// DateField is the part of a DatePicker the arrow keys change
type DateField int

const (
	DateFieldMonth DateField = iota
	DateFieldDay
	DateFieldYear
)

const minYear = 1970

// DatePicker edits a calendar day. Up/down change the focused field,
// left/right move between fields and t jumps to today.
type DatePicker struct {
	date    time.Time // local midnight
	field   DateField
	focused bool
}

func NewDatePicker() DatePicker {
	var d DatePicker
	d.SetDate(time.Now())
	return d
}

func (d *DatePicker) Focus()          { d.focused = true }
func (d *DatePicker) Blur()           { d.focused = false }
func (d DatePicker) Focused() bool    { return d.focused }
func (d DatePicker) Field() DateField { return d.field }

// SetDate keeps only the calendar day of t
func (d *DatePicker) SetDate(t time.Time) {
	d.date = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Value returns the selected day at local midnight
func (d DatePicker) Value() time.Time {
	return d.date
}

func (d DatePicker) Update(msg tea.Msg) (DatePicker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !d.focused {
		return d, nil
	}

	switch key.String() {
	case "up", "k", "+":
		d.step(1)
	case "down", "j", "-":
		d.step(-1)
	case "left", "h":
		d.field = (d.field + 2) % 3
	case "right", "l":
		d.field = (d.field + 1) % 3
	case "t":
		d.SetDate(time.Now())
	}
	return d, nil
}

// step moves the focused field by n. Days roll over into the neighbouring
// month; month and year changes clamp the day to the target month. Nothing
// before minYear is reachable.
func (d *DatePicker) step(n int) {
	if d.field == DateFieldDay {
		if next := d.date.AddDate(0, 0, n); next.Year() >= minYear {
			d.date = next
		}
		return
	}

	year, month, day := d.date.Date()
	if d.field == DateFieldMonth {
		month += time.Month(n)
	} else {
		year += n
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	if first.Year() < minYear {
		return
	}
	d.date = first.AddDate(0, 0, min(day, daysIn(first))-1)
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d DatePicker) View() string {
	parts := []string{
		i18n.Month(d.date.Month()),
		fmt.Sprintf("%2d", d.date.Day()),
		fmt.Sprintf("%d", d.date.Year()),
	}
	return renderSegments(d.focused, int(d.field), parts, []string{" ", ", "})
}

// renderSegments joins parts with seps, highlighting parts[active] when
// focused and dimming everything otherwise
func renderSegments(focused bool, active int, parts, seps []string) string {
	normal := lipgloss.NewStyle().Foreground(Text)
	highlight := lipgloss.NewStyle().Foreground(Text).Background(Primary).Bold(true)
	dim := lipgloss.NewStyle().Foreground(Muted)

	var b strings.Builder
	for i, p := range parts {
		if i > 0 && i-1 < len(seps) {
			if focused {
				b.WriteString(normal.Render(seps[i-1]))
			} else {
				b.WriteString(dim.Render(seps[i-1]))
			}
		}
		switch {
		case !focused:
			b.WriteString(dim.Render(p))
		case i == active:
			b.WriteString(highlight.Render(p))
		default:
			b.WriteString(normal.Render(p))
		}
	}
	return b.String()
}
