package components

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TimeField is the part of a TimePicker the arrow keys change
type TimeField int

const (
	TimeFieldHour TimeField = iota
	TimeFieldMinute
	TimeFieldPeriod // 12-hour mode only
)

const (
	minutesPerDay     = 24 * 60
	defaultMinuteStep = 5
)

// TimePicker edits a time of day. Minutes move in steps and wrap within
// the hour; in 12-hour mode an AM/PM field follows the minutes.
type TimePicker struct {
	minutes int // since midnight
	step    int
	use12h  bool
	field   TimeField
	focused bool
}

func NewTimePicker(use12h bool) TimePicker {
	return TimePicker{minutes: 9 * 60, step: defaultMinuteStep, use12h: use12h}
}

func (t *TimePicker) Focus()          { t.focused = true }
func (t *TimePicker) Blur()           { t.focused = false }
func (t TimePicker) Focused() bool    { return t.focused }
func (t TimePicker) Field() TimeField { return t.field }

// SetClock sets the time, wrapping values outside one day
func (t *TimePicker) SetClock(hour, minute int) {
	t.minutes = ((hour*60+minute)%minutesPerDay + minutesPerDay) % minutesPerDay
}

// Clock returns the selected hour (0-23) and minute
func (t TimePicker) Clock() (hour, minute int) {
	return t.minutes / 60, t.minutes % 60
}

// On returns the selected time on day, in day's location
func (t TimePicker) On(day time.Time) time.Time {
	h, m := t.Clock()
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
}

func (t TimePicker) fields() TimeField {
	if t.use12h {
		return 3
	}
	return 2
}

func (t TimePicker) Update(msg tea.Msg) (TimePicker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !t.focused {
		return t, nil
	}

	switch key.String() {
	case "up", "k", "+":
		t.move(1)
	case "down", "j", "-":
		t.move(-1)
	case "left", "h":
		t.field = (t.field + t.fields() - 1) % t.fields()
	case "right", "l":
		t.field = (t.field + 1) % t.fields()
	}
	return t, nil
}

func (t *TimePicker) move(n int) {
	hour, minute := t.Clock()
	switch t.field {
	case TimeFieldHour:
		hour += n
	case TimeFieldMinute:
		// Snap to the step grid first so 9:07 goes to 9:10 / 9:05
		steps := minute / t.step
		if n < 0 && minute%t.step != 0 {
			steps++
		}
		minute = ((steps+n)*t.step%60 + 60) % 60
	case TimeFieldPeriod:
		hour += 12
	}
	t.SetClock(hour, minute)
}

func (t TimePicker) String() string {
	hour, minute := t.Clock()
	if !t.use12h {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	h12, period := to12h(hour)
	return fmt.Sprintf("%d:%02d %s", h12, minute, period)
}

func to12h(hour int) (int, string) {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return h, period
}

func (t TimePicker) View() string {
	hour, minute := t.Clock()
	if !t.use12h {
		parts := []string{fmt.Sprintf("%02d", hour), fmt.Sprintf("%02d", minute)}
		return renderSegments(t.focused, int(t.field), parts, []string{":"})
	}
	h12, period := to12h(hour)
	parts := []string{fmt.Sprintf("%2d", h12), fmt.Sprintf("%02d", minute), period}
	return renderSegments(t.focused, int(t.field), parts, []string{":", " "})
}
