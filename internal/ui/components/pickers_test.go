package components

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func press(keys ...string) []tea.Msg {
	msgs := make([]tea.Msg, len(keys))
	for i, k := range keys {
		switch k {
		case "up":
			msgs[i] = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msgs[i] = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msgs[i] = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msgs[i] = tea.KeyMsg{Type: tea.KeyRight}
		default:
			msgs[i] = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
	}
	return msgs
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestDatePickerIgnoresKeysWhenBlurred(t *testing.T) {
	d := NewDatePicker()
	d.SetDate(day(2025, time.March, 14))
	for _, msg := range press("up", "up") {
		d, _ = d.Update(msg)
	}
	if !d.Value().Equal(day(2025, time.March, 14)) {
		t.Fatalf("blurred picker changed to %v", d.Value())
	}
}

func TestDatePickerSteps(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		keys  []string
		want  time.Time
	}{
		{"next month", day(2025, time.March, 14), []string{"up"}, day(2025, time.April, 14)},
		{"month clamps day", day(2025, time.January, 31), []string{"up"}, day(2025, time.February, 28)},
		{"month wraps year", day(2025, time.December, 5), []string{"up"}, day(2026, time.January, 5)},
		{"previous month", day(2025, time.January, 5), []string{"down"}, day(2024, time.December, 5)},
		{"day rolls over", day(2025, time.March, 31), []string{"right", "up"}, day(2025, time.April, 1)},
		{"day rolls back", day(2025, time.March, 1), []string{"right", "down"}, day(2025, time.February, 28)},
		{"leap year clamp", day(2024, time.February, 29), []string{"left", "up"}, day(2025, time.February, 28)},
		{"field wraps left", day(2025, time.March, 14), []string{"left", "left", "up"}, day(2025, time.March, 15)},
		{"year floor", day(1970, time.June, 1), []string{"left", "down"}, day(1970, time.June, 1)},
		{"day floor", day(1970, time.January, 1), []string{"right", "down"}, day(1970, time.January, 1)},
		{"month floor", day(1970, time.January, 15), []string{"down"}, day(1970, time.January, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDatePicker()
			d.SetDate(tt.start)
			d.Focus()
			for _, msg := range press(tt.keys...) {
				d, _ = d.Update(msg)
			}
			if !d.Value().Equal(tt.want) {
				t.Fatalf("got %s, want %s", d.Value().Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}

func TestDatePickerSetDateDropsTime(t *testing.T) {
	var d DatePicker
	d.SetDate(time.Date(2025, time.March, 14, 17, 45, 0, 0, time.Local))
	if got := d.Value(); got.Hour() != 0 || got.Minute() != 0 || got.Day() != 14 {
		t.Fatalf("SetDate kept time of day: %v", got)
	}
}

func TestTimePickerSteps(t *testing.T) {
	tests := []struct {
		name         string
		use12h       bool
		hour, minute int
		keys         []string
		want         string
	}{
		{"hour up", false, 9, 0, []string{"up"}, "10:00"},
		{"hour wraps midnight", false, 23, 30, []string{"up"}, "00:30"},
		{"minute step", false, 9, 0, []string{"right", "up", "up"}, "09:10"},
		{"minute snaps up", false, 9, 7, []string{"right", "up"}, "09:10"},
		{"minute snaps down", false, 9, 7, []string{"right", "down"}, "09:05"},
		{"minute wraps in hour", false, 9, 55, []string{"right", "up"}, "09:00"},
		{"minute wraps back", false, 9, 0, []string{"right", "down"}, "09:55"},
		{"24h has two fields", false, 9, 0, []string{"left", "up"}, "09:05"},
		{"period toggles", true, 9, 30, []string{"left", "up"}, "9:30 PM"},
		{"noon", true, 11, 0, []string{"up"}, "12:00 PM"},
		{"midnight", true, 0, 15, nil, "12:15 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := NewTimePicker(tt.use12h)
			tp.SetClock(tt.hour, tt.minute)
			tp.Focus()
			for _, msg := range press(tt.keys...) {
				tp, _ = tp.Update(msg)
			}
			if got := tp.String(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimePickerOn(t *testing.T) {
	tp := NewTimePicker(false)
	tp.SetClock(14, 45)
	got := tp.On(day(2025, time.March, 30))
	want := time.Date(2025, time.March, 30, 14, 45, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("On = %v, want %v", got, want)
	}

	tp.SetClock(25, 0)
	if h, m := tp.Clock(); h != 1 || m != 0 {
		t.Fatalf("SetClock(25, 0) = %d:%02d, want 1:00", h, m)
	}
}
