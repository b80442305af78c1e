package calendar

import "time"

// Direction is a selection movement on the month grid
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// delta returns the day offset for a direction
func (d Direction) delta() int {
	switch d {
	case Left:
		return -1
	case Right:
		return 1
	case Up:
		return -7
	default:
		return 7
	}
}

// Grid holds day-of-month numbers for a 6x7 month view; 0 marks an empty cell
type Grid [6][7]int

// Weeks returns how many rows of the grid contain at least one day
func (g Grid) Weeks() int {
	n := 0
	for i, week := range g {
		for _, d := range week {
			if d != 0 {
				n = i + 1
				break
			}
		}
	}
	return n
}

// Calendar tracks the displayed month and the selected day
type Calendar struct {
	// Current is any instant inside the displayed month
	Current time.Time
	// Selected is the highlighted day, always inside Current's month
	Selected  time.Time
	WeekStart time.Weekday
}

// New creates a calendar showing the month of now with now selected
func New(now time.Time, weekStart time.Weekday) *Calendar {
	day := DateOnly(now)
	return &Calendar{
		Current:   day,
		Selected:  day,
		WeekStart: weekStart,
	}
}

// DateOnly truncates t to midnight in its own location
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysInMonth returns the number of days in the given month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstOfMonth returns 00:00 on the first day of t's month
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// NextMonth moves the view to the first day of the following month.
// The selection keeps its day number, clamped to the new month's length.
func (c *Calendar) NextMonth() {
	c.Current = FirstOfMonth(c.Current).AddDate(0, 1, 0)
	c.clampSelection()
}

// PrevMonth moves the view to the first day of the preceding month.
func (c *Calendar) PrevMonth() {
	c.Current = FirstOfMonth(c.Current).AddDate(0, -1, 0)
	c.clampSelection()
}

func (c *Calendar) clampSelection() {
	day := c.Selected.Day()
	if last := DaysInMonth(c.Current.Year(), c.Current.Month()); day > last {
		day = last
	}
	c.Selected = time.Date(c.Current.Year(), c.Current.Month(), day, 0, 0, 0, 0, c.Current.Location())
}

// MonthGrid lays out the displayed month starting each row on WeekStart
func (c *Calendar) MonthGrid() Grid {
	var grid Grid
	first := FirstOfMonth(c.Current)
	offset := (int(first.Weekday()) - int(c.WeekStart) + 7) % 7
	days := DaysInMonth(first.Year(), first.Month())

	for day := 1; day <= days; day++ {
		cell := offset + day - 1
		grid[cell/7][cell%7] = day
	}
	return grid
}

// GridStart returns the date shown in the grid's top-left cell, which may
// belong to the previous month
func (c *Calendar) GridStart() time.Time {
	first := FirstOfMonth(c.Current)
	offset := (int(first.Weekday()) - int(c.WeekStart) + 7) % 7
	return first.AddDate(0, 0, -offset)
}

// MoveSelection moves the selection by a day or a week. It returns false,
// leaving the selection unchanged, when the move would leave the month.
func (c *Calendar) MoveSelection(dir Direction) bool {
	next := c.Selected.AddDate(0, 0, dir.delta())
	if next.Year() != c.Current.Year() || next.Month() != c.Current.Month() {
		return false
	}
	c.Selected = next
	return true
}

// Step moves the selection, rolling into the adjacent month when needed:
// left from the 1st lands on the previous month's last day, right from the
// last day on the next month's 1st, up/down keep the weekday.
func (c *Calendar) Step(dir Direction) {
	if c.MoveSelection(dir) {
		return
	}
	c.Select(c.Selected.AddDate(0, 0, dir.delta()))
}

// Select selects date and shows its month
func (c *Calendar) Select(date time.Time) {
	c.Selected = DateOnly(date)
	c.Current = FirstOfMonth(date)
}

// GoToday selects today
func (c *Calendar) GoToday(now time.Time) {
	c.Select(now)
}

// DayDate returns the date of a day number in the displayed month
func (c *Calendar) DayDate(day int) time.Time {
	return time.Date(c.Current.Year(), c.Current.Month(), day, 0, 0, 0, 0, c.Current.Location())
}

// IsToday reports whether day in the displayed month is now's date
func (c *Calendar) IsToday(day int, now time.Time) bool {
	return day > 0 && SameDay(c.DayDate(day), now)
}

// IsSelected reports whether day in the displayed month is selected
func (c *Calendar) IsSelected(day int) bool {
	return day > 0 && SameDay(c.DayDate(day), c.Selected)
}

// WeekdayLabels returns weekday abbreviations ordered from WeekStart
func (c *Calendar) WeekdayLabels(width int) []string {
	labels := make([]string, 7)
	for i := 0; i < 7; i++ {
		name := time.Weekday((int(c.WeekStart) + i) % 7).String()
		if width > 0 && width < len(name) {
			name = name[:width]
		}
		labels[i] = name
	}
	return labels
}

// MonthRange returns [first day of the displayed month, first day of next month)
func (c *Calendar) MonthRange() (time.Time, time.Time) {
	start := FirstOfMonth(c.Current)
	return start, start.AddDate(0, 1, 0)
}
