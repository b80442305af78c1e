package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthNavigationWrapsYears(t *testing.T) {
	c := New(date(2024, time.December, 15), time.Sunday)

	c.NextMonth()
	if c.Current.Month() != time.January || c.Current.Year() != 2025 {
		t.Fatalf("NextMonth from December = %v", c.Current)
	}
	if c.Current.Day() != 1 || c.Current.Hour() != 0 {
		t.Fatalf("NextMonth should land on the 1st at midnight, got %v", c.Current)
	}

	c.PrevMonth()
	c.PrevMonth()
	if c.Current.Month() != time.November || c.Current.Year() != 2024 {
		t.Fatalf("PrevMonth twice = %v", c.Current)
	}
}

func TestMonthChangeClampsSelection(t *testing.T) {
	c := New(date(2024, time.January, 31), time.Sunday)
	c.NextMonth()
	if !SameDay(c.Selected, date(2024, time.February, 29)) {
		t.Fatalf("expected Feb 29 in a leap year, got %v", c.Selected)
	}
}

func TestMonthGridSundayStart(t *testing.T) {
	// September 2024 starts on a Sunday and has 30 days
	c := New(date(2024, time.September, 10), time.Sunday)
	grid := c.MonthGrid()

	if grid[0][0] != 1 {
		t.Fatalf("expected day 1 in first cell, got %v", grid[0])
	}
	if grid[4][1] != 30 {
		t.Fatalf("expected day 30 at [4][1], got %d", grid[4][1])
	}
	if grid.Weeks() != 5 {
		t.Fatalf("expected 5 weeks, got %d", grid.Weeks())
	}
}

func TestMonthGridMondayStart(t *testing.T) {
	// September 2024: the 1st is a Sunday, so with Monday start it sits in the last column
	c := New(date(2024, time.September, 10), time.Monday)
	grid := c.MonthGrid()

	for i := 0; i < 6; i++ {
		if grid[0][i] != 0 {
			t.Fatalf("expected empty leading cells, got %v", grid[0])
		}
	}
	if grid[0][6] != 1 || grid[1][0] != 2 {
		t.Fatalf("unexpected first weeks: %v %v", grid[0], grid[1])
	}
	if grid.Weeks() != 6 {
		t.Fatalf("expected 6 weeks, got %d", grid.Weeks())
	}
}

func TestMonthGridContainsEachDayOnce(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		c := New(date(2025, m, 1), time.Sunday)
		seen := map[int]int{}
		for _, week := range c.MonthGrid() {
			for _, d := range week {
				if d != 0 {
					seen[d]++
				}
			}
		}
		days := DaysInMonth(2025, m)
		if len(seen) != days {
			t.Fatalf("%v: expected %d days, got %d", m, days, len(seen))
		}
		for d, n := range seen {
			if n != 1 {
				t.Fatalf("%v: day %d appears %d times", m, d, n)
			}
		}
	}
}

func TestMoveSelectionStaysInMonth(t *testing.T) {
	c := New(date(2024, time.March, 1), time.Sunday)

	if c.MoveSelection(Left) {
		t.Fatalf("moving left from the 1st should fail")
	}
	if !SameDay(c.Selected, date(2024, time.March, 1)) {
		t.Fatalf("selection changed on failed move: %v", c.Selected)
	}
	if !c.MoveSelection(Down) || !SameDay(c.Selected, date(2024, time.March, 8)) {
		t.Fatalf("down should move a week, got %v", c.Selected)
	}
	if !c.MoveSelection(Right) || c.Selected.Day() != 9 {
		t.Fatalf("right should move a day, got %v", c.Selected)
	}
}

func TestStepRollsAcrossMonths(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		dir   Direction
		want  time.Time
	}{
		{"left from first", date(2024, time.March, 1), Left, date(2024, time.February, 29)},
		{"right from last", date(2024, time.March, 31), Right, date(2024, time.April, 1)},
		{"up keeps weekday", date(2024, time.March, 3), Up, date(2024, time.February, 25)},
		{"down keeps weekday", date(2024, time.December, 28), Down, date(2025, time.January, 4)},
		{"inside month", date(2024, time.March, 10), Right, date(2024, time.March, 11)},
	}

	for _, tt := range tests {
		c := New(tt.start, time.Sunday)
		c.Step(tt.dir)
		if !SameDay(c.Selected, tt.want) {
			t.Fatalf("%s: selected %v, want %v", tt.name, c.Selected, tt.want)
		}
		if c.Current.Month() != tt.want.Month() || c.Current.Year() != tt.want.Year() {
			t.Fatalf("%s: current month %v, want %v", tt.name, c.Current, tt.want)
		}
	}
}

func TestTodayAndSelectionHelpers(t *testing.T) {
	now := date(2024, time.May, 20)
	c := New(now, time.Sunday)

	if !c.IsToday(20, now) || c.IsToday(21, now) || c.IsToday(0, now) {
		t.Fatalf("IsToday mismatch")
	}

	c.NextMonth()
	if c.IsToday(20, now) {
		t.Fatalf("day 20 of June is not today")
	}

	c.GoToday(now)
	if !c.IsSelected(20) || c.Current.Month() != time.May {
		t.Fatalf("GoToday did not return to May 20: %v", c.Selected)
	}
}

func TestWeekdayLabels(t *testing.T) {
	c := New(date(2024, time.May, 20), time.Monday)
	labels := c.WeekdayLabels(3)
	if labels[0] != "Mon" || labels[6] != "Sun" {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestGridStart(t *testing.T) {
	// June 1 2025 is a Sunday
	c := New(date(2025, time.June, 10), time.Sunday)
	if got := c.GridStart(); !SameDay(got, date(2025, time.June, 1)) {
		t.Fatalf("sunday start: got %v", got)
	}

	c.WeekStart = time.Monday
	if got := c.GridStart(); !SameDay(got, date(2025, time.May, 26)) {
		t.Fatalf("monday start: got %v", got)
	}
}
