package events

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("event not found")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrEmptyTitle       = errors.New("event title is required")
	ErrAmbiguousID      = errors.New("event ID prefix matches more than one event")
)

// Event is a single calendar entry
type Event struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Location        string    `json:"location,omitempty"`
	Calendar        string    `json:"calendar,omitempty"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	AllDay          bool      `json:"all_day,omitempty"`
	ReminderMinutes int       `json:"reminder_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// New creates a validated event with a fresh ID
func New(title, description string, start, end time.Time) (Event, error) {
	e := Event{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Start:       start,
		End:         end,
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// NewAllDay creates an event covering whole days [day, day+days)
func NewAllDay(title string, day time.Time, days int) (Event, error) {
	if days < 1 {
		days = 1
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	e, err := New(title, "", start, start.AddDate(0, 0, days))
	if err != nil {
		return Event{}, err
	}
	e.AllDay = true
	return e, nil
}

// Validate checks the title and the time range
func (e Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if !e.End.After(e.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// DaySpan counts the calendar dates from a to b, seen in a's location.
// It compares dates, not hours, so a 23 or 25 hour DST day still counts
// as one.
func DaySpan(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// Days returns the number of days an all-day event covers, at least 1
func (e Event) Days() int {
	return max(1, DaySpan(e.Start, e.End))
}

// Duration returns End - Start
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// ShortID returns the first 8 characters of the ID
func (e Event) ShortID() string {
	return e.ID.String()[:8]
}

// Overlaps reports whether the event intersects [from, to)
func (e Event) Overlaps(from, to time.Time) bool {
	return e.Start.Before(to) && e.End.After(from)
}

// OccursOn reports whether the event starts on day or spans it
func (e Event) OccursOn(day time.Time) bool {
	loc := day.Location()
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if sy, sm, sd := e.Start.In(loc).Date(); sy == y && sm == m && sd == d {
		return true
	}
	return e.Overlaps(dayStart, dayStart.AddDate(0, 0, 1))
}

// ReminderAt returns when the event's reminder fires. ok is false when
// ReminderMinutes is 0, which means no reminder; the configured default is
// stamped when an event is created, not here.
func (e Event) ReminderAt() (time.Time, bool) {
	if e.ReminderMinutes <= 0 {
		return time.Time{}, false
	}
	return e.Start.Add(-time.Duration(e.ReminderMinutes) * time.Minute), true
}

// Matches reports whether text appears in the title, description or location
func (e Event) Matches(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return true
	}
	for _, field := range []string{e.Title, e.Description, e.Location} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}
