package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	events  map[uuid.UUID]Event
	puts    int
	deletes int
	failPut error
}

func newMemStore() *memStore {
	return &memStore{events: make(map[uuid.UUID]Event)}
}

func (s *memStore) Load(context.Context) ([]Event, error) {
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e)
	}
	return out, nil
}

func (s *memStore) Put(_ context.Context, e Event) error {
	if s.failPut != nil {
		return s.failPut
	}
	s.puts++
	s.events[e.ID] = e
	return nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	s.deletes++
	delete(s.events, id)
	return nil
}

var base = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func mustEvent(t *testing.T, title string, start time.Time, d time.Duration) Event {
	t.Helper()
	e, err := New(title, "", start, start.Add(d))
	require.NoError(t, err)
	return e
}

func TestNewValidatesTimes(t *testing.T) {
	_, err := New("Standup", "daily", base, base.Add(time.Hour))
	require.NoError(t, err)

	_, err = New("Backwards", "", base, base.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = New("Zero length", "", base, base)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = New("   ", "", base, base.Add(time.Hour))
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestNewAllDay(t *testing.T) {
	e, err := NewAllDay("Holiday", base, 2)
	require.NoError(t, err)
	assert.True(t, e.AllDay)
	assert.Equal(t, 48*time.Hour, e.Duration())
	assert.True(t, e.OccursOn(base.AddDate(0, 0, 1)))
	assert.False(t, e.OccursOn(base.AddDate(0, 0, 2)))
}

func TestAllDayDaysAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz data unavailable: %v", err)
	}
	// 2025-11-02 is 25 hours long in New York
	fallBack := time.Date(2025, time.November, 2, 0, 0, 0, 0, ny)
	e, err := NewAllDay("Fall back", fallBack, 1)
	require.NoError(t, err)
	assert.Equal(t, 25*time.Hour, e.Duration())
	assert.Equal(t, 1, e.Days())

	// 2025-03-09 is 23 hours long
	springAhead := time.Date(2025, time.March, 8, 0, 0, 0, 0, ny)
	e, err = NewAllDay("Spring ahead", springAhead, 2)
	require.NoError(t, err)
	assert.Equal(t, 47*time.Hour, e.Duration())
	assert.Equal(t, 2, e.Days())

	late := time.Date(2025, time.November, 1, 23, 30, 0, 0, ny)
	assert.Equal(t, 1, DaySpan(late, late.Add(2*time.Hour)))
	assert.Equal(t, 0, DaySpan(late, late.Add(20*time.Minute)))
}

func TestManagerAddDeletePersists(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	m, err := NewManager(ctx, store)
	require.NoError(t, err)

	e := mustEvent(t, "Test Event", base, time.Hour)
	id, err := m.Add(ctx, e)
	require.NoError(t, err)
	assert.Equal(t, e.ID, id)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, store.puts)

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.False(t, got.CreatedAt.IsZero())

	require.NoError(t, m.Delete(ctx, id))
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, store.events)

	assert.ErrorIs(t, m.Delete(ctx, id), ErrNotFound)
}

func TestManagerAddRejectsInvalid(t *testing.T) {
	m, err := NewManager(context.Background(), nil)
	require.NoError(t, err)

	_, err = m.Add(context.Background(), Event{Title: "bad", Start: base, End: base})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.Equal(t, 0, m.Len())
}

func TestManagerAddStoreFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failPut = errors.New("disk full")
	m, err := NewManager(ctx, store)
	require.NoError(t, err)

	_, err = m.Add(ctx, mustEvent(t, "x", base, time.Hour))
	require.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestManagerEditPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, newMemStore())
	require.NoError(t, err)

	original := mustEvent(t, "Planning", base, time.Hour)
	id, err := m.Add(ctx, original)
	require.NoError(t, err)
	stored, _ := m.Get(id)

	updated := mustEvent(t, "Planning (moved)", base.Add(2*time.Hour), 30*time.Minute)
	require.NotEqual(t, id, updated.ID)
	require.NoError(t, m.Edit(ctx, id, updated))

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Planning (moved)", got.Title)
	assert.Equal(t, stored.CreatedAt, got.CreatedAt)
	assert.Equal(t, 1, m.Len())

	_, exists := m.Get(updated.ID)
	assert.False(t, exists)

	assert.ErrorIs(t, m.Edit(ctx, uuid.New(), updated), ErrNotFound)
	assert.ErrorIs(t, m.Edit(ctx, id, Event{Title: "x", Start: base, End: base.Add(-time.Minute)}), ErrInvalidTimeRange)
}

func TestManagerListForDay(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, nil)
	require.NoError(t, err)

	late := mustEvent(t, "Late", base.Add(8*time.Hour), time.Hour)
	early := mustEvent(t, "Early", base, time.Hour)
	tomorrow := mustEvent(t, "Tomorrow", base.AddDate(0, 0, 1), time.Hour)
	spanning := mustEvent(t, "Conference", base.AddDate(0, 0, -1), 72*time.Hour)

	for _, e := range []Event{late, early, tomorrow, spanning} {
		_, err := m.Add(ctx, e)
		require.NoError(t, err)
	}

	day := m.ListForDay(base)
	titles := make([]string, len(day))
	for i, e := range day {
		titles[i] = e.Title
	}
	if diff := cmp.Diff([]string{"Conference", "Early", "Late"}, titles); diff != "" {
		t.Fatalf("ListForDay mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, m.ListForDay(base.AddDate(0, 0, 5)))
}

func TestManagerQuery(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, nil)
	require.NoError(t, err)

	a := mustEvent(t, "Dentist", base, time.Hour)
	a.Location = "Main Street"
	b := mustEvent(t, "Budget review", base.AddDate(0, 0, 2), time.Hour)
	b.Calendar = "work"
	c := mustEvent(t, "alpha sync", base.AddDate(0, 0, 4), 2*time.Hour)
	c.Calendar = "work"
	for _, e := range []Event{a, b, c} {
		_, err := m.Add(ctx, e)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all by start", Filter{}, []string{"Dentist", "Budget review", "alpha sync"}},
		{"range", Filter{From: base.AddDate(0, 0, 1), To: base.AddDate(0, 0, 3)}, []string{"Budget review"}},
		{"range is half open", Filter{From: base.Add(time.Hour), To: base.AddDate(0, 0, 2)}, nil},
		{"text in location", Filter{Text: "main"}, []string{"Dentist"}},
		{"calendar", Filter{Calendar: "WORK"}, []string{"Budget review", "alpha sync"}},
		{"title sort", Filter{Sort: SortTitle}, []string{"alpha sync", "Budget review", "Dentist"}},
		{"desc with limit", Filter{Desc: true, Limit: 2}, []string{"alpha sync", "Budget review"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range m.Query(tt.filter) {
				got = append(got, e.Title)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestManagerResolvePrefix(t *testing.T) {
	ctx := context.Background()
	m, err := NewManager(ctx, nil)
	require.NoError(t, err)

	e := mustEvent(t, "Lunch", base, time.Hour)
	e.ID = uuid.MustParse("12345678-0000-4000-8000-000000000001")
	other := mustEvent(t, "Dinner", base, time.Hour)
	other.ID = uuid.MustParse("12345678-0000-4000-8000-000000000002")
	_, err = m.Add(ctx, e)
	require.NoError(t, err)
	_, err = m.Add(ctx, other)
	require.NoError(t, err)

	got, err := m.Resolve(e.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Title)

	_, err = m.Resolve("1234")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	got, err = m.Resolve("12345678-0000-4000-8000-000000000002")
	require.NoError(t, err)
	assert.Equal(t, "Dinner", got.Title)

	_, err = m.Resolve("abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerReloadPicksUpStoreChanges(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	m, err := NewManager(ctx, store)
	require.NoError(t, err)

	e := mustEvent(t, "External", base, time.Hour)
	store.events[e.ID] = e
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.Reload(ctx))
	assert.Equal(t, 1, m.Len())
}

func TestReminderAt(t *testing.T) {
	e := mustEvent(t, "Call", base, time.Hour)

	_, ok := e.ReminderAt()
	assert.False(t, ok, "zero minutes means no reminder")

	e.ReminderMinutes = 30
	at, ok := e.ReminderAt()
	require.True(t, ok)
	assert.Equal(t, base.Add(-30*time.Minute), at)
}
