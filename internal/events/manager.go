package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"termcal/internal/log"
)

// Store persists events. A nil Store keeps events in memory only.
type Store interface {
	Load(ctx context.Context) ([]Event, error)
	Put(ctx context.Context, e Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Sort keys accepted by Filter.Sort
const (
	SortStart   = "start"
	SortEnd     = "end"
	SortTitle   = "title"
	SortCreated = "created"
)

// Filter selects and orders events for Query
type Filter struct {
	From     time.Time // zero means unbounded
	To       time.Time // zero means unbounded
	Text     string
	Calendar string
	Sort     string
	Desc     bool
	Limit    int
}

// Manager holds the working set of events and writes changes through to a Store
type Manager struct {
	mu     sync.RWMutex
	store  Store
	events map[uuid.UUID]Event
	now    func() time.Time
	logger zerolog.Logger
}

// NewManager loads all events from store
func NewManager(ctx context.Context, store Store) (*Manager, error) {
	m := &Manager{
		store:  store,
		events: make(map[uuid.UUID]Event),
		now:    time.Now,
		logger: log.WithComponent("events"),
	}
	if err := m.Reload(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload replaces the working set with the store's contents
func (m *Manager) Reload(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	loaded, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	events := make(map[uuid.UUID]Event, len(loaded))
	for _, e := range loaded {
		events[e.ID] = e
	}

	m.mu.Lock()
	m.events = events
	m.mu.Unlock()

	m.logger.Debug().Int("count", len(events)).Msg("events loaded")
	return nil
}

// Add validates and stores a new event, assigning an ID if it has none
func (m *Manager) Add(ctx context.Context, e Event) (uuid.UUID, error) {
	if err := e.Validate(); err != nil {
		return uuid.Nil, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := m.now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Put(ctx, e); err != nil {
			return uuid.Nil, fmt.Errorf("save event: %w", err)
		}
	}
	m.events[e.ID] = e

	m.logger.Info().Str("id", e.ID.String()).Str("title", e.Title).Msg("event added")
	return e.ID, nil
}

// Delete removes an event
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
	}
	delete(m.events, id)

	m.logger.Info().Str("id", id.String()).Msg("event deleted")
	return nil
}

// Edit replaces the event with the given ID. The original ID and creation
// time are kept regardless of what updated carries.
func (m *Manager) Edit(ctx context.Context, id uuid.UUID, updated Event) error {
	if err := updated.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.events[id]
	if !ok {
		return ErrNotFound
	}
	updated.ID = id
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = m.now()

	if m.store != nil {
		if err := m.store.Put(ctx, updated); err != nil {
			return fmt.Errorf("save event: %w", err)
		}
	}
	m.events[id] = updated

	m.logger.Info().Str("id", id.String()).Msg("event updated")
	return nil
}

// Get returns the event with the given ID
func (m *Manager) Get(id uuid.UUID) (Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	return e, ok
}

// Resolve finds an event by full ID or by a unique prefix of at least 4 characters
func (m *Manager) Resolve(ref string) (Event, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if id, err := uuid.Parse(ref); err == nil {
		if e, ok := m.Get(id); ok {
			return e, nil
		}
		return Event{}, ErrNotFound
	}
	if len(ref) < 4 {
		return Event{}, ErrNotFound
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []Event
	for id, e := range m.events {
		if strings.HasPrefix(id.String(), ref) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return Event{}, ErrNotFound
	case 1:
		return found[0], nil
	default:
		return Event{}, ErrAmbiguousID
	}
}

// Len returns the number of events
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// List returns all events ordered by start time
func (m *Manager) List() []Event {
	return m.Query(Filter{})
}

// ListForDay returns events starting on or spanning day, ordered by start time
func (m *Manager) ListForDay(day time.Time) []Event {
	m.mu.RLock()
	var out []Event
	for _, e := range m.events {
		if e.OccursOn(day) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	SortEvents(out, SortStart, false)
	return out
}

// Range returns events overlapping [from, to) ordered by start time
func (m *Manager) Range(from, to time.Time) []Event {
	return m.Query(Filter{From: from, To: to})
}

// Query returns the events matching f
func (m *Manager) Query(f Filter) []Event {
	m.mu.RLock()
	var out []Event
	for _, e := range m.events {
		if f.match(e) {
			out = append(out, e)
		}
	}
	m.mu.RUnlock()

	SortEvents(out, f.Sort, f.Desc)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (f Filter) match(e Event) bool {
	if !f.From.IsZero() && !e.End.After(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Start.Before(f.To) {
		return false
	}
	if f.Calendar != "" && !strings.EqualFold(e.Calendar, f.Calendar) {
		return false
	}
	return e.Matches(f.Text)
}

// SortEvents orders events in place by key; ties fall back to start time then ID
func SortEvents(events []Event, key string, desc bool) {
	less := func(a, b Event) bool {
		switch key {
		case SortEnd:
			if !a.End.Equal(b.End) {
				return a.End.Before(b.End)
			}
		case SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
		case SortCreated:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID.String() < b.ID.String()
	}

	sort.SliceStable(events, func(i, j int) bool {
		if desc {
			return less(events[j], events[i])
		}
		return less(events[i], events[j])
	})
}

// ValidSortKey reports whether key is accepted by SortEvents
func ValidSortKey(key string) bool {
	switch key {
	case "", SortStart, SortEnd, SortTitle, SortCreated:
		return true
	}
	return false
}
