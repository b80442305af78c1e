package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"termcal/internal/events"
	"termcal/internal/log"
	"termcal/internal/notify"
)

// DefaultSpec checks for due reminders once a minute
const DefaultSpec = "@every 1m"

// Source supplies the events to check
type Source interface {
	Query(f events.Filter) []events.Event
}

type firedKey struct {
	id    uuid.UUID
	start int64
}

// Scheduler fires a notification once per event occurrence when its
// reminder instant passes
type Scheduler struct {
	source     Source
	notifier   notify.Notifier
	timeLayout string
	now        func() time.Time
	logger     zerolog.Logger

	mu       sync.Mutex
	lastTick time.Time
	fired    map[firedKey]struct{}
}

// New creates a scheduler for the events of source. Events with a zero
// ReminderMinutes never fire.
func New(source Source, notifier notify.Notifier, timeLayout string) *Scheduler {
	if timeLayout == "" {
		timeLayout = "15:04"
	}
	s := &Scheduler{
		source:     source,
		notifier:   notifier,
		timeLayout: timeLayout,
		now:        time.Now,
		logger:     log.WithComponent("reminder"),
		fired:      make(map[firedKey]struct{}),
	}
	s.lastTick = s.now()
	return s
}

// Due returns events whose reminder instant falls in (lastTick, now] and
// that have not fired yet, then advances lastTick to now
func (s *Scheduler) Due(now time.Time) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !now.After(s.lastTick) {
		return nil
	}

	var due []events.Event
	for _, e := range s.source.Query(events.Filter{From: s.lastTick}) {
		at, ok := e.ReminderAt()
		if !ok || !at.After(s.lastTick) || at.After(now) {
			continue
		}
		key := firedKey{id: e.ID, start: e.Start.Unix()}
		if _, done := s.fired[key]; done {
			continue
		}
		s.fired[key] = struct{}{}
		due = append(due, e)
	}
	s.lastTick = now

	for key := range s.fired {
		if time.Unix(key.start, 0).Before(now.Add(-24 * time.Hour)) {
			delete(s.fired, key)
		}
	}
	return due
}

// Tick notifies for every due event
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	for _, e := range s.Due(now) {
		title, message := Message(e, now, s.timeLayout)
		if s.notifier == nil {
			s.logger.Info().Str("id", e.ID.String()).Msg("reminder due (no notifier configured)")
			continue
		}
		if err := s.notifier.Notify(ctx, title, message); err != nil {
			s.logger.Error().Err(err).Str("id", e.ID.String()).Msg("failed to send reminder")
			continue
		}
		s.logger.Info().Str("id", e.ID.String()).Str("title", e.Title).Msg("reminder sent")
	}
}

// Run checks reminders on spec until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context, spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.logger.Info().Str("schedule", spec).Msg("reminder scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info().Msg("reminder scheduler stopped")
	return nil
}

// Message formats the notification for e
func Message(e events.Event, now time.Time, timeLayout string) (string, string) {
	var when string
	switch until := e.Start.Sub(now).Round(time.Minute); {
	case until <= 0:
		when = "now"
	case until < time.Hour:
		when = fmt.Sprintf("in %d min", int(until.Minutes()))
	default:
		when = "at " + e.Start.Format(timeLayout)
	}

	message := e.Title + " starts " + when
	if e.AllDay {
		message = e.Title + " (all day)"
	}
	if e.Location != "" {
		message += " @ " + e.Location
	}
	return "Reminder: " + e.Title, message
}
