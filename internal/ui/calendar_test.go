package ui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"termcal/config"
	"termcal/internal/ai"
	"termcal/internal/events"
	"termcal/internal/i18n"
	"termcal/internal/ui/components"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var fixedNow = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.Local)

func newTestApp(t *testing.T) *CalendarApp {
	t.Helper()
	manager, err := events.NewManager(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	app := NewCalendarApp(manager, config.DefaultConfig(), Options{Now: func() time.Time { return fixedNow }})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

func press(app *CalendarApp, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+s":
		msg = tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := app.Update(msg)
	return cmd
}

func typeText(app *CalendarApp, s string) {
	for _, r := range s {
		press(app, string(r))
	}
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, app *CalendarApp, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	if msg := cmd(); msg != nil {
		app.Update(msg)
	}
}

func addEvent(t *testing.T, app *CalendarApp, title string, start time.Time) events.Event {
	t.Helper()
	e, err := events.New(title, "", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := app.manager.Add(context.Background(), e); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	return e
}

func TestEmptyDayShowsPlaceholder(t *testing.T) {
	app := newTestApp(t)
	view := app.View()
	if !strings.Contains(view, "No events scheduled") {
		t.Fatalf("expected empty placeholder in view:\n%s", view)
	}
	if !strings.Contains(view, "Events for March 14, 2025") {
		t.Fatalf("expected events header in view:\n%s", view)
	}
}

func TestArrowKeysRollOverMonths(t *testing.T) {
	app := newTestApp(t)
	app.cal.Select(time.Date(2025, time.March, 31, 0, 0, 0, 0, time.Local))

	press(app, "right")
	if app.cal.Selected.Month() != time.April || app.cal.Selected.Day() != 1 {
		t.Fatalf("expected April 1, got %v", app.cal.Selected)
	}

	press(app, "left")
	if app.cal.Selected.Month() != time.March || app.cal.Selected.Day() != 31 {
		t.Fatalf("expected March 31, got %v", app.cal.Selected)
	}

	press(app, "L")
	if app.cal.Current.Month() != time.April || app.cal.Selected.Day() != 30 {
		t.Fatalf("next month should clamp to April 30, got %v", app.cal.Selected)
	}

	press(app, "t")
	if app.cal.Selected.Day() != 14 || app.cal.Current.Month() != time.March {
		t.Fatalf("t should return to today, got %v", app.cal.Selected)
	}
}

func TestAddEventThroughForm(t *testing.T) {
	app := newTestApp(t)

	press(app, "a")
	if app.view != viewAddEvent {
		t.Fatalf("expected add form, got view %d", app.view)
	}
	typeText(app, "Lunch")
	run(t, app, press(app, "ctrl+s"))

	if app.view != viewCalendar {
		t.Fatalf("expected calendar view after save, got %d (err %v)", app.view, app.err)
	}
	if app.manager.Len() != 1 {
		t.Fatalf("expected one event, got %d", app.manager.Len())
	}

	list := app.manager.ListForDay(fixedNow)
	if len(list) != 1 || list[0].Title != "Lunch" {
		t.Fatalf("unexpected events %+v", list)
	}
	if list[0].Start.Hour() != 9 || list[0].Duration() != time.Hour {
		t.Fatalf("unexpected time range %v - %v", list[0].Start, list[0].End)
	}
	if !strings.Contains(app.View(), "Lunch") {
		t.Fatalf("event should be listed in the view")
	}
}

func TestFormRejectsEndBeforeStart(t *testing.T) {
	app := newTestApp(t)

	press(app, "a")
	typeText(app, "Backwards")
	for app.formFocusIdx != fieldEnd {
		press(app, "tab")
	}
	press(app, "down")
	press(app, "down")

	run(t, app, press(app, "ctrl+s"))
	if app.view != viewAddEvent {
		t.Fatalf("form should stay open on error, got view %d", app.view)
	}
	if !errors.Is(app.err, events.ErrInvalidTimeRange) {
		t.Fatalf("expected invalid range error, got %v", app.err)
	}
	if app.manager.Len() != 0 {
		t.Fatalf("nothing should be saved")
	}
	if !strings.Contains(app.View(), "end time must be after start time") {
		t.Fatalf("error should be shown inline")
	}
}

func TestFormRejectsEmptyTitle(t *testing.T) {
	app := newTestApp(t)
	press(app, "a")
	run(t, app, press(app, "ctrl+s"))
	if !errors.Is(app.err, events.ErrEmptyTitle) {
		t.Fatalf("expected empty title error, got %v", app.err)
	}
}

func TestEventManagerMenuWraps(t *testing.T) {
	app := newTestApp(t)
	press(app, "e")
	if app.view != viewMenu {
		t.Fatalf("expected menu view")
	}
	press(app, "up")
	if app.menuIdx != menuModify {
		t.Fatalf("up from first entry should wrap to last, got %d", app.menuIdx)
	}
	press(app, "down")
	if app.menuIdx != menuAdd {
		t.Fatalf("down from last entry should wrap to first, got %d", app.menuIdx)
	}
	press(app, "enter")
	if app.view != viewAddEvent {
		t.Fatalf("Add an event should open the form, got %d", app.view)
	}
	press(app, "esc")
	if app.view != viewCalendar {
		t.Fatalf("esc should close the form")
	}
}

func TestDeleteFromMenu(t *testing.T) {
	app := newTestApp(t)
	e := addEvent(t, app, "Dentist", fixedNow.Add(2*time.Hour))

	press(app, "e")
	press(app, "down")
	press(app, "enter")
	if app.view != viewDeleteConfirm || app.deleteTarget.ID != e.ID {
		t.Fatalf("expected delete confirmation for %s, got view %d", e.ID, app.view)
	}

	press(app, "n")
	if app.view != viewCalendar || app.manager.Len() != 1 {
		t.Fatalf("n should cancel")
	}

	press(app, "d")
	run(t, app, press(app, "y"))
	if app.manager.Len() != 0 {
		t.Fatalf("event should be deleted")
	}
	if !strings.Contains(app.status, "Dentist") {
		t.Fatalf("expected status mentioning the deleted event, got %q", app.status)
	}
}

func TestDeleteWithoutEventShowsError(t *testing.T) {
	app := newTestApp(t)
	press(app, "d")
	if app.view != viewCalendar || !errors.Is(app.err, errNoEventSelected) {
		t.Fatalf("expected no event error, got view %d err %v", app.view, app.err)
	}
}

func TestModifyKeepsIdentity(t *testing.T) {
	app := newTestApp(t)
	e := addEvent(t, app, "Standup", fixedNow)

	press(app, "m")
	if app.view != viewEditEvent || app.form.editID != e.ID {
		t.Fatalf("expected edit form for %s", e.ID)
	}
	app.form.title.SetValue("Standup (moved)")
	run(t, app, press(app, "ctrl+s"))

	got, ok := app.manager.Get(e.ID)
	if !ok {
		t.Fatalf("event %s should still exist", e.ID)
	}
	if got.Title != "Standup (moved)" || app.manager.Len() != 1 {
		t.Fatalf("unexpected state: %+v (len %d)", got, app.manager.Len())
	}
}

func TestModifyKeepsOvernightEnd(t *testing.T) {
	app := newTestApp(t)
	start := time.Date(2025, time.March, 14, 23, 30, 0, 0, time.Local)
	e, err := events.New("Late deploy", "", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, err := app.manager.Add(context.Background(), e); err != nil {
		t.Fatalf("Add error: %v", err)
	}

	press(app, "m")
	if app.form.endDays != 1 {
		t.Fatalf("endDays = %d, want 1", app.form.endDays)
	}
	if !strings.Contains(app.View(), "+1d") {
		t.Fatalf("expected next-day hint in form:\n%s", app.View())
	}
	run(t, app, press(app, "ctrl+s"))
	if app.view != viewCalendar || app.err != nil {
		t.Fatalf("expected saved event, got view %d err %v", app.view, app.err)
	}

	got, ok := app.manager.Get(e.ID)
	if !ok {
		t.Fatalf("event %s should still exist", e.ID)
	}
	want := time.Date(2025, time.March, 15, 0, 30, 0, 0, time.Local)
	if !got.End.Equal(want) {
		t.Fatalf("end = %v, want %v", got.End, want)
	}
}

func TestSearchJumpsToEvent(t *testing.T) {
	app := newTestApp(t)
	target := time.Date(2025, time.May, 2, 15, 0, 0, 0, time.Local)
	addEvent(t, app, "Quarterly planning", target)
	addEvent(t, app, "Gym", fixedNow)

	press(app, "/")
	if app.view != viewSearch {
		t.Fatalf("expected search view")
	}
	typeText(app, "quarter")
	if len(app.search.results) != 1 {
		t.Fatalf("expected one result, got %d", len(app.search.results))
	}

	press(app, "enter")
	if app.view != viewCalendar {
		t.Fatalf("enter should return to calendar")
	}
	if app.cal.Selected.Month() != time.May || app.cal.Selected.Day() != 2 {
		t.Fatalf("expected May 2 selected, got %v", app.cal.Selected)
	}
}

func TestQuickAddWithoutProvider(t *testing.T) {
	app := newTestApp(t)
	press(app, "n")
	typeText(app, "lunch tomorrow at noon")
	press(app, "enter")
	if app.view != viewQuickAdd || !errors.Is(app.err, ai.ErrUnavailable) {
		t.Fatalf("expected no provider error, got view %d err %v", app.view, app.err)
	}
}

func TestQuickAddParsedOpensForm(t *testing.T) {
	app := newTestApp(t)
	e, err := events.New("Coffee", "", fixedNow.Add(24*time.Hour), fixedNow.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	app.view = viewParsing
	app.Update(quickAddParsedMsg{event: e})
	if app.view != viewAddEvent || app.form.title.Value() != "Coffee" {
		t.Fatalf("parsed event should prefill the add form")
	}
	if app.form.editID != uuid.Nil {
		t.Fatalf("quick add must create a new event")
	}
}

type sliceStore struct {
	events []events.Event
}

func (s *sliceStore) Load(context.Context) ([]events.Event, error) { return s.events, nil }
func (s *sliceStore) Put(context.Context, events.Event) error      { return nil }
func (s *sliceStore) Delete(context.Context, uuid.UUID) error      { return nil }

func TestStoreChangeReloads(t *testing.T) {
	store := &sliceStore{}
	manager, err := events.NewManager(context.Background(), store)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	changes := make(chan struct{}, 1)
	app := NewCalendarApp(manager, config.DefaultConfig(), Options{
		Changes: changes,
		Now:     func() time.Time { return fixedNow },
	})

	e, _ := events.New("Synced", "", fixedNow, fixedNow.Add(time.Hour))
	store.events = []events.Event{e}
	changes <- struct{}{}

	msg := app.Init()()
	if _, ok := msg.(storeChangedMsg); !ok {
		t.Fatalf("expected storeChangedMsg, got %T", msg)
	}
	_, cmd := app.Update(msg)
	batch, ok := cmd().(tea.BatchMsg)
	if !ok || len(batch) == 0 {
		t.Fatalf("expected batched reload command")
	}
	app.Update(batch[0]())

	if manager.Len() != 1 || !strings.Contains(app.View(), "Synced") {
		t.Fatalf("reload should pick up the external event")
	}
}

func TestCommandPaletteRunsFilteredCommand(t *testing.T) {
	app := newTestApp(t)
	press(app, "L")
	if app.cal.Current.Month() != time.April {
		t.Fatalf("expected April after L")
	}

	press(app, ":")
	if app.view != viewPalette {
		t.Fatalf("expected palette view, got %d", app.view)
	}
	typeText(app, "tod")
	if got := app.palette.Selected(); got != "today" {
		t.Fatalf("expected today to be selected, got %q", got)
	}

	run(t, app, press(app, "enter"))
	if app.view != viewCalendar {
		t.Fatalf("palette should close after running a command")
	}
	if app.cal.Selected.Month() != time.March || app.cal.Selected.Day() != 14 {
		t.Fatalf("today should select %v, got %v", fixedNow, app.cal.Selected)
	}
}

func TestPaletteMonthCommandsMatchShortcuts(t *testing.T) {
	for _, tc := range []struct {
		name  string
		apply func(app *CalendarApp)
	}{
		{"shortcut", func(app *CalendarApp) { press(app, "L") }},
		{"palette", func(app *CalendarApp) {
			press(app, ":")
			typeText(app, "next")
			run(t, app, press(app, "enter"))
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t)
			addEvent(t, app, "Breakfast", fixedNow.Add(-2*time.Hour))
			addEvent(t, app, "Lunch", fixedNow.Add(2*time.Hour))
			april := fixedNow.AddDate(0, 1, 0)
			addEvent(t, app, "Dentist", april.Add(-2*time.Hour))
			addEvent(t, app, "Gym", april.Add(2*time.Hour))

			press(app, "tab")
			if app.selectedIdx != 1 {
				t.Fatalf("expected second event selected, got %d", app.selectedIdx)
			}
			tc.apply(app)
			if app.view != viewCalendar || app.cal.Current.Month() != time.April {
				t.Fatalf("expected April calendar, got view %d month %v", app.view, app.cal.Current.Month())
			}
			if app.selectedIdx != 0 {
				t.Fatalf("selectedIdx = %d, want 0", app.selectedIdx)
			}
		})
	}
}

func TestCommandPaletteNoMatch(t *testing.T) {
	app := newTestApp(t)
	press(app, ":")
	typeText(app, "zzz")
	if !strings.Contains(app.View(), "No matching commands") {
		t.Fatalf("expected empty palette message")
	}
	if cmd := press(app, "enter"); cmd != nil {
		if _, ok := cmd().(components.CommandSelectedMsg); ok {
			t.Fatalf("enter with no match should not select")
		}
	}
	press(app, "esc")
	if app.view != viewCalendar {
		t.Fatalf("esc should close the palette")
	}
}

func TestCommandPaletteOpensForms(t *testing.T) {
	app := newTestApp(t)
	e := addEvent(t, app, "Standup", fixedNow.Add(time.Hour))

	press(app, ":")
	typeText(app, "edit")
	run(t, app, press(app, "enter"))
	if app.view != viewEditEvent || app.form.editID != e.ID {
		t.Fatalf("edit command should open the selected event, got view %d", app.view)
	}
}

func TestFormUsesTwelveHourPickers(t *testing.T) {
	manager, err := events.NewManager(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.TimeFormat = "12h"
	app := NewCalendarApp(manager, cfg, Options{Now: func() time.Time { return fixedNow }})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	press(app, "a")
	if got := app.form.start.String(); got != "9:00 AM" {
		t.Fatalf("start = %q, want 9:00 AM", got)
	}
	if got := app.form.end.String(); got != "10:00 AM" {
		t.Fatalf("end = %q, want 10:00 AM", got)
	}
}
