package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"termcal/config"
	"termcal/internal/ai"
	"termcal/internal/calendar"
	"termcal/internal/events"
	"termcal/internal/i18n"
	"termcal/internal/log"
	"termcal/internal/ui/components"
)

// View states
type calendarView int

const (
	viewCalendar calendarView = iota
	viewMenu
	viewAddEvent
	viewEditEvent
	viewDeleteConfirm
	viewSearch
	viewQuickAdd
	viewParsing
	viewPalette
)

// Event manager menu entries
const (
	menuAdd = iota
	menuDelete
	menuModify
	menuCount
)

var errNoEventSelected = errors.New("no event selected")

// Options configures optional collaborators of the TUI
type Options struct {
	// AI enables natural-language quick add when it has a provider
	AI *ai.Client
	// Changes receives a value whenever the store changes on disk
	Changes <-chan struct{}
	// Now overrides the clock
	Now func() time.Time
}

// CalendarApp is the main calendar TUI model
type CalendarApp struct {
	cfg     config.Config
	manager *events.Manager
	ai      *ai.Client
	changes <-chan struct{}
	now     func() time.Time
	logger  zerolog.Logger

	cal         *calendar.Calendar
	width       int
	height      int
	view        calendarView
	selectedIdx int // selected event index in the day list
	menuIdx     int
	err         error
	status      string

	// Form fields for add/edit
	form         eventForm
	formFocusIdx int

	deleteButtonIdx int
	deleteTarget    events.Event

	search     searchState
	quickInput textinput.Model
	palette    components.CommandPalette
}

// Messages
type eventSavedMsg struct {
	id     uuid.UUID
	edited bool
}

type eventDeletedMsg struct {
	title string
}

type storeChangedMsg struct{}

type reloadedMsg struct {
	err error
}

type quickAddParsedMsg struct {
	event events.Event
}

type errMsg struct {
	err error
}

// NewCalendarApp creates a new calendar TUI over manager
func NewCalendarApp(manager *events.Manager, cfg config.Config, opts Options) *CalendarApp {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CalendarApp{
		cfg:     cfg,
		manager: manager,
		ai:      opts.AI,
		changes: opts.Changes,
		now:     now,
		logger:  log.WithComponent("ui"),
		cal:     calendar.New(now(), cfg.FirstWeekday()),
		view:    viewCalendar,
	}
}

func (m *CalendarApp) Init() tea.Cmd {
	return m.waitForChange()
}

// waitForChange blocks until the store watcher reports a change
func (m *CalendarApp) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m *CalendarApp) reload() tea.Cmd {
	return func() tea.Msg {
		return reloadedMsg{err: m.manager.Reload(context.Background())}
	}
}

func (m *CalendarApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventSavedMsg:
		m.view = viewCalendar
		m.err = nil
		if e, ok := m.manager.Get(msg.id); ok {
			m.selectEvent(e)
			if msg.edited {
				m.status = i18n.T("calendar.status.updated", map[string]any{"Title": e.Title})
			} else {
				m.status = i18n.T("calendar.status.added", map[string]any{"Title": e.Title})
			}
		}
		return m, nil

	case eventDeletedMsg:
		m.view = viewCalendar
		m.err = nil
		m.status = i18n.T("calendar.status.deleted", map[string]any{"Title": msg.title})
		m.clampSelection()
		return m, nil

	case storeChangedMsg:
		m.logger.Debug().Msg("store changed on disk, reloading")
		return m, tea.Batch(m.reload(), m.waitForChange())

	case reloadedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		m.clampSelection()
		return m, nil

	case quickAddParsedMsg:
		if m.view != viewParsing {
			return m, nil
		}
		m.err = nil
		m.initFormFromEvent(msg.event, false)
		m.view = viewAddEvent
		return m, nil

	case errMsg:
		m.err = msg.err
		if m.view == viewParsing {
			m.view = viewQuickAdd
		}
		return m, nil

	case components.CommandSelectedMsg:
		m.view = viewCalendar
		return m.runCommand(msg.Command)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	// Keep text inputs blinking
	switch m.view {
	case viewAddEvent, viewEditEvent:
		return m.updateForm(msg)
	case viewSearch:
		var cmd tea.Cmd
		m.search.input, cmd = m.search.input.Update(msg)
		return m, cmd
	case viewQuickAdd:
		var cmd tea.Cmd
		m.quickInput, cmd = m.quickInput.Update(msg)
		return m, cmd
	case viewPalette:
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *CalendarApp) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.view {
	case viewCalendar:
		return m.handleCalendarKeys(msg)
	case viewMenu:
		return m.handleMenuKeys(msg)
	case viewAddEvent, viewEditEvent:
		return m.handleFormKeys(msg)
	case viewDeleteConfirm:
		return m.handleDeleteKeys(msg)
	case viewSearch:
		return m.handleSearchKeys(msg)
	case viewQuickAdd:
		return m.handleQuickAddKeys(msg)
	case viewParsing:
		if msg.String() == "esc" {
			m.view = viewCalendar
		}
	case viewPalette:
		if msg.String() == "esc" {
			m.view = viewCalendar
			return m, nil
		}
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *CalendarApp) handleCalendarKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		m.step(calendar.Left)

	case key.Matches(msg, keys.Right):
		m.step(calendar.Right)

	case key.Matches(msg, keys.Up):
		m.step(calendar.Up)

	case key.Matches(msg, keys.Down):
		m.step(calendar.Down)

	case key.Matches(msg, keys.PrevMonth):
		m.changeMonth(false)

	case key.Matches(msg, keys.NextMonth):
		m.changeMonth(true)

	case key.Matches(msg, keys.Today):
		m.cal.GoToday(m.now())
		m.selectedIdx = 0

	case key.Matches(msg, keys.NextEvent):
		if n := len(m.dayEvents()); n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}

	case key.Matches(msg, keys.PrevEvent):
		if n := len(m.dayEvents()); n > 0 {
			m.selectedIdx = (m.selectedIdx - 1 + n) % n
		}

	case key.Matches(msg, keys.Menu):
		m.menuIdx = 0
		m.err = nil
		m.view = viewMenu

	case key.Matches(msg, keys.Add):
		m.initAddForm()
		m.view = viewAddEvent

	case key.Matches(msg, keys.Modify):
		m.openEdit()

	case key.Matches(msg, keys.Delete):
		m.openDelete()

	case key.Matches(msg, keys.Search):
		m.initSearch()
		m.view = viewSearch
		return m, textinput.Blink

	case key.Matches(msg, keys.QuickAdd):
		m.initQuickAdd()
		m.view = viewQuickAdd
		return m, textinput.Blink

	case key.Matches(msg, keys.Palette):
		m.palette = components.NewCommandPalette(m.paletteCommands())
		m.palette.SetWidth(m.width - 4)
		m.err = nil
		m.view = viewPalette
		return m, textinput.Blink
	}

	return m, nil
}

// paletteCommands lists what the command palette offers
func (m *CalendarApp) paletteCommands() []components.Command {
	return []components.Command{
		{Name: "add", Description: i18n.T("palette.cmd.add"), Shortcut: "a"},
		{Name: "quick", Description: i18n.T("palette.cmd.quick"), Shortcut: "n"},
		{Name: "edit", Description: i18n.T("palette.cmd.edit"), Shortcut: "m"},
		{Name: "delete", Description: i18n.T("palette.cmd.delete"), Shortcut: "d"},
		{Name: "search", Description: i18n.T("palette.cmd.search"), Shortcut: "/"},
		{Name: "today", Description: i18n.T("palette.cmd.today"), Shortcut: "t"},
		{Name: "next", Description: i18n.T("palette.cmd.next"), Shortcut: "L"},
		{Name: "prev", Description: i18n.T("palette.cmd.prev"), Shortcut: "H"},
		{Name: "quit", Description: i18n.T("palette.cmd.quit"), Shortcut: "q"},
	}
}

// runCommand performs a palette command as if its shortcut was pressed
func (m *CalendarApp) runCommand(name string) (tea.Model, tea.Cmd) {
	switch name {
	case "add":
		m.initAddForm()
		m.view = viewAddEvent
	case "quick":
		m.initQuickAdd()
		m.view = viewQuickAdd
		return m, textinput.Blink
	case "edit":
		m.openEdit()
	case "delete":
		m.openDelete()
	case "search":
		m.initSearch()
		m.view = viewSearch
		return m, textinput.Blink
	case "today":
		m.cal.GoToday(m.now())
		m.selectedIdx = 0
	case "next":
		m.changeMonth(true)
	case "prev":
		m.changeMonth(false)
	case "quit":
		return m, tea.Quit
	}
	return m, nil
}

func (m *CalendarApp) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.menuIdx = (m.menuIdx - 1 + menuCount) % menuCount
	case "down", "j":
		m.menuIdx = (m.menuIdx + 1) % menuCount
	case "esc", "q", "e":
		m.view = viewCalendar
	case "enter":
		m.view = viewCalendar
		switch m.menuIdx {
		case menuAdd:
			m.initAddForm()
			m.view = viewAddEvent
		case menuDelete:
			m.openDelete()
		case menuModify:
			m.openEdit()
		}
	}
	return m, nil
}

func (m *CalendarApp) handleDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h", "right", "l", "tab":
		m.deleteButtonIdx = 1 - m.deleteButtonIdx

	case "y", "Y":
		return m, m.deleteEvent(m.deleteTarget)

	case "enter":
		if m.deleteButtonIdx == 0 {
			return m, m.deleteEvent(m.deleteTarget)
		}
		m.view = viewCalendar

	case "n", "N", "esc", "q":
		m.view = viewCalendar
	}

	return m, nil
}

// step moves the selection and resets the event cursor
func (m *CalendarApp) step(dir calendar.Direction) {
	m.cal.Step(dir)
	m.selectedIdx = 0
}

// changeMonth flips the month view and resets the event cursor
func (m *CalendarApp) changeMonth(next bool) {
	if next {
		m.cal.NextMonth()
	} else {
		m.cal.PrevMonth()
	}
	m.selectedIdx = 0
}

// dayEvents returns the events of the selected day
func (m *CalendarApp) dayEvents() []events.Event {
	return m.manager.ListForDay(m.cal.Selected)
}

// selectedEvent returns the highlighted event of the selected day
func (m *CalendarApp) selectedEvent() (events.Event, bool) {
	list := m.dayEvents()
	if m.selectedIdx < 0 || m.selectedIdx >= len(list) {
		return events.Event{}, false
	}
	return list[m.selectedIdx], true
}

// selectEvent jumps to e's day and highlights it
func (m *CalendarApp) selectEvent(e events.Event) {
	m.cal.Select(e.Start.In(m.cal.Current.Location()))
	m.selectedIdx = 0
	for i, d := range m.dayEvents() {
		if d.ID == e.ID {
			m.selectedIdx = i
			break
		}
	}
}

func (m *CalendarApp) clampSelection() {
	n := len(m.dayEvents())
	if m.selectedIdx >= n {
		m.selectedIdx = n - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
}

func (m *CalendarApp) openEdit() {
	e, ok := m.selectedEvent()
	if !ok {
		m.err = errNoEventSelected
		m.view = viewCalendar
		return
	}
	m.err = nil
	m.initFormFromEvent(e, true)
	m.view = viewEditEvent
}

func (m *CalendarApp) openDelete() {
	e, ok := m.selectedEvent()
	if !ok {
		m.err = errNoEventSelected
		m.view = viewCalendar
		return
	}
	m.err = nil
	m.deleteTarget = e
	m.deleteButtonIdx = 1 // default to cancel
	m.view = viewDeleteConfirm
}

func (m *CalendarApp) deleteEvent(e events.Event) tea.Cmd {
	return func() tea.Msg {
		if err := m.manager.Delete(context.Background(), e.ID); err != nil {
			return errMsg{err}
		}
		return eventDeletedMsg{title: e.Title}
	}
}

// Key bindings
var keys = struct {
	Quit      key.Binding
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
	NextEvent key.Binding
	PrevEvent key.Binding
	Menu      key.Binding
	Add       key.Binding
	Modify    key.Binding
	Delete    key.Binding
	Search    key.Binding
	QuickAdd  key.Binding
	Palette   key.Binding
}{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Left:      key.NewBinding(key.WithKeys("left", "h")),
	Right:     key.NewBinding(key.WithKeys("right", "l")),
	Up:        key.NewBinding(key.WithKeys("up", "k")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	PrevMonth: key.NewBinding(key.WithKeys("H", "pgup")),
	NextMonth: key.NewBinding(key.WithKeys("L", "pgdown")),
	Today:     key.NewBinding(key.WithKeys("t")),
	NextEvent: key.NewBinding(key.WithKeys("tab")),
	PrevEvent: key.NewBinding(key.WithKeys("shift+tab")),
	Menu:      key.NewBinding(key.WithKeys("e")),
	Add:       key.NewBinding(key.WithKeys("a")),
	Modify:    key.NewBinding(key.WithKeys("m", "enter")),
	Delete:    key.NewBinding(key.WithKeys("d", "x")),
	Search:    key.NewBinding(key.WithKeys("/")),
	QuickAdd:  key.NewBinding(key.WithKeys("n")),
	Palette:   key.NewBinding(key.WithKeys(":", "ctrl+p")),
}
