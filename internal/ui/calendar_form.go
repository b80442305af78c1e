package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"termcal/config"
	"termcal/internal/calendar"
	"termcal/internal/events"
	"termcal/internal/i18n"
	"termcal/internal/ui/components"
)

// Form focus order
const (
	fieldTitle = iota
	fieldDescription
	fieldLocation
	fieldDate
	fieldAllDay
	fieldStart
	fieldEnd
	fieldCalendar
	fieldReminder
	fieldSave
	fieldCancel
	fieldCount
)

// reminderOptions are the lead times offered by the form, in minutes
var reminderOptions = []int{0, 5, 10, 15, 30, 60, 1440}

type eventForm struct {
	title       textinput.Model
	description textinput.Model
	location    textinput.Model
	date        components.DatePicker
	start       components.TimePicker
	end         components.TimePicker
	allDay      bool
	allDayDays  int
	endDays     int // dates between start and end of a timed event
	calendar    int // index into calendars()
	reminder    int // index into reminderOptions
	editID      uuid.UUID
}

// calendars returns the selectable calendars; the first entry is the
// unnamed default
func (m *CalendarApp) calendars() []config.CalendarConfig {
	out := []config.CalendarConfig{{ID: "", Title: i18n.T("calendar.default")}}
	return append(out, m.cfg.Calendars...)
}

func newTextInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 36
	return ti
}

func (m *CalendarApp) newForm() eventForm {
	f := eventForm{
		title:       newTextInput(i18n.T("calendar.placeholder.title"), 200),
		description: newTextInput(i18n.T("calendar.placeholder.description"), 1000),
		location:    newTextInput(i18n.T("calendar.placeholder.location"), 200),
		date:        components.NewDatePicker(),
		start:       components.NewTimePicker(m.cfg.TimeFormat == "12h"),
		end:         components.NewTimePicker(m.cfg.TimeFormat == "12h"),
		allDayDays:  1,
	}
	return f
}

func (m *CalendarApp) initAddForm() {
	m.form = m.newForm()
	m.form.date.SetDate(m.cal.Selected)

	m.form.start.SetClock(9, 0)
	m.form.end.SetClock(9, int(m.cfg.DefaultDuration().Minutes()))
	m.form.reminder = reminderIndex(m.cfg.DefaultReminderMinutes)

	m.err = nil
	m.formFocusIdx = fieldTitle
	m.updateFormFocus()
}

// initFormFromEvent fills the form from e. When editing, saving replaces
// the event with e's ID.
func (m *CalendarApp) initFormFromEvent(e events.Event, edit bool) {
	m.form = m.newForm()
	if edit {
		m.form.editID = e.ID
	}

	m.form.title.SetValue(e.Title)
	m.form.description.SetValue(e.Description)
	m.form.location.SetValue(e.Location)

	start := e.Start.Local()
	end := e.End.Local()
	m.form.date.SetDate(start)
	m.form.start.SetClock(start.Hour(), start.Minute())
	m.form.end.SetClock(end.Hour(), end.Minute())
	m.form.allDay = e.AllDay
	if e.AllDay {
		m.form.allDayDays = e.Days()
	} else {
		m.form.endDays = events.DaySpan(start, end)
	}

	for i, cal := range m.calendars() {
		if cal.ID == e.Calendar {
			m.form.calendar = i
			break
		}
	}
	m.form.reminder = reminderIndex(e.ReminderMinutes)

	m.formFocusIdx = fieldTitle
	m.updateFormFocus()
}

func reminderIndex(minutes int) int {
	for i, v := range reminderOptions {
		if v == minutes {
			return i
		}
	}
	return 0
}

func (m *CalendarApp) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.view = viewCalendar
		return m, nil

	case "tab":
		m.formFocusIdx = (m.formFocusIdx + 1) % fieldCount
		m.updateFormFocus()
		return m, nil

	case "shift+tab":
		m.formFocusIdx = (m.formFocusIdx + fieldCount - 1) % fieldCount
		m.updateFormFocus()
		return m, nil

	case "ctrl+s":
		return m, m.saveEvent()

	case "enter":
		switch m.formFocusIdx {
		case fieldCancel:
			m.err = nil
			m.view = viewCalendar
			return m, nil
		case fieldAllDay:
			m.form.allDay = !m.form.allDay
			return m, nil
		case fieldCalendar:
			m.form.calendar = (m.form.calendar + 1) % len(m.calendars())
			return m, nil
		case fieldReminder:
			m.form.reminder = (m.form.reminder + 1) % len(reminderOptions)
			return m, nil
		}
		return m, m.saveEvent()
	}

	switch m.formFocusIdx {
	case fieldAllDay:
		switch msg.String() {
		case " ", "left", "right", "h", "l":
			m.form.allDay = !m.form.allDay
		}
		return m, nil

	case fieldCalendar:
		n := len(m.calendars())
		switch msg.String() {
		case "left", "h":
			m.form.calendar = (m.form.calendar + n - 1) % n
		case "right", "l", " ":
			m.form.calendar = (m.form.calendar + 1) % n
		}
		return m, nil

	case fieldReminder:
		n := len(reminderOptions)
		switch msg.String() {
		case "left", "h":
			m.form.reminder = (m.form.reminder + n - 1) % n
		case "right", "l", " ":
			m.form.reminder = (m.form.reminder + 1) % n
		}
		return m, nil

	case fieldSave, fieldCancel:
		switch msg.String() {
		case "left", "right", "h", "l":
			if m.formFocusIdx == fieldSave {
				m.formFocusIdx = fieldCancel
			} else {
				m.formFocusIdx = fieldSave
			}
		}
		return m, nil
	}

	return m.updateForm(msg)
}

// updateForm forwards msg to the focused input
func (m *CalendarApp) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.formFocusIdx {
	case fieldTitle:
		m.form.title, cmd = m.form.title.Update(msg)
	case fieldDescription:
		m.form.description, cmd = m.form.description.Update(msg)
	case fieldLocation:
		m.form.location, cmd = m.form.location.Update(msg)
	case fieldDate:
		m.form.date, cmd = m.form.date.Update(msg)
	case fieldStart:
		m.form.start, cmd = m.form.start.Update(msg)
	case fieldEnd:
		m.form.end, cmd = m.form.end.Update(msg)
	}

	return m, cmd
}

func (m *CalendarApp) updateFormFocus() {
	m.form.title.Blur()
	m.form.description.Blur()
	m.form.location.Blur()
	m.form.date.Blur()
	m.form.start.Blur()
	m.form.end.Blur()

	switch m.formFocusIdx {
	case fieldTitle:
		m.form.title.Focus()
	case fieldDescription:
		m.form.description.Focus()
	case fieldLocation:
		m.form.location.Focus()
	case fieldDate:
		m.form.date.Focus()
	case fieldStart:
		m.form.start.Focus()
	case fieldEnd:
		m.form.end.Focus()
	}
}

// formEvent builds an event from the form values
func (m *CalendarApp) formEvent() (events.Event, error) {
	day := calendar.DateOnly(m.form.date.Value())

	var start, end time.Time
	if m.form.allDay {
		start = day
		end = day.AddDate(0, 0, m.form.allDayDays)
	} else {
		start = m.form.start.On(day)
		end = m.form.end.On(day.AddDate(0, 0, m.form.endDays))
	}

	cals := m.calendars()
	var calendarID string
	if m.form.calendar < len(cals) {
		calendarID = cals[m.form.calendar].ID
	}

	e := events.Event{
		ID:              m.form.editID,
		Title:           strings.TrimSpace(m.form.title.Value()),
		Description:     strings.TrimSpace(m.form.description.Value()),
		Location:        strings.TrimSpace(m.form.location.Value()),
		Calendar:        calendarID,
		Start:           start,
		End:             end,
		AllDay:          m.form.allDay,
		ReminderMinutes: reminderOptions[m.form.reminder],
	}
	return e, e.Validate()
}

func (m *CalendarApp) saveEvent() tea.Cmd {
	e, err := m.formEvent()
	if err != nil {
		return func() tea.Msg { return errMsg{err} }
	}
	editID := m.form.editID

	return func() tea.Msg {
		ctx := context.Background()
		if editID != uuid.Nil {
			if err := m.manager.Edit(ctx, editID, e); err != nil {
				return errMsg{err}
			}
			return eventSavedMsg{id: editID, edited: true}
		}

		id, err := m.manager.Add(ctx, e)
		if err != nil {
			return errMsg{err}
		}
		return eventSavedMsg{id: id}
	}
}
