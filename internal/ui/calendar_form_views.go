package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"termcal/internal/i18n"
	"termcal/internal/ui/components"
)

const formWidth = 60

// button renders a focusable action. Focused buttons are filled with accent.
func button(label string, focused bool, accent lipgloss.TerminalColor, bordered bool) string {
	st := lipgloss.NewStyle().Padding(0, 2)
	if bordered {
		st = st.Border(lipgloss.RoundedBorder()).BorderForeground(components.Muted)
	}
	if !focused {
		return st.Foreground(components.Muted).Render(label)
	}
	if bordered {
		st = st.BorderForeground(accent)
	}
	return st.Bold(true).Foreground(components.Text).Background(accent).Render(label)
}

func heading(text string, color lipgloss.TerminalColor) string {
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(text)
}

func padded(parts ...string) string {
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *CalendarApp) renderMenu() string {
	item := lipgloss.NewStyle().PaddingLeft(2)
	current := item.Bold(true).Foreground(components.Text).Background(components.Primary)

	lines := []string{heading(i18n.T("calendar.menu.title"), components.Primary), ""}
	for i, id := range []string{"calendar.menu.add", "calendar.menu.delete", "calendar.menu.modify"} {
		if i == m.menuIdx {
			lines = append(lines, current.Render("> "+i18n.T(id)))
		} else {
			lines = append(lines, item.Render("  "+i18n.T(id)))
		}
	}
	lines = append(lines, "", components.HelpBar(
		[2]string{"↑↓", i18n.T("help.navigate")},
		[2]string{"enter", i18n.T("help.select")},
		[2]string{"esc", i18n.T("help.back")},
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(components.Box(strings.Join(lines, "\n"), 40, true))
}

// formRow is one labelled line of the event form
type formRow struct {
	field int
	label string // message ID
	value string
}

func (m *CalendarApp) formRows() []formRow {
	focus := lipgloss.NewStyle().Background(components.Primary).Foreground(components.Text)
	dim := lipgloss.NewStyle().Foreground(components.Muted)

	focused := func(field int, s string) string {
		if m.formFocusIdx == field {
			return focus.Render(s)
		}
		return s
	}
	picker := func(field int, view string) string {
		if m.formFocusIdx == field {
			return view + dim.Render("  ↑↓←→")
		}
		return view
	}

	f := &m.form
	check := "[ ]"
	if f.allDay {
		check = "[x]"
	}
	endView := f.end.View()
	if f.endDays > 0 {
		endView += dim.Render(fmt.Sprintf(" +%dd", f.endDays))
	}
	start, end := picker(fieldStart, f.start.View()), picker(fieldEnd, endView)
	if f.allDay {
		start, end = dim.Render("--"), dim.Render("--")
	}

	cals := m.calendars()
	cal := cals[0].Title
	if f.calendar < len(cals) {
		cal = cals[f.calendar].Title
	}

	return []formRow{
		{fieldTitle, "calendar.field.title", f.title.View()},
		{fieldDescription, "calendar.field.description", f.description.View()},
		{fieldLocation, "calendar.field.location", f.location.View()},
		{fieldDate, "calendar.field.date", picker(fieldDate, f.date.View())},
		{fieldAllDay, "calendar.field.all_day", focused(fieldAllDay, check)},
		{fieldStart, "calendar.field.start", start},
		{fieldEnd, "calendar.field.end", end},
		{fieldCalendar, "calendar.field.calendar", focused(fieldCalendar, "◀ "+cal+" ▶")},
		{fieldReminder, "calendar.field.reminder", focused(fieldReminder, "◀ "+reminderLabel(reminderOptions[f.reminder])+" ▶")},
	}
}

func (m *CalendarApp) renderForm(title string) string {
	label := lipgloss.NewStyle().Width(13).Foreground(components.Muted)
	active := label.Foreground(components.Primary).Bold(true)

	var lines []string
	for _, r := range m.formRows() {
		st := label
		if m.formFocusIdx == r.field {
			st = active
		}
		lines = append(lines, st.Render(i18n.T(r.label))+r.value)
	}
	if m.err != nil {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(components.Danger).Render(
			fmt.Sprintf("%s: %v", i18n.T("common.error"), m.err)))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(components.Primary).
		Padding(1, 2).
		Width(formWidth).
		Render(strings.Join(lines, "\n"))

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		button(i18n.T("common.save"), m.formFocusIdx == fieldSave, components.Primary, true),
		"  ",
		button(i18n.T("common.cancel"), m.formFocusIdx == fieldCancel, components.Muted, true),
	)

	return padded(
		heading(title, components.Primary), "",
		box, "",
		buttons, "",
		components.HelpBar(
			[2]string{"tab", i18n.T("calendar.cycle")},
			[2]string{"enter", i18n.T("help.select")},
			[2]string{"ctrl+s", i18n.T("common.save")},
			[2]string{"esc", i18n.T("help.cancel")},
		),
	)
}

func reminderLabel(minutes int) string {
	switch minutes {
	case 0:
		return i18n.T("calendar.reminder.none")
	case 60:
		return i18n.T("calendar.reminder.1hour")
	case 1440:
		return i18n.T("calendar.reminder.1day")
	}
	if minutes < 0 {
		return i18n.T("calendar.reminder.none")
	}
	return i18n.T("calendar.reminder.minutes", map[string]any{"Minutes": minutes})
}

func (m *CalendarApp) renderDeleteConfirm() string {
	ev := m.deleteTarget
	when := lipgloss.NewStyle().Foreground(components.Muted).
		Render(ev.Start.Format("Mon Jan 2 2006 " + m.cfg.TimeLayout()))

	buttons := button(i18n.T("common.delete"), m.deleteButtonIdx == 0, components.Danger, false) +
		"  " + button(i18n.T("common.cancel"), m.deleteButtonIdx == 1, components.Muted, false)

	return padded(
		heading(i18n.T("calendar.delete_event"), components.Danger), "",
		i18n.T("calendar.delete_confirm", map[string]any{"Title": ev.Title}),
		when, "",
		buttons, "",
		components.HelpBar(
			[2]string{"y/n", i18n.T("help.confirm")},
			[2]string{"←/→", i18n.T("help.select")},
			[2]string{"esc", i18n.T("help.cancel")},
		),
	)
}
