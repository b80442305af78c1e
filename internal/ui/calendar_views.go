package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"termcal/internal/calendar"
	"termcal/internal/events"
	"termcal/internal/i18n"
	"termcal/internal/ui/components"
	"termcal/internal/ui/utils"
)

const (
	sidebarWidth  = 26
	minCellWidth  = 5
	defaultWidth  = 100
	defaultHeight = 32
)

func (m *CalendarApp) View() string {
	switch m.view {
	case viewMenu:
		return m.renderMenu()
	case viewAddEvent:
		return m.renderForm(i18n.T("calendar.new_event"))
	case viewEditEvent:
		return m.renderForm(i18n.T("calendar.edit_event"))
	case viewDeleteConfirm:
		return m.renderDeleteConfirm()
	case viewSearch:
		return m.renderSearch()
	case viewQuickAdd, viewParsing:
		return m.renderQuickAdd()
	case viewPalette:
		width, height := m.size()
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		return m.renderCalendar()
	}
}

func (m *CalendarApp) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func (m *CalendarApp) renderCalendar() string {
	width, _ := m.size()
	mainWidth := width - sidebarWidth - 2
	if mainWidth < 7*minCellWidth {
		mainWidth = 7 * minCellWidth
	}

	sidebar := lipgloss.JoinVertical(lipgloss.Left,
		m.renderMiniCalendar(),
		"",
		m.renderUpcoming(),
	)

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.renderNavHeader(mainWidth),
		m.renderMonthGrid(mainWidth),
		m.renderDayEvents(mainWidth),
	)

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(sidebarWidth).Render(sidebar),
		"  ",
		main,
	))
	b.WriteString("\n")

	// Error message if any
	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(components.Danger)
		b.WriteString(errStyle.Render(fmt.Sprintf("%s: %v", i18n.T("common.error"), m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(components.Success).Render(m.status))
		b.WriteString("\n")
	}

	// Help bar
	b.WriteString(m.renderHelpBar())

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

func (m *CalendarApp) monthTitle(t time.Time) string {
	return fmt.Sprintf("%s %d", i18n.Month(t.Month()), t.Year())
}

func (m *CalendarApp) renderNavHeader(width int) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(components.Secondary)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(components.Primary)

	nav := fmt.Sprintf("%s %s   %s   %s %s",
		keyStyle.Render("H"), i18n.T("calendar.previous"),
		keyStyle.Render("t")+" "+i18n.T("calendar.today"),
		i18n.T("calendar.next"), keyStyle.Render("L"))

	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(titleStyle.Render(m.monthTitle(m.cal.Current))),
		lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(components.Muted).Render(nav),
	)
}

// eventDays returns the day numbers of the displayed month that have events
func (m *CalendarApp) eventDays() map[int]bool {
	from, to := m.cal.MonthRange()
	days := make(map[int]bool)
	for _, e := range m.manager.Range(from, to) {
		for d := calendar.DateOnly(e.Start.In(from.Location())); d.Before(to) && d.Before(e.End); d = d.AddDate(0, 0, 1) {
			if !d.Before(from) {
				days[d.Day()] = true
			}
		}
	}
	return days
}

func (m *CalendarApp) renderMonthGrid(width int) string {
	var b strings.Builder

	cellWidth := width / 7
	if cellWidth < minCellWidth {
		cellWidth = minCellWidth
	}

	// Weekday headers
	headerStyle := lipgloss.NewStyle().
		Foreground(components.Muted).
		Bold(true).
		Width(cellWidth).
		Align(lipgloss.Center)
	for i := 0; i < 7; i++ {
		b.WriteString(headerStyle.Render(i18n.Weekday(time.Weekday((int(m.cal.WeekStart) + i) % 7))))
	}
	b.WriteString("\n")

	now := m.now()
	month := m.cal.Current.Month()
	hasEvents := m.eventDays()
	weeks := m.cal.MonthGrid().Weeks()
	start := m.cal.GridStart()

	dayStyle := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Center)
	selectedStyle := dayStyle.Bold(true).Background(components.Primary).Foreground(components.Text)
	todayStyle := dayStyle.Bold(true).Foreground(components.Secondary)
	otherMonthStyle := dayStyle.Foreground(components.Muted)
	eventDot := lipgloss.NewStyle().Foreground(components.Success).Render("•")

	for week := 0; week < weeks; week++ {
		for dow := 0; dow < 7; dow++ {
			day := start.AddDate(0, 0, week*7+dow)
			inMonth := day.Month() == month

			content := fmt.Sprintf("%2d", day.Day())
			if inMonth && hasEvents[day.Day()] {
				content += eventDot
			} else {
				content += " "
			}

			var style lipgloss.Style
			switch {
			case !inMonth:
				style = otherMonthStyle
			case calendar.SameDay(day, m.cal.Selected):
				style = selectedStyle
			case calendar.SameDay(day, now):
				style = todayStyle
			default:
				style = dayStyle
			}

			b.WriteString(style.Render(content))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m *CalendarApp) renderMiniCalendar() string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(m.monthTitle(m.cal.Current)))
	b.WriteString("\n")

	headerStyle := lipgloss.NewStyle().Foreground(components.Muted).Width(3)
	for i := 0; i < 7; i++ {
		label := []rune(i18n.Weekday(time.Weekday((int(m.cal.WeekStart) + i) % 7)))
		b.WriteString(headerStyle.Render(string(label[:min(2, len(label))])))
	}
	b.WriteString("\n")

	now := m.now()
	cellStyle := lipgloss.NewStyle().Width(3)
	todayStyle := cellStyle.Bold(true).Foreground(components.Secondary)
	selectedStyle := lipgloss.NewStyle().Reverse(true)

	grid := m.cal.MonthGrid()
	for w := 0; w < grid.Weeks(); w++ {
		for _, day := range grid[w] {
			switch {
			case day == 0:
				b.WriteString(cellStyle.Render(""))
			case m.cal.IsSelected(day):
				b.WriteString(cellStyle.Render(selectedStyle.Render(fmt.Sprintf("%2d", day))))
			case m.cal.IsToday(day, now):
				b.WriteString(todayStyle.Render(fmt.Sprintf("%2d", day)))
			default:
				b.WriteString(cellStyle.Render(fmt.Sprintf("%2d", day)))
			}
		}
		b.WriteString("\n")
	}

	return components.Box(strings.TrimRight(b.String(), "\n"), sidebarWidth-2, false)
}

// renderUpcoming lists the next few events from today
func (m *CalendarApp) renderUpcoming() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(i18n.T("calendar.upcoming")))
	b.WriteString("\n")

	now := m.now()
	upcoming := m.manager.Query(events.Filter{From: now, Limit: 5})
	if len(upcoming) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(components.Muted).Italic(true).Render(i18n.T("calendar.nothing_upcoming")))
	}
	for _, e := range upcoming {
		when := utils.FormatEventDate(e.Start, now)
		if !e.AllDay {
			when += " " + e.Start.Format(m.cfg.TimeLayout())
		}
		b.WriteString(lipgloss.NewStyle().Foreground(components.Muted).Render(when))
		b.WriteString("\n ")
		b.WriteString(utils.TruncateStr(e.Title, sidebarWidth-6))
		b.WriteString("\n")
	}

	return components.Box(strings.TrimRight(b.String(), "\n"), sidebarWidth-2, false)
}

func (m *CalendarApp) renderDayEvents(width int) string {
	var b strings.Builder

	header := i18n.T("calendar.events_for", map[string]any{
		"Date": fmt.Sprintf("%s %d, %d", i18n.Month(m.cal.Selected.Month()), m.cal.Selected.Day(), m.cal.Selected.Year()),
	})
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(components.Text).Render(header))
	b.WriteString("\n")

	dayEvents := m.dayEvents()
	if len(dayEvents) == 0 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(components.Muted).
			Italic(true).
			Render(i18n.T("calendar.no_events")))
	} else {
		for i, event := range dayEvents {
			b.WriteString(m.renderEvent(event, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	return components.Box(strings.TrimRight(b.String(), "\n"), width-2, true)
}

func (m *CalendarApp) renderEvent(event events.Event, selected bool) string {
	layout := m.cfg.TimeLayout()

	var timeStr string
	switch {
	case event.AllDay:
		timeStr = i18n.T("calendar.all_day")
	case !calendar.SameDay(event.Start, m.cal.Selected):
		timeStr = "… - " + event.End.Format(layout)
	default:
		timeStr = fmt.Sprintf("%s - %s", event.Start.Format(layout), event.End.Format(layout))
	}

	timeStyle := lipgloss.NewStyle().
		Foreground(components.Muted).
		Width(20)

	titleStyle := lipgloss.NewStyle().Foreground(components.Text)
	calStyle := lipgloss.NewStyle().Foreground(components.Secondary)

	var prefix string
	if selected {
		prefix = lipgloss.NewStyle().Foreground(components.Primary).Render("▸ ")
		titleStyle = titleStyle.Bold(true)
	} else {
		prefix = "• "
	}

	line := prefix + timeStyle.Render(timeStr) + titleStyle.Render(event.Title)
	if event.Location != "" {
		line += calStyle.Render(" @ " + event.Location)
	}
	if event.Calendar != "" {
		line += calStyle.Render(fmt.Sprintf(" [%s]", m.cfg.CalendarTitle(event.Calendar)))
	}

	return line
}

func (m *CalendarApp) renderHelpBar() string {
	row1 := components.HelpBar(
		[2]string{"←→", i18n.T("calendar.nav.day")},
		[2]string{"↑↓", i18n.T("calendar.nav.week")},
		[2]string{"H/L", i18n.T("calendar.nav.month")},
		[2]string{"tab", i18n.T("calendar.nav.event")},
		[2]string{"t", i18n.T("calendar.today")},
		[2]string{"/", i18n.T("help.search")},
	)
	row2 := components.HelpBar(
		[2]string{"e", i18n.T("calendar.menu.title")},
		[2]string{"a", i18n.T("calendar.action.new")},
		[2]string{"n", i18n.T("calendar.quick_add")},
		[2]string{"m", i18n.T("help.edit")},
		[2]string{"d", i18n.T("help.delete")},
		[2]string{":", i18n.T("palette.title")},
		[2]string{"q", i18n.T("help.quit")},
	)
	return row1 + "\n" + row2
}
