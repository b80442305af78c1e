package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termcal/internal/ai"
	"termcal/internal/events"
	"termcal/internal/i18n"
	"termcal/internal/ui/components"
)

const (
	maxSearchResults = 50
	quickAddTimeout  = 90 * time.Second
)

type searchState struct {
	input   textinput.Model
	results []events.Event
	cursor  int
}

func (m *CalendarApp) initSearch() {
	m.search = searchState{input: newTextInput(i18n.T("search.placeholder"), 100)}
	m.search.input.Focus()
	m.err = nil
}

func (m *CalendarApp) runSearch() {
	q := strings.TrimSpace(m.search.input.Value())
	m.search.cursor = 0
	if q == "" {
		m.search.results = nil
		return
	}
	m.search.results = m.manager.Query(events.Filter{Text: q, Limit: maxSearchResults})
}

func (m *CalendarApp) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = viewCalendar
		return m, nil

	case "up", "ctrl+p":
		if m.search.cursor > 0 {
			m.search.cursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.search.cursor < len(m.search.results)-1 {
			m.search.cursor++
		}
		return m, nil

	case "enter":
		if m.search.cursor < len(m.search.results) {
			m.selectEvent(m.search.results[m.search.cursor])
			m.view = viewCalendar
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search.input, cmd = m.search.input.Update(msg)
	m.runSearch()
	return m, cmd
}

func (m *CalendarApp) renderSearch() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(components.Primary)
	mutedStyle := lipgloss.NewStyle().Foreground(components.Muted)

	b.WriteString(titleStyle.Render(i18n.T("search.title")))
	b.WriteString("\n\n")
	b.WriteString(m.search.input.View())
	b.WriteString("\n\n")

	switch {
	case strings.TrimSpace(m.search.input.Value()) == "":
		b.WriteString(mutedStyle.Italic(true).Render(i18n.T("search.hint")))
	case len(m.search.results) == 0:
		b.WriteString(mutedStyle.Italic(true).Render(i18n.T("search.no_results")))
	default:
		b.WriteString(mutedStyle.Render(i18n.T("search.count", map[string]any{"Count": len(m.search.results)})))
		b.WriteString("\n\n")
		for i, e := range m.search.results {
			b.WriteString(m.renderSearchResult(e, i == m.search.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(components.HelpBar(
		[2]string{"↑↓", i18n.T("help.navigate")},
		[2]string{"enter", i18n.T("search.jump")},
		[2]string{"esc", i18n.T("help.cancel")},
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *CalendarApp) renderSearchResult(e events.Event, cursor bool) string {
	dateStyle := lipgloss.NewStyle().Foreground(components.Muted).Width(22)
	titleStyle := lipgloss.NewStyle().Foreground(components.Text)

	prefix := "  "
	if cursor {
		prefix = lipgloss.NewStyle().Foreground(components.Primary).Render("▸ ")
		titleStyle = titleStyle.Bold(true)
	}

	when := e.Start.Format("Mon Jan 2 2006")
	if !e.AllDay {
		when += " " + e.Start.Format(m.cfg.TimeLayout())
	}
	line := prefix + dateStyle.Render(when) + titleStyle.Render(e.Title)
	if e.Location != "" {
		line += lipgloss.NewStyle().Foreground(components.Secondary).Render(" @ " + e.Location)
	}
	return line
}

// Natural-language quick add

func (m *CalendarApp) initQuickAdd() {
	m.quickInput = newTextInput(i18n.T("calendar.quick_add_placeholder"), 300)
	m.quickInput.Width = 50
	m.quickInput.Focus()
	m.err = nil
}

func (m *CalendarApp) handleQuickAddKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		m.view = viewCalendar
		return m, nil

	case "enter":
		input := strings.TrimSpace(m.quickInput.Value())
		if input == "" {
			return m, nil
		}
		if !m.ai.Available() {
			m.err = ai.ErrUnavailable
			return m, nil
		}
		m.err = nil
		m.view = viewParsing
		return m, m.parseQuickAdd(input)
	}

	var cmd tea.Cmd
	m.quickInput, cmd = m.quickInput.Update(msg)
	return m, cmd
}

func (m *CalendarApp) parseQuickAdd(input string) tea.Cmd {
	client := m.ai
	now := m.now()
	duration := m.cfg.DefaultDuration()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), quickAddTimeout)
		defer cancel()

		resp, err := client.Call(ctx, ai.ParseEventPrompt(input, now))
		if err != nil {
			return errMsg{err}
		}
		parsed, err := ai.ParseEventResponse(resp)
		if err != nil {
			return errMsg{err}
		}
		e, err := parsed.ToEvent(duration)
		if err != nil {
			return errMsg{err}
		}
		return quickAddParsedMsg{event: e}
	}
}

func (m *CalendarApp) renderQuickAdd() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(components.Primary)
	hintStyle := lipgloss.NewStyle().Foreground(components.Muted)

	b.WriteString(titleStyle.Render(i18n.T("calendar.quick_add")))
	if m.ai.Available() {
		b.WriteString(hintStyle.Render("  (" + m.ai.Provider() + ")"))
	}
	b.WriteString("\n\n")

	if m.view == viewParsing {
		b.WriteString(i18n.T("calendar.parsing_input", map[string]any{"Input": m.quickInput.Value()}))
		b.WriteString("\n\n")
		b.WriteString(components.HelpBar([2]string{"esc", i18n.T("help.cancel")}))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	b.WriteString(m.quickInput.View())
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(components.Danger).Render(fmt.Sprintf("%s: %v", i18n.T("common.error"), m.err)))
		b.WriteString("\n\n")
	}
	b.WriteString(components.HelpBar(
		[2]string{"enter", i18n.T("help.confirm")},
		[2]string{"esc", i18n.T("help.cancel")},
	))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}
