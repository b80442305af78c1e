package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termcal/internal/ui/components"
)

// choice is one row of an inline chooser
type choice struct {
	value string
	label string
}

var chooserKeys = struct {
	Up, Down, Pick, Cancel key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Pick:   key.NewBinding(key.WithKeys("enter")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c", "q")),
}

// chooser is a one-shot list prompt used by add and delete. Digits 1-9
// pick the matching row directly.
type chooser struct {
	title   string
	options []choice
	cursor  int
	picked  int // -1 until a row is picked
}

func newChooser(title string, options []choice) chooser {
	return chooser{title: title, options: options, picked: -1}
}

func (c chooser) Init() tea.Cmd { return nil }

func (c chooser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch {
	case key.Matches(k, chooserKeys.Up):
		c.cursor = max(0, c.cursor-1)
	case key.Matches(k, chooserKeys.Down):
		c.cursor = max(0, min(len(c.options)-1, c.cursor+1))
	case key.Matches(k, chooserKeys.Pick):
		if len(c.options) > 0 {
			c.picked = c.cursor
		}
		return c, tea.Quit
	case key.Matches(k, chooserKeys.Cancel):
		return c, tea.Quit
	default:
		if s := k.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
			if n := int(s[0] - '1'); n < len(c.options) {
				c.cursor, c.picked = n, n
				return c, tea.Quit
			}
		}
	}
	return c, nil
}

func (c chooser) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(components.Primary)
	row := lipgloss.NewStyle().PaddingLeft(2)
	current := row.Bold(true).Foreground(components.Text).Background(components.Primary)
	hint := lipgloss.NewStyle().Foreground(components.Muted)

	lines := []string{title.Render(c.title), ""}
	for i, o := range c.options {
		label := fmt.Sprintf("%d. %s", i+1, o.label)
		if i == c.cursor {
			lines = append(lines, current.Render("› "+label))
		} else {
			lines = append(lines, row.Render("  "+label))
		}
	}
	lines = append(lines, "", hint.Render("↑/↓ move • enter or 1-9 pick • esc cancel"))

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// value reports the picked option, or false when the prompt was cancelled
func (c chooser) value() (string, bool) {
	if c.picked < 0 || c.picked >= len(c.options) {
		return "", false
	}
	return c.options[c.picked].value, true
}

// choose runs a chooser on the terminal and returns the picked value
func choose(title string, options []choice) (string, bool) {
	m, err := tea.NewProgram(newChooser(title, options)).Run()
	if err != nil {
		return "", false
	}
	return m.(chooser).value()
}

// confirm asks a yes/no question with "no" preselected when safe is true
func confirm(title, yes, no string, safe bool) bool {
	options := []choice{{"yes", yes}, {"no", no}}
	if safe {
		options[0], options[1] = options[1], options[0]
	}
	v, ok := choose(title, options)
	return ok && v == "yes"
}
