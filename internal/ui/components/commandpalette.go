package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termcal/internal/i18n"
)

// Command is one action offered by the palette
type Command struct {
	Name        string
	Description string
	Shortcut    string // key that runs it outside the palette
}

// CommandSelectedMsg is sent when a command is picked
type CommandSelectedMsg struct {
	Command string
}

// CommandPalette filters a fixed command list as the user types
type CommandPalette struct {
	input    textinput.Model
	commands []Command
	matches  []Command
	cursor   int
	width    int
}

func NewCommandPalette(commands []Command) CommandPalette {
	ti := textinput.New()
	ti.Placeholder = i18n.T("palette.placeholder")
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 50
	ti.Width = 40

	return CommandPalette{
		input:    ti,
		commands: commands,
		matches:  commands,
		width:    60,
	}
}

func (c *CommandPalette) SetWidth(width int) {
	if width > 0 {
		c.width = min(width, 60)
	}
}

// filterCommands keeps commands whose name or description contains query.
// Name prefix matches come first.
func filterCommands(commands []Command, query string) []Command {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return commands
	}

	var prefix, rest []Command
	for _, cmd := range commands {
		name := strings.ToLower(cmd.Name)
		switch {
		case strings.HasPrefix(name, query):
			prefix = append(prefix, cmd)
		case strings.Contains(name, query), strings.Contains(strings.ToLower(cmd.Description), query):
			rest = append(rest, cmd)
		}
	}
	return append(prefix, rest...)
}

func (c CommandPalette) Update(msg tea.Msg) (CommandPalette, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "ctrl+p":
			if c.cursor > 0 {
				c.cursor--
			}
			return c, nil
		case "down", "ctrl+n":
			if c.cursor < len(c.matches)-1 {
				c.cursor++
			}
			return c, nil
		case "enter":
			name := c.Selected()
			if name == "" {
				return c, nil
			}
			return c, func() tea.Msg { return CommandSelectedMsg{Command: name} }
		}
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	c.matches = filterCommands(c.commands, c.input.Value())
	if c.cursor >= len(c.matches) {
		c.cursor = max(0, len(c.matches)-1)
	}
	return c, cmd
}

// Selected returns the highlighted command name, or "" when nothing matches
func (c CommandPalette) Selected() string {
	if c.cursor < len(c.matches) {
		return c.matches[c.cursor].Name
	}
	return ""
}

func (c CommandPalette) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(i18n.T("palette.title"))
	inputLine := lipgloss.NewStyle().Foreground(Primary).Render(":") + c.input.View()

	nameStyle := lipgloss.NewStyle().Width(12)
	descStyle := lipgloss.NewStyle().Foreground(TextDim)
	shortcutStyle := lipgloss.NewStyle().Foreground(Primary).Width(6)
	selectedStyle := lipgloss.NewStyle().Background(Primary).Foreground(Text)

	var lines []string
	for i, cmd := range c.matches {
		shortcut := ""
		if cmd.Shortcut != "" {
			shortcut = "[" + cmd.Shortcut + "]"
		}
		line := shortcutStyle.Render(shortcut) + nameStyle.Render(cmd.Name) + " " + descStyle.Render(cmd.Description)
		if i == c.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	list := strings.Join(lines, "\n")
	if len(c.matches) == 0 {
		list = lipgloss.NewStyle().Foreground(TextDim).Italic(true).Render("  " + i18n.T("palette.empty"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", inputLine, "", list)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary).
		Padding(1, 2).
		Width(c.width).
		Render(content)
}
