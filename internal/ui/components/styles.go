package components

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors shared by every view. ApplyTheme swaps them.
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#A78BFA")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Danger    = lipgloss.Color("#EF4444")
	Muted     = lipgloss.Color("#6B7280")
	Text      = lipgloss.Color("#F9FAFB")
	TextDim   = lipgloss.Color("#9CA3AF")
	Bg        = lipgloss.Color("#1F2937")
)

type palette struct {
	primary, secondary, success, warning, danger, muted, text, textDim, bg lipgloss.Color
}

var themes = map[string]palette{
	"default": {"#7C3AED", "#A78BFA", "#10B981", "#F59E0B", "#EF4444", "#6B7280", "#F9FAFB", "#9CA3AF", "#1F2937"},
	"light":   {"#6D28D9", "#2563EB", "#047857", "#B45309", "#B91C1C", "#6B7280", "#111827", "#4B5563", "#F3F4F6"},
	"ocean":   {"#0EA5E9", "#22D3EE", "#34D399", "#FBBF24", "#F87171", "#64748B", "#F1F5F9", "#94A3B8", "#0F172A"},
}

// Themes lists the available theme names
func Themes() []string {
	return []string{"default", "light", "ocean"}
}

// ApplyTheme switches the palette; unknown names fall back to default
func ApplyTheme(name string) {
	p, ok := themes[name]
	if !ok {
		p = themes["default"]
	}
	Primary, Secondary, Success = p.primary, p.secondary, p.success
	Warning, Danger, Muted = p.warning, p.danger, p.muted
	Text, TextDim, Bg = p.text, p.textDim, p.bg
}

// HelpBar renders "key label" pairs the way every view shows its hints
func HelpBar(pairs ...[2]string) string {
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(Secondary)
	helpStyle := lipgloss.NewStyle().Foreground(Muted)

	var out string
	for i, p := range pairs {
		if i > 0 {
			out += "  "
		}
		out += keyStyle.Render(p[0]) + " " + helpStyle.Render(p[1])
	}
	return out
}

// Box draws a rounded border around content
func Box(content string, width int, focused bool) string {
	border := Muted
	if focused {
		border = Primary
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(content)
}
