package utils

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// TruncateStr truncates a string to maxLen visual width using unicode ellipsis
func TruncateStr(s string, maxLen int) string {
	width := lipgloss.Width(s)
	if width <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return "…"
	}
	// Truncate rune by rune until we fit
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		truncated := string(runes[:i]) + "…"
		if lipgloss.Width(truncated) <= maxLen {
			return truncated
		}
	}
	return "…"
}

// FormatEventDate renders a day relative to now: "Today", "Tomorrow",
// "Mon Jan 2" within the year, "Mon Jan 2 2006" otherwise.
func FormatEventDate(t, now time.Time) string {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	day := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	today := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)

	switch day.Sub(today) {
	case 0:
		return "Today"
	case 24 * time.Hour:
		return "Tomorrow"
	case -24 * time.Hour:
		return "Yesterday"
	}
	if y1 == y2 {
		return t.Format("Mon Jan 2")
	}
	return t.Format("Mon Jan 2 2006")
}

// PadRight pads a string to targetWidth using visual width (handles double-width chars)
func PadRight(s string, targetWidth int) string {
	currentWidth := lipgloss.Width(s)
	if currentWidth >= targetWidth {
		return s
	}
	return s + strings.Repeat(" ", targetWidth-currentWidth)
}
